package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/carostraub/InsomniaTiendita/internal/domain/client"
)

type registerRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Subscribe bool   `json:"subscribe"`
	Phone     string `json:"phone"`
}

type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subscribe bool      `json:"subscribe"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func toClientResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subscribe: c.Subscribe,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// RegisterClient creates a new customer account.
func (h *Handler) RegisterClient(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	created, err := h.clients.Register(c.Request.Context(), client.RegisterParams{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Subscribe: req.Subscribe,
		Phone:     req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, client.ErrEmailTaken):
			c.JSON(http.StatusConflict, errResp("email already registered"))
		case errors.Is(err, client.ErrMissingFields):
			c.JSON(http.StatusBadRequest, errResp(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, errResp("could not register"))
		}
		return
	}
	c.JSON(http.StatusCreated, toClientResponse(created))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns the client's profile.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	found, err := h.clients.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, client.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errResp("invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not log in"))
		return
	}
	c.JSON(http.StatusOK, toClientResponse(found))
}
