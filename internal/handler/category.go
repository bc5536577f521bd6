package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/carostraub/InsomniaTiendita/internal/domain/category"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toCategoryResponse(cat *category.Category) categoryResponse {
	return categoryResponse{ID: cat.ID, Name: cat.Name, Description: cat.Description}
}

// ListCategories returns all categories.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errResp("could not list categories"))
		return
	}
	out := make([]categoryResponse, len(categories))
	for i := range categories {
		out[i] = toCategoryResponse(&categories[i])
	}
	c.JSON(http.StatusOK, out)
}

// CreateCategory adds a category. Admin only.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	cat, err := h.categories.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, category.ErrNameTaken) {
			c.JSON(http.StatusConflict, errResp("category name already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not create category"))
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(cat))
}

// UpdateCategory renames a category. Admin only.
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	cat, err := h.categories.Update(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			c.JSON(http.StatusNotFound, errResp("category not found"))
		case errors.Is(err, category.ErrNameTaken):
			c.JSON(http.StatusConflict, errResp("category name already exists"))
		default:
			c.JSON(http.StatusInternalServerError, errResp("could not update category"))
		}
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(cat))
}

// DeleteCategory removes a category. Admin only.
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			c.JSON(http.StatusNotFound, errResp("category not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not delete category"))
		return
	}
	c.Status(http.StatusNoContent)
}
