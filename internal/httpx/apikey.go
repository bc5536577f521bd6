package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carostraub/InsomniaTiendita/internal/domain/auth"
)

const apiKeyHeader = "X-API-Key"

// RequireAPIKey guards admin routes. The incoming key is HMAC-SHA256 hashed
// with the pepper, looked up, and compared in constant time; the raw key is
// never stored or logged.
func RequireAPIKey(keys auth.Repository, pepper []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			return
		}

		mac := hmac.New(sha256.New, pepper)
		mac.Write([]byte(key))
		sum := mac.Sum(nil)

		info, err := keys.FindByHash(c.Request.Context(), hex.EncodeToString(sum))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(sum, stored) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("api_key_name", info.Name)
		c.Next()
	}
}
