package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// VerifiedPhoneKey is the context key holding the phone number a request was authorised for.
const VerifiedPhoneKey = "verifiedPhone"

// TokenValidator returns the phone number carried by a verification token.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// RequireVerifiedPhone admits requests with an "Authorization: Bearer <token>" header
// issued by the phone verification flow. A nil validator disables the check.
func RequireVerifiedPhone(validator TokenValidator) gin.HandlerFunc {
	if validator == nil {
		log.Println("[middleware.RequireVerifiedPhone] JWT_SECRET not set, outbound endpoints are unprotected")
	}

	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		phone, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			log.Printf("[middleware.RequireVerifiedPhone] rejected token for %s: %v", c.FullPath(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(VerifiedPhoneKey, phone)
		c.Next()
	}
}
