package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
)

// VerifyTwilioSignature validates the X-Twilio-Signature header of form webhooks.
// publicURL is the externally visible base URL Twilio was configured with.
func VerifyTwilioSignature(authToken, publicURL string) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)

	return func(c *gin.Context) {
		signature := c.GetHeader("X-Twilio-Signature")
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing signature"})
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid form body"})
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		url := publicURL + c.Request.URL.RequestURI()
		if !validator.Validate(url, params, signature) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		c.Next()
	}
}
