package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// IsFormPost reports whether the request body is a URL-encoded or multipart form.
func IsFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

// ByContentType runs form for form posts and other for everything else, so one path
// can serve both Twilio form webhooks and JSON webhooks with their own checks.
func ByContentType(form, other gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsFormPost(c) {
			form(c)
			return
		}
		other(c)
	}
}
