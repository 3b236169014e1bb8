package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSignedRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook", VerifyWhatsAppSignature(secret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestVerifyWhatsAppSignature(t *testing.T) {
	const secret = "app-secret"
	body := `{"object":"whatsapp_business_account"}`

	tests := []struct {
		name      string
		signature string
		want      int
	}{
		{name: "valid", signature: "sha256=" + calculateHMAC([]byte(body), secret), want: http.StatusOK},
		{name: "wrong", signature: "sha256=" + calculateHMAC([]byte(body), "other"), want: http.StatusUnauthorized},
		{name: "missing", signature: "", want: http.StatusUnauthorized},
	}

	r := newSignedRouter(secret)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
			if tc.signature != "" {
				req.Header.Set("X-Hub-Signature-256", tc.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestVerifyWhatsAppSignatureDisabled(t *testing.T) {
	r := newSignedRouter("")
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with no secret configured", w.Code)
	}
}
