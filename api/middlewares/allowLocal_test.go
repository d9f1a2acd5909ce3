package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOnlyAllowLocal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", OnlyAllowLocal, func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	cases := map[string]int{
		"127.0.0.1:1234":   http.StatusOK,
		"127.0.0.2:1234":   http.StatusOK,
		"[::1]:1234":       http.StatusOK,
		"192.168.1.5:1234": http.StatusForbidden,
		"[fe80::1]:1234":   http.StatusForbidden,
	}
	for remote, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, remote)
	}
}

func TestOnlyAllowLocalIgnoresForwardedHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", OnlyAllowLocal, func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.168.1.66:40000"
		req.Header.Set(header, "127.0.0.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, header)
	}
}
