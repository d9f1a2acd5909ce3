package middlewares

import (
	"net/http"
	"net/netip"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/tvremote-go/tool"
)

// OnlyAllowLocal rejects requests whose peer is not a loopback address.
// Forwarding headers are ignored.
func OnlyAllowLocal(c *gin.Context) {
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err == nil && addr.Unmap().IsLoopback() {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, tool.FastReturnError("Forbidden"))
}
