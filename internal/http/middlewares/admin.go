package middlewares

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/compound-engine/internal/common"
	"github.com/hxuan190/compound-engine/internal/http/httputil"
)

const CallerKey = "caller"

// AdminAuth guards the admin routes with a shared key and records the caller the request acts as.
// An empty key disables the admin routes.
func AdminAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			httputil.Fail(c, common.HTTPErrorForbidden("admin routes are disabled"))
			return
		}
		got := c.GetHeader(common.AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			httputil.Fail(c, common.HTTPErrorUnauthorized("invalid admin key"))
			return
		}
		caller := c.GetHeader(common.CallerHeader)
		if caller == "" {
			httputil.BadRequest(c, "missing "+common.CallerHeader+" header")
			return
		}
		c.Set(CallerKey, caller)
		c.Next()
	}
}

func Caller(c *gin.Context) string {
	return c.GetString(CallerKey)
}
