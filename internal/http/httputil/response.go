package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/compound-engine/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

// Fail writes e and aborts the handler chain.
func Fail(c *gin.Context, e *common.HttpError) {
	c.AbortWithStatusJSON(e.StatusCode, Response{
		Success: false,
		Code:    e.Code,
		Error:   e.Message,
	})
}

func BadRequest(c *gin.Context, err string) {
	Fail(c, common.HTTPErrorBadRequest(err))
}

func NotFound(c *gin.Context, err string) {
	Fail(c, common.HTTPErrorNotFound(err))
}

func InternalError(c *gin.Context, err string) {
	Fail(c, common.HTTPErrorInternalError(err))
}
