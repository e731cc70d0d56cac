package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response API响应结构
type Response struct {
	Success   bool        `json:"success"`
	Code      int         `json:"code"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// GinSuccess 返回成功响应
func GinSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Code:      http.StatusOK,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// GinAccepted 返回已受理响应（异步请求入队）
func GinAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Success:   true,
		Code:      http.StatusAccepted,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// GinError 返回错误响应
func GinError(c *gin.Context, statusCode int, message string, err error) {
	resp := Response{
		Success:   false,
		Code:      statusCode,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

// GinBadRequest 返回请求错误响应
func GinBadRequest(c *gin.Context, message string, err ...error) {
	var e error
	if len(err) > 0 {
		e = err[0]
	}
	GinError(c, http.StatusBadRequest, message, e)
}

// GinNotFound 返回资源不存在响应
func GinNotFound(c *gin.Context, message string, err ...error) {
	var e error
	if len(err) > 0 {
		e = err[0]
	}
	GinError(c, http.StatusNotFound, message, e)
}

// GinConflict 返回冲突响应
func GinConflict(c *gin.Context, message string, err ...error) {
	var e error
	if len(err) > 0 {
		e = err[0]
	}
	GinError(c, http.StatusConflict, message, e)
}

// GinInternalError 返回服务器错误响应
func GinInternalError(c *gin.Context, message string, err error) {
	GinError(c, http.StatusInternalServerError, message, err)
}

// GinSuccessWithMessage 返回带消息的成功响应
func GinSuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Code:      http.StatusOK,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
