package response

import (
	"net/http"

	"saaskit/pkg/errors"
	"saaskit/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// Response is the uniform envelope for JSON endpoints
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ========== Basic helpers ==========

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeSuccess,
		Message: message,
		Data:    data,
	})
}

func SuccessWithPage(c *gin.Context, data interface{}, pageInfo *pagination.PageInfo) {
	c.JSON(http.StatusOK, gin.H{
		"code":      errors.CodeSuccess,
		"message":   "success",
		"data":      data,
		"page_info": pageInfo,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData reports a failure that still carries a payload the
// client can act on.
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// AppError maps a tagged error onto the envelope, falling back to a
// generic server error for untagged ones.
func AppError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		c.JSON(http.StatusOK, Response{
			Code:    appErr.Code(),
			Message: appErr.Message,
			Data:    appErrorData(appErr),
		})
		return
	}
	ServerError(c, "An unexpected error occurred.")
}

func appErrorData(appErr *errors.AppError) interface{} {
	if appErr.Field == "" && len(appErr.Fields) == 0 {
		return nil
	}
	data := gin.H{}
	if appErr.Field != "" {
		data["field"] = appErr.Field
	}
	if len(appErr.Fields) > 0 {
		data["fields"] = appErr.Fields
	}
	return data
}

// ========== HTTP shortcut helpers ==========

func BadRequest(c *gin.Context, message string) {
	Error(c, errors.CodeInvalidParam, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, errors.CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, errors.CodeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, errors.CodeNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, errors.CodeConflict, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, errors.CodeServerError, message)
}
