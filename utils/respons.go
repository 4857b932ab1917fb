package utils

import (
	"github.com/dinewell/tableside/apperrors"
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError maps a service error to its HTTP status and attaches the
// machine-readable kind so clients can branch without parsing messages.
func RespondAppError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), JSONResponse{
		Status:  false,
		Message: err.Error(),
		Kind:    string(apperrors.KindOf(err)),
	})
}
