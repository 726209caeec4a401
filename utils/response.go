package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadResponse is the body returned by the upload endpoints on success.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	FileID  string `json:"file_id,omitempty"`
}

// ErrorBody is the body returned by the JSON endpoints on failure.
type ErrorBody struct {
	Error string `json:"error"`
}

func SuccessResponse(c *gin.Context, message, fileID string) {
	c.JSON(http.StatusOK, UploadResponse{
		Success: true,
		Message: message,
		FileID:  fileID,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{Error: message})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

func InternalServerErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

func PayloadTooLargeResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusRequestEntityTooLarge, message)
}
