package platformerrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// GetPlatformError returns the PlatformError wrapped by err, if any.
func GetPlatformError(err error) *PlatformError {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	return nil
}

// HTTPStatus returns the status code a handler should answer with for err.
func HTTPStatus(err error) int {
	if platformErr := GetPlatformError(err); platformErr != nil {
		return ErrorTypeToHTTPStatus(platformErr.Type)
	}
	return http.StatusInternalServerError
}

// WriteFailure writes the {success:false, error} envelope used by the generate endpoints.
// Extra fields are merged into the body.
func WriteFailure(c *gin.Context, err error, log zerolog.Logger, extra gin.H) {
	status := http.StatusInternalServerError
	message := "unknown error"
	if err != nil {
		message = Message(err)
		if platformErr := GetPlatformError(err); platformErr != nil {
			LogError(log, platformErr)
			status = ErrorTypeToHTTPStatus(platformErr.Type)
		} else {
			log.Error().Err(err).Msg("request failed")
		}
	}

	body := gin.H{
		"success": false,
		"error":   message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": message})
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": message})
}
