package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope. The raw error text is the message; the frontend shows it
// verbatim. The error is also attached to the gin context for the access log.
func RespondError(c *gin.Context, status int, code string, err error) {
	body := APIError{Message: "unknown error", Code: code, RequestID: c.GetString("request_id")}
	if err != nil {
		body.Message = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
