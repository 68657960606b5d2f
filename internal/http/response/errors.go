package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
)

// RespondAPIError maps service errors onto the error envelope. Errors without an apierr status
// become 500 with fallbackCode.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.As(err, fallbackCode)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, fallbackCode, err)
		return
	}
	code := ae.Code
	if code == "" {
		code = fallbackCode
	}
	RespondError(c, ae.Status, code, err)
}
