package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type LibraryHandler struct {
	library services.LibraryService
}

func NewLibraryHandler(library services.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// GET /library
func (h *LibraryHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	videos, err := h.library.List(dbc)
	if err != nil {
		response.RespondAPIError(c, err, "list_library_failed")
		return
	}
	response.RespondOK(c, gin.H{"videos": videos})
}

// DELETE /library/:video_identifier
func (h *LibraryHandler) Delete(c *gin.Context) {
	id := c.Param("video_identifier")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.library.Delete(dbc, id); err != nil {
		response.RespondAPIError(c, err, "delete_video_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Video " + id + " deleted", "success": true})
}
