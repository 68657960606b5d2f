package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type SummaryHandler struct {
	summaries services.SummaryService
}

func NewSummaryHandler(summaries services.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// GET /summary?id=<dashboard id or video identifier>
func (h *SummaryHandler) Get(c *gin.Context) {
	h.summarize(c, services.RecordRef{ID: c.Query("id")})
}

type summaryReq struct {
	ID       string `json:"id"`
	VideoURL string `json:"video_url"`
}

// POST /summary
func (h *SummaryHandler) Post(c *gin.Context) {
	var req summaryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.summarize(c, services.RecordRef{ID: req.ID, VideoURL: req.VideoURL})
}

func (h *SummaryHandler) summarize(c *gin.Context, ref services.RecordRef) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	text, err := h.summaries.Summarize(dbc, ref)
	if err != nil {
		response.RespondAPIError(c, err, "summary_failed")
		return
	}
	response.RespondOK(c, gin.H{"summary": text})
}
