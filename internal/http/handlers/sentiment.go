package handlers

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type SentimentHandler struct {
	sentiment services.SentimentService
}

func NewSentimentHandler(sentiment services.SentimentService) *SentimentHandler {
	return &SentimentHandler{sentiment: sentiment}
}

// GET /sentiment/transcripts
func (h *SentimentHandler) ListTranscripts(c *gin.Context) {
	files, err := h.sentiment.ListTranscripts(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_transcripts_failed")
		return
	}
	response.RespondOK(c, files)
}

// GET /sentiment/files
func (h *SentimentHandler) ListFiles(c *gin.Context) {
	files, err := h.sentiment.ListFiles(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_files_failed")
		return
	}
	response.RespondOK(c, files)
}

// GET /sentiment/files/:filename
func (h *SentimentHandler) Download(c *gin.Context) {
	name := c.Param("filename")
	rc, err := h.sentiment.OpenFile(c.Request.Context(), name)
	if err != nil {
		response.RespondAPIError(c, err, "download_failed")
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, "text/csv", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + path.Base(name) + `"`,
	})
}

// GET /sentiment/files/:filename/data
func (h *SentimentHandler) FileData(c *gin.Context) {
	data, err := h.sentiment.FileData(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.RespondAPIError(c, err, "file_data_failed")
		return
	}
	response.RespondOK(c, data)
}

// DELETE /sentiment/files/:filename
func (h *SentimentHandler) DeleteFile(c *gin.Context) {
	name := c.Param("filename")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.sentiment.DeleteFile(dbc, name); err != nil {
		response.RespondAPIError(c, err, "delete_file_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "File " + name + " deleted", "success": true})
}

// GET /sentiment/processing-jobs?limit=100
func (h *SentimentHandler) ProcessingJobs(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.sentiment.ProcessingJobs(dbc, queryLimit(c, 100))
	if err != nil {
		response.RespondAPIError(c, err, "list_processing_jobs_failed")
		return
	}
	response.RespondOK(c, rows)
}

type byVideoReq struct {
	DashboardID string `json:"dashboard_id"`
	VideoURL    string `json:"video_url"`
}

// POST /sentiment/get-by-video
func (h *SentimentHandler) ByVideo(c *gin.Context) {
	var req byVideoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.sentiment.ByVideo(dbc, services.RecordRef{ID: req.DashboardID, VideoURL: req.VideoURL})
	if err != nil {
		response.RespondAPIError(c, err, "sentiment_by_video_failed")
		return
	}
	response.RespondOK(c, out)
}

type analyzeResp struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	AnalysisType string `json:"analysis_type"`
	InputFile    string `json:"input_file"`
	OutputFile   string `json:"output_file"`
	Message      string `json:"message"`
}

// POST /analyze/:type
func (h *SentimentHandler) Analyze(c *gin.Context) {
	var req services.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.sentiment.Analyze(dbc, c.Param("type"), req)
	if err != nil {
		response.RespondAPIError(c, err, "analyze_failed")
		return
	}
	response.RespondOK(c, analyzeResp{
		JobID:        job.ID.String(),
		Status:       job.Status,
		AnalysisType: job.AnalysisType,
		InputFile:    job.InputFile,
		OutputFile:   job.OutputFile,
		Message:      job.AnalysisType + " analysis started",
	})
}

// GET /analyze/jobs/:job_id
func (h *SentimentHandler) AnalyzeStatus(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.sentiment.AnalyzeStatus(dbc, c.Param("job_id"))
	if err != nil {
		response.RespondAPIError(c, err, "job_status_failed")
		return
	}
	response.RespondOK(c, job)
}
