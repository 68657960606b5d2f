package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type DashboardHandler struct {
	log        *logger.Logger
	dashboards services.DashboardService
}

func NewDashboardHandler(log *logger.Logger, dashboards services.DashboardService) *DashboardHandler {
	return &DashboardHandler{log: log.With("handler", "DashboardHandler"), dashboards: dashboards}
}

type createDashboardReq struct {
	YouTubeURL string `json:"youtube_url"`
	Ticker     string `json:"ticker"`
}

type createDashboardResp struct {
	JobID             string `json:"job_id"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	TickerProvided    bool   `json:"ticker_provided"`
	AlreadyProcessing bool   `json:"already_processing"`
}

// POST /dashboard/create-dashboard
func (h *DashboardHandler) CreateDashboard(c *gin.Context) {
	var req createDashboardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	res, err := h.dashboards.CreateDashboard(dbc, req.YouTubeURL, req.Ticker)
	if err != nil {
		response.RespondAPIError(c, err, "create_dashboard_failed")
		return
	}
	msg := "Dashboard creation started"
	if res.AlreadyProcessing {
		msg = "Dashboard for this video is already being processed"
	}
	h.log.Info("Dashboard requested",
		"job_id", res.Job.ID.String(),
		"video_id", res.VideoID,
		"ticker_provided", res.TickerProvided,
		"already_processing", res.AlreadyProcessing,
	)
	response.RespondOK(c, createDashboardResp{
		JobID:             res.Job.ID.String(),
		Status:            res.Job.Status,
		Message:           msg,
		TickerProvided:    res.TickerProvided,
		AlreadyProcessing: res.AlreadyProcessing,
	})
}

type jobStatusResp struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	VideoID  string `json:"video_id,omitempty"`
	Error    string `json:"error,omitempty"`
	Result   any    `json:"result,omitempty"`
}

func jobStatusView(job *types.JobRun) jobStatusResp {
	out := jobStatusResp{
		JobID:    job.ID.String(),
		Status:   job.Status,
		Stage:    job.Stage,
		Progress: job.Progress,
		Message:  job.Message,
		VideoID:  job.VideoID,
		Error:    job.Error,
	}
	if len(job.Result) > 0 {
		out.Result = job.Result
	}
	return out
}

// GET /dashboard/job-status/:job_id
func (h *DashboardHandler) JobStatus(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.dashboards.JobStatus(dbc, c.Param("job_id"))
	if err != nil {
		response.RespondAPIError(c, err, "job_status_failed")
		return
	}
	response.RespondOK(c, jobStatusView(job))
}

// GET /dashboard/jobs?limit=50
func (h *DashboardHandler) ListJobs(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	jobs, err := h.dashboards.Jobs(dbc, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_jobs_failed")
		return
	}
	out := make([]jobStatusResp, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobStatusView(j))
	}
	response.RespondOK(c, out)
}
