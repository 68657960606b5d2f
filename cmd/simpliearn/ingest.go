package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simpliearn/simpliearn-backend/internal/app"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/pipeline/create_dashboard"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
)

func ingestCMD() *cobra.Command {
	var tickerFlag string
	var wait bool
	ingest := &cobra.Command{
		Use:   "ingest <youtube_url>",
		Short: "Build a dashboard for one earnings call video in-process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, log, cfg, err := bootstrap(app.RoleWorker)
			if err != nil {
				return err
			}
			defer stop()
			defer log.Sync()

			a, err := app.New(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			dbc := dbctx.Context{Ctx: ctx}
			res, err := a.Services.Dashboards.CreateDashboard(dbc, args[0], tickerFlag)
			if err != nil {
				return err
			}
			job := res.Job
			if res.AlreadyProcessing && !wait {
				return fmt.Errorf("video %s is already being processed by job %s (use --wait to follow it)", res.VideoID, job.ID)
			}
			if !res.AlreadyProcessing {
				job = a.Services.JobWorker.RunJob(dbc, job)
			}
			if !domainjobs.IsTerminal(job.Status) {
				// claimed elsewhere
				fmt.Fprintf(cmd.OutOrStdout(), "waiting for job %s\n", job.ID)
			}
			job, err = waitForJob(ctx, a.Services.Jobs, job.ID.String(), 2*time.Second)
			if err != nil {
				return err
			}
			var out create_dashboard.Result
			if err := finish(job, &out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "video_id:     %s\n", out.VideoID)
			fmt.Fprintf(w, "ticker:       %s\n", out.Ticker)
			fmt.Fprintf(w, "identifier:   %s\n", out.Identifier)
			fmt.Fprintf(w, "transcript:   %s\n", out.TranscriptFilename)
			fmt.Fprintf(w, "relevance:    %s\n", out.RelevanceFilename)
			fmt.Fprintf(w, "specificity:  %s\n", out.SpecificityFilename)
			return nil
		},
	}
	ingest.Flags().StringVarP(&tickerFlag, "ticker", "t", "", "ticker symbol (detected from the title when omitted)")
	ingest.Flags().BoolVar(&wait, "wait", false, "follow a job already running for this video instead of failing")
	return ingest
}
