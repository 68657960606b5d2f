package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simpliearn/simpliearn-backend/internal/app"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/pipeline/analyze"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

func analyzeCMD() *cobra.Command {
	var req services.AnalyzeRequest
	var maWindow int
	cmd := &cobra.Command{
		Use:       "analyze <relevance|specificity>",
		Short:     "Score a stored transcript and write the sentiment CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"relevance", "specificity"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("ma-window") {
				req.MAWindow = &maWindow
			}
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
			job, err := a.Services.Sentiment.Analyze(dbc, args[0], req)
			if err != nil {
				return err
			}
			a.Services.JobWorker.RunJob(dbc, job)
			job, err = waitForJob(ctx, a.Services.Jobs, job.ID.String(), 2*time.Second)
			if err != nil {
				return err
			}
			var out analyze.Result
			if err := finish(job, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sentences scored with %s -> %s\n", out.AnalysisType, out.SentenceCount, out.Model, out.OutputFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.InputFile, "input-file", "", "transcript key in the transcripts bucket")
	cmd.Flags().StringVar(&req.OutputFile, "output-file", "", "CSV key in the sentiment bucket (default <input>_<type>_<timestamp>.csv)")
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", sentiment.DefaultBatchSize, fmt.Sprintf("sentences per inference call (%d..%d)", analyze.MinBatchSize, analyze.MaxBatchSize))
	cmd.Flags().IntVar(&maWindow, "ma-window", sentiment.DefaultMAWindow, fmt.Sprintf("moving average window (%d..%d)", analyze.MinMAWindow, analyze.MaxMAWindow))
	cmd.Flags().BoolVar(&req.TrackMetadata, "track-metadata", false, "record a processing_jobs row")
	_ = cmd.MarkFlagRequired("input-file")
	return cmd
}
