// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Indexes the docs folder at startup, then serves until SIGINT/SIGTERM
package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/server"
)

var (
	serveAddr     string
	serveDocs     string
	serveSkipDocs bool
	serveOrigins  []string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Before listening, every course document in the docs folder whose title is
not yet indexed is ingested. Endpoints:

  POST /api/query     {"query": "...", "session_id": "..."}
  GET  /api/courses   course count and titles
  GET  /healthz
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: runServe,
		Example: `  coursemate serve
  coursemate serve --addr :9000 --docs ./courses
  COURSEMATE_LOG_FORMAT=console coursemate serve --verbose`,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from COURSEMATE_HTTP_ADDR)")
	cmd.Flags().StringVar(&serveDocs, "docs", "", "Course documents folder (default from COURSEMATE_DOCS_PATH)")
	cmd.Flags().BoolVar(&serveSkipDocs, "skip-docs", false, "Do not ingest the docs folder at startup")
	cmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", []string{"*"}, "CORS allowed origins")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{needChat: true, serviceLogs: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !serveSkipDocs {
		ingestDocs(ctx, a, firstNonEmpty(serveDocs, a.cfg.DocsPath))
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.SetupRouter(a.system, server.RouterConfig{
		AllowOrigins: serveOrigins,
		Logger:       a.logger.Named("http"),
		Metrics:      a.metrics,
	})

	srv := server.New(firstNonEmpty(serveAddr, a.cfg.HTTPAddr), router, a.logger)
	return srv.Run(ctx)
}

// ingestDocs loads the startup folder; a missing folder is not fatal
func ingestDocs(ctx context.Context, a *app, dir string) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("docs folder not found, starting with the existing index", zap.String("path", dir))
		return
	}
	report, err := a.system.AddCourseFolder(ctx, dir, false)
	if err != nil {
		a.logger.Error("failed to load course documents", zap.String("path", dir), zap.Error(err))
		return
	}
	a.logger.Info("loaded course documents",
		zap.String("path", dir),
		zap.Int("courses", report.CoursesAdded),
		zap.Int("chunks", report.ChunksAdded),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failures)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
