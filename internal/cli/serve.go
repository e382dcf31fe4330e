package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/pipeline"
	"github.com/ppiankov/aontas/internal/server"
)

var servePort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the worksheet HTTP API",
	Long: `Serve exposes worksheet generation over HTTP:

  POST /api/generate          generate a worksheet
  POST /api/export/markdown   render a worksheet as Markdown
  POST /api/export/html       render a worksheet as printable HTML
  GET  /api/health            liveness check

Example:
  aontas serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := servePort
	if port <= 0 {
		port = cfg.Server.Port
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	zap.L().Info("starting server",
		zap.Int("port", port),
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("model_configured", p.HasProvider()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, p, zap.L()).Run(ctx, port)
}
