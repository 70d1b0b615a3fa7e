package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/server"
)

var serveAddr string

// serveCmd runs the JSON API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes text, URL, file and crawl scoring, feedback and training
submissions over HTTP, plus /healthz and Prometheus /metrics.

Example:
  truthguard serve
  truthguard serve --addr :8080 --log-format json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&profile, "profile", "", "scoring profile (high-fidelity, ratio)")
	serveCmd.Flags().BoolVar(&noStore, "no-store", false, "score without stored examples and domain ratings")
	addLLMFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if p.Store() == nil {
		fmt.Fprintf(os.Stderr, "Warning: storage disabled; feedback and training endpoints will return 503\n")
	}

	srv := server.New(p, cfg.Server, cfg.Crawl, slog.Default())
	if err := srv.Run(cmdContext(cmd)); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
