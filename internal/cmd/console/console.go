// Package console parses console command flags and starts the operator shell.
package console

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	entrypoint "github.com/louisbranch/ringledger/internal/platform/cmd"
	"github.com/louisbranch/ringledger/internal/services/console/app"
	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/shell"
)

// Config holds console command configuration.
type Config struct {
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	BoutID     string `env:"BOUT_ID"`
	// Verbose mirrors the action log to the process logger.
	Verbose bool `env:"VERBOSE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "The escrow backend base URL")
	fs.StringVar(&cfg.BoutID, "bout-id", cfg.BoutID, "The initial bout ID")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Mirror the action log to stderr")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the interactive console on stdin and stdout.
func Run(ctx context.Context, cfg Config) error {
	return RunWithIO(ctx, cfg, os.Stdin, os.Stdout)
}

// RunWithIO starts the console reading commands from in and writing to out.
func RunWithIO(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceConsole, func(ctx context.Context) error {
		client := backend.NewClient(cfg.APIBaseURL, &http.Client{})
		var logger *log.Logger
		if cfg.Verbose {
			logger = log.Default()
		}
		console := app.New(app.Config{
			Backend: client,
			BoutID:  cfg.BoutID,
			Logger:  logger,
		})
		fmt.Fprintf(out, "ringledger console: backend %s (type help)\n", client.BaseURL())
		return shell.New(console, out).Run(ctx, in)
	})
}
