// Command ground maps one utterance to catalog item candidates and prints the
// result, using the configured Ollama and Qdrant. Both paths run unless
// -full=false is given.
//
//	ground [-full=false] [-json] [-timeout d] <utterance...>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/bootstrap"
	"github.com/kirillkom/gomi-assistant/internal/config"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
	"github.com/kirillkom/gomi-assistant/internal/core/usecase"
	"github.com/kirillkom/gomi-assistant/internal/observability/logging"
)

type options struct {
	utterance string
	full      bool
	asJSON    bool
	timeout   time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// parseArgs returns a non-zero exit code when the command line is unusable.
func parseArgs(args []string, stderr io.Writer) (options, int) {
	var opts options
	flags := flag.NewFlagSet("ground", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&opts.full, "full", true, "run both paths; -full=false lets short input take Path A only")
	flags.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: ground [-full=false] [-json] [-timeout d] <utterance...>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return opts, 2
	}
	opts.utterance = strings.TrimSpace(strings.Join(flags.Args(), " "))
	if opts.utterance == "" {
		flags.Usage()
		return opts, 2
	}
	return opts, 0
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, code := parseArgs(args, stderr)
	if code != 0 {
		return code
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	slog.SetDefault(logging.NewCLILogger(stderr, envOr("LOG_LEVEL", "warn")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	grounder := bootstrap.NewGrounder(cfg, bootstrap.Options{})
	result := grounder.Ground(ctx, opts.utterance, ports.GroundOptions{ForceFullPath: opts.full})

	if opts.asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(stderr, "encode result: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintln(stdout, usecase.FormatGroundingResult(result))
	return 0
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
