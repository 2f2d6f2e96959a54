package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	shl "github.com/arnnv/shl-recommendation-system"
)

func main() {
	// The crawler flushes the dataset and state on cancellation, so an
	// interrupted crawl loses at most the in-flight page.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("shlcrawl"),
		kong.Description("Crawl the SHL product catalog into a recommendation dataset"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{
			"catalog_url": shl.DefaultCatalogURL,
			"base_url":    shl.DefaultBaseURL,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command provided")
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	switch kctx.Command() {
	case "crawl":
		return cli.Crawl.Run(deps, cli)
	case "status":
		return cli.Status.Run(deps, cli)
	case "verify":
		return cli.Verify.Run(deps, cli)
	default:
		return fmt.Errorf("unknown command %q", kctx.Command())
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Dataset string `help:"Path to the dataset JSON file" default:"shl_assessments.json"`
	State   string `help:"Path to the crawl state JSON file" default:"crawl_state.json"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Crawl  CrawlCmd  `cmd:"" help:"Crawl the product catalog, resuming from saved state"`
	Status StatusCmd `cmd:"" help:"Show crawl progress and the latest run's fetch summary"`
	Verify VerifyCmd `cmd:"" help:"Validate dataset invariants and optionally check coverage against the sitemap"`
}

// Dependencies carries the shared wiring every command needs.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}
