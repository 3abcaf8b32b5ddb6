package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/masonry-io/mason/cli/config"
	"github.com/masonry-io/mason/cli/render"
	"github.com/masonry-io/mason/foreman"
	"github.com/masonry-io/mason/gen"
	"github.com/masonry-io/mason/log"
	"github.com/masonry-io/mason/metrics"
	"github.com/masonry-io/mason/sandbox"
	"github.com/masonry-io/mason/types"
	"github.com/masonry-io/mason/vault"
)

// Exit codes for `run`.
const (
	exitVerified         = 0
	exitRejected         = 1
	exitGeneratorFailure = 2
	exitInternalError    = 3
)

// RunCommand returns the run command.
// This is the only command that executes work; everything else is read-only.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Generate and verify a function from a natural-language request",
		ArgsUsage: "<request>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "model",
				Usage: "Generator model identifier",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Generator API base URL (e.g. http://localhost:11434/v1)",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Generator API key",
				EnvVars: []string{"MASON_API_KEY", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:  "python",
				Usage: "Sandbox Python interpreter",
			},
			&cli.DurationFlag{
				Name:  "sandbox-timeout",
				Usage: "Wall-clock limit per sandbox run",
			},
			&cli.Float64Flag{
				Name:  "min-coverage",
				Usage: "Coverage acceptance threshold in percent",
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Maximum validation attempts",
			},
			&cli.IntFlag{
				Name:  "stagnation-limit",
				Usage: "Consecutive non-improving attempts tolerated",
			},
			&cli.IntFlag{
				Name:  "max-generator-calls",
				Usage: "Generator call budget (0 = unlimited)",
			},
			&cli.DurationFlag{
				Name:  "max-wall-clock",
				Usage: "Total run time budget (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "max-file-changes",
				Usage: "Materialized-file budget (0 = unlimited)",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID (generated when omitted)",
			},
			&cli.StringFlag{
				Name:  "checkpoint",
				Usage: "Run checkpoint file path",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress report output",
			},
		}, ReadOnlyFlags()...),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: mason run \"<request>\"", exitInternalError)
	}
	request := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInternalError)
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}

	model := firstNonEmpty(c.String("model"), cfg.Generator.Model)
	if model == "" {
		return cli.Exit("generator model is required (--model or mason.yaml)", exitInternalError)
	}

	logger := log.NewLogger(runID)
	collector := metrics.NewCollector(model, runID)

	generator, err := gen.NewClient(gen.ClientConfig{
		APIKey:  firstNonEmpty(c.String("api-key"), cfg.Generator.APIKey),
		BaseURL: firstNonEmpty(c.String("base-url"), cfg.Generator.BaseURL),
		Model:   model,
		Metrics: collector,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitInternalError)
	}

	runner := sandbox.NewExecutor(sandbox.Config{
		Python:  firstNonEmpty(c.String("python"), cfg.Sandbox.Python),
		Timeout: firstDuration(c.Duration("sandbox-timeout"), cfg.Sandbox.Timeout.Duration),
		Metrics: collector,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildVault(ctx, c, cfg, logger, collector)
	if err != nil {
		return cli.Exit(err.Error(), exitInternalError)
	}

	f, err := foreman.New(foreman.Config{
		Generator: generator,
		Runner:    runner,
		Vault:     store,
		Budgets: foreman.Budgets{
			MaxAttempts:       firstInt(c.Int("max-attempts"), cfg.Budgets.MaxAttempts),
			StagnationLimit:   firstInt(c.Int("stagnation-limit"), cfg.Budgets.StagnationLimit),
			MaxGeneratorCalls: firstInt(c.Int("max-generator-calls"), cfg.Budgets.MaxGeneratorCalls),
			MaxWallClock:      firstDuration(c.Duration("max-wall-clock"), cfg.Budgets.MaxWallClock.Duration),
			MaxFileChanges:    firstInt(c.Int("max-file-changes"), cfg.Budgets.MaxFileChanges),
		},
		MinCoverage:    firstFloat(c.Float64("min-coverage"), cfg.MinCoverage),
		RunID:          runID,
		CheckpointPath: checkpointPath(c, cfg, runID),
		Logger:         logger,
		Metrics:        collector,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitInternalError)
	}

	report, runErr := f.Run(ctx, request)

	if !c.Bool("quiet") {
		r, rendErr := render.NewRenderer(c)
		if rendErr == nil {
			if err := r.Render(report); err != nil {
				fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
			}
		}
	}

	return cli.Exit("", exitCode(report, runErr))
}

// exitCode maps a terminal report to the run exit code contract.
func exitCode(report *types.RunReport, err error) int {
	switch {
	case err != nil || report == nil || report.StopReason == types.StopInternalError:
		return exitInternalError
	case report.Status == types.RunVerified:
		return exitVerified
	case report.StopReason == types.StopGeneratorFailed:
		return exitGeneratorFailure
	default:
		return exitRejected
	}
}

// loadConfig resolves --config or falls back to mason.yaml when present.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// buildVault assembles the store, attaching the S3 mirror when configured.
// Mirror construction failure degrades to a local-only vault.
func buildVault(ctx context.Context, c *cli.Context, cfg *config.Config, logger *log.Logger, collector *metrics.Collector) (*vault.Store, error) {
	var mirror *vault.Mirror
	if cfg.Vault.Mirror.Bucket != "" {
		m, err := vault.NewMirror(ctx, vault.MirrorConfig{
			Bucket:       cfg.Vault.Mirror.Bucket,
			Prefix:       cfg.Vault.Mirror.Prefix,
			Region:       cfg.Vault.Mirror.Region,
			Endpoint:     cfg.Vault.Mirror.Endpoint,
			UsePathStyle: cfg.Vault.Mirror.S3PathStyle,
		})
		if err != nil {
			logger.Warn("mirror unavailable, continuing local-only", map[string]any{"error": err.Error()})
		} else {
			mirror = m
		}
	}
	return vault.NewStore(vault.Config{
		Root:    firstNonEmpty(c.String("vault"), cfg.Vault.Root),
		Mirror:  mirror,
		Logger:  logger,
		Metrics: collector,
	}), nil
}

func checkpointPath(c *cli.Context, cfg *config.Config, runID string) string {
	if path := c.String("checkpoint"); path != "" {
		return path
	}
	if cfg.RunsDir != "" {
		return filepath.Join(cfg.RunsDir, runID+".checkpoint")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstFloat(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
