package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokenkeeper/internal/app"
	"github.com/florianilch/tokenkeeper/internal/codec"
	"github.com/florianilch/tokenkeeper/internal/observability"
)

// Flag names that select inputs or behavior rather than configuration values.
const (
	flagConfig        = "config"
	flagEnvFile       = "env-file"
	flagPath          = "path"
	flagIgnoreMissing = "ignore-missing"
	flagForce         = "force"
	flagPrint         = "print"
)

var nonConfigFlags = map[string]struct{}{
	flagConfig:        {},
	"c":               {},
	flagEnvFile:       {},
	flagPath:          {},
	flagIgnoreMissing: {},
	flagForce:         {},
	flagPrint:         {},
}

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand().Run(ctx, args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "tokenkeeper",
		Usage: "Encrypted at-rest storage for a single authentication token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  flagEnvFile,
				Usage: "dotenv file loaded into the environment before reading configuration",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "otel log exporter (stdout|otlphttp|otlpgrpc)",
				Value: string(app.DefaultConfigLogExporter),
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "application data directory holding the token file",
			},
			&cli.StringFlag{
				Name:  "cipher",
				Usage: "AEAD cipher (aes-256-gcm|chacha20-poly1305)",
				Value: string(codec.DefaultAlgorithm),
			},
			&cli.StringFlag{
				Name:  "key--source",
				Usage: "encryption key source (env|keyring|file)",
				Value: string(app.DefaultConfigKeySource),
			},
			&cli.StringFlag{
				Name:  "key--env-key",
				Usage: "environment variable holding the hex-encoded key",
				Value: app.DefaultConfigKeyEnvKey,
			},
			&cli.StringFlag{
				Name:  "key--file",
				Usage: "key file path (defaults to <data-dir>/key)",
			},
			&cli.StringFlag{
				Name:  "key--keyring-service",
				Usage: "keyring service name",
				Value: app.DefaultConfigKeyringService,
			},
			&cli.StringFlag{
				Name:  "key--keyring-user",
				Usage: "keyring user (defaults to the current OS user)",
			},
		},
		Before: loadEnvFile,
		Commands: []*cli.Command{
			tokenCommand(),
			keyCommand(),
		},
	}
}

// loadEnvFile loads the --env-file into the process environment. Variables that
// are already set keep their values.
func loadEnvFile(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String(flagEnvFile)
	if path == "" {
		return ctx, nil
	}
	if err := godotenv.Load(path); err != nil {
		return ctx, fmt.Errorf("loading env file: %w", err)
	}
	return ctx, nil
}

// setup loads configuration and installs logging. The returned shutdown
// function flushes logs and must be called before returning.
func setup(ctx context.Context, cmd *cli.Command) (*app.Config, observability.ShutdownFunc, error) {
	cfg, err := loadConfig(configSources{
		file:    cmd.String(flagConfig),
		environ: os.Environ,
		cmd:     cmd,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat), string(cfg.LogExporter))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}
	// Correlates the records of one invocation in shared log sinks
	slog.SetDefault(slog.Default().With("invocation_id", uuid.NewString()))

	return cfg, shutdown, nil
}

// withApp runs fn with a fully initialized App.
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *app.App) error) (err error) {
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := shutdown(context.Background()); shutdownErr != nil && err == nil {
			err = fmt.Errorf("flushing logs: %w", shutdownErr)
		}
	}()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return fn(ctx, application)
}
