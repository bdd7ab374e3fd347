package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/myao0007/shetalks/internal/config"
	"github.com/myao0007/shetalks/internal/database"
	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/logging"
	"github.com/myao0007/shetalks/internal/moderation"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(in io.Reader, out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "shetalks",
		Usage:   "SheTalks community API",
		Version: Version,
		Reader:  in,
		Writer:  out,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			classifyCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API (configured from the environment)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides PORT)"},
			&cli.BoolFlag{Name: "migrate", Usage: "Apply the schema before serving (postgres store only)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return outputError(apperrors.NewInvalidArgument(err.Error()))
			}
			if port := c.String("port"); port != "" {
				cfg.Port = port
			}
			log := logging.New(cfg.LogLevel, cfg.LogPretty)
			return runServer(c.Context, cfg, c.Bool("migrate"), log)
		},
	}
}

// migrateCmd creates the migrate command.
func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the PostgreSQL schema",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return outputError(apperrors.NewInvalidArgument(err.Error()))
			}
			log := logging.New(cfg.LogLevel, cfg.LogPretty)

			pool, err := database.NewPool(c.Context, cfg.DB, log)
			if err != nil {
				return outputError(apperrors.NewInternal(err))
			}
			defer pool.Close()

			if err := database.Migrate(c.Context, pool); err != nil {
				return outputError(apperrors.NewInternal(err))
			}
			log.Info().Str("db", cfg.DB.Name).Msg("schema applied")
			return nil
		},
	}
}

// classifyCmd creates the classify command.
func classifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify text with the keyword policy (argument or stdin)",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				data, err := io.ReadAll(c.App.Reader)
				if err != nil {
					return outputError(apperrors.NewInternal(err))
				}
				text = string(data)
			}

			decision, err := moderation.Classify(text)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, decision)
		},
	}
}

// Helper functions

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := apperrors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
