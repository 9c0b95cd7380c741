// register fills in the cafe registration form from an interactive
// terminal.
//
//	go run ./cmd/register --config=config/local.yaml
//	go run ./cmd/register --mode=log --once
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/aanand-mishra/cafe-registration/internal/config"
	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/logger"
	"github.com/aanand-mishra/cafe-registration/internal/storage/sqlite"
	"github.com/aanand-mishra/cafe-registration/internal/submission"
	"github.com/aanand-mishra/cafe-registration/internal/terminal"
)

var version = "dev"

// CLI is the command line of register.
type CLI struct {
	Version     kong.VersionFlag `help:"Show version." short:"V"`
	Config      string           `help:"Path to the configuration YAML file." env:"CONFIG_PATH" type:"path"`
	Mode        string           `help:"Submission mode: store or log. Overrides the config."`
	StoragePath string           `help:"SQLite file for store mode. Overrides the config."`
	Once        bool             `help:"Stop after one successful registration."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("register"),
		kong.Description("Register for the cafe from the terminal."),
		kong.Vars{"version": version},
	)
	kctx.FatalIfErrorf(cli.Run())
}

// Run loads the config, wires the submission collaborator and runs the
// prompt flow until the user is done.
func (c *CLI) Run() error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return errors.New("register needs an interactive terminal")
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Mode != "" {
		cfg.Submission.Mode = c.Mode
	}
	if c.StoragePath != "" {
		cfg.StoragePath = c.StoragePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.Env, os.Stderr)

	var submitter form.Submitter
	switch cfg.Submission.Mode {
	case config.ModeLog:
		submitter = submission.NewLog(log)
	default:
		storage, err := sqlite.New(cfg)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		defer storage.Close()
		submitter = submission.NewStore(storage, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctrl := form.New(submitter, form.WithLogger(log))
	driver := terminal.NewSurveyDriver(os.Stdout)

	for {
		_, err := terminal.Run(ctx, ctrl, driver)
		if errors.Is(err, terminal.ErrAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		if c.Once {
			return nil
		}

		again, err := driver.Confirm(ctx, terminal.ConfirmConfig{Message: "Register someone else?"})
		if errors.Is(err, terminal.ErrAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		if !again {
			return nil
		}
	}
}
