// SPDX-License-Identifier: EPL-2.0

// Command audresynth re-synthesizes audio files offline and manages
// corpus snapshots.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/ik5/audresynth/config"
	"github.com/ik5/audresynth/internal/logging"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	LogLevel string `help:"Log level: debug, info, warn or error (overrides AUDRESYNTH_LOG_LEVEL)." placeholder:"LEVEL"`

	Render  renderCmd  `cmd:"" help:"Re-synthesize an audio file against a corpus."`
	Corpus  corpusCmd  `cmd:"" help:"Build and inspect corpus snapshots."`
	Version versionCmd `cmd:"" help:"Show version information."`
	Env     envCmd     `cmd:"" help:"Print the configuration read from AUDRESYNTH_* variables."`
}

// session is bound into every command's Run method.
type session struct {
	ctx context.Context
	cfg config.Config
	log *log.Logger
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("audresynth"),
		kong.Description("Real-time audio re-synthesis from a sample corpus"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)

	cfg, err := config.FromEnv()
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, "audresynth")
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := &session{ctx: ctx, cfg: cfg, log: logger}
	if err := kctx.Run(rt); err != nil {
		printError(err.Error())
		stop()
		os.Exit(1)
	}
}

type versionCmd struct{}

func (versionCmd) Run() error {
	printVersion(version)
	return nil
}

type envCmd struct{}

func (envCmd) Run(rt *session) error {
	printConfig(os.Stdout, rt.cfg)
	return nil
}
