package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/erinpentecost/meshbake/internal/config"
	"github.com/erinpentecost/meshbake/internal/logger"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"go.uber.org/zap"
)

type rootCmd struct{}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "meshbake",
		Usage: "[subcommand] [flags]",
		Desc:  "Bake surface maps from a detail mesh onto the UV layout of a target mesh.",
	}
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(1)
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&bakeCmd{},
		&occupancyCmd{},
	}
}

// setup loads the layered configuration and starts logging.
func setup(fl *pflag.FlagSet) *config.Config {
	cfg, err := config.LoadWithFlags(fl)
	if err != nil {
		logger.Init("info", "")
		fail("load config", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail("init logger", err)
	}
	return cfg
}

func fail(what string, err error) {
	logger.Error("FAILED: "+what, zap.Error(err))
	logger.Sync()
	os.Exit(33)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func main() {
	cli.RunRoot(&rootCmd{})
}
