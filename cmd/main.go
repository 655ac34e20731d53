package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/internal/config"
	"github.com/okian/xpts/internal/synthetic"
	"github.com/okian/xpts/pkg/logger"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const usage = `usage: xpts <command> [flags]

commands:
  synth     write a generated season into data_dir
  fetch     download FPL API snapshots into data_dir
  features  build the labelled feature table
  train     fit one model per position category
  predict   score rows with the persisted models
  export    write the keyed predictions JSON
  run       features, train, predict and export in order

Run "xpts <command> -h" for command flags.
`

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		_, _ = io.WriteString(stderr, usage)
		return exitUsage
	}
	cmd, rest := args[0], args[1:]
	if !commands[cmd] {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default $XPTS_CONFIG)")
	round := fs.Int("round", app.FromTable, "predict: 0 scores the feature table, -1 the next round, N round N")
	fetchFirst := fs.Bool("fetch", false, "run: refresh the snapshot cache first")
	force := fs.Bool("force", false, "fetch: ignore cached documents")
	synth := synthetic.DefaultConfig()
	fs.IntVar(&synth.Teams, "teams", synth.Teams, "synth: number of teams")
	fs.IntVar(&synth.PlayersPerTeam, "players", synth.PlayersPerTeam, "synth: players per team")
	fs.IntVar(&synth.Rounds, "rounds", synth.Rounds, "synth: played rounds")
	fs.IntVar(&synth.Upcoming, "upcoming", synth.Upcoming, "synth: scheduled rounds without history")
	fs.Int64Var(&synth.Seed, "seed", synth.Seed, "synth: generator seed")
	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := logger.InitWithWriter(stdout); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitFail
	}
	log := logger.Get()

	// Load configuration (.env -> defaults -> optional file -> env)
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitFail
	}
	if *configPath == "" {
		*configPath = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.LoadFrom(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitFail
	}
	if *force {
		cfg.Fetch.Force = true
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, err := app.FromConfig(cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "failed to configure pipeline:", err)
		return exitFail
	}
	svc := app.New(opts...)

	if err := dispatch(ctx, svc, cmd, *round, *fetchFirst, synth); err != nil {
		log.Error(ctx, "command failed", logger.String("command", cmd), logger.Error(err))
		return exitFail
	}
	return exitOK
}

var commands = map[string]bool{ //nolint:gochecknoglobals // fixed command set
	"synth": true, "fetch": true, "features": true, "train": true,
	"predict": true, "export": true, "run": true,
}

func dispatch(ctx context.Context, svc *app.Service, cmd string, round int, fetchFirst bool, synth synthetic.Config) error {
	var err error
	switch cmd {
	case "synth":
		_, err = svc.Synth(ctx, synth)
	case "fetch":
		_, err = svc.Fetch(ctx)
	case "features":
		_, err = svc.Features(ctx)
	case "train":
		_, err = svc.Train(ctx)
	case "predict":
		_, err = svc.Predict(ctx, round)
	case "export":
		_, err = svc.Export(ctx)
	case "run":
		_, err = svc.Run(ctx, app.RunOptions{Fetch: fetchFirst, Round: round})
	}
	return err
}
