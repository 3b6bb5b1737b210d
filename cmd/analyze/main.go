package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"askgm/internal/domain"
	"askgm/internal/logger"
	"askgm/internal/repository"
	"askgm/internal/usecase/analysis"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	evalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "fen",
			Usage: "position to analyse",
			Value: domain.StartFEN,
		},
		&cli.IntFlag{
			Name:  "depth",
			Usage: "engine search depth",
			Value: 15,
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "path to a UCI engine binary",
			Value: "stockfish",
		},
		&cli.BoolFlag{
			Name:  "fallback-only",
			Usage: "skip the engine and ask the cloud evaluation service",
		},
		&cli.StringFlag{
			Name:  "cloud-url",
			Usage: "cloud evaluation base URL",
			Value: "https://lichess.org",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "give up after this long",
			Value: time.Minute,
		},
		&cli.StringFlag{
			Name:    "level",
			Aliases: []string{"l"},
			Usage:   "log level",
			Value:   "warn",
		},
		&cli.BoolFlag{
			Name:    "dev",
			Aliases: []string{"d"},
			Usage:   "console log encoding",
		},
	}

	return &cli.Command{
		Name:  "analyze",
		Usage: "position analysis from the command line",
		Commands: []*cli.Command{
			{
				Name:  "eval",
				Usage: "print partial and final evaluations of one position",
				Flags: evalFlags,
				Action: func(ctx context.Context, c *cli.Command) error {
					return runEval(ctx, c, out)
				},
			},
		},
	}
}

func runEval(ctx context.Context, c *cli.Command, out io.Writer) error {
	log := logger.NewWithWriter(os.Stderr, c.String("level"), c.Bool("dev"))
	defer log.Sync()

	pos, err := repository.NewChessOracle().Normalize(c.String("fen"))
	if err != nil {
		return err
	}

	var engine analysis.Engine
	if !c.Bool("fallback-only") {
		engine = repository.NewEngineSession(repository.ExecStarter(c.String("engine")), 10*time.Second, log)
	}
	fallback := repository.NewCloudEvalClient(c.String("cloud-url"), 5*time.Second, log)
	coordinator := analysis.NewCoordinator(engine, fallback, int(c.Int("depth")), log)
	defer coordinator.Close()

	settled := make(chan analysis.Update, 1)
	var once sync.Once
	coordinator.Subscribe(func(u analysis.Update) {
		switch u.State {
		case analysis.StateStreaming:
			fmt.Fprintf(out, "depth %2d  %6s  %s\n", u.Result.Depth, u.Result.Label(), joinPV(u.Result.PV))
		case analysis.StateSettled:
			once.Do(func() { settled <- u })
		}
	})

	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	coordinator.Analyze(pos)
	select {
	case u := <-settled:
		printFinal(out, u, coordinator.Mode())
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no evaluation within %s", c.Duration("timeout"))
	}
}

func printFinal(out io.Writer, u analysis.Update, mode string) {
	res := u.Result
	if res.IsEmpty() {
		fmt.Fprintln(out, "no evaluation available")
		return
	}
	best := "-"
	if res.BestMove != nil {
		best = res.BestMove.String()
	}
	fmt.Fprintf(out, "bestmove %s  eval %s  white %.0f%%  (%s)\n", best, res.Label(), res.WhitePercent(), mode)
	if res.MateIn != nil {
		fmt.Fprintf(out, "forced mate in %d\n", *res.MateIn)
	}
	if len(res.PV) > 0 {
		fmt.Fprintf(out, "pv %s\n", joinPV(res.PV))
	}
}

func joinPV(pv []domain.Move) string {
	parts := make([]string, len(pv))
	for i, mv := range pv {
		parts[i] = mv.String()
	}
	return strings.Join(parts, " ")
}
