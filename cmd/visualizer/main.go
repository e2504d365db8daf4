package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/logger"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"go.uber.org/zap"
)

var (
	rows        = flag.Int("rows", pkg.DEFAULT_ROWS, "grid rows")
	cols        = flag.Int("cols", pkg.DEFAULT_COLS, "grid cols")
	speed       = flag.String("speed", string(pkg.SPEED_MEDIUM), "animation speed: fast, medium or slow")
	density     = flag.Float64("density", 0, "probability of a random wall on each free cell")
	seed        = flag.Uint64("seed", 1, "random wall seed")
	seedDefault = flag.Bool("seed_default", true, "place the default start, end & wall segment")
	step        = flag.Bool("step", false, "advance one event per enter key instead of a timer")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	grid, err := da.NewGrid(*rows, *cols)
	if err != nil {
		logger.Fatal("create grid", zap.Error(err))
	}
	if *seedDefault {
		grid.SeedDefault()
	}
	if *density > 0 {
		grid.ScatterWalls(da.NewRandomSource(*seed), *density)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []routing.Option{routing.WithSpeed(*speed)}
	if *step {
		pacer := routing.NewManualPacer()
		opts = append(opts, routing.WithPacer(pacer))
		go stepOnLines(ctx, os.Stdin, pacer)
	}
	dijkstra := routing.NewDijkstra(logger, opts...)

	status := pkg.STATUS_READY
	explored := 0
	redraw := func() {
		fmt.Print("\033[H\033[2J")
		fmt.Print(render(grid))
		fmt.Printf("status: %s  explored: %d\n", status, explored)
	}
	redraw()

	res, err := dijkstra.Run(ctx, grid, routing.Callbacks{
		OnExplore:  func(*da.Cell) { redraw() },
		OnPathStep: func(*da.Cell) { redraw() },
		OnStatus: func(s pkg.Status) {
			status = s
		},
		OnProgress: func(n int, _ int64) {
			explored = n
		},
	})
	redraw()
	if err != nil {
		logger.Info("search interrupted", zap.Error(err))
	}
	fmt.Printf("outcome: %s  cells explored: %d  path length: %d  time: %dms\n",
		res.Outcome, res.Explored, res.PathLength, res.ElapsedMs)
}

// stepOnLines resumes the search once per line read from r. once r is exhausted the
// remaining steps run on the speed delay.
func stepOnLines(ctx context.Context, r io.Reader, pacer *routing.ManualPacer) {
	in := bufio.NewScanner(r)
	manual := true
	timer := routing.NewTimerPacer()
	for {
		var d time.Duration
		select {
		case <-ctx.Done():
			return
		case d = <-pacer.Paused():
		}
		if manual && !in.Scan() {
			manual = false
		}
		if !manual {
			if err := timer.Pause(ctx, d); err != nil {
				return
			}
		}
		pacer.Resume()
	}
}

func render(grid *da.Grid) string {
	var sb strings.Builder
	grid.ForEachCell(func(c *da.Cell) {
		sb.WriteByte(cellGlyph(c))
		if c.GetCol() == grid.Cols()-1 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	})
	return sb.String()
}

func cellGlyph(c *da.Cell) byte {
	switch {
	case c.IsStart():
		return 'S'
	case c.IsEnd():
		return 'E'
	case c.IsWall():
		return '#'
	case c.IsOnFinalPath():
		return '*'
	case c.IsVisited():
		return 'o'
	default:
		return '.'
	}
}
