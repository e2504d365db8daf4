package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/lintang-b-s/Gridpathx/pkg"
	"github.com/lintang-b-s/Gridpathx/pkg/concurrent"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/logger"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"go.uber.org/zap"
)

var (
	numGrids   = flag.Int("n", 1000, "number of random grids")
	rows       = flag.Int("rows", 100, "grid rows")
	cols       = flag.Int("cols", 100, "grid cols")
	density    = flag.Float64("density", 0.3, "random wall density")
	numWorkers = flag.Int("workers", 8, "number of concurrent searches")
)

type benchResult struct {
	seed     uint64
	outcome  routing.RunOutcome
	explored int
	length   int
	took     time.Duration
	err      error
}

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

	workers := concurrent.NewWorkerPool[uint64, benchResult](util.MinInt(*numWorkers, *numGrids), *numGrids)
	workers.Start(func(seed uint64) benchResult {
		return solveRandomGrid(logger, seed)
	})
	for i := 0; i < *numGrids; i++ {
		workers.AddJob(uint64(i + 1))
	}
	workers.Close()
	workers.Wait()

	var (
		found, noPath    int
		totalExplored    int
		totalLength      int
		totalTook, worst time.Duration
	)
	for res := range workers.CollectResults() {
		if res.err != nil {
			logger.Error("benchmark grid", zap.Uint64("seed", res.seed), zap.Error(res.err))
			continue
		}
		switch res.outcome {
		case routing.PATH_FOUND:
			found++
			totalLength += res.length
		case routing.NO_PATH:
			noPath++
		}
		totalExplored += res.explored
		totalTook += res.took
		if res.took > worst {
			worst = res.took
		}
	}

	n := *numGrids
	if n == 0 {
		return
	}
	fmt.Printf("grids: %d (%dx%d, density %.2f)\n", n, *rows, *cols, *density)
	fmt.Printf("path found: %d  no path: %d\n", found, noPath)
	if found > 0 {
		fmt.Printf("avg path length: %.1f\n", float64(totalLength)/float64(found))
	}
	fmt.Printf("avg explored: %.1f  avg time: %s  worst: %s\n",
		float64(totalExplored)/float64(n), totalTook/time.Duration(n), worst)
}

// solveRandomGrid start top-left, end bottom-right, walls scattered from seed.
func solveRandomGrid(log *zap.Logger, seed uint64) benchResult {
	grid, err := da.NewGrid(*rows, *cols)
	if err != nil {
		return benchResult{seed: seed, err: err}
	}
	grid.SetRole(0, 0, pkg.START)
	grid.SetRole(*rows-1, *cols-1, pkg.END)
	grid.ScatterWalls(da.NewRandomSource(seed), *density)

	dijkstra := routing.NewDijkstra(log, routing.WithPacer(routing.NewNoopPacer()))
	begin := time.Now()
	res, err := dijkstra.Run(context.Background(), grid, routing.Callbacks{})
	return benchResult{
		seed:     seed,
		outcome:  res.Outcome,
		explored: res.Explored,
		length:   res.PathLength,
		took:     time.Since(begin),
		err:      err,
	}
}
