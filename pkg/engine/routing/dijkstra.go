package routing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"go.uber.org/zap"
)

// Dijkstra uniform-cost single source shortest path over a grid. every step costs 1, so this
// settles cells in breadth-first order. at most one run per instance at a time.
type Dijkstra struct {
	log   *zap.Logger
	pacer Pacer
	now   func() time.Time

	running atomic.Bool
	delay   atomic.Int64 // explore delay in ns
}

type Option func(*Dijkstra)

func WithPacer(p Pacer) Option {
	return func(d *Dijkstra) {
		if p != nil {
			d.pacer = p
		}
	}
}

func WithSpeed(speed string) Option {
	return func(d *Dijkstra) {
		d.SetSpeed(speed)
	}
}

func NewDijkstra(log *zap.Logger, opts ...Option) *Dijkstra {
	d := &Dijkstra{
		log:   log,
		pacer: NewTimerPacer(),
		now:   time.Now,
	}
	d.delay.Store(int64(pkg.GetSpeedDelay(string(pkg.SPEED_MEDIUM))))
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetSpeed fast=10ms, medium=50ms, slow=150ms per explored cell. unknown preset -> medium.
func (d *Dijkstra) SetSpeed(speed string) {
	d.delay.Store(int64(pkg.GetSpeedDelay(speed)))
}

func (d *Dijkstra) GetExploreDelay() time.Duration {
	return time.Duration(d.delay.Load())
}

func (d *Dijkstra) GetPathDelay() time.Duration {
	return pkg.PATH_DELAY_FACTOR * d.GetExploreDelay()
}

func (d *Dijkstra) IsRunning() bool {
	return d.running.Load()
}

// Run searches grid from its start cell to its end cell, streaming events through cb.
// a second Run while one is active returns NOT_STARTED without touching the grid.
// the returned error is non-nil only when ctx ends the run.
func (d *Dijkstra) Run(ctx context.Context, grid *da.Grid, cb Callbacks) (SearchResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return SearchResult{Outcome: NOT_STARTED}, nil
	}
	defer d.running.Store(false)

	cb = cb.withDefaults()

	if !grid.HasEndpoints() {
		cb.OnStatus(pkg.STATUS_MISSING_ENDPOINTS)
		return SearchResult{Outcome: MISSING_ENDPOINTS}, nil
	}

	run := newSearchRun(grid, d.now())
	exploreDelay, pathDelay := d.GetExploreDelay(), d.GetPathDelay()

	d.log.Debug("dijkstra search started", zap.Int("rows", grid.Rows()), zap.Int("cols", grid.Cols()),
		zap.Duration("explore_delay", exploreDelay))
	cb.OnStatus(pkg.STATUS_SEARCHING)

	start, end := grid.GetStartCell(), grid.GetEndCell()

	found := false
	for {
		top, err := run.pq.GetMin()
		if err != nil || top.GetRank() == pkg.INF_DISTANCE {
			// frontier empty or the rest is unreachable
			break
		}

		uNode, _ := run.pq.ExtractMin()
		u := grid.GetCell(uNode.GetItem())
		u.SetVisited()
		run.explored++

		if u == end {
			found = true
			break
		}

		if u != start {
			cb.OnExplore(u)
			if err := d.pacer.Pause(ctx, exploreDelay); err != nil {
				return d.cancel(run, cb, err)
			}
		}

		grid.ForNeighborsOf(u, func(v *da.Cell) {
			vNode := run.frontier[v.GetID()]
			if vNode == nil || !vNode.InQueue() {
				return
			}

			tentative := u.GetDistance() + pkg.UNIT_EDGE_WEIGHT
			if tentative < v.GetDistance() {
				v.SetDistance(tentative)
				v.SetPredecessor(u.GetID())
				err := run.pq.DecreaseKey(vNode, tentative)
				util.AssertPanic(err == nil, "frontier decrease-key on a stale node")
			}
		})

		cb.OnProgress(run.explored, run.elapsedMs(d.now()))
	}

	if !found {
		elapsed := run.elapsedMs(d.now())
		cb.OnFinished(false, run.explored, 0, elapsed)
		cb.OnStatus(pkg.STATUS_NO_PATH)
		d.log.Info("dijkstra search finished, no path", zap.Int("explored", run.explored),
			zap.Int64("elapsed_ms", elapsed))
		return SearchResult{Outcome: NO_PATH, Explored: run.explored, ElapsedMs: elapsed}, nil
	}

	path := reconstructPath(grid, end)
	for _, id := range path {
		c := grid.GetCell(id)
		if c == start || c == end {
			continue
		}
		c.SetOnFinalPath()
		cb.OnPathStep(c)
		if err := d.pacer.Pause(ctx, pathDelay); err != nil {
			return d.cancel(run, cb, err)
		}
	}

	pathLength := len(path) - 1
	elapsed := run.elapsedMs(d.now())
	cb.OnFinished(true, run.explored, pathLength, elapsed)
	cb.OnStatus(pkg.STATUS_PATH_FOUND)
	d.log.Info("dijkstra search finished, path found", zap.Int("explored", run.explored),
		zap.Int("path_length", pathLength), zap.Int64("elapsed_ms", elapsed))

	return SearchResult{
		Outcome:    PATH_FOUND,
		Explored:   run.explored,
		PathLength: pathLength,
		ElapsedMs:  elapsed,
		Path:       path,
	}, nil
}

func (d *Dijkstra) cancel(run *searchRun, cb Callbacks, err error) (SearchResult, error) {
	elapsed := run.elapsedMs(d.now())
	cb.OnFinished(false, run.explored, 0, elapsed)
	cb.OnStatus(pkg.STATUS_CANCELLED)
	d.log.Info("dijkstra search cancelled", zap.Int("explored", run.explored), zap.Error(err))
	return SearchResult{Outcome: CANCELLED, Explored: run.explored, ElapsedMs: elapsed}, err
}

// searchRun state of one Run call, dropped when it returns.
type searchRun struct {
	pq       *da.MinHeap[da.Index]
	frontier []*da.PriorityQueueNode[da.Index]
	explored int
	started  time.Time
}

// newSearchRun resets the grid search state and fills the frontier with every non-wall cell in
// row-major order: start at distance 0, the rest at infinity.
func newSearchRun(grid *da.Grid, now time.Time) *searchRun {
	grid.ResetSearchState()
	grid.GetStartCell().SetDistance(0)

	run := &searchRun{
		pq:       da.NewFourAryHeap[da.Index](),
		frontier: make([]*da.PriorityQueueNode[da.Index], grid.NumberOfCells()),
		started:  now,
	}
	run.pq.Preallocate(grid.NumberOfCells())

	grid.ForEachCell(func(c *da.Cell) {
		if c.IsWall() {
			return
		}
		node := da.NewPriorityQueueNode(c.GetDistance(), c.GetID())
		run.frontier[c.GetID()] = node
		run.pq.Insert(node)
	})
	return run
}

func (r *searchRun) elapsedMs(now time.Time) int64 {
	return now.Sub(r.started).Milliseconds()
}

// reconstructPath follows predecessor links from end back to the start, returns start..end.
func reconstructPath(grid *da.Grid, end *da.Cell) []da.Index {
	path := []da.Index{end.GetID()}
	cur := end
	for cur.HasPredecessor() {
		cur = grid.GetCell(cur.GetPredecessor())
		path = append(path, cur.GetID())
	}
	return util.ReverseG(path)
}
