package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/metrics"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"go.uber.org/zap"
)

var ErrSearchInProgress = errors.New("search in progress")

type Stats struct {
	Explored   int
	PathLength int
	ElapsedMs  int64
}

// Session one grid with its own search engine, status & stats. grid mutations are
// rejected while a search is running on it.
type Session struct {
	id        string
	createdAt time.Time
	log       *zap.Logger

	mu        sync.Mutex
	grid      *da.Grid
	router    routing.Router // paced, for animated runs
	solver    routing.Router // never pauses
	searching bool
	status    pkg.Status
	stats     Stats
}

func NewSession(id string, rows, cols int, log *zap.Logger, opts ...routing.Option) (*Session, error) {
	grid, err := da.NewGrid(rows, cols)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid grid size %dx%d", rows, cols)
	}
	log = log.With(zap.String("grid_id", id))
	return &Session{
		id:        id,
		createdAt: time.Now(),
		log:       log,
		grid:      grid,
		router:    routing.NewDijkstra(log, opts...),
		solver:    routing.NewDijkstra(log, routing.WithPacer(routing.NewNoopPacer())),
		status:    pkg.STATUS_READY,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) Status() pkg.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Session) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

func (s *Session) SetSpeed(speed string) {
	s.router.SetSpeed(speed)
}

// mutate runs fn on the grid unless a search currently owns it.
func (s *Session) mutate(fn func(g *da.Grid)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searching {
		return util.WrapErrorf(ErrSearchInProgress, util.ErrConflict, "grid %s: search in progress", s.id)
	}
	fn(s.grid)
	return nil
}

func (s *Session) SetRole(row, col int, role pkg.Role) error {
	return s.mutate(func(g *da.Grid) {
		g.SetRole(row, col, role)
	})
}

// CycleEndpoint secondary-button handling, see da.Grid.CycleEndpoint.
func (s *Session) CycleEndpoint(row, col int) error {
	return s.mutate(func(g *da.Grid) {
		g.CycleEndpoint(row, col)
	})
}

func (s *Session) ScatterWalls(seed uint64, density float64) (int, error) {
	placed := 0
	err := s.mutate(func(g *da.Grid) {
		placed = g.ScatterWalls(da.NewRandomSource(seed), density)
	})
	return placed, err
}

// ClearPath drops the last search result, walls & endpoints stay.
func (s *Session) ClearPath() error {
	return s.mutate(func(g *da.Grid) {
		g.ResetSearchState()
		s.stats = Stats{}
		s.status = pkg.STATUS_READY
	})
}

// ClearGrid back to an empty grid without endpoints.
func (s *Session) ClearGrid() error {
	return s.mutate(func(g *da.Grid) {
		g.ResetAll()
		s.stats = Stats{}
		s.status = pkg.STATUS_READY
	})
}

// SeedDefault startup scenario of the visualizer, see Grid.SeedDefault.
func (s *Session) SeedDefault() error {
	return s.mutate(func(g *da.Grid) {
		g.SeedDefault()
	})
}

// FindPath runs the paced search on this session's grid. speed "" keeps the current speed.
// a request while a search is running returns NOT_STARTED.
func (s *Session) FindPath(ctx context.Context, speed string, cb routing.Callbacks) (routing.SearchResult, error) {
	if speed != "" {
		s.router.SetSpeed(speed)
	}
	return s.run(ctx, s.router, cb)
}

// Solve same search as FindPath without any pacing.
func (s *Session) Solve(ctx context.Context, cb routing.Callbacks) (routing.SearchResult, error) {
	return s.run(ctx, s.solver, cb)
}

func (s *Session) run(ctx context.Context, router routing.Router, cb routing.Callbacks) (routing.SearchResult, error) {
	s.mu.Lock()
	if s.searching {
		s.mu.Unlock()
		return routing.SearchResult{Outcome: routing.NOT_STARTED}, nil
	}
	s.searching = true
	s.mu.Unlock()

	onStatus, onProgress, onFinished := cb.OnStatus, cb.OnProgress, cb.OnFinished
	cb.OnStatus = func(status pkg.Status) {
		s.mu.Lock()
		s.status = status
		s.mu.Unlock()
		if onStatus != nil {
			onStatus(status)
		}
	}
	cb.OnProgress = func(explored int, elapsedMs int64) {
		s.mu.Lock()
		s.stats = Stats{Explored: explored, ElapsedMs: elapsedMs}
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(explored, elapsedMs)
		}
	}
	cb.OnFinished = func(success bool, explored, pathLength int, elapsedMs int64) {
		s.mu.Lock()
		s.stats = Stats{Explored: explored, PathLength: pathLength, ElapsedMs: elapsedMs}
		s.mu.Unlock()
		if onFinished != nil {
			onFinished(success, explored, pathLength, elapsedMs)
		}
	}

	res, err := router.Run(ctx, s.grid, cb)

	s.mu.Lock()
	s.searching = false
	s.mu.Unlock()

	metrics.ObserveSearch(res.Outcome.String(), res.Started(), res.Explored, res.PathLength, res.ElapsedMs)
	s.log.Debug("search done", zap.String("outcome", res.Outcome.String()), zap.Error(err))
	return res, err
}

type CellSnapshot struct {
	Row, Col    int
	Wall        bool
	Start, End  bool
	Visited     bool
	OnFinalPath bool
	// -1 when unreachable / not yet reached
	Distance int
}

type GridSnapshot struct {
	ID         string
	Rows, Cols int
	Cells      []CellSnapshot
	Start, End *[2]int
	Status     pkg.Status
	Stats      Stats
}

// Snapshot copy of the grid for rendering. not available while a search owns the grid.
func (s *Session) Snapshot() (GridSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searching {
		return GridSnapshot{}, util.WrapErrorf(ErrSearchInProgress, util.ErrConflict, "grid %s: search in progress", s.id)
	}

	snap := GridSnapshot{
		ID:     s.id,
		Rows:   s.grid.Rows(),
		Cols:   s.grid.Cols(),
		Cells:  make([]CellSnapshot, 0, s.grid.NumberOfCells()),
		Status: s.status,
		Stats:  s.stats,
	}
	s.grid.ForEachCell(func(c *da.Cell) {
		dist := c.GetDistance()
		if c.DistanceIsInf() {
			dist = -1
		}
		snap.Cells = append(snap.Cells, CellSnapshot{
			Row: c.GetRow(), Col: c.GetCol(),
			Wall: c.IsWall(), Start: c.IsStart(), End: c.IsEnd(),
			Visited: c.IsVisited(), OnFinalPath: c.IsOnFinalPath(),
			Distance: dist,
		})
	})
	if c := s.grid.GetStartCell(); c != nil {
		snap.Start = &[2]int{c.GetRow(), c.GetCol()}
	}
	if c := s.grid.GetEndCell(); c != nil {
		snap.End = &[2]int{c.GetRow(), c.GetCol()}
	}
	return snap, nil
}

// PathCoordinates maps row-major cell ids of a search result back to (row, col).
func (s *Session) PathCoordinates(path []da.Index) [][2]int {
	cols := s.grid.Cols()
	coords := make([][2]int, len(path))
	for i, id := range path {
		coords[i] = [2]int{int(id) / cols, int(id) % cols}
	}
	return coords
}
