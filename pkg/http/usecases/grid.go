package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lintang-b-s/Gridpathx/pkg"
	"github.com/lintang-b-s/Gridpathx/pkg/engine"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/geo"
	"github.com/lintang-b-s/Gridpathx/pkg/metrics"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"go.uber.org/zap"
)

const (
	CELL_ACTION_WALL  = "wall"
	CELL_ACTION_START = "start"
	CELL_ACTION_END   = "end"
	CELL_ACTION_CYCLE = "cycle"
)

type SessionFactory func(id string, rows, cols int) (GridSession, error)

// NewEngineSessionFactory opts apply to the paced engine of every new session.
func NewEngineSessionFactory(log *zap.Logger, opts ...routing.Option) SessionFactory {
	return func(id string, rows, cols int) (GridSession, error) {
		return engine.NewSession(id, rows, cols, log, opts...)
	}
}

// GridService registry of independent grid sessions. the oldest idle session is evicted
// once maxSessions is reached.
type GridService struct {
	log         *zap.Logger
	newSession  SessionFactory
	defaultRows int
	defaultCols int
	maxSessions int

	mu       sync.RWMutex
	sessions map[string]GridSession
	order    []string
}

func NewGridService(log *zap.Logger, newSession SessionFactory, defaultRows, defaultCols, maxSessions int) *GridService {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &GridService{
		log:         log,
		newSession:  newSession,
		defaultRows: defaultRows,
		defaultCols: defaultCols,
		maxSessions: maxSessions,
		sessions:    make(map[string]GridSession),
		order:       make([]string, 0),
	}
}

// CreateGrid rows/cols 0 fall back to the configured default size.
func (gs *GridService) CreateGrid(rows, cols int, seedDefault bool) (engine.GridSnapshot, error) {
	if rows == 0 {
		rows = gs.defaultRows
	}
	if cols == 0 {
		cols = gs.defaultCols
	}

	id := uuid.NewString()
	sess, err := gs.newSession(id, rows, cols)
	if err != nil {
		return engine.GridSnapshot{}, err
	}
	if seedDefault {
		if err := sess.SeedDefault(); err != nil {
			return engine.GridSnapshot{}, err
		}
	}

	gs.mu.Lock()
	if len(gs.sessions) >= gs.maxSessions && !gs.evictOldestIdle() {
		gs.mu.Unlock()
		return engine.GridSnapshot{}, util.WrapErrorf(nil, util.ErrConflict, "session limit %d reached", gs.maxSessions)
	}
	gs.sessions[id] = sess
	gs.order = append(gs.order, id)
	n := len(gs.sessions)
	gs.mu.Unlock()

	metrics.SetSessionsActive(n)
	gs.log.Info("grid created", zap.String("grid_id", id), zap.Int("rows", rows), zap.Int("cols", cols))
	return sess.Snapshot()
}

// evictOldestIdle caller holds gs.mu.
func (gs *GridService) evictOldestIdle() bool {
	for i, id := range gs.order {
		if gs.sessions[id].IsSearching() {
			continue
		}
		delete(gs.sessions, id)
		gs.order = append(gs.order[:i], gs.order[i+1:]...)
		gs.log.Info("grid evicted", zap.String("grid_id", id))
		return true
	}
	return false
}

func (gs *GridService) getSession(id string) (GridSession, error) {
	gs.mu.RLock()
	sess, ok := gs.sessions[id]
	gs.mu.RUnlock()
	if !ok {
		return nil, util.WrapErrorf(util.ErrNotFound, util.ErrNotFound, "grid %s not found", id)
	}
	return sess, nil
}

func (gs *GridService) GetGrid(id string) (engine.GridSnapshot, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return engine.GridSnapshot{}, err
	}
	return sess.Snapshot()
}

func (gs *GridService) DeleteGrid(id string) error {
	gs.mu.Lock()
	sess, ok := gs.sessions[id]
	if !ok {
		gs.mu.Unlock()
		return util.WrapErrorf(util.ErrNotFound, util.ErrNotFound, "grid %s not found", id)
	}
	if sess.IsSearching() {
		gs.mu.Unlock()
		return util.WrapErrorf(engine.ErrSearchInProgress, util.ErrConflict, "grid %s: search in progress", id)
	}
	delete(gs.sessions, id)
	for i, oid := range gs.order {
		if oid == id {
			gs.order = append(gs.order[:i], gs.order[i+1:]...)
			break
		}
	}
	n := len(gs.sessions)
	gs.mu.Unlock()

	metrics.SetSessionsActive(n)
	return nil
}

func (gs *GridService) NumberOfGrids() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.sessions)
}

// ApplyCellAction wall toggles, start/end assign, cycle is the secondary-button rule.
func (gs *GridService) ApplyCellAction(id string, row, col int, action string) (engine.GridSnapshot, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return engine.GridSnapshot{}, err
	}

	if action == CELL_ACTION_CYCLE {
		err = sess.CycleEndpoint(row, col)
	} else {
		role, ok := pkg.GetRole(action)
		if !ok {
			return engine.GridSnapshot{}, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown cell action %q", action)
		}
		err = sess.SetRole(row, col, role)
	}
	if err != nil {
		return engine.GridSnapshot{}, err
	}
	return sess.Snapshot()
}

func (gs *GridService) ScatterWalls(id string, seed uint64, density float64) (engine.GridSnapshot, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return engine.GridSnapshot{}, err
	}
	if _, err := sess.ScatterWalls(seed, density); err != nil {
		return engine.GridSnapshot{}, err
	}
	return sess.Snapshot()
}

func (gs *GridService) ClearPath(id string) (engine.GridSnapshot, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return engine.GridSnapshot{}, err
	}
	if err := sess.ClearPath(); err != nil {
		return engine.GridSnapshot{}, err
	}
	return sess.Snapshot()
}

func (gs *GridService) ClearGrid(id string) (engine.GridSnapshot, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return engine.GridSnapshot{}, err
	}
	if err := sess.ClearGrid(); err != nil {
		return engine.GridSnapshot{}, err
	}
	return sess.Snapshot()
}

type SearchOutput struct {
	Result   routing.SearchResult
	Status   pkg.Status
	Path     [][2]int
	Polyline string
}

func (gs *GridService) newSearchOutput(sess GridSession, res routing.SearchResult, status pkg.Status) SearchOutput {
	out := SearchOutput{Result: res, Status: status}
	if res.Found() {
		out.Path = sess.PathCoordinates(res.Path)
		out.Polyline = geo.PolylineFromCells(out.Path)
	}
	return out
}

// Search runs to completion without pacing.
func (gs *GridService) Search(ctx context.Context, id string) (SearchOutput, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return SearchOutput{}, err
	}

	var status pkg.Status
	res, err := sess.Solve(ctx, routing.Callbacks{
		OnStatus: func(s pkg.Status) { status = s },
	})
	if err != nil {
		return SearchOutput{}, util.WrapErrorf(err, util.ErrInternalServerError, "grid %s: search aborted", id)
	}
	if res.Outcome == routing.NOT_STARTED {
		return SearchOutput{}, util.WrapErrorf(engine.ErrSearchInProgress, util.ErrConflict, "grid %s: search in progress", id)
	}
	return gs.newSearchOutput(sess, res, status), nil
}

// StreamSearch paced search, events are forwarded through cb as they happen.
func (gs *GridService) StreamSearch(ctx context.Context, id, speed string, cb routing.Callbacks) (SearchOutput, error) {
	sess, err := gs.getSession(id)
	if err != nil {
		return SearchOutput{}, err
	}

	var status pkg.Status
	onStatus := cb.OnStatus
	cb.OnStatus = func(s pkg.Status) {
		status = s
		if onStatus != nil {
			onStatus(s)
		}
	}

	res, err := sess.FindPath(ctx, speed, cb)
	if res.Outcome == routing.NOT_STARTED {
		return SearchOutput{}, util.WrapErrorf(engine.ErrSearchInProgress, util.ErrConflict, "grid %s: search in progress", id)
	}
	out := gs.newSearchOutput(sess, res, status)
	if err != nil {
		return out, fmt.Errorf("grid %s: %w", id, err)
	}
	return out, nil
}
