package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/geo"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(maxSessions int, opts ...routing.Option) *GridService {
	if len(opts) == 0 {
		opts = []routing.Option{routing.WithPacer(routing.NewNoopPacer())}
	}
	log := zap.NewNop()
	return NewGridService(log, NewEngineSessionFactory(log, opts...), pkg.DEFAULT_ROWS, pkg.DEFAULT_COLS, maxSessions)
}

func requireCode(t *testing.T, err error, code error) {
	t.Helper()
	require.Error(t, err)
	var ierr *util.Error
	require.True(t, errors.As(err, &ierr), "expected *util.Error, got %v", err)
	assert.Equal(t, code, ierr.Code())
}

func TestCreateGrid(t *testing.T) {
	testCases := []struct {
		name         string
		rows, cols   int
		seedDefault  bool
		wantRows     int
		wantCols     int
		wantEndpoint bool
	}{
		{name: "default size", wantRows: 10, wantCols: 10},
		{name: "custom size", rows: 4, cols: 6, wantRows: 4, wantCols: 6},
		{name: "seeded", seedDefault: true, wantRows: 10, wantCols: 10, wantEndpoint: true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			gs := newTestService(8)
			snap, err := gs.CreateGrid(tt.rows, tt.cols, tt.seedDefault)
			require.NoError(t, err)

			assert.NotEmpty(t, snap.ID)
			assert.Equal(t, tt.wantRows, snap.Rows)
			assert.Equal(t, tt.wantCols, snap.Cols)
			assert.Equal(t, pkg.STATUS_READY, snap.Status)
			assert.Equal(t, tt.wantEndpoint, snap.Start != nil && snap.End != nil)
			assert.Equal(t, 1, gs.NumberOfGrids())

			got, err := gs.GetGrid(snap.ID)
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}
}

func TestCreateGridInvalidSize(t *testing.T) {
	gs := newTestService(8)
	_, err := gs.CreateGrid(-1, 5, false)
	requireCode(t, err, util.ErrBadParamInput)
	assert.Zero(t, gs.NumberOfGrids())
}

func TestGridNotFound(t *testing.T) {
	gs := newTestService(8)

	_, err := gs.GetGrid("missing")
	requireCode(t, err, util.ErrNotFound)

	requireCode(t, gs.DeleteGrid("missing"), util.ErrNotFound)

	_, err = gs.ApplyCellAction("missing", 0, 0, CELL_ACTION_WALL)
	requireCode(t, err, util.ErrNotFound)

	_, err = gs.Search(context.Background(), "missing")
	requireCode(t, err, util.ErrNotFound)
}

func TestDeleteGrid(t *testing.T) {
	gs := newTestService(8)
	snap, err := gs.CreateGrid(0, 0, false)
	require.NoError(t, err)

	require.NoError(t, gs.DeleteGrid(snap.ID))
	assert.Zero(t, gs.NumberOfGrids())

	_, err = gs.GetGrid(snap.ID)
	requireCode(t, err, util.ErrNotFound)
}

func TestApplyCellAction(t *testing.T) {
	gs := newTestService(8)
	snap, err := gs.CreateGrid(3, 3, false)
	require.NoError(t, err)
	id := snap.ID

	snap, err = gs.ApplyCellAction(id, 0, 0, CELL_ACTION_START)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 0}, *snap.Start)

	snap, err = gs.ApplyCellAction(id, 2, 2, CELL_ACTION_END)
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 2}, *snap.End)

	snap, err = gs.ApplyCellAction(id, 1, 1, CELL_ACTION_WALL)
	require.NoError(t, err)
	assert.True(t, snap.Cells[4].Wall)

	snap, err = gs.ApplyCellAction(id, 1, 1, CELL_ACTION_WALL)
	require.NoError(t, err)
	assert.False(t, snap.Cells[4].Wall)

	// cycle on the start flips it to end
	snap, err = gs.ApplyCellAction(id, 0, 0, CELL_ACTION_CYCLE)
	require.NoError(t, err)
	assert.Nil(t, snap.Start)
	assert.Equal(t, [2]int{0, 0}, *snap.End)

	_, err = gs.ApplyCellAction(id, 0, 0, "teleport")
	requireCode(t, err, util.ErrBadParamInput)
}

func TestSearch(t *testing.T) {
	gs := newTestService(8)
	snap, err := gs.CreateGrid(0, 0, true)
	require.NoError(t, err)

	out, err := gs.Search(context.Background(), snap.ID)
	require.NoError(t, err)

	assert.Equal(t, routing.PATH_FOUND, out.Result.Outcome)
	assert.Equal(t, 10, out.Result.PathLength)
	assert.Equal(t, pkg.STATUS_PATH_FOUND, out.Status)
	require.Len(t, out.Path, 11)
	assert.Equal(t, [2]int{2, 2}, out.Path[0])
	assert.Equal(t, [2]int{7, 7}, out.Path[10])

	decoded, err := geo.CellsFromPolyline(out.Polyline)
	require.NoError(t, err)
	assert.Equal(t, out.Path, decoded)

	got, err := gs.GetGrid(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.STATUS_PATH_FOUND, got.Status)
	assert.Equal(t, 10, got.Stats.PathLength)

	got, err = gs.ClearPath(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.STATUS_READY, got.Status)
	assert.NotNil(t, got.Start)

	got, err = gs.ClearGrid(snap.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Start)
}

func TestSearchOutcomes(t *testing.T) {
	testCases := []struct {
		name       string
		setup      func(t *testing.T, gs *GridService, id string)
		wantResult routing.RunOutcome
		wantStatus pkg.Status
	}{
		{
			name:       "missing endpoints",
			setup:      func(t *testing.T, gs *GridService, id string) {},
			wantResult: routing.MISSING_ENDPOINTS,
			wantStatus: pkg.STATUS_MISSING_ENDPOINTS,
		},
		{
			name: "blocked",
			setup: func(t *testing.T, gs *GridService, id string) {
				for _, a := range []struct {
					row, col int
					action   string
				}{
					{0, 0, CELL_ACTION_START},
					{2, 2, CELL_ACTION_END},
					{1, 0, CELL_ACTION_WALL},
					{1, 1, CELL_ACTION_WALL},
					{1, 2, CELL_ACTION_WALL},
				} {
					_, err := gs.ApplyCellAction(id, a.row, a.col, a.action)
					require.NoError(t, err)
				}
			},
			wantResult: routing.NO_PATH,
			wantStatus: pkg.STATUS_NO_PATH,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			gs := newTestService(8)
			snap, err := gs.CreateGrid(3, 3, false)
			require.NoError(t, err)
			tt.setup(t, gs, snap.ID)

			out, err := gs.Search(context.Background(), snap.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, out.Result.Outcome)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Empty(t, out.Path)
			assert.Empty(t, out.Polyline)
		})
	}
}

func TestScatterWalls(t *testing.T) {
	gs := newTestService(8)
	a, err := gs.CreateGrid(0, 0, true)
	require.NoError(t, err)
	b, err := gs.CreateGrid(0, 0, true)
	require.NoError(t, err)

	a, err = gs.ScatterWalls(a.ID, 99, 0.4)
	require.NoError(t, err)
	b, err = gs.ScatterWalls(b.ID, 99, 0.4)
	require.NoError(t, err)
	assert.Equal(t, a.Cells, b.Cells)
}

func TestStreamSearch(t *testing.T) {
	gs := newTestService(8)
	snap, err := gs.CreateGrid(3, 3, false)
	require.NoError(t, err)
	_, err = gs.ApplyCellAction(snap.ID, 0, 0, CELL_ACTION_START)
	require.NoError(t, err)
	_, err = gs.ApplyCellAction(snap.ID, 2, 2, CELL_ACTION_END)
	require.NoError(t, err)

	var (
		explored, pathSteps int
		statuses            []pkg.Status
		finished            bool
	)
	out, err := gs.StreamSearch(context.Background(), snap.ID, "fast", routing.Callbacks{
		OnExplore:  func(*da.Cell) { explored++ },
		OnPathStep: func(*da.Cell) { pathSteps++ },
		OnStatus:   func(s pkg.Status) { statuses = append(statuses, s) },
		OnFinished: func(success bool, _, _ int, _ int64) { finished = success },
	})
	require.NoError(t, err)

	assert.Equal(t, 7, explored)
	assert.Equal(t, 3, pathSteps)
	assert.True(t, finished)
	assert.Equal(t, []pkg.Status{pkg.STATUS_SEARCHING, pkg.STATUS_PATH_FOUND}, statuses)
	assert.Equal(t, pkg.STATUS_PATH_FOUND, out.Status)
	assert.Equal(t, 4, out.Result.PathLength)
	assert.NotEmpty(t, out.Polyline)
}

type streamResult struct {
	out SearchOutput
	err error
}

func TestBusySessions(t *testing.T) {
	pacer := routing.NewManualPacer()
	gs := newTestService(1, routing.WithPacer(pacer))
	snap, err := gs.CreateGrid(0, 0, true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan streamResult, 1)
	go func() {
		out, err := gs.StreamSearch(ctx, snap.ID, "", routing.Callbacks{})
		done <- streamResult{out, err}
	}()
	<-pacer.Paused()

	_, err = gs.CreateGrid(0, 0, false)
	requireCode(t, err, util.ErrConflict)

	requireCode(t, gs.DeleteGrid(snap.ID), util.ErrConflict)

	_, err = gs.GetGrid(snap.ID)
	requireCode(t, err, util.ErrConflict)

	_, err = gs.Search(context.Background(), snap.ID)
	requireCode(t, err, util.ErrConflict)
	assert.ErrorIs(t, err, engine.ErrSearchInProgress)

	cancel()
	res := <-done
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, routing.CANCELLED, res.out.Result.Outcome)
	assert.Equal(t, pkg.STATUS_CANCELLED, res.out.Status)

	// the idle session is evicted for the new one
	created, err := gs.CreateGrid(0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, gs.NumberOfGrids())
	_, err = gs.GetGrid(snap.ID)
	requireCode(t, err, util.ErrNotFound)
	_, err = gs.GetGrid(created.ID)
	require.NoError(t, err)
}

func TestEvictOldestIdle(t *testing.T) {
	gs := newTestService(2)
	first, err := gs.CreateGrid(3, 3, false)
	require.NoError(t, err)
	second, err := gs.CreateGrid(3, 3, false)
	require.NoError(t, err)
	third, err := gs.CreateGrid(3, 3, false)
	require.NoError(t, err)

	assert.Equal(t, 2, gs.NumberOfGrids())
	_, err = gs.GetGrid(first.ID)
	requireCode(t, err, util.ErrNotFound)
	for _, id := range []string{second.ID, third.ID} {
		_, err = gs.GetGrid(id)
		assert.NoError(t, err)
	}
}

func TestSearchAborted(t *testing.T) {
	gs := newTestService(8)
	snap, err := gs.CreateGrid(0, 0, true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = gs.Search(ctx, snap.ID)
	requireCode(t, err, util.ErrInternalServerError)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := gs.GetGrid(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.STATUS_CANCELLED, got.Status)

	out, err := gs.Search(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, routing.PATH_FOUND, out.Result.Outcome)
}
