package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, rows, cols int, opts ...routing.Option) *Session {
	t.Helper()
	s, err := NewSession("test-grid", rows, cols, zap.NewNop(), opts...)
	require.NoError(t, err)
	return s
}

func errorCode(t *testing.T, err error) error {
	t.Helper()
	var ierr *util.Error
	require.True(t, errors.As(err, &ierr), "expected *util.Error, got %v", err)
	return ierr.Code()
}

func TestNewSession(t *testing.T) {
	testCases := []struct {
		name       string
		rows, cols int
		wantErr    bool
	}{
		{name: "default size", rows: 10, cols: 10},
		{name: "zero rows", rows: 0, cols: 10, wantErr: true},
		{name: "negative cols", rows: 10, cols: -3, wantErr: true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession("g", tt.rows, tt.cols, zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, da.ErrInvalidDimension)
				assert.Equal(t, util.ErrBadParamInput, errorCode(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "g", s.ID())
			assert.Equal(t, pkg.STATUS_READY, s.Status())
			assert.False(t, s.IsSearching())
			assert.False(t, s.CreatedAt().IsZero())

			snap, err := s.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, tt.rows, snap.Rows)
			assert.Equal(t, tt.cols, snap.Cols)
			assert.Len(t, snap.Cells, tt.rows*tt.cols)
			assert.Nil(t, snap.Start)
			assert.Nil(t, snap.End)
		})
	}
}

func TestSessionSolveDefaultScenario(t *testing.T) {
	s := newTestSession(t, 10, 10)
	require.NoError(t, s.SeedDefault())

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Start)
	require.NotNil(t, snap.End)
	assert.Equal(t, [2]int{2, 2}, *snap.Start)
	assert.Equal(t, [2]int{7, 7}, *snap.End)

	walls := 0
	for _, c := range snap.Cells {
		if c.Wall {
			walls++
		}
		assert.Equal(t, -1, c.Distance)
	}
	assert.Equal(t, 6, walls)

	explored := 0
	res, err := s.Solve(context.Background(), routing.Callbacks{
		OnExplore: func(*da.Cell) { explored++ },
	})
	require.NoError(t, err)
	assert.Equal(t, routing.PATH_FOUND, res.Outcome)
	assert.Equal(t, 10, res.PathLength)
	assert.Equal(t, res.Explored-2, explored)

	assert.Equal(t, pkg.STATUS_PATH_FOUND, s.Status())
	assert.Equal(t, Stats{Explored: res.Explored, PathLength: 10, ElapsedMs: res.ElapsedMs}, s.Stats())

	coords := s.PathCoordinates(res.Path)
	require.Len(t, coords, 11)
	assert.Equal(t, [2]int{2, 2}, coords[0])
	assert.Equal(t, [2]int{7, 7}, coords[10])

	snap, err = s.Snapshot()
	require.NoError(t, err)
	onPath := 0
	for _, c := range snap.Cells {
		if c.OnFinalPath {
			onPath++
		}
		if c.Start {
			assert.Equal(t, 0, c.Distance)
		}
	}
	assert.Equal(t, 9, onPath)
	assert.Equal(t, pkg.STATUS_PATH_FOUND, snap.Status)
}

func TestSessionMissingEndpoints(t *testing.T) {
	s := newTestSession(t, 5, 5)
	require.NoError(t, s.SetRole(0, 0, pkg.START))

	res, err := s.Solve(context.Background(), routing.Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, routing.MISSING_ENDPOINTS, res.Outcome)
	assert.Equal(t, pkg.STATUS_MISSING_ENDPOINTS, s.Status())
	assert.False(t, s.IsSearching())
}

func TestSessionClear(t *testing.T) {
	s := newTestSession(t, 10, 10)
	require.NoError(t, s.SeedDefault())
	_, err := s.Solve(context.Background(), routing.Callbacks{})
	require.NoError(t, err)

	require.NoError(t, s.ClearPath())
	assert.Equal(t, pkg.STATUS_READY, s.Status())
	assert.Equal(t, Stats{}, s.Stats())

	snap, err := s.Snapshot()
	require.NoError(t, err)
	walls := 0
	for _, c := range snap.Cells {
		assert.False(t, c.Visited)
		assert.False(t, c.OnFinalPath)
		assert.Equal(t, -1, c.Distance)
		if c.Wall {
			walls++
		}
	}
	assert.Equal(t, 6, walls, "clear path keeps walls")
	assert.NotNil(t, snap.Start)
	assert.NotNil(t, snap.End)

	require.NoError(t, s.ClearGrid())
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Start)
	assert.Nil(t, snap.End)
	for _, c := range snap.Cells {
		assert.False(t, c.Wall)
	}
}

func TestSessionCycleEndpoint(t *testing.T) {
	s := newTestSession(t, 3, 3)
	require.NoError(t, s.CycleEndpoint(0, 0))
	require.NoError(t, s.CycleEndpoint(2, 2))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 0}, *snap.Start)
	assert.Equal(t, [2]int{2, 2}, *snap.End)
}

func TestSessionScatterWalls(t *testing.T) {
	a := newTestSession(t, 10, 10)
	b := newTestSession(t, 10, 10)
	require.NoError(t, a.SeedDefault())
	require.NoError(t, b.SeedDefault())

	na, err := a.ScatterWalls(7, 0.25)
	require.NoError(t, err)
	nb, err := b.ScatterWalls(7, 0.25)
	require.NoError(t, err)
	assert.Equal(t, na, nb)

	sa, err := a.Snapshot()
	require.NoError(t, err)
	sb, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, sa.Cells, sb.Cells)
	assert.Equal(t, [2]int{2, 2}, *sa.Start)
}

func TestSessionRejectsMutationWhileSearching(t *testing.T) {
	pacer := routing.NewManualPacer()
	s := newTestSession(t, 10, 10, routing.WithPacer(pacer))
	require.NoError(t, s.SeedDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type runResult struct {
		res routing.SearchResult
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		res, err := s.FindPath(ctx, "fast", routing.Callbacks{})
		done <- runResult{res, err}
	}()

	<-pacer.Paused()
	assert.True(t, s.IsSearching())
	assert.Equal(t, pkg.STATUS_SEARCHING, s.Status())

	mutations := map[string]func() error{
		"set role":       func() error { return s.SetRole(0, 0, pkg.WALL) },
		"cycle endpoint": func() error { return s.CycleEndpoint(0, 0) },
		"scatter walls": func() error {
			_, err := s.ScatterWalls(1, 0.5)
			return err
		},
		"clear path": s.ClearPath,
		"clear grid": s.ClearGrid,
		"seed":       s.SeedDefault,
		"snapshot": func() error {
			_, err := s.Snapshot()
			return err
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			err := mutate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSearchInProgress)
			assert.Equal(t, util.ErrConflict, errorCode(t, err))
		})
	}

	second, err := s.Solve(context.Background(), routing.Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, routing.NOT_STARTED, second.Outcome)

	cancel()
	out := <-done
	assert.ErrorIs(t, out.err, context.Canceled)
	assert.Equal(t, routing.CANCELLED, out.res.Outcome)

	assert.False(t, s.IsSearching())
	assert.Equal(t, pkg.STATUS_CANCELLED, s.Status())
	require.NoError(t, s.SetRole(0, 0, pkg.WALL))
}
