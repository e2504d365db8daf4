package routing

import (
	"context"
	"time"

	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
)

// Pacer suspends the search between animation events. returning an error aborts the run.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration) error
}

type Router interface {
	Run(ctx context.Context, grid *da.Grid, cb Callbacks) (SearchResult, error)
	SetSpeed(speed string)
	IsRunning() bool
}
