package controllers

import (
	"context"

	"github.com/lintang-b-s/Gridpathx/pkg/engine"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/http/usecases"
)

type GridService interface {
	CreateGrid(rows, cols int, seedDefault bool) (engine.GridSnapshot, error)
	GetGrid(id string) (engine.GridSnapshot, error)
	DeleteGrid(id string) error
	ApplyCellAction(id string, row, col int, action string) (engine.GridSnapshot, error)
	ScatterWalls(id string, seed uint64, density float64) (engine.GridSnapshot, error)
	ClearPath(id string) (engine.GridSnapshot, error)
	ClearGrid(id string) (engine.GridSnapshot, error)
	Search(ctx context.Context, id string) (usecases.SearchOutput, error)
	StreamSearch(ctx context.Context, id, speed string, cb routing.Callbacks) (usecases.SearchOutput, error)
}
