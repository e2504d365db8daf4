package controllers

import (
	"github.com/lintang-b-s/Gridpathx/pkg/engine"
	"github.com/lintang-b-s/Gridpathx/pkg/http/usecases"
)

type createGridRequest struct {
	Rows        int  `json:"rows" validate:"min=0,max=500"`
	Cols        int  `json:"cols" validate:"min=0,max=500"`
	SeedDefault bool `json:"seed_default"`
}

type cellActionRequest struct {
	Row    *int   `json:"row" validate:"required,min=0"`
	Col    *int   `json:"col" validate:"required,min=0"`
	Action string `json:"action" validate:"required,oneof=wall start end cycle"`
}

type randomWallsRequest struct {
	Density float64 `json:"density" validate:"min=0,max=1"`
	Seed    *uint64 `json:"seed"`
}

type cellPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func newCellPosition(p *[2]int) *cellPosition {
	if p == nil {
		return nil
	}
	return &cellPosition{Row: p[0], Col: p[1]}
}

type cellResponse struct {
	Row         int  `json:"row"`
	Col         int  `json:"col"`
	Wall        bool `json:"wall"`
	Start       bool `json:"start"`
	End         bool `json:"end"`
	Visited     bool `json:"visited"`
	OnFinalPath bool `json:"on_final_path"`
	Distance    int  `json:"distance"`
}

type statsResponse struct {
	Explored   int   `json:"cells_explored"`
	PathLength int   `json:"path_length"`
	ElapsedMs  int64 `json:"elapsed_ms"`
}

type gridResponse struct {
	ID     string         `json:"id"`
	Rows   int            `json:"rows"`
	Cols   int            `json:"cols"`
	Start  *cellPosition  `json:"start"`
	End    *cellPosition  `json:"end"`
	Status string         `json:"status"`
	Stats  statsResponse  `json:"stats"`
	Cells  []cellResponse `json:"cells"`
}

func NewGridResponse(snap engine.GridSnapshot) gridResponse {
	cells := make([]cellResponse, len(snap.Cells))
	for i, c := range snap.Cells {
		cells[i] = cellResponse{
			Row:         c.Row,
			Col:         c.Col,
			Wall:        c.Wall,
			Start:       c.Start,
			End:         c.End,
			Visited:     c.Visited,
			OnFinalPath: c.OnFinalPath,
			Distance:    c.Distance,
		}
	}
	return gridResponse{
		ID:     snap.ID,
		Rows:   snap.Rows,
		Cols:   snap.Cols,
		Start:  newCellPosition(snap.Start),
		End:    newCellPosition(snap.End),
		Status: string(snap.Status),
		Stats: statsResponse{
			Explored:   snap.Stats.Explored,
			PathLength: snap.Stats.PathLength,
			ElapsedMs:  snap.Stats.ElapsedMs,
		},
		Cells: cells,
	}
}

type searchResponse struct {
	Found      bool           `json:"found"`
	Outcome    string         `json:"outcome"`
	Status     string         `json:"status"`
	Explored   int            `json:"cells_explored"`
	PathLength int            `json:"path_length"`
	ElapsedMs  int64          `json:"elapsed_ms"`
	Path       []cellPosition `json:"path,omitempty"`
	Polyline   string         `json:"polyline,omitempty"`
}

func NewSearchResponse(out usecases.SearchOutput) searchResponse {
	path := make([]cellPosition, len(out.Path))
	for i, p := range out.Path {
		path[i] = cellPosition{Row: p[0], Col: p[1]}
	}
	return searchResponse{
		Found:      out.Result.Found(),
		Outcome:    out.Result.Outcome.String(),
		Status:     string(out.Status),
		Explored:   out.Result.Explored,
		PathLength: out.Result.PathLength,
		ElapsedMs:  out.Result.ElapsedMs,
		Path:       path,
		Polyline:   out.Polyline,
	}
}

// websocket

const (
	WS_FIND_PATH = "find_path"
	WS_CANCEL    = "cancel"

	WS_EVENT_STATUS   = "status"
	WS_EVENT_EXPLORE  = "explore"
	WS_EVENT_PATH     = "path"
	WS_EVENT_PROGRESS = "progress"
	WS_EVENT_FINISHED = "finished"
	WS_EVENT_RESULT   = "result"
)

type streamRequest struct {
	Type   string `json:"type" validate:"required,oneof=find_path cancel"`
	GridID string `json:"grid_id" validate:"required_if=Type find_path"`
	Speed  string `json:"speed"`
}

type streamEvent struct {
	Type       string          `json:"type"`
	Row        *int            `json:"row,omitempty"`
	Col        *int            `json:"col,omitempty"`
	Status     string          `json:"status,omitempty"`
	Success    *bool           `json:"success,omitempty"`
	Explored   int             `json:"cells_explored,omitempty"`
	PathLength int             `json:"path_length,omitempty"`
	ElapsedMs  int64           `json:"elapsed_ms,omitempty"`
	Result     *searchResponse `json:"result,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
