package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/Gridpathx/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type gridAPI struct {
	gridService GridService
	validate    *requestValidator
	log         *zap.Logger
}

func New(gridService GridService, log *zap.Logger) *gridAPI {
	return &gridAPI{
		gridService: gridService,
		validate:    newRequestValidator(),
		log:         log,
	}
}

func (api *gridAPI) Routes(group *helper.RouteGroup) {
	group.POST("/grids", api.createGrid)
	group.GET("/grids/:id", api.getGrid)
	group.DELETE("/grids/:id", api.deleteGrid)
	group.POST("/grids/:id/cells", api.cellAction)
	group.POST("/grids/:id/walls/random", api.randomWalls)
	group.POST("/grids/:id/clear-path", api.clearPath)
	group.POST("/grids/:id/clear", api.clearGrid)
	group.POST("/grids/:id/search", api.search)
}

// decodeBody empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (api *gridAPI) createGrid(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request createGridRequest
	if err := decodeBody(r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(api.validate, request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	snap, err := api.gridService.CreateGrid(request.Rows, request.Cols, request.SeedDefault)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"data": NewGridResponse(snap)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) getGrid(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap, err := api.gridService.GetGrid(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"data": NewGridResponse(snap)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) deleteGrid(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := api.gridService.DeleteGrid(p.ByName("id")); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"message": "grid deleted"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) cellAction(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request cellActionRequest
	if err := decodeBody(r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(api.validate, request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	snap, err := api.gridService.ApplyCellAction(p.ByName("id"), *request.Row, *request.Col, request.Action)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"data": NewGridResponse(snap)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) randomWalls(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request randomWallsRequest
	if err := decodeBody(r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(api.validate, request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	seed := uint64(time.Now().UnixNano())
	if request.Seed != nil {
		seed = *request.Seed
	}

	snap, err := api.gridService.ScatterWalls(p.ByName("id"), seed, request.Density)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"data": NewGridResponse(snap)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) clearPath(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap, err := api.gridService.ClearPath(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"data": NewGridResponse(snap)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) clearGrid(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap, err := api.gridService.ClearGrid(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"data": NewGridResponse(snap)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *gridAPI) search(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	out, err := api.gridService.Search(r.Context(), p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"data": NewSearchResponse(out)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
