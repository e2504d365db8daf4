package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
	"github.com/lintang-b-s/Gridpathx/pkg/util"
	"go.uber.org/zap"
)

// User one websocket connection. it can stream at most one search at a time.
type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopping bool
	done     chan struct{}
	run      uint64
}

func (u *User) readRequest() (*streamRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &streamRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// HandleRequest reads one client frame. find_path starts a streamed search in the
// background, cancel aborts the running one.
func (u *User) HandleRequest() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	if err := validateStruct(u.hub.validate, req); err != nil {
		return u.write(envelope{"error": newErrorResponse(http.StatusBadRequest, err.Error()).Error})
	}

	switch req.Type {
	case WS_CANCEL:
		u.cancelSearch()
		return nil
	case WS_FIND_PATH:
		if util.StopConcurrentOperation(u.hub.ctx) {
			return u.write(envelope{"error": newErrorResponse(http.StatusServiceUnavailable, "server is shutting down").Error})
		}
		return u.startSearch(req.GridID, req.Speed)
	}
	return nil
}

// startSearch a cancelled search still holds the grid until its goroutine returns, a new
// find_path waits for that instead of failing with a conflict.
func (u *User) startSearch(gridID, speed string) error {
	u.mu.Lock()
	for u.cancel != nil {
		if !u.stopping {
			u.mu.Unlock()
			return u.write(envelope{"error": newErrorResponse(http.StatusConflict, "a search is already streaming on this connection").Error})
		}
		done := u.done
		u.mu.Unlock()
		<-done
		u.mu.Lock()
	}
	ctx, cancel := context.WithCancel(u.hub.ctx)
	u.cancel = cancel
	u.done = make(chan struct{})
	u.run++
	run, done := u.run, u.done
	u.mu.Unlock()

	go func() {
		defer u.finishSearch(run, done)
		err := u.streamSearch(ctx, gridID, speed)
		if err != nil && !errors.Is(err, context.Canceled) {
			u.hub.log.Error("stream search", zap.Uint("user", u.id), zap.String("grid_id", gridID), zap.Error(err))
		}
	}()
	return nil
}

// cancelSearch the slot stays taken until finishSearch.
func (u *User) cancelSearch() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		u.cancel()
		u.stopping = true
	}
}

// finishSearch releases the slot of search run unless a newer one already took it.
func (u *User) finishSearch(run uint64, done chan struct{}) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.run == run && u.cancel != nil {
		u.cancel()
		u.cancel = nil
		u.stopping = false
	}
	close(done)
}

func (u *User) streamSearch(ctx context.Context, gridID, speed string) error {
	cb := routing.Callbacks{
		OnExplore: func(c *da.Cell) {
			u.writeEvent(cellEvent(WS_EVENT_EXPLORE, c))
		},
		OnPathStep: func(c *da.Cell) {
			u.writeEvent(cellEvent(WS_EVENT_PATH, c))
		},
		OnStatus: func(status pkg.Status) {
			u.writeEvent(streamEvent{Type: WS_EVENT_STATUS, Status: string(status)})
		},
		OnProgress: func(explored int, elapsedMs int64) {
			u.writeEvent(streamEvent{Type: WS_EVENT_PROGRESS, Explored: explored, ElapsedMs: elapsedMs})
		},
		OnFinished: func(success bool, explored, pathLength int, elapsedMs int64) {
			u.writeEvent(streamEvent{Type: WS_EVENT_FINISHED, Success: &success, Explored: explored,
				PathLength: pathLength, ElapsedMs: elapsedMs})
		},
	}

	out, err := u.hub.gridService.StreamSearch(ctx, gridID, speed, cb)
	if err != nil {
		var ierr *util.Error
		if errors.As(err, &ierr) {
			status := http.StatusInternalServerError
			switch ierr.Code() {
			case util.ErrNotFound:
				status = http.StatusNotFound
			case util.ErrConflict:
				status = http.StatusConflict
			}
			return u.write(envelope{"error": newErrorResponse(status, err.Error()).Error})
		}
		return err
	}

	resp := NewSearchResponse(out)
	return u.write(streamEvent{Type: WS_EVENT_RESULT, Result: &resp})
}

func cellEvent(eventType string, c *da.Cell) streamEvent {
	row, col := c.GetRow(), c.GetCol()
	return streamEvent{Type: eventType, Row: &row, Col: &col}
}

// writeEvent a failed write only gets logged, the read side notices the broken connection.
func (u *User) writeEvent(ev streamEvent) {
	if err := u.write(ev); err != nil {
		u.hub.log.Debug("write stream event", zap.Uint("user", u.id), zap.Error(err))
	}
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

type Hub struct {
	ctx context.Context
	log *zap.Logger

	mu          sync.RWMutex
	seq         uint
	us          []*User
	ns          map[uint]*User
	gridService GridService
	validate    *requestValidator
}

func NewHub(ctx context.Context, log *zap.Logger, gridService GridService) *Hub {
	hub := &Hub{
		ctx:         ctx,
		log:         log,
		ns:          make(map[uint]*User),
		us:          make([]*User, 0),
		gridService: gridService,
		validate:    newRequestValidator(),
	}

	return hub
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

// Remove drops user and cancels its running search.
func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	if _, ok := h.ns[user.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.ns, user.id)

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs

	h.mu.Unlock()

	user.cancelSearch()
}

func (h *Hub) RemoveAllUser() {
	h.mu.RLock()
	users := make([]*User, len(h.us))
	copy(users, h.us)
	h.mu.RUnlock()

	for _, user := range users {
		h.Remove(user)
		user.conn.Close()
	}
}

func (h *Hub) NumberOfUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}
