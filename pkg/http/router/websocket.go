package router

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/lintang-b-s/Gridpathx/pkg/concurrent"
	"github.com/lintang-b-s/Gridpathx/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/Gridpathx/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// handleWebsocket accepts raw tcp connections on the websocket port and upgrades them.
// both the listener and every connection are watched through netpoll, reads are served
// by the task pool so idle connections hold no goroutine.
func (api *API) handleWebsocket(ctx context.Context, config http_server.Config,
	gridService controllers.GridService, errChan chan error,
) {
	addr := fmt.Sprintf(":%d", config.WebsocketPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		errChan <- err
		return
	}
	api.log.Info(fmt.Sprintf("search stream websocket API run on port %d", config.WebsocketPort))

	acceptDesc := netpoll.Must(netpoll.HandleListener(
		ln, netpoll.EventRead|netpoll.EventOneShot,
	))

	api.poller, err = netpoll.New(nil)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	workers := viper.GetInt("WS_POOL_WORKERS")
	api.pool = concurrent.NewWorkerPool[int, int](workers, viper.GetInt("WS_POOL_QUEUE"))

	api.hub = controllers.NewHub(ctx, api.log, gridService)

	api.pool.Spawn(workers / 4)

	accept := make(chan error, 1)

	api.poller.Start(acceptDesc, func(ev netpoll.Event) {
		defer api.poller.Resume(acceptDesc)
		err := api.pool.ScheduleTimeout(time.Millisecond, func() {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return
			}

			accept <- nil
			api.handle(conn)
		})
		if err == nil {
			err = <-accept
		}
		if err != nil {
			// pool saturated or transient accept failure: cool down before the next accept.
			var ne net.Error
			if errors.Is(err, concurrent.ErrScheduleTimeout) || (errors.As(err, &ne) && ne.Timeout()) {
				delay := 5 * time.Millisecond
				api.log.Sugar().Infof("accept error: %v; retrying in %s", err, delay)
				time.Sleep(delay)
			} else if !errors.Is(err, concurrent.ErrPoolClosed) && !errors.Is(err, net.ErrClosed) {
				api.log.Error("accept error", zap.Error(err))
			}
		}
	})

	<-ctx.Done()

	ln.Close()

	api.hub.RemoveAllUser()
	api.poller.Stop(acceptDesc)

	api.pool.Close()

	api.log.Info("websocket server stopped")
}

func (api *API) handle(conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}

	user := api.hub.Register(conn)

	api.log.Info("established websocket connection", zap.String("connection", nameConn(conn)),
		zap.String("protocol", hs.Protocol), zap.Int("users", api.hub.NumberOfUsers()))

	desc := netpoll.Must(netpoll.HandleRead(conn))

	api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			// peer closed its end
			api.log.Info("user disconnected from websocket server", zap.String("connection", nameConn(conn)))

			api.poller.Stop(desc)
			api.hub.Remove(user)
			conn.Close()
			api.log.Debug("websocket users", zap.Int("users", api.hub.NumberOfUsers()))
			return
		}

		err := api.pool.Schedule(func() {
			if err := user.HandleRequest(); err != nil {
				api.log.Debug("websocket request", zap.Error(err), zap.String("connection", nameConn(conn)))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		})
		if err != nil {
			api.poller.Stop(desc)
			api.hub.Remove(user)
			conn.Close()
		}
	})
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
