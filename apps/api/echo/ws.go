package echoapi

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/auth"
	"github.com/darasahub/darasa/core/principal"
	"github.com/darasahub/darasa/realtime"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

type (
	// wsHello is the first frame a client must send after the connection is
	// accepted. Nothing is delivered until it has been verified.
	wsHello struct {
		Token string `json:"token"`
	}

	wsReady struct {
		Type    string `json:"type"`
		Address string `json:"address"`
	}

	realtimeApi struct {
		guard    *auth.Guard
		registry *realtime.Registry
		logger   core.Logger
	}
)

func registerRealtimeAPI(g *echo.Group, deps *ServerDeps) {
	api := realtimeApi{
		guard:    deps.Guard,
		registry: deps.Registry,
		logger:   deps.Logger,
	}
	g.GET("/ws", api.serve)
}

// serve upgrades the connection and runs the handshake: the client's first
// frame carries the credential, which goes through the same gate as an HTTP
// request. A rejected handshake closes the socket before any event flows.
func (api *realtimeApi) serve(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // Accept already wrote the HTTP error
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	reqCtx := ctx.Request().Context()

	p, err := api.handshake(reqCtx, conn)
	if err != nil {
		api.logger.Warn(fmt.Sprintf("realtime handshake rejected: %v", err))
		conn.Close(websocket.StatusPolicyViolation, msgAuthenticationFailed)
		return nil
	}

	sub, err := api.registry.Subscribe(p.ID)
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return nil
	}
	defer api.registry.Unsubscribe(sub)

	if err = writeTimed(reqCtx, conn, wsReady{Type: "ready", Address: sub.Address}); err != nil {
		return nil
	}

	// the client never sends again after the hello; reads only surface
	// disconnects
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(reqCtx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-sub.C:
			if !ok { // registry closed
				conn.Close(websocket.StatusGoingAway, "shutting down")
				return nil
			}
			if err = writeTimed(reqCtx, conn, evt); err != nil {
				return nil
			}
		case <-readErr:
			return nil
		case <-reqCtx.Done():
			return nil
		}
	}
}

func (api *realtimeApi) handshake(ctx context.Context, conn *websocket.Conn) (p principal.Principal, err error) {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	var hello wsHello
	if err = wsjson.Read(ctx, conn, &hello); err != nil {
		return p, err
	}
	return api.guard.Authenticate(ctx, hello.Token)
}

func writeTimed(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
