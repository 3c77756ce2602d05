package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// The rate at which status is sent to the client, so as not to overburden.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
	// How long to wait for the peer to answer our close frame.
	closeGracePeriod = time.Second
)

var upgrader = websocket.Upgrader{}

// errPublished ends a client's group once the final status has gone out.
var errPublished = errors.New("final status published")

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// A client publishes store status to one websocket peer. Status messages are
// idempotent, so a client only sends the latest one each tick and skips ticks
// on which nothing changed. Once the solve ends the client sends the final
// status and closes normally.
type client struct {
	store   *Store
	ws      *websock
	pong    chan struct{}
	rootCtx context.Context
	logger  *log.Logger
}

func newClient(
	store *Store,
	w http.ResponseWriter,
	r *http.Request,
	logger *log.Logger,
) (*client, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the peer.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	// Installed before the reader starts; the handler runs on the reader.
	pong := make(chan struct{}, 1)
	ws.SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	return &client{
		store:   store,
		ws:      newWebSock(ws),
		pong:    pong,
		rootCtx: r.Context(),
		logger:  logger,
	}, nil
}

// Sync runs the reader, the liveness check and the publisher until the solve
// ends, the peer goes away, or the request context is done. It returns nil on
// any orderly end.
func (cli *client) Sync() error {
	defer cli.ws.Conn().Close()

	group, groupCtx := errgroup.WithContext(cli.rootCtx)
	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	// The reader only returns once the socket does, so closing is what ends it.
	group.Go(func() error {
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})

	err := group.Wait()
	if err == nil || errors.Is(err, errPublished) || errors.Is(err, context.Canceled) || isClosure(err) {
		return nil
	}
	return err
}

// Runs the ping-pong for the client liveness check.
// NOTE: the pong handler is only called while readMessages is running.
func (cli *client) pingPong(ctx context.Context) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-pinger:
			if !ok {
				return nil
			}
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-cli.pong:
			lastPong = time.Now()
		}
	}
}

func (cli *client) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				err = fmt.Errorf("ping failed: %w", err)
			}
			return
		})
}

// readMessages discards anything the peer sends, but must run for control
// frames (pongs, close) to be processed. Errors returned by websocket read
// methods are permanent, hence any error must trigger full teardown.
func (cli *client) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, _, readErr = ws.ReadMessage()
				return
			})
		if err != nil {
			if isError(err) {
				cli.logger.Warn("websocket read", "err", err)
			}
			return err
		}
	}
}

func (cli *client) publish(ctx context.Context) error {
	lastVersion := -1
	ticker := channerics.NewTicker(ctx.Done(), pubResolution)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticker:
			if !ok {
				return nil
			}

			status := cli.store.Status()
			if status.Version == lastVersion {
				break
			}
			lastVersion = status.Version

			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						return fmt.Errorf("failed to set deadline: %w", writeErr)
					}
					if writeErr = ws.WriteJSON(status); writeErr != nil {
						writeErr = fmt.Errorf("publish failed: %w", writeErr)
					}
					return
				})
			if err != nil {
				return err
			}
			if status.State != Solving {
				return errPublished
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	readDeadline  = time.Second
	writeDeadline = time.Second
)

// websock serializes reads and writes to the websocket, whose requirements
// are that there may be only one concurrent reader and writer at a time.
type websock struct {
	// These are merely mutexes, but channel semantics are cleaner.
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
}

func newWebSock(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Returns the underlying websocket.
// This should only be used non-concurrently for setup, e.g. adding handlers.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Close sends a close frame and bounds the wait for the peer's reply, which
// unblocks a pending read. It leaves the reader alone: the read semaphore is
// held for as long as a read is blocked.
func (sock *websock) Close() {
	sock.writeSem <- struct{}{}
	defer func() { <-sock.writeSem }()

	_ = sock.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	_ = sock.ws.NetConn().SetReadDeadline(time.Now().Add(closeGracePeriod))
}

// Read serializes read operations on the internal web socket.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	case <-time.After(readDeadline):
		return ErrSockCongestion
	}
}

// Write serializes write operations to the websocket.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(writeDeadline):
		return ErrSockCongestion
	}
}
