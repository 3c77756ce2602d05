package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"costfield/grid_world"
	"costfield/planning"
	vi "costfield/value_iteration"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Time allowed for in-flight requests once the server is told to stop.
const shutdownGracePeriod = 5 * time.Second

// Server serves the progress and result of a single solve, held in a Store.
// Field queries answer 503 until the solve converges.
type Server struct {
	addr   string
	store  *Store
	logger *log.Logger
	router *mux.Router
}

func NewServer(addr string, store *Store, logger *log.Logger) *Server {
	server := &Server{
		addr:   addr,
		store:  store,
		logger: logger,
		router: mux.NewRouter(),
	}
	server.setupRoutes()
	return server
}

func (server *Server) setupRoutes() {
	server.router.HandleFunc("/status", server.handleStatus).Methods("GET")
	server.router.HandleFunc("/field", server.handleField).Methods("GET")
	server.router.HandleFunc("/value/{o}/{x}/{y}", server.handleValue).Methods("GET")
	server.router.HandleFunc("/policy/{o}/{x}/{y}", server.handlePolicy).Methods("GET")
	server.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	server.router.HandleFunc("/ws", server.handleWebsocket)
}

// ServeHTTP implements http.Handler
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.router.ServeHTTP(w, r)
}

// Serve listens on the server's address until ctx is done, then shuts down.
func (server *Server) Serve(ctx context.Context) (err error) {
	httpServer := &http.Server{
		Addr:              server.addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errs := make(chan error, 1)
	go func() {
		server.logger.Info("serving", "addr", server.addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-errs:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		err = httpServer.Shutdown(shutdownCtx)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (server *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, server.store.Status())
}

// plan writes the reason there is no plan yet, if there isn't one.
func (server *Server) plan(w http.ResponseWriter) (*planning.Plan, bool) {
	plan, ok := server.store.Plan()
	if ok {
		return plan, true
	}
	status := server.store.Status()
	if status.State == Failed {
		respondError(w, http.StatusInternalServerError, status.Error)
	} else {
		respondError(w, http.StatusServiceUnavailable, "solve in progress")
	}
	return nil, false
}

func (server *Server) handleField(w http.ResponseWriter, r *http.Request) {
	plan, ok := server.plan(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, planning.NewReport(plan))
}

// StateResponse describes one state and what the plan knows about it.
type StateResponse struct {
	Orientation string             `json:"orientation"`
	X           int                `json:"x"`
	Y           int                `json:"y"`
	Value       vi.Cost            `json:"value"`
	Action      *grid_world.Action `json:"action,omitempty"`
	Next        *vi.Cell           `json:"next,omitempty"`
	Facing      string             `json:"facing,omitempty"`
}

// parseState reads {o}/{x}/{y}, answering 400 for malformed values and 404
// for states off the grid.
func (server *Server) parseState(w http.ResponseWriter, r *http.Request, plan *planning.Plan) (o vi.Orientation, x, y int, ok bool) {
	vars := mux.Vars(r)
	var err error
	if o, err = vi.ParseOrientation(vars["o"]); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if x, err = strconv.Atoi(vars["x"]); err != nil {
		respondError(w, http.StatusBadRequest, "invalid x: "+vars["x"])
		return
	}
	if y, err = strconv.Atoi(vars["y"]); err != nil {
		respondError(w, http.StatusBadRequest, "invalid y: "+vars["y"])
		return
	}
	if !plan.Grid.InBounds(x, y) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("(%d,%d) is off the grid", x, y))
		return
	}
	return o, x, y, true
}

func (server *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	plan, ok := server.plan(w)
	if !ok {
		return
	}
	o, x, y, ok := server.parseState(w, r, plan)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, StateResponse{
		Orientation: o.String(),
		X:           x,
		Y:           y,
		Value:       plan.Result.Values.At(o, x, y),
	})
}

func (server *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	plan, ok := server.plan(w)
	if !ok {
		return
	}
	o, x, y, ok := server.parseState(w, r, plan)
	if !ok {
		return
	}
	move, ok := plan.Result.Policy.MoveAt(o, x, y)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no action from %v (%d,%d)", o, x, y))
		return
	}
	respondJSON(w, http.StatusOK, StateResponse{
		Orientation: o.String(),
		X:           x,
		Y:           y,
		Value:       plan.Result.Values.At(o, x, y),
		Action:      &move.Action,
		Next:        &vi.Cell{X: move.X, Y: move.Y},
		Facing:      move.Orientation.String(),
	})
}

// handleWebsocket streams Status to the peer until the solve ends.
func (server *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := newClient(server.store, w, r, server.logger)
	if err != nil {
		server.logger.Warn("websocket upgrade", "err", err)
		return
	}
	if err = cli.Sync(); err != nil {
		server.logger.Warn("websocket client", "remote", r.RemoteAddr, "err", err)
	}
}
