package engine

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/thrasher-corp/tallerd/engine/subsystem"
	"github.com/thrasher-corp/tallerd/log"
)

// APIServerManagerName is an exported subsystem name
const APIServerManagerName = "api_server"

var (
	errNilQueueManager    = errors.New("nil queue manager received")
	errNilWorkshopManager = errors.New("nil workshop manager received")
	errServerDisabled     = errors.New("api server disabled")
)

// APIServerSetup contains the settings the REST server starts with
type APIServerSetup struct {
	ListenAddress  string
	RequestTimeout time.Duration
	MaxWorkers     int
	RateLimit      float64
	RateBurst      int
	AdminUsername  string
	AdminPassword  string
}

// APIServerManager holds the REST server state
type APIServerManager struct {
	started        int32
	listenAddress  string
	requestTimeout time.Duration
	adminUsername  string
	adminPassword  string
	limiter        *rate.Limiter
	workerSem      chan struct{}
	queue          *QueueManager
	workshops      *WorkshopManager
	server         *http.Server
	startTime      time.Time
}

// Route is a sub type that holds the request routes
type Route struct {
	Name         string
	Method       string
	Pattern      string
	AuthRequired bool
	RateLimited  bool
	HandlerFunc  http.HandlerFunc
}

// RestResponse is the wrapper for all REST replies
type RestResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *string     `json:"error"`
}

// SetupAPIServerManager creates a new API server manager
func SetupAPIServerManager(cfg *APIServerSetup, queue *QueueManager, workshops *WorkshopManager) (*APIServerManager, error) {
	if cfg == nil {
		return nil, subsystem.ErrNilConfig
	}
	if queue == nil {
		return nil, errNilQueueManager
	}
	if workshops == nil {
		return nil, errNilWorkshopManager
	}
	if cfg.ListenAddress == "" {
		return nil, errServerDisabled
	}

	m := &APIServerManager{
		listenAddress:  cfg.ListenAddress,
		requestTimeout: cfg.RequestTimeout,
		adminUsername:  cfg.AdminUsername,
		adminPassword:  cfg.AdminPassword,
		queue:          queue,
		workshops:      workshops,
	}
	if m.requestTimeout <= 0 {
		m.requestTimeout = time.Second * 15
	}
	if cfg.RateLimit > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	if cfg.MaxWorkers > 0 {
		m.workerSem = make(chan struct{}, cfg.MaxWorkers)
	}
	return m, nil
}

// IsRunning safely checks whether the subsystem is running
func (m *APIServerManager) IsRunning() bool {
	if m == nil {
		return false
	}
	return atomic.LoadInt32(&m.started) == 1
}

// Start runs the REST server in its own goroutine
func (m *APIServerManager) Start() error {
	if m == nil {
		return fmt.Errorf("api server %w", subsystem.ErrNil)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return fmt.Errorf("api server %w", subsystem.ErrAlreadyStarted)
	}

	log.Debugf(log.APIServerMgr, "API server %s", subsystem.MsgStarting)
	m.startTime = time.Now()
	m.server = &http.Server{
		Addr:              m.listenAddress,
		Handler:           m.newRouter(),
		ReadHeaderTimeout: time.Second * 10,
	}

	go func() {
		log.Infof(log.APIServerMgr, "REST server listening on http://%s\n", m.listenAddress)
		err := m.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(log.APIServerMgr, "REST server failed: %v", err)
			atomic.CompareAndSwapInt32(&m.started, 1, 0)
		}
	}()
	return nil
}

// Stop shuts the REST server down, draining in-flight requests
func (m *APIServerManager) Stop() error {
	if m == nil {
		return fmt.Errorf("api server %w", subsystem.ErrNil)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 1, 0) {
		return fmt.Errorf("api server %w", subsystem.ErrNotStarted)
	}
	log.Debugf(log.APIServerMgr, "API server %s", subsystem.MsgShuttingDown)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err := m.server.Shutdown(ctx)
	log.Debugf(log.APIServerMgr, "API server %s", subsystem.MsgShutdown)
	return err
}

// newRouter takes in the route handlers and returns a new multiplexer router
func (m *APIServerManager) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []Route{
		{"Index", http.MethodGet, "/", false, false, m.getIndex},
		{"ListWorkshops", http.MethodGet, "/workshops", true, false, m.getWorkshops},
		{"CreateTurn", http.MethodPost, "/workshops/{workshop}/turns", false, true, m.createTurn},
		{"WorkshopStatus", http.MethodGet, "/workshops/{workshop}/status", false, false, m.getStatus},
		{"ListTurns", http.MethodGet, "/workshops/{workshop}/turns", true, false, m.getTurns},
		{"CancelTurnByPlate", http.MethodPost, "/workshops/{workshop}/turns/cancel-by-plate", false, true, m.cancelTurnByPlate},
		{"FinalizeTurn", http.MethodPost, "/turns/{turn}/finalize", true, false, m.finalizeTurn},
	}

	for _, route := range routes {
		var handler http.Handler = route.HandlerFunc
		if route.Method == http.MethodPost {
			handler = m.workerLimit(handler)
		}
		if route.RateLimited {
			handler = m.rateLimit(handler)
		}
		if route.AuthRequired {
			handler = m.basicAuth(handler)
		}
		handler = m.withDeadline(handler)
		handler = restLogger(handler, route.Name)

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}

// restLogger logs the requests internally
func restLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.APIServerMgr, "%s\t%s\t%s\t%s",
			r.Method,
			r.RequestURI,
			name,
			time.Since(start))
	})
}

// withDeadline bounds every request by the configured timeout. Handlers pass
// the context down to the engine so lock waits and DB I/O are covered.
func (m *APIServerManager) withDeadline(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), m.requestTimeout)
		defer cancel()
		inner.ServeHTTP(w, r.WithContext(ctx))
	})
}

// basicAuth gates admin routes on the remote control credentials. Unset
// credentials reject everything rather than opening the routes up.
func (m *APIServerManager) basicAuth(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok ||
			m.adminUsername == "" ||
			m.adminPassword == "" ||
			subtle.ConstantTimeCompare([]byte(username), []byte(m.adminUsername)) != 1 ||
			subtle.ConstantTimeCompare([]byte(password), []byte(m.adminPassword)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="tallerd"`)
			writeError(w, r, NewError(KindUnauthenticated, "authentication required"))
			return
		}
		inner.ServeHTTP(w, r)
	})
}

// rateLimit bounds the public mutation endpoints
func (m *APIServerManager) rateLimit(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow() {
			writeJSON(w, r, http.StatusTooManyRequests, errorResponse("rate limit exceeded"))
			return
		}
		inner.ServeHTTP(w, r)
	})
}

// workerLimit bounds simultaneous mutating requests with a semaphore. A
// request that cannot get a slot before its deadline times out.
func (m *APIServerManager) workerLimit(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.workerSem == nil {
			inner.ServeHTTP(w, r)
			return
		}
		select {
		case m.workerSem <- struct{}{}:
			defer func() { <-m.workerSem }()
			inner.ServeHTTP(w, r)
		case <-r.Context().Done():
			writeError(w, r, r.Context().Err())
		}
	})
}

func statusFromKind(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicatePlate, KindStateConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func errorResponse(message string) *RestResponse {
	return &RestResponse{Success: false, Error: &message}
}

// writeJSON writes out the wrapped response envelope
func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp *RestResponse) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf(log.APIServerMgr, "RESTful %s: server failed to send JSON response. Error %s",
			r.Method, err)
	}
}

// writeResult writes a successful wrapped payload
func writeResult(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, r, status, &RestResponse{Success: true, Data: data})
}

// writeError classifies err and writes the wrapped failure envelope. Internal
// details never reach the client, they only hit the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := KindOf(err)
	resp := errorResponse(err.Error())
	switch kind {
	case KindTimeout:
		resp = errorResponse("request deadline exceeded")
	case KindInternal:
		log.Errorf(log.APIServerMgr, "RESTful %s %s: %v", r.Method, r.RequestURI, err)
		resp = errorResponse("internal server error")
	case KindDuplicatePlate:
		var qErr *Error
		if errors.As(err, &qErr) {
			resp.Data = map[string]int64{"numeroTurno": qErr.ExistingTurnNumber}
		}
	}
	writeJSON(w, r, statusFromKind(kind), resp)
}
