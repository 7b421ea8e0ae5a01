// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/logging"
)

const (
	// BaseURL prefixes every registered route.
	BaseURL               = "/ext"
	serverShutdownTimeout = 10 * time.Second

	// HTTPHeaderParty is the response header carrying the serving party's
	// address.
	HTTPHeaderParty = "Party-Id"
)

var (
	errUnknownLockOption = errors.New("invalid lock options")
	errNotReady          = errors.New("API call rejected because the ledger is not loaded yet")
	errRateLimited       = errors.New("API call rejected because the request rate is exceeded")

	_ RouteAdder = (*Server)(nil)
)

// LockOption allows the handler to specify the lock that should be held when
// serving a request.
type LockOption uint32

const (
	WriteLock LockOption = iota
	ReadLock
	NoLock
)

// HTTPHandler is a handler plus the lock it must hold while serving.
type HTTPHandler struct {
	LockOptions LockOption
	Handler     http.Handler
}

type RouteAdder interface {
	AddRoute(handler *HTTPHandler, lock *sync.RWMutex, base, endpoint string) error
}

// Server maintains the HTTP router
type Server struct {
	// log this server writes to
	log logging.Logger
	// Maps endpoints to handlers
	router *router
	// points the the router handlers
	handler http.Handler
	// reports whether requests may be served yet
	ready func() bool
	// bounds the rate of served requests, if set
	limiter atomic.Pointer[rate.Limiter]
	// Listens for HTTP traffic on this address
	listenHost string
	listenPort uint16

	srvLock  sync.Mutex
	srv      *http.Server
	shutdown bool
}

// New returns an HTTP server that routes to the registered handlers and tags
// every response with [party].
func New(
	log logging.Logger,
	host string,
	port uint16,
	allowedOrigins []string,
	party ids.ShortID,
	ready func() bool,
) *Server {
	router := newRouter()
	log.Info("API created",
		zap.Strings("allowedOrigins", allowedOrigins),
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
	}).Handler(router)
	gzipHandler := gziphandler.GzipHandler(corsHandler)
	partyHeader := party.String()

	if ready == nil {
		ready = func() bool { return true }
	}
	s := &Server{
		log:        log,
		router:     router,
		ready:      ready,
		listenHost: host,
		listenPort: port,
	}
	s.handler = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			// Attach this party's address as a header
			w.Header().Set(HTTPHeaderParty, partyHeader)
			if limiter := s.limiter.Load(); limiter != nil && !limiter.Allow() {
				http.Error(w, errRateLimited.Error(), http.StatusTooManyRequests)
				return
			}
			gzipHandler.ServeHTTP(w, r)
		},
	)
	return s
}

// LimitRate rejects requests that arrive faster than [limit] per second,
// allowing bursts of up to [burst] requests.
func (s *Server) LimitRate(limit rate.Limit, burst int) {
	s.log.Info("limiting API request rate",
		zap.Float64("limit", float64(limit)),
		zap.Int("burst", burst),
	)
	s.limiter.Store(rate.NewLimiter(limit, burst))
}

// Dispatch starts the API server
func (s *Server) Dispatch() error {
	listenAddress := net.JoinHostPort(s.listenHost, fmt.Sprintf("%d", s.listenPort))
	listener, err := net.Listen("tcp", listenAddress)
	if err != nil {
		return err
	}
	return s.DispatchListener(listener)
}

// DispatchListener serves the API on an already bound listener.
func (s *Server) DispatchListener(listener net.Listener) error {
	s.log.Info("HTTP API server listening",
		zap.Stringer("address", listener.Addr()),
	)

	s.srvLock.Lock()
	if s.shutdown {
		s.srvLock.Unlock()
		return listener.Close()
	}
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: serverShutdownTimeout,
	}
	srv := s.srv
	s.srvLock.Unlock()

	err := srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// AddRoute registers a route to a handler.
func (s *Server) AddRoute(handler *HTTPHandler, lock *sync.RWMutex, base, endpoint string) error {
	url := fmt.Sprintf("%s/%s", BaseURL, base)
	s.log.Info("adding route",
		zap.String("url", url),
		zap.String("endpoint", endpoint),
	)
	if _, err := parseEndpoint(endpoint); err != nil {
		return err
	}

	// Apply middleware to grab/release the lock before/after calling API method
	h, err := lockMiddleware(handler.Handler, handler.LockOptions, lock)
	if err != nil {
		return err
	}
	// Apply middleware to reject calls to the handler before the ledger is loaded
	h = rejectMiddleware(h, s.ready)
	return s.router.AddRouter(url, endpoint, h)
}

// Shutdown this server
func (s *Server) Shutdown() error {
	s.srvLock.Lock()
	s.shutdown = true
	srv := s.srv
	s.srvLock.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Handler returns the root handler, including every middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Validate that the route being added is valid
// e.g. "/foo" and "" are ok but "\n" is not
func parseEndpoint(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return &url.URL{}, nil
	}
	return url.ParseRequestURI(endpoint)
}

// Wraps a handler by grabbing and releasing a lock before calling the handler.
func lockMiddleware(handler http.Handler, lockOption LockOption, lock *sync.RWMutex) (http.Handler, error) {
	switch lockOption {
	case WriteLock:
		return middlewareHandler{
			before:  lock.Lock,
			after:   lock.Unlock,
			handler: handler,
		}, nil
	case ReadLock:
		return middlewareHandler{
			before:  lock.RLock,
			after:   lock.RUnlock,
			handler: handler,
		}, nil
	case NoLock:
		return handler, nil
	default:
		return nil, errUnknownLockOption
	}
}

// Reject middleware wraps a handler. If the ledger isn't ready yet, writes back
// an error.
func rejectMiddleware(handler http.Handler, ready func() bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			// Doesn't matter if there's an error while writing. They'll get the StatusServiceUnavailable code.
			_, _ = w.Write([]byte(errNotReady.Error()))
			return
		}
		handler.ServeHTTP(w, r)
	})
}

type middlewareHandler struct {
	before, after func()
	handler       http.Handler
}

func (mh middlewareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if mh.before != nil {
		mh.before()
	}
	if mh.after != nil {
		defer mh.after()
	}
	mh.handler.ServeHTTP(w, r)
}
