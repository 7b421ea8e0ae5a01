// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

var (
	errUnknownRoute    = errors.New("unknown route")
	errAlreadyReserved = errors.New("route already maps to a handler")
)

// router dispatches requests to the handlers registered per base URL and
// endpoint. Routes may be added while requests are being served.
type router struct {
	lock   sync.RWMutex
	router *mux.Router
	// base -> endpoint -> handler
	routes map[string]map[string]http.Handler
}

func newRouter() *router {
	return &router{
		router: mux.NewRouter(),
		routes: make(map[string]map[string]http.Handler),
	}
}

func (r *router) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	r.router.ServeHTTP(writer, request)
}

func (r *router) GetHandler(base, endpoint string) (http.Handler, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	handler, exists := r.routes[base][endpoint]
	if !exists {
		return nil, fmt.Errorf("%w: %s%s", errUnknownRoute, base, endpoint)
	}
	return handler, nil
}

func (r *router) AddRouter(base, endpoint string, handler http.Handler) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	url := base + endpoint
	endpoints := r.routes[base]
	if _, exists := endpoints[endpoint]; exists {
		return fmt.Errorf("%w: %s", errAlreadyReserved, url)
	}

	// Name routes based on their URL for easy retrieval in the future
	route := r.router.Handle(url, handler)
	if route == nil {
		return fmt.Errorf("failed to create new route for %s", url)
	}
	route.Name(url)

	if endpoints == nil {
		endpoints = make(map[string]http.Handler)
		r.routes[base] = endpoints
	}
	endpoints[endpoint] = handler
	return nil
}
