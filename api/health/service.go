// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/utils/json"
	"github.com/ava-labs/iouledger/utils/logging"
)

// Endpoint is the route and service name health is served under.
const Endpoint = "health"

// Service wraps a [Reporter] so it can be queried over JSON-RPC.
type Service struct {
	log    logging.Logger
	health Reporter
}

// APIReply is the response for Readiness and Health.
type APIReply struct {
	Checks  map[string]Result `json:"checks"`
	Healthy bool              `json:"healthy"`
}

func NewService(log logging.Logger, health Reporter) *Service {
	return &Service{
		log:    log,
		health: health,
	}
}

func NewHandler(service *Service) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	return server, server.RegisterService(service, Endpoint)
}

// Readiness returns whether the process has finished starting up.
func (s *Service) Readiness(_ *http.Request, _ *struct{}, reply *APIReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "readiness"),
	)

	reply.Checks, reply.Healthy = s.health.Readiness()
	return nil
}

// Health returns a summation of the health of the process.
func (s *Service) Health(_ *http.Request, _ *struct{}, reply *APIReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "health"),
	)

	reply.Checks, reply.Healthy = s.health.Health()
	return nil
}
