// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"errors"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/utils/cb58"
	"github.com/ava-labs/iouledger/utils/json"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

// Endpoint is the route and service name a party's channel is served under.
const Endpoint = "party"

var errMissingTx = errors.New("argument 'tx' not given")

type TxArgs struct {
	Tx *txs.Tx `json:"tx"`
}

// ProposeReply carries either the countersignature or the refusal reason.
type ProposeReply struct {
	Accepted  bool   `json:"accepted"`
	Signature string `json:"signature,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type FinalizeReply struct {
	Recorded bool `json:"recorded"`
}

// Service exposes a party's flow.Handler over JSON-RPC.
type Service struct {
	log     logging.Logger
	handler flow.Handler
}

func NewService(log logging.Logger, handler flow.Handler) *Service {
	return &Service{
		log:     log,
		handler: handler,
	}
}

// NewHandler returns the JSON-RPC handler serving [service]. If
// [interceptor] is non-nil it observes every call.
func NewHandler(service *Service, interceptor metric.APIInterceptor) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	if interceptor != nil {
		metric.Register(interceptor, server)
	}
	return server, server.RegisterService(service, Endpoint)
}

func (s *Service) Propose(r *http.Request, args *TxArgs, reply *ProposeReply) error {
	if args.Tx == nil {
		return errMissingTx
	}
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "propose"),
		zap.Stringer("txID", args.Tx.ID()),
	)

	resp, err := s.handler.Propose(r.Context(), args.Tx)
	if err != nil {
		return err
	}

	reply.Accepted = resp.Accepted
	reply.Reason = resp.Reason
	if !resp.Accepted {
		return nil
	}
	reply.Signature, err = cb58.Encode(resp.Sig[:])
	return err
}

func (s *Service) Finalize(r *http.Request, args *TxArgs, reply *FinalizeReply) error {
	if args.Tx == nil {
		return errMissingTx
	}
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "finalize"),
		zap.Stringer("txID", args.Tx.ID()),
	)

	if err := s.handler.Finalize(r.Context(), args.Tx); err != nil {
		return err
	}
	reply.Recorded = true
	return nil
}
