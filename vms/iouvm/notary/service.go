// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"errors"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/cb58"
	"github.com/ava-labs/iouledger/utils/json"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

// Endpoint is the route and service name the notary is served under.
const Endpoint = "notary"

var errMissingTx = errors.New("argument 'tx' not given")

type NotarizeArgs struct {
	Tx *txs.Tx `json:"tx"`
}

// NotarizeReply carries either the finality attestation or, if an input was
// already consumed, the conflict.
type NotarizeReply struct {
	Notarized       bool        `json:"notarized"`
	Timestamp       int64       `json:"timestamp"`
	Signature       string      `json:"signature"`
	ConflictingRef  *states.Ref `json:"conflictingRef,omitempty"`
	ConflictingTxID ids.ID      `json:"conflictingTxID"`
}

type FinalityArgs struct {
	TxID ids.ID `json:"txID"`
}

type FinalityReply struct {
	Notarized bool   `json:"notarized"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Service exposes a Notary over JSON-RPC.
type Service struct {
	log    logging.Logger
	notary Notary
}

func NewService(log logging.Logger, notary Notary) *Service {
	return &Service{
		log:    log,
		notary: notary,
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

func (s *Service) Notarize(r *http.Request, args *NotarizeArgs, reply *NotarizeReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "notarize"),
	)

	if args.Tx == nil {
		return errMissingTx
	}

	finality, err := s.notary.Notarize(r.Context(), args.Tx)
	var conflict *DoubleSpendError
	switch {
	case errors.As(err, &conflict):
		reply.ConflictingRef = conflict.Ref
		reply.ConflictingTxID = conflict.ConflictingTxID
		return nil
	case err != nil:
		return err
	}

	reply.Notarized = true
	reply.Timestamp = finality.Timestamp
	reply.Signature, err = cb58.Encode(finality.Sig[:])
	return err
}

func (s *Service) Finality(r *http.Request, args *FinalityArgs, reply *FinalityReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "finality"),
		zap.Stringer("txID", args.TxID),
	)

	finality, err := s.notary.Finality(r.Context(), args.TxID)
	switch {
	case errors.Is(err, ErrNotNotarized):
		return nil
	case err != nil:
		return err
	}

	reply.Notarized = true
	reply.Timestamp = finality.Timestamp
	reply.Signature, err = cb58.Encode(finality.Sig[:])
	return err
}
