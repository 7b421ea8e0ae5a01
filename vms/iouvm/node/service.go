// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/json"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

// Endpoint is the route and service name the caller-facing API is served
// under.
const Endpoint = "ledger"

type AmountArgs struct {
	Amount uint64 `json:"amount"`
}

type CreateDebtArgs struct {
	Amount   uint64      `json:"amount"`
	Borrower ids.ShortID `json:"borrower"`
}

type SettleDebtArgs struct {
	Debt states.Ref `json:"debt"`
	// Zero settles the debt in full.
	Amount uint64 `json:"amount"`
}

type TransferCashArgs struct {
	Amount uint64      `json:"amount"`
	To     ids.ShortID `json:"to"`
}

type TxIDReply struct {
	TxID ids.ID `json:"txID"`
}

type OutputsReply struct {
	Outputs []*states.Output `json:"outputs"`
}

type BalanceReply struct {
	Party   ids.ShortID `json:"party"`
	Balance uint64      `json:"balance"`
}

type PendingReply struct {
	Pending int `json:"pending"`
}

// Service exposes the caller operations of a Node over JSON-RPC.
type Service struct {
	log  logging.Logger
	node *Node
}

func NewService(log logging.Logger, node *Node) *Service {
	return &Service{
		log:  log,
		node: node,
	}
}

// NewHandler returns the JSON-RPC handler serving [service].
func NewHandler(service *Service, interceptor metric.APIInterceptor) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	if interceptor != nil {
		metric.Register(interceptor, server)
	}
	return server, server.RegisterService(service, Endpoint)
}

func (s *Service) CreateDebt(r *http.Request, args *CreateDebtArgs, reply *TxIDReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "createDebt"),
		zap.Uint64("amount", args.Amount),
		zap.Stringer("borrower", args.Borrower),
	)

	txID, err := s.node.CreateDebt(r.Context(), args.Amount, args.Borrower)
	reply.TxID = txID
	return err
}

func (s *Service) SettleDebt(r *http.Request, args *SettleDebtArgs, reply *TxIDReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "settleDebt"),
		zap.Stringer("debt", args.Debt),
		zap.Uint64("amount", args.Amount),
	)

	txID, err := s.node.SettleDebt(r.Context(), args.Debt, args.Amount)
	reply.TxID = txID
	return err
}

func (s *Service) IssueCash(r *http.Request, args *AmountArgs, reply *TxIDReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "issueCash"),
		zap.Uint64("amount", args.Amount),
	)

	txID, err := s.node.IssueCash(r.Context(), args.Amount)
	reply.TxID = txID
	return err
}

func (s *Service) TransferCash(r *http.Request, args *TransferCashArgs, reply *TxIDReply) error {
	s.log.Debug("API called",
		zap.String("service", Endpoint),
		zap.String("method", "transferCash"),
		zap.Uint64("amount", args.Amount),
		zap.Stringer("to", args.To),
	)

	txID, err := s.node.TransferCash(r.Context(), args.Amount, args.To)
	reply.TxID = txID
	return err
}

func (s *Service) Debts(_ *http.Request, _ *struct{}, reply *OutputsReply) error {
	reply.Outputs = s.node.Debts()
	return nil
}

func (s *Service) Cash(_ *http.Request, _ *struct{}, reply *OutputsReply) error {
	reply.Outputs = s.node.Cash()
	return nil
}

func (s *Service) Balance(_ *http.Request, _ *struct{}, reply *BalanceReply) error {
	balance, err := s.node.Balance()
	reply.Party = s.node.ID()
	reply.Balance = balance
	return err
}

// Resume retries the agreements that were suspended by a communication
// failure.
func (s *Service) Resume(r *http.Request, _ *struct{}, reply *PendingReply) error {
	err := s.node.Resume(r.Context())
	reply.Pending = s.node.Pending()
	return err
}
