// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/network"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/builder"
	"github.com/ava-labs/iouledger/vms/iouvm/vault"
)

var (
	errNotADebt            = errors.New("reference is not a debt")
	errSuspendedAgreements = errors.New("agreements suspended by communication failures")
)

type Config struct {
	flow.Config `json:"flow"`

	// MaxDebtAmount is the largest debt this party countersigns. Zero
	// disables the ceiling.
	MaxDebtAmount uint64 `json:"maxDebtAmount"`
}

// Node is one party of the ledger. It initiates agreements on behalf of its
// caller and answers the agreements other parties initiate.
type Node struct {
	log  logging.Logger
	self ids.ShortID

	vault     *vault.Vault
	initiator *flow.Initiator
	responder *flow.Responder

	lock sync.Mutex
	// unfinished instances that failed with a recoverable error
	pending map[*flow.Instance]struct{}
}

// New opens the party's vault in [db] and wires it to [notary] and [peers].
// Metrics are registered on [registerer] under the "vault" and "flow"
// namespaces.
func New(
	log logging.Logger,
	cfg Config,
	key *secp256k1.PrivateKey,
	db database.Database,
	notary notary.Notary,
	peers flow.Counterparty,
	registerer prometheus.Registerer,
) (*Node, error) {
	self := key.Address()
	v, err := vault.New(log, db, []ids.ShortID{self}, "vault", registerer)
	if err != nil {
		return nil, err
	}

	initiator, err := flow.NewInitiator(log, cfg.Config, key, v, notary, peers, "flow", registerer)
	if err != nil {
		return nil, err
	}

	var policy flow.Policy
	if cfg.MaxDebtAmount > 0 {
		policy = flow.MaxDebtAmount(cfg.MaxDebtAmount)
	}

	log.Info("node created",
		zap.Stringer("party", self),
		zap.Stringer("notary", cfg.Notary),
		zap.Stringer("issuingAuthority", cfg.IssuingAuthority),
		zap.Uint64("maxDebtAmount", cfg.MaxDebtAmount),
	)
	return &Node{
		log:       log,
		self:      self,
		vault:     v,
		initiator: initiator,
		responder: flow.NewResponder(log, cfg.Config, key, v, policy),
		pending:   make(map[*flow.Instance]struct{}),
	}, nil
}

// ID is the party this node acts for.
func (n *Node) ID() ids.ShortID {
	return n.self
}

// Responder answers the messages other parties send to this node.
func (n *Node) Responder() flow.Handler {
	return n.responder
}

// RegisterRoutes serves the node's counterparty channel and its caller API
// on [adder].
func (n *Node) RegisterRoutes(adder server.RouteAdder, interceptor metric.APIInterceptor) error {
	party, err := network.NewHandler(network.NewService(n.log, n.responder), interceptor)
	if err != nil {
		return err
	}
	ledger, err := NewHandler(NewService(n.log, n), interceptor)
	if err != nil {
		return err
	}

	lock := &sync.RWMutex{}
	errs := wrappers.Errs{}
	errs.Add(
		adder.AddRoute(
			&server.HTTPHandler{LockOptions: server.NoLock, Handler: party},
			lock,
			network.Endpoint,
			"",
		),
		adder.AddRoute(
			&server.HTTPHandler{LockOptions: server.NoLock, Handler: ledger},
			lock,
			Endpoint,
			"",
		),
	)
	return errs.Err
}

// CreateDebt lends [amount] to [borrower] out of this party's cash.
func (n *Node) CreateDebt(ctx context.Context, amount uint64, borrower ids.ShortID) (ids.ID, error) {
	return n.run(ctx, func(b builder.Builder) (*txs.Tx, error) {
		cash, err := n.vault.SelectCash(n.self, amount)
		if err != nil {
			return nil, err
		}
		return b.NewCreateDebtTx(builder.CreateDebt{
			Lender:   n.self,
			Borrower: borrower,
			Amount:   amount,
			Cash:     cash.Ref,
		})
	})
}

// SettleDebt repays [partialAmount] of the debt at [debtRef], or all of it
// if [partialAmount] is zero.
func (n *Node) SettleDebt(ctx context.Context, debtRef states.Ref, partialAmount uint64) (ids.ID, error) {
	return n.run(ctx, func(b builder.Builder) (*txs.Tx, error) {
		st, err := n.vault.LoadCurrentState(debtRef)
		if err != nil {
			return nil, err
		}
		debt, ok := st.(*states.Debt)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errNotADebt, debtRef)
		}

		required := partialAmount
		if required == 0 {
			required = debt.Amount
		}
		cash, err := n.vault.SelectCash(n.self, required)
		if err != nil {
			return nil, err
		}
		return b.NewSettleDebtTx(builder.SettleDebt{
			Debt:   debtRef,
			Cash:   cash.Ref,
			Amount: partialAmount,
		})
	})
}

// IssueCash mints [amount] to this party, which must be the issuing
// authority.
func (n *Node) IssueCash(ctx context.Context, amount uint64) (ids.ID, error) {
	return n.run(ctx, func(b builder.Builder) (*txs.Tx, error) {
		return b.NewIssueCashTx(builder.IssueCash{
			Owner:  n.self,
			Amount: amount,
		})
	})
}

// TransferCash moves [amount] of this party's cash to [to].
func (n *Node) TransferCash(ctx context.Context, amount uint64, to ids.ShortID) (ids.ID, error) {
	return n.run(ctx, func(b builder.Builder) (*txs.Tx, error) {
		cash, err := n.vault.SelectCash(n.self, amount)
		if err != nil {
			return nil, err
		}
		return b.NewTransferCashTx(builder.TransferCash{
			From:   n.self,
			To:     to,
			Amount: amount,
			Cash:   cash.Ref,
		})
	})
}

// Debts returns the current debts this party is lender or borrower of.
func (n *Node) Debts() []*states.Output {
	return n.vault.Debts(n.self)
}

// Cash returns the current cash this party owns.
func (n *Node) Cash() []*states.Output {
	return n.vault.Cash(n.self)
}

func (n *Node) Balance() (uint64, error) {
	return n.vault.Balance(n.self)
}

// Pending returns the number of instances waiting to be resumed.
func (n *Node) Pending() int {
	n.lock.Lock()
	defer n.lock.Unlock()

	return len(n.pending)
}

// HealthCheck reports the node unhealthy while agreements are waiting to be
// resumed.
func (n *Node) HealthCheck(context.Context) (interface{}, error) {
	pending := n.Pending()
	details := map[string]interface{}{
		"party":   n.self,
		"pending": pending,
	}
	if pending > 0 {
		return details, fmt.Errorf("%w: %d", errSuspendedAgreements, pending)
	}
	return details, nil
}

// Resume runs every instance that previously failed with a recoverable
// error. Instances that finish, or fail unrecoverably, are forgotten.
func (n *Node) Resume(ctx context.Context) error {
	n.lock.Lock()
	instances := make([]*flow.Instance, 0, len(n.pending))
	for inst := range n.pending {
		instances = append(instances, inst)
	}
	n.lock.Unlock()

	errs := wrappers.Errs{}
	for _, inst := range instances {
		_, err := inst.Run(ctx)
		if flow.IsRecoverable(err) {
			errs.Add(err)
			continue
		}

		n.lock.Lock()
		delete(n.pending, inst)
		n.lock.Unlock()
		errs.Add(err)
	}
	return errs.Err
}

func (n *Node) run(ctx context.Context, build flow.BuildFunc) (ids.ID, error) {
	inst := n.initiator.NewInstance(build)
	txID, err := inst.Run(ctx)
	if flow.IsRecoverable(err) {
		n.lock.Lock()
		n.pending[inst] = struct{}{}
		n.lock.Unlock()

		n.log.Warn("agreement suspended",
			zap.Stringer("txID", txID),
			zap.Stringer("status", inst.Status()),
			zap.Error(err),
		)
	}
	return txID, err
}
