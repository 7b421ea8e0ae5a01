// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/builder"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
	"github.com/ava-labs/iouledger/vms/iouvm/vault"
)

var (
	keys = secp256k1.TestKeys()

	lenderKey   = keys[0]
	borrowerKey = keys[1]
	notaryKey   = keys[2]

	lender   = lenderKey.Address()
	borrower = borrowerKey.Address()
)

func testConfig() Config {
	return Config{
		Config: executor.Config{
			IssuingAuthority: lender,
		},
		Notary:          notaryKey.Address(),
		ProposeTimeout:  DefaultProposeTimeout,
		NotarizeTimeout: DefaultNotarizeTimeout,
	}
}

// gatedNotary holds every Notarize call once armed until the expected number
// of callers have arrived.
type gatedNotary struct {
	notary.Notary

	lock    sync.Mutex
	barrier *sync.WaitGroup
}

func (g *gatedNotary) arm(callers int) {
	barrier := &sync.WaitGroup{}
	barrier.Add(callers)

	g.lock.Lock()
	defer g.lock.Unlock()

	g.barrier = barrier
}

func (g *gatedNotary) Notarize(ctx context.Context, tx *txs.Tx) (*txs.Finality, error) {
	g.lock.Lock()
	barrier := g.barrier
	g.lock.Unlock()

	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	return g.Notary.Notarize(ctx, tx)
}

type testParty struct {
	key       *secp256k1.PrivateKey
	vault     *vault.Vault
	initiator *Initiator
	responder *Responder
}

func (p *testParty) run(t *testing.T, build BuildFunc) (*Instance, ids.ID, error) {
	t.Helper()

	inst := p.initiator.NewInstance(build)
	txID, err := inst.Run(context.Background())
	return inst, txID, err
}

type testEnv struct {
	cfg      Config
	notary   *gatedNotary
	network  *LocalNetwork
	lender   *testParty
	borrower *testParty
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	u, err := notary.NewUniqueness(logging.NoLog{}, testConfig().Config, notaryKey, memdb.New(), "", prometheus.NewRegistry())
	require.NoError(t, err)

	env := &testEnv{
		cfg:     testConfig(),
		notary:  &gatedNotary{Notary: u},
		network: NewLocalNetwork(),
	}
	env.lender = env.newParty(t, lenderKey, policy)
	env.borrower = env.newParty(t, borrowerKey, policy)
	return env
}

func (e *testEnv) newParty(t *testing.T, key *secp256k1.PrivateKey, policy Policy) *testParty {
	require := require.New(t)

	v, err := vault.New(logging.NoLog{}, memdb.New(), []ids.ShortID{key.Address()}, "", prometheus.NewRegistry())
	require.NoError(err)

	initiator, err := NewInitiator(logging.NoLog{}, e.cfg, key, v, e.notary, e.network, "", prometheus.NewRegistry())
	require.NoError(err)

	responder := NewResponder(logging.NoLog{}, e.cfg, key, v, policy)
	e.network.Register(key.Address(), responder)
	return &testParty{
		key:       key,
		vault:     v,
		initiator: initiator,
		responder: responder,
	}
}

// issue mints [amount] to the lender, which is the issuing authority.
func (e *testEnv) issue(t *testing.T, amount uint64) states.Ref {
	inst, _, err := e.lender.run(t, func(b builder.Builder) (*txs.Tx, error) {
		return b.NewIssueCashTx(builder.IssueCash{
			Owner:  lender,
			Amount: amount,
		})
	})
	require.NoError(t, err)
	return inst.Tx().Outputs()[0].Ref
}

// fundBorrower issues [amount] and moves all of it to the borrower.
func (e *testEnv) fundBorrower(t *testing.T, amount uint64) states.Ref {
	cash := e.issue(t, amount)
	inst, _, err := e.lender.run(t, func(b builder.Builder) (*txs.Tx, error) {
		return b.NewTransferCashTx(builder.TransferCash{
			From:   lender,
			To:     borrower,
			Amount: amount,
			Cash:   cash,
		})
	})
	require.NoError(t, err)
	return inst.Tx().Outputs()[0].Ref
}

// lend creates a debt of [amount] owed by the borrower, funded by freshly
// issued cash of [amount]. It returns the debt's ref.
func (e *testEnv) lend(t *testing.T, amount uint64) states.Ref {
	cash := e.issue(t, amount)
	inst, _, err := e.lender.run(t, createDebt(amount, cash))
	require.NoError(t, err)
	return inst.Tx().Outputs()[0].Ref
}

func createDebt(amount uint64, cash states.Ref) BuildFunc {
	return func(b builder.Builder) (*txs.Tx, error) {
		return b.NewCreateDebtTx(builder.CreateDebt{
			Lender:   lender,
			Borrower: borrower,
			Amount:   amount,
			Cash:     cash,
		})
	}
}

func settleDebt(debt, cash states.Ref, amount uint64) BuildFunc {
	return func(b builder.Builder) (*txs.Tx, error) {
		return b.NewSettleDebtTx(builder.SettleDebt{
			Debt:   debt,
			Cash:   cash,
			Amount: amount,
		})
	}
}

func balance(t *testing.T, v *vault.Vault, owner ids.ShortID) uint64 {
	b, err := v.Balance(owner)
	require.NoError(t, err)
	return b
}

// seed records, without running the protocol, a finalized transaction
// producing [sts] and returns their refs.
func seed(t *testing.T, v *vault.Vault, sts ...states.State) []states.Ref {
	tx := finalized(t, nil, sts, &txs.Issue{}, v)
	refs := make([]states.Ref, len(sts))
	for i, out := range tx.Outputs() {
		refs[i] = out.Ref
	}
	return refs
}

// spend records, without running the protocol, a finalized transaction
// consuming [in].
func spend(t *testing.T, v *vault.Vault, in *states.Output) {
	finalized(t, []*states.Output{in}, []states.State{
		&states.Cash{Amount: 1, Owner: keys[4].Address()},
	}, &txs.Transfer{}, v)
}

func finalized(t *testing.T, ins []*states.Output, outs []states.State, cmd txs.Command, vaults ...*vault.Vault) *txs.Tx {
	require := require.New(t)

	utx := txs.UnsignedTx{
		Salt:    ids.GenerateTestID(),
		Ins:     ins,
		Outs:    outs,
		Command: cmd,
		Notary:  notaryKey.Address(),
	}
	utx.Signers = utx.Participants().List()
	tx, err := txs.NewTx(utx)
	require.NoError(err)

	tx.Finality, err = txs.NewFinality(notaryKey, tx.ID(), 1)
	require.NoError(err)
	for _, v := range vaults {
		require.NoError(v.RecordFinalized(tx))
	}
	return tx
}

// accept countersigns [tx] with [key].
func accept(t *testing.T, key *secp256k1.PrivateKey, tx *txs.Tx) *Response {
	sig, err := key.Sign(tx.UnsignedBytes())
	require.NoError(t, err)

	resp := &Response{Accepted: true}
	copy(resp.Sig[:], sig)
	return resp
}
