// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var (
	alice     = ids.GenerateTestShortID()
	bob       = ids.GenerateTestShortID()
	carol     = ids.GenerateTestShortID()
	authority = ids.GenerateTestShortID()

	testConfig = Config{IssuingAuthority: authority}
)

func input(st states.State) *states.Output {
	return &states.Output{
		Ref: states.Ref{
			TxID: ids.GenerateTestID(),
		},
		State: st,
	}
}

func cash(amount uint64, owner ids.ShortID) *states.Cash {
	return &states.Cash{Amount: amount, Owner: owner}
}

func debt(id uuid.UUID, amount uint64) *states.Debt {
	return &states.Debt{
		ID:       id,
		Amount:   amount,
		Lender:   alice,
		Borrower: bob,
	}
}

func requireRule(t *testing.T, err error, rule string) {
	t.Helper()

	if rule == "" {
		require.NoError(t, err)
		return
	}
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, rule, verr.Rule)
}

func TestVerify(t *testing.T) {
	debtID := uuid.New()
	both := set.Of(alice, bob)

	tests := []struct {
		name         string
		cmd          txs.Command
		ins          []*states.Output
		outs         []states.State
		signers      set.Set[ids.ShortID]
		expectedRule string
	}{
		{
			name: "create full",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins:  []*states.Output{input(cash(40, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
			},
			signers: both,
		},
		{
			name: "create split",
			cmd:  &txs.Create{Movement: txs.SplitMovement},
			ins:  []*states.Output{input(cash(100, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
				cash(60, alice),
			},
			signers: both,
		},
		{
			name: "create with unrelated cash pair",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins: []*states.Output{
				input(cash(50, alice)),
				input(cash(7, carol)),
			},
			outs: []states.State{
				debt(debtID, 50),
				cash(50, bob),
				cash(7, carol),
			},
			signers:      set.Of(alice, bob, carol),
			expectedRule: ruleOneCashInput,
		},
		{
			name: "pay with unrelated cash pair",
			cmd:  &txs.Pay{Movement: txs.FullMovement},
			ins: []*states.Output{
				input(debt(debtID, 40)),
				input(cash(40, bob)),
				input(cash(7, carol)),
			},
			outs: []states.State{
				cash(40, alice),
				cash(7, carol),
			},
			signers:      set.Of(alice, bob, carol),
			expectedRule: ruleOneCashInput,
		},
		{
			name: "create consuming debt",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins: []*states.Output{
				input(debt(uuid.New(), 40)),
				input(cash(40, alice)),
			},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
			},
			signers:      both,
			expectedRule: ruleNoDebtInputs,
		},
		{
			name:         "create without debt",
			cmd:          &txs.Create{Movement: txs.FullMovement},
			ins:          []*states.Output{input(cash(40, alice))},
			outs:         []states.State{cash(40, bob)},
			signers:      both,
			expectedRule: ruleOneDebtOutput,
		},
		{
			name: "create self debt",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins:  []*states.Output{input(cash(40, alice))},
			outs: []states.State{
				&states.Debt{ID: debtID, Amount: 40, Lender: alice, Borrower: alice},
				cash(40, bob),
			},
			signers:      both,
			expectedRule: ruleDistinctParties,
		},
		{
			name: "create zero debt",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins:  []*states.Output{input(cash(40, alice))},
			outs: []states.State{
				debt(debtID, 0),
				cash(40, bob),
			},
			signers:      both,
			expectedRule: rulePositiveDebt,
		},
		{
			name: "create underfunded",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins:  []*states.Output{input(cash(30, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(30, bob),
			},
			signers:      both,
			expectedRule: ruleFunding,
		},
		{
			name: "create funded by borrower",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins:  []*states.Output{input(cash(40, bob))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, alice),
			},
			signers:      both,
			expectedRule: ruleFunding,
		},
		{
			name: "create missing borrower signature",
			cmd:  &txs.Create{Movement: txs.FullMovement},
			ins:  []*states.Output{input(cash(40, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
			},
			signers:      set.Of(alice),
			expectedRule: ruleSignersComplete,
		},
		{
			name: "create split missing change",
			cmd:  &txs.Create{Movement: txs.SplitMovement},
			ins:  []*states.Output{input(cash(100, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
			},
			signers:      both,
			expectedRule: ruleTwoCashOutputs,
		},
		{
			name: "create split not conserving",
			cmd:  &txs.Create{Movement: txs.SplitMovement},
			ins:  []*states.Output{input(cash(100, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
				cash(70, alice),
			},
			signers:      both,
			expectedRule: ruleConservation,
		},
		{
			name: "create unknown movement",
			cmd:  &txs.Create{},
			ins:  []*states.Output{input(cash(40, alice))},
			outs: []states.State{
				debt(debtID, 40),
				cash(40, bob),
			},
			signers:      both,
			expectedRule: ruleKnownMovement,
		},
		{
			name:    "pay full",
			cmd:     &txs.Pay{Movement: txs.FullMovement},
			ins:     []*states.Output{input(debt(debtID, 20)), input(cash(20, bob))},
			outs:    []states.State{cash(20, alice)},
			signers: both,
		},
		{
			name:    "pay with change",
			cmd:     &txs.Pay{Movement: txs.SplitMovement},
			ins:     []*states.Output{input(debt(debtID, 20)), input(cash(25, bob))},
			outs:    []states.State{cash(20, alice), cash(5, bob)},
			signers: both,
		},
		{
			name:         "pay producing debt",
			cmd:          &txs.Pay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(debt(debtID, 20)), input(cash(20, bob))},
			outs:         []states.State{cash(20, alice), debt(debtID, 20)},
			signers:      both,
			expectedRule: ruleNoDebtOutputs,
		},
		{
			name:         "pay without debt",
			cmd:          &txs.Pay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(cash(20, bob))},
			outs:         []states.State{cash(20, alice)},
			signers:      both,
			expectedRule: ruleOneDebtInput,
		},
		{
			name:         "pay short",
			cmd:          &txs.Pay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(debt(debtID, 20)), input(cash(15, bob))},
			outs:         []states.State{cash(15, alice)},
			signers:      both,
			expectedRule: ruleFunding,
		},
		{
			name:         "pay to wrong party",
			cmd:          &txs.Pay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(debt(debtID, 20)), input(cash(20, bob))},
			outs:         []states.State{cash(20, carol)},
			signers:      set.Of(alice, bob, carol),
			expectedRule: ruleFunding,
		},
		{
			name:    "partial pay",
			cmd:     &txs.PartialPay{Movement: txs.SplitMovement},
			ins:     []*states.Output{input(debt(debtID, 50)), input(cash(100, bob))},
			outs:    []states.State{debt(debtID, 30), cash(20, alice), cash(80, bob)},
			signers: both,
		},
		{
			name:         "partial pay without decrease",
			cmd:          &txs.PartialPay{Movement: txs.SplitMovement},
			ins:          []*states.Output{input(debt(debtID, 50)), input(cash(100, bob))},
			outs:         []states.State{debt(debtID, 50), cash(20, alice), cash(80, bob)},
			signers:      both,
			expectedRule: ruleDebtDecreases,
		},
		{
			name:         "partial pay to zero",
			cmd:          &txs.PartialPay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(debt(debtID, 50)), input(cash(50, bob))},
			outs:         []states.State{debt(debtID, 0), cash(50, alice)},
			signers:      both,
			expectedRule: rulePositiveDebt,
		},
		{
			name:         "partial pay changing identity",
			cmd:          &txs.PartialPay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(debt(debtID, 50)), input(cash(20, bob))},
			outs:         []states.State{debt(uuid.New(), 30), cash(20, alice)},
			signers:      both,
			expectedRule: ruleSameDebt,
		},
		{
			name:         "partial pay wrong delta",
			cmd:          &txs.PartialPay{Movement: txs.FullMovement},
			ins:          []*states.Output{input(debt(debtID, 50)), input(cash(10, bob))},
			outs:         []states.State{debt(debtID, 30), cash(10, alice)},
			signers:      both,
			expectedRule: ruleFunding,
		},
		{
			name:    "issue",
			cmd:     &txs.Issue{},
			outs:    []states.State{cash(100, authority)},
			signers: set.Of(authority),
		},
		{
			name:         "issue to someone else",
			cmd:          &txs.Issue{},
			outs:         []states.State{cash(100, alice)},
			signers:      set.Of(alice),
			expectedRule: ruleIssuedToAuthority,
		},
		{
			name:         "issue consuming cash",
			cmd:          &txs.Issue{},
			ins:          []*states.Output{input(cash(1, authority))},
			outs:         []states.State{cash(100, authority)},
			signers:      set.Of(authority),
			expectedRule: ruleNoCashInputs,
		},
		{
			name:         "issue zero",
			cmd:          &txs.Issue{},
			outs:         []states.State{cash(0, authority)},
			signers:      set.Of(authority),
			expectedRule: rulePositiveAmounts,
		},
		{
			name:         "issue debt",
			cmd:          &txs.Issue{},
			outs:         []states.State{cash(100, authority), debt(debtID, 5)},
			signers:      set.Of(authority, alice, bob),
			expectedRule: ruleNoDebts,
		},
		{
			name:         "issue unsigned",
			cmd:          &txs.Issue{},
			outs:         []states.State{cash(100, authority)},
			signers:      set.Of(alice),
			expectedRule: ruleSignersComplete,
		},
		{
			name:    "transfer",
			cmd:     &txs.Transfer{},
			ins:     []*states.Output{input(cash(10, alice))},
			outs:    []states.State{cash(10, bob)},
			signers: both,
		},
		{
			name:         "transfer to self",
			cmd:          &txs.Transfer{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(10, alice)},
			signers:      both,
			expectedRule: ruleNewOwner,
		},
		{
			name:         "transfer inflating",
			cmd:          &txs.Transfer{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(11, bob)},
			signers:      both,
			expectedRule: ruleEqualAmounts,
		},
		{
			name:         "transfer zero",
			cmd:          &txs.Transfer{},
			ins:          []*states.Output{input(cash(0, alice))},
			outs:         []states.State{cash(0, bob)},
			signers:      both,
			expectedRule: rulePositiveAmounts,
		},
		{
			name:         "transfer with debt",
			cmd:          &txs.Transfer{},
			ins:          []*states.Output{input(cash(10, alice)), input(debt(debtID, 3))},
			outs:         []states.State{cash(10, bob)},
			signers:      both,
			expectedRule: ruleNoDebts,
		},
		{
			name:         "transfer two inputs",
			cmd:          &txs.Transfer{},
			ins:          []*states.Output{input(cash(10, alice)), input(cash(10, alice))},
			outs:         []states.State{cash(20, bob)},
			signers:      both,
			expectedRule: ruleOneCashInput,
		},
		{
			name:         "transfer missing recipient signature",
			cmd:          &txs.Transfer{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(10, bob)},
			signers:      set.Of(alice),
			expectedRule: ruleSignersComplete,
		},
		{
			name:    "transfer partial",
			cmd:     &txs.TransferPartial{},
			ins:     []*states.Output{input(cash(10, alice))},
			outs:    []states.State{cash(4, bob), cash(6, alice)},
			signers: both,
		},
		{
			name:    "transfer partial change first",
			cmd:     &txs.TransferPartial{},
			ins:     []*states.Output{input(cash(10, alice))},
			outs:    []states.State{cash(6, alice), cash(4, bob)},
			signers: both,
		},
		{
			name:         "transfer partial without change",
			cmd:          &txs.TransferPartial{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(4, bob), cash(6, carol)},
			signers:      set.Of(alice, bob, carol),
			expectedRule: ruleRetainedChange,
		},
		{
			name:         "transfer partial to self",
			cmd:          &txs.TransferPartial{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(4, alice), cash(6, alice)},
			signers:      both,
			expectedRule: ruleNewOwner,
		},
		{
			name:         "transfer partial zero change",
			cmd:          &txs.TransferPartial{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(10, bob), cash(0, alice)},
			signers:      both,
			expectedRule: rulePositiveAmounts,
		},
		{
			name:         "transfer partial not conserving",
			cmd:          &txs.TransferPartial{},
			ins:          []*states.Output{input(cash(10, alice))},
			outs:         []states.State{cash(5, bob), cash(6, alice)},
			signers:      both,
			expectedRule: ruleConservation,
		},
		{
			name: "malformed state",
			cmd:  &txs.Transfer{},
			ins: []*states.Output{input(&states.Cash{
				Amount:  10,
				Owner:   alice,
				Parties: []ids.ShortID{alice, alice},
			})},
			outs:         []states.State{cash(10, bob)},
			signers:      both,
			expectedRule: ruleWellFormed,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Verify(testConfig, test.cmd, test.ins, test.outs, test.signers)
			requireRule(t, err, test.expectedRule)
		})
	}
}

func TestVerifyNilCommand(t *testing.T) {
	require := require.New(t)

	err := Verify(testConfig, nil, nil, []states.State{cash(1, authority)}, set.Of(authority))
	require.ErrorIs(err, ErrValidation)
	require.ErrorIs(err, ErrMalformedCommand)
}

func TestValidationErrorCarriesRef(t *testing.T) {
	require := require.New(t)

	in := input(cash(10, alice))
	err := Verify(testConfig, &txs.Transfer{}, []*states.Output{in}, []states.State{cash(10, alice)}, set.Of(alice))

	var verr *ValidationError
	require.True(errors.As(err, &verr))
	require.NotNil(verr.Ref)
	require.Equal(in.Ref, *verr.Ref)
	require.Equal("Transfer", verr.Command)
	require.Contains(verr.Error(), in.Ref.String())
}

func TestVerifyTx(t *testing.T) {
	require := require.New(t)

	keys := secp256k1.TestKeys()
	lender := keys[0].Address()
	borrower := keys[1].Address()

	utx := txs.UnsignedTx{
		Salt: ids.GenerateTestID(),
		Ins:  []*states.Output{input(cash(40, lender))},
		Outs: []states.State{
			states.NewDebt(40, lender, borrower),
			cash(40, borrower),
		},
		Command: &txs.Create{Movement: txs.FullMovement},
		Signers: []ids.ShortID{lender, borrower},
		Notary:  keys[2].Address(),
	}
	tx, err := txs.NewTx(utx)
	require.NoError(err)
	require.NoError(VerifyTx(testConfig, tx))

	// Declared signers drive the completeness check.
	tx.Unsigned.Signers = []ids.ShortID{lender}
	require.NoError(tx.Initialize())
	err = VerifyTx(testConfig, tx)
	requireRule(t, err, ruleSignersComplete)

	// Structural problems are reported as malformed.
	tx.Unsigned.Notary = ids.ShortEmpty
	err = VerifyTx(testConfig, tx)
	require.ErrorIs(err, ErrValidation)
	require.ErrorIs(err, ErrMalformedCommand)

	tx.Unsigned.Command = nil
	err = VerifyTx(testConfig, tx)
	require.ErrorIs(err, ErrMalformedCommand)
}
