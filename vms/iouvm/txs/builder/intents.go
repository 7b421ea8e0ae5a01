// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builder

import (
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

// CreateDebt lends [Amount] from [Lender] to [Borrower] out of [Cash].
type CreateDebt struct {
	Lender   ids.ShortID
	Borrower ids.ShortID
	Amount   uint64
	Cash     states.Ref
}

// SettleDebt repays [Debt] out of [Cash]. An [Amount] of zero, or equal to
// the outstanding amount, settles the debt in full.
type SettleDebt struct {
	Debt   states.Ref
	Cash   states.Ref
	Amount uint64
}

// IssueCash mints [Amount] to [Owner].
type IssueCash struct {
	Owner  ids.ShortID
	Amount uint64
}

// TransferCash moves [Amount] from [From] to [To] out of [Cash].
type TransferCash struct {
	From   ids.ShortID
	To     ids.ShortID
	Amount uint64
	Cash   states.Ref
}
