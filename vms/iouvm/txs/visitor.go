// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

// Visitor allows executing logic based on the concrete command type.
type Visitor interface {
	Create(*Create) error
	Pay(*Pay) error
	PartialPay(*PartialPay) error
	Issue(*Issue) error
	Transfer(*Transfer) error
	TransferPartial(*TransferPartial) error
}
