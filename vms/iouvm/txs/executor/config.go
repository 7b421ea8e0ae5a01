// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "github.com/ava-labs/iouledger/ids"

type Config struct {
	// IssuingAuthority is the only party allowed to receive newly issued cash.
	IssuingAuthority ids.ShortID `json:"issuingAuthority"`
}
