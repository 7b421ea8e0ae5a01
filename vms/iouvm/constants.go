// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iouvm

import "github.com/ava-labs/iouledger/ids"

const Name = "iouvm"

var ID = ids.ID{'i', 'o', 'u', 'v', 'm'}
