// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ulimit

import "errors"

// DefaultFDLimit is the number of open file descriptors a process is
// expected to need: the database's files plus the connections of every API
// caller and counterparty.
const DefaultFDLimit = 32 * 1024

var errLimitTooHigh = errors.New("fd-limit greater than the hard limit")
