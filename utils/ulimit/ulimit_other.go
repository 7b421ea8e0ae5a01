// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !(linux || netbsd || openbsd || darwin)

package ulimit

import "github.com/ava-labs/iouledger/utils/logging"

// Set is a no-op on platforms without rlimits.
func Set(uint64, logging.Logger) error {
	return nil
}

// Get reports no limit on platforms without rlimits.
func Get() (uint64, uint64, error) {
	return 0, 0, nil
}
