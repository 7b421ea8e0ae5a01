// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build linux || netbsd || openbsd || darwin

package ulimit

import (
	"fmt"
	"syscall"

	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/utils/logging"
)

// Set raises the soft limit on open file descriptors to [limit]. The hard
// limit is left untouched, as raising it requires superuser privileges. A
// zero [limit] leaves the limit unchanged.
func Set(limit uint64, log logging.Logger) error {
	if limit == 0 {
		return nil
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return fmt.Errorf("error getting rlimit: %w", err)
	}
	if limit > uint64(rLimit.Max) {
		return fmt.Errorf("%w: %d > %d", errLimitTooHigh, limit, rLimit.Max)
	}

	rLimit.Cur = limit
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return fmt.Errorf("error setting fd-limit: %w", err)
	}

	// the kernel may clamp the requested value
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return fmt.Errorf("error getting rlimit: %w", err)
	}
	if uint64(rLimit.Cur) < DefaultFDLimit {
		log.Warn("fd-limit is less than recommended",
			zap.Uint64("limit", uint64(rLimit.Cur)),
			zap.Uint64("recommendedLimit", DefaultFDLimit),
		)
	}
	return nil
}

// Get returns the soft and hard limits on open file descriptors.
func Get() (uint64, uint64, error) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, 0, fmt.Errorf("error getting rlimit: %w", err)
	}
	return uint64(rLimit.Cur), uint64(rLimit.Max), nil
}
