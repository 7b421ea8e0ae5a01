// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrMalformedCommand = errors.New("malformed command")
)

// ValidationError reports the first rule a transaction violated.
type ValidationError struct {
	// Command is the name of the command whose rules were being checked.
	Command string
	// Rule is the human readable invariant that does not hold.
	Rule string
	// Ref is the input that violated the rule, if any.
	Ref *states.Ref
	// Err is the underlying cause, if any.
	Err error
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", ErrValidation, e.Command, e.Rule)
	if e.Ref != nil {
		fmt.Fprintf(&sb, " (input %s)", e.Ref)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err)
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
