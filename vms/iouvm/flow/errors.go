// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/rpc"
)

var (
	// ErrUnreachable is returned by a Counterparty that has no route to the
	// addressed party.
	ErrUnreachable = errors.New("party unreachable")
	ErrRejected    = errors.New("transaction rejected")

	errAlreadyRunning          = errors.New("instance is already running")
	errInvalidCountersignature = errors.New("countersignature does not match the party")
)

// CommunicationError reports that a round trip to a counterparty or the
// notary did not complete. The instance keeps its status and may be resumed.
type CommunicationError struct {
	Op string
	// Party is empty for notary round trips.
	Party ids.ShortID
	Err   error
}

func (e *CommunicationError) Error() string {
	if e.Party == ids.ShortEmpty {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s with %s failed: %s", e.Op, e.Party, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// RejectedError reports that a counterparty refused to sign or record a
// transaction.
type RejectedError struct {
	Party  ids.ShortID
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s by %s: %s", ErrRejected, e.Party, e.Reason)
}

func (*RejectedError) Unwrap() error {
	return ErrRejected
}

// IsRecoverable reports whether the instance that returned [err] can be run
// again to continue from its last unacknowledged step.
func IsRecoverable(err error) bool {
	var commErr *CommunicationError
	return errors.As(err, &commErr)
}

// isCommunicationFailure reports whether [err] may have been caused by the
// transport rather than by the remote party's decision.
func isCommunicationFailure(err error) bool {
	return errors.Is(err, rpc.ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrUnreachable)
}
