// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"errors"
	"fmt"
)

const (
	Building Status = iota
	LocallyValidated
	LocallySigned
	AwaitingCountersignature
	Countersigned
	AwaitingFinality
	Finalized
	Rejected
)

var ErrIllegalTransition = errors.New("illegal status transition")

// Status is the position of an agreement instance in the protocol.
type Status uint8

func (s Status) String() string {
	switch s {
	case Building:
		return "building"
	case LocallyValidated:
		return "locally validated"
	case LocallySigned:
		return "locally signed"
	case AwaitingCountersignature:
		return "awaiting countersignature"
	case Countersigned:
		return "countersigned"
	case AwaitingFinality:
		return "awaiting finality"
	case Finalized:
		return "finalized"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("unknown status %d", uint8(s))
	}
}

// Terminal reports whether no further transition can leave [s].
func (s Status) Terminal() bool {
	return s == Finalized || s == Rejected
}

type event uint8

const (
	eventValidated event = iota
	eventSigned
	eventProposed
	eventSelfSigned
	eventCountersigned
	eventSubmitted
	eventNotarized
	eventRejected
)

func (e event) String() string {
	switch e {
	case eventValidated:
		return "validated"
	case eventSigned:
		return "signed"
	case eventProposed:
		return "proposed"
	case eventSelfSigned:
		return "self signed"
	case eventCountersigned:
		return "countersigned"
	case eventSubmitted:
		return "submitted"
	case eventNotarized:
		return "notarized"
	case eventRejected:
		return "rejected"
	default:
		return fmt.Sprintf("unknown event %d", uint8(e))
	}
}

// transitions lists every legal move. Rejection is handled separately since
// it is reachable from every non-terminal status.
var transitions = map[Status]map[event]Status{
	Building: {
		eventValidated: LocallyValidated,
	},
	LocallyValidated: {
		eventSigned: LocallySigned,
	},
	LocallySigned: {
		eventProposed:   AwaitingCountersignature,
		eventSelfSigned: Countersigned,
	},
	AwaitingCountersignature: {
		eventCountersigned: Countersigned,
	},
	Countersigned: {
		eventSubmitted: AwaitingFinality,
	},
	AwaitingFinality: {
		eventNotarized: Finalized,
	},
}

func transition(from Status, e event) (Status, error) {
	if e == eventRejected && !from.Terminal() {
		return Rejected, nil
	}
	if to, ok := transitions[from][e]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, from, e)
}
