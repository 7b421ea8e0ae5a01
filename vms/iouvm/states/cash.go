// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package states

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/ava-labs/iouledger/ids"
)

// MaxParties bounds the explicit participant list of a Cash state.
const MaxParties = 16

var (
	_ State = (*Cash)(nil)

	errNilCash        = errors.New("nil cash")
	errTooManyParties = errors.New("too many parties")
	errDuplicateParty = errors.New("duplicate party")
)

// Cash is a fungible amount of tokens held by a single owner.
type Cash struct {
	Amount uint64      `json:"amount"`
	Owner  ids.ShortID `json:"owner"`
	// Parties overrides the default participant set of {Owner}.
	Parties []ids.ShortID `json:"parties,omitempty"`
}

func (*Cash) Type() Type {
	return CashType
}

func (c *Cash) Participants() []ids.ShortID {
	if len(c.Parties) == 0 {
		return []ids.ShortID{c.Owner}
	}
	return slices.Clone(c.Parties)
}

func (c *Cash) Equal(other State) bool {
	o, ok := other.(*Cash)
	if !ok || c == nil || o == nil {
		return ok && c == o
	}
	return c.Amount == o.Amount &&
		c.Owner == o.Owner &&
		slices.Equal(c.Parties, o.Parties)
}

func (c *Cash) Verify() error {
	switch {
	case c == nil:
		return errNilCash
	case len(c.Parties) > MaxParties:
		return fmt.Errorf("%w: %d > %d", errTooManyParties, len(c.Parties), MaxParties)
	}
	seen := make(map[ids.ShortID]struct{}, len(c.Parties))
	for _, p := range c.Parties {
		if _, ok := seen[p]; ok {
			return fmt.Errorf("%w: %s", errDuplicateParty, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

func (c *Cash) String() string {
	return fmt.Sprintf("Cash(%d, %s)", c.Amount, c.Owner)
}
