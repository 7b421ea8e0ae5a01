// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package states

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/wrappers"
)

// MaxStateSize is the largest serialized state that will be unpacked.
const MaxStateSize = 1024

var errTrailingBytes = errors.New("trailing bytes after state")

// Marshal returns the canonical, type-tagged encoding of [st].
func Marshal(st State) ([]byte, error) {
	p := wrappers.Packer{MaxSize: MaxStateSize}
	PackState(&p, st)
	return p.Bytes, p.Err
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(b []byte) (State, error) {
	p := wrappers.Packer{Bytes: b}
	st := UnpackState(&p)
	if p.Errored() {
		return nil, p.Err
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d", errTrailingBytes, len(b)-p.Offset)
	}
	return st, nil
}

func PackState(p *wrappers.Packer, st State) {
	switch st := st.(type) {
	case *Cash:
		p.PackByte(byte(CashType))
		p.PackLong(st.Amount)
		p.PackFixedBytes(st.Owner[:])
		p.PackShort(uint16(len(st.Parties)))
		for _, party := range st.Parties {
			p.PackFixedBytes(party[:])
		}
	case *Debt:
		p.PackByte(byte(DebtType))
		p.PackFixedBytes(st.ID[:])
		p.PackLong(st.Amount)
		p.PackFixedBytes(st.Lender[:])
		p.PackFixedBytes(st.Borrower[:])
	default:
		p.Add(fmt.Errorf("%w: %T", errUnknownStateType, st))
	}
}

func UnpackState(p *wrappers.Packer) State {
	switch t := Type(p.UnpackByte()); t {
	case CashType:
		c := &Cash{
			Amount: p.UnpackLong(),
			Owner:  unpackShortID(p),
		}
		numParties := p.UnpackShort()
		if numParties > MaxParties {
			p.Add(fmt.Errorf("%w: %d > %d", errTooManyParties, numParties, MaxParties))
			return nil
		}
		if numParties > 0 {
			c.Parties = make([]ids.ShortID, numParties)
			for i := range c.Parties {
				c.Parties[i] = unpackShortID(p)
			}
		}
		if p.Errored() {
			return nil
		}
		return c
	case DebtType:
		d := &Debt{}
		copy(d.ID[:], p.UnpackFixedBytes(len(uuid.UUID{})))
		d.Amount = p.UnpackLong()
		d.Lender = unpackShortID(p)
		d.Borrower = unpackShortID(p)
		if p.Errored() {
			return nil
		}
		return d
	default:
		if !p.Errored() {
			p.Add(fmt.Errorf("%w: %s", errUnknownStateType, t))
		}
		return nil
	}
}

func PackRef(p *wrappers.Packer, ref Ref) {
	p.PackFixedBytes(ref.TxID[:])
	p.PackInt(ref.OutputIndex)
}

func UnpackRef(p *wrappers.Packer) Ref {
	var ref Ref
	copy(ref.TxID[:], p.UnpackFixedBytes(ids.IDLen))
	ref.OutputIndex = p.UnpackInt()
	return ref
}

func PackOutput(p *wrappers.Packer, out *Output) {
	PackRef(p, out.Ref)
	PackState(p, out.State)
}

func UnpackOutput(p *wrappers.Packer) *Output {
	ref := UnpackRef(p)
	st := UnpackState(p)
	if p.Errored() {
		return nil
	}
	return &Output{
		Ref:   ref,
		State: st,
	}
}

func unpackShortID(p *wrappers.Packer) ids.ShortID {
	var id ids.ShortID
	copy(id[:], p.UnpackFixedBytes(ids.ShortIDLen))
	return id
}
