// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package states

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ava-labs/iouledger/ids"
)

var (
	errMalformedRefString  = errors.New("unexpected number of tokens in string")
	errFailedDecodingTxID  = errors.New("failed decoding ref TxID")
	errFailedDecodingIndex = errors.New("failed decoding ref index")
)

// Ref identifies one version of a state: the output at [OutputIndex] of the
// transaction [TxID].
type Ref struct {
	TxID        ids.ID
	OutputIndex uint32
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.TxID, r.OutputIndex)
}

// ParseRef is the inverse of Ref.String
func ParseRef(s string) (Ref, error) {
	ss := strings.Split(s, ":")
	if len(ss) != 2 {
		return Ref{}, errMalformedRefString
	}

	txID, err := ids.FromString(ss[0])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %w", errFailedDecodingTxID, err)
	}

	idx, err := strconv.ParseUint(ss[1], 10, 32)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %w", errFailedDecodingIndex, err)
	}

	return Ref{
		TxID:        txID,
		OutputIndex: uint32(idx),
	}, nil
}

func (r Ref) Compare(other Ref) int {
	if txIDComp := bytes.Compare(r.TxID[:], other.TxID[:]); txIDComp != 0 {
		return txIDComp
	}
	switch {
	case r.OutputIndex < other.OutputIndex:
		return -1
	case r.OutputIndex > other.OutputIndex:
		return 1
	default:
		return 0
	}
}

func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Ref) UnmarshalText(text []byte) error {
	parsed, err := ParseRef(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
