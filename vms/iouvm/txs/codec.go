// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

const (
	MaxTxSize  = 64 * 1024
	MaxInputs  = 64
	MaxOutputs = 64
	MaxSigners = 32
)

const (
	createTag byte = iota + 1
	payTag
	partialPayTag
	issueTag
	transferTag
	transferPartialTag
)

var (
	errUnknownCommand = errors.New("unknown command")
	errTooManyInputs  = errors.New("too many inputs")
	errTooManyOutputs = errors.New("too many outputs")
	errTooManySigners = errors.New("too many signers")
	errTrailingBytes  = errors.New("trailing bytes after tx")
)

func packUnsigned(p *wrappers.Packer, utx *UnsignedTx) {
	p.PackFixedBytes(utx.Salt[:])

	p.PackInt(uint32(len(utx.Ins)))
	for _, in := range utx.Ins {
		states.PackOutput(p, in)
	}

	p.PackInt(uint32(len(utx.Outs)))
	for _, out := range utx.Outs {
		states.PackState(p, out)
	}

	packCommand(p, utx.Command)

	p.PackShort(uint16(len(utx.Signers)))
	for _, signer := range utx.Signers {
		p.PackFixedBytes(signer[:])
	}
	p.PackFixedBytes(utx.Notary[:])
}

func unpackUnsigned(p *wrappers.Packer, utx *UnsignedTx) {
	copy(utx.Salt[:], p.UnpackFixedBytes(ids.IDLen))

	numIns := p.UnpackInt()
	if numIns > MaxInputs {
		p.Add(fmt.Errorf("%w: %d > %d", errTooManyInputs, numIns, MaxInputs))
		return
	}
	if numIns > 0 {
		utx.Ins = make([]*states.Output, numIns)
		for i := range utx.Ins {
			utx.Ins[i] = states.UnpackOutput(p)
		}
	}

	numOuts := p.UnpackInt()
	if numOuts > MaxOutputs {
		p.Add(fmt.Errorf("%w: %d > %d", errTooManyOutputs, numOuts, MaxOutputs))
		return
	}
	if numOuts > 0 {
		utx.Outs = make([]states.State, numOuts)
		for i := range utx.Outs {
			utx.Outs[i] = states.UnpackState(p)
		}
	}

	utx.Command = unpackCommand(p)

	numSigners := p.UnpackShort()
	if numSigners > MaxSigners {
		p.Add(fmt.Errorf("%w: %d > %d", errTooManySigners, numSigners, MaxSigners))
		return
	}
	if numSigners > 0 {
		utx.Signers = make([]ids.ShortID, numSigners)
		for i := range utx.Signers {
			copy(utx.Signers[i][:], p.UnpackFixedBytes(ids.ShortIDLen))
		}
	}
	copy(utx.Notary[:], p.UnpackFixedBytes(ids.ShortIDLen))
}

func packCommand(p *wrappers.Packer, cmd Command) {
	switch cmd := cmd.(type) {
	case *Create:
		p.PackByte(createTag)
		p.PackByte(byte(cmd.Movement))
	case *Pay:
		p.PackByte(payTag)
		p.PackByte(byte(cmd.Movement))
	case *PartialPay:
		p.PackByte(partialPayTag)
		p.PackByte(byte(cmd.Movement))
	case *Issue:
		p.PackByte(issueTag)
	case *Transfer:
		p.PackByte(transferTag)
	case *TransferPartial:
		p.PackByte(transferPartialTag)
	default:
		p.Add(fmt.Errorf("%w: %T", errUnknownCommand, cmd))
	}
}

func unpackCommand(p *wrappers.Packer) Command {
	switch tag := p.UnpackByte(); tag {
	case createTag:
		return &Create{Movement: Movement(p.UnpackByte())}
	case payTag:
		return &Pay{Movement: Movement(p.UnpackByte())}
	case partialPayTag:
		return &PartialPay{Movement: Movement(p.UnpackByte())}
	case issueTag:
		return &Issue{}
	case transferTag:
		return &Transfer{}
	case transferPartialTag:
		return &TransferPartial{}
	default:
		if !p.Errored() {
			p.Add(fmt.Errorf("%w: tag %d", errUnknownCommand, tag))
		}
		return nil
	}
}

func packSigs(p *wrappers.Packer, sigs [][secp256k1.SignatureLen]byte) {
	p.PackShort(uint16(len(sigs)))
	for _, sig := range sigs {
		p.PackFixedBytes(sig[:])
	}
}

func unpackSigs(p *wrappers.Packer) [][secp256k1.SignatureLen]byte {
	numSigs := p.UnpackShort()
	if numSigs > MaxSigners {
		p.Add(fmt.Errorf("%w: %d > %d", errTooManySigners, numSigs, MaxSigners))
		return nil
	}
	if numSigs == 0 {
		return nil
	}
	sigs := make([][secp256k1.SignatureLen]byte, numSigs)
	for i := range sigs {
		copy(sigs[i][:], p.UnpackFixedBytes(secp256k1.SignatureLen))
	}
	return sigs
}

func packFinality(p *wrappers.Packer, f *Finality) {
	p.PackBool(f != nil)
	if f == nil {
		return
	}
	p.PackLong(uint64(f.Timestamp))
	p.PackFixedBytes(f.Sig[:])
}

func unpackFinality(p *wrappers.Packer) *Finality {
	if !p.UnpackBool() {
		return nil
	}
	f := &Finality{
		Timestamp: int64(p.UnpackLong()),
	}
	copy(f.Sig[:], p.UnpackFixedBytes(secp256k1.SignatureLen))
	return f
}
