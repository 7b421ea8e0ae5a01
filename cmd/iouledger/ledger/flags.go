// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ava-labs/iouledger/config"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

const (
	URIKey    = "uri"
	AmountKey = "amount"
	ToKey     = "to"
	DebtKey   = "debt"
)

var defaultURI = fmt.Sprintf("http://127.0.0.1:%d", config.DefaultHTTPPort)

func addURIFlag(flags *pflag.FlagSet) {
	flags.String(URIKey, defaultURI, "URI of the node acting for the caller")
}

func addAmountFlag(flags *pflag.FlagSet, usage string) {
	flags.Uint64(AmountKey, 0, usage)
}

func addToFlag(flags *pflag.FlagSet, usage string) {
	flags.String(ToKey, "", usage)
}

func addDebtFlag(flags *pflag.FlagSet) {
	flags.String(DebtKey, "", "Reference of the debt to settle, formatted as <txID>:<index>")
}

type Config struct {
	URI    string
	Amount uint64
	To     ids.ShortID
	Debt   states.Ref
}

// ParseFlags reads every flag registered on [flags]. Flags that a command
// did not register are left zero.
func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	uri, err := flags.GetString(URIKey)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		URI: uri,
	}

	if flags.Lookup(AmountKey) != nil {
		cfg.Amount, err = flags.GetUint64(AmountKey)
		if err != nil {
			return nil, err
		}
	}

	if flags.Lookup(ToKey) != nil {
		toStr, err := flags.GetString(ToKey)
		if err != nil {
			return nil, err
		}
		cfg.To, err = ids.ShortFromString(toStr)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse --%s: %w", ToKey, err)
		}
	}

	if flags.Lookup(DebtKey) != nil {
		debtStr, err := flags.GetString(DebtKey)
		if err != nil {
			return nil, err
		}
		cfg.Debt, err = states.ParseRef(debtStr)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse --%s: %w", DebtKey, err)
		}
	}
	return cfg, nil
}
