// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava-labs/iouledger/cmd/iouledger/demo"
	"github.com/ava-labs/iouledger/cmd/iouledger/key"
	"github.com/ava-labs/iouledger/cmd/iouledger/ledger"
	"github.com/ava-labs/iouledger/cmd/iouledger/notary"
	"github.com/ava-labs/iouledger/cmd/iouledger/run"
	"github.com/ava-labs/iouledger/config"
)

func init() {
	cobra.EnablePrefixMatching = true
}

func main() {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Runs a two-party IOU ledger",
	}
	cmd.AddCommand(
		run.Command(),
		notary.Command(),
		demo.Command(),
		key.Command(),
		ledger.Command(),
	)
	ctx := context.Background()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
