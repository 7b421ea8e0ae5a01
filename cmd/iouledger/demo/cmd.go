// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package demo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/iouledger/api/health"
	"github.com/ava-labs/iouledger/app"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/vms/iouvm/node"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

const (
	DataDirKey  = "data-dir"
	LogLevelKey = "log-level"
	ServeKey    = "serve"

	readyTimeout = 30 * time.Second
	readyFreq    = 100 * time.Millisecond
)

var (
	errNotReady = errors.New("local network is not ready")
	errExited   = errors.New("local network exited")
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "demo",
		Short: "Runs a notary, a bank and a customer in this process and walks through a loan",
		RunE:  demoFunc,
	}
	flags := c.Flags()
	flags.String(DataDirKey, "", "Directory for the logs of the local network. Defaults to a temporary directory")
	flags.String(LogLevelKey, logging.Warn.String(), "The log level of every process")
	flags.Bool(ServeKey, false, "If true, keep serving after the walkthrough until interrupted")
	return c
}

func demoFunc(c *cobra.Command, args []string) error {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		return err
	}

	dataDir, err := flags.GetString(DataDirKey)
	if err != nil {
		return err
	}
	if dataDir == "" {
		dataDir, err = os.MkdirTemp("", "iouledger-demo")
		if err != nil {
			return err
		}
	}

	levelStr, err := flags.GetString(LogLevelKey)
	if err != nil {
		return err
	}
	level, err := logging.ToLevel(levelStr)
	if err != nil {
		return err
	}

	serve, err := flags.GetBool(ServeKey)
	if err != nil {
		return err
	}

	keys := make([]*secp256k1.PrivateKey, 3)
	for i := range keys {
		keys[i], err = secp256k1.NewPrivateKey()
		if err != nil {
			return err
		}
	}
	notaryKey, bankKey, customerKey := keys[0], keys[1], keys[2]

	network, err := app.NewLocalNetwork(
		dataDir,
		logging.Config{
			RotatingWriterConfig: logging.RotatingWriterConfig{
				MaxSize:  8,
				MaxFiles: 1,
			},
			LogLevel:     level,
			DisplayLevel: level,
		},
		notaryKey,
		bankKey.Address(),
		bankKey,
		customerKey,
	)
	if err != nil {
		return err
	}
	if err := network.Start(); err != nil {
		return err
	}

	walkErr := walkthrough(c.Context(), network)
	if walkErr == nil && serve {
		log.Printf("notary serving at %s\n", network.Notary.URI())
		for i, uri := range network.URIs() {
			log.Printf("party %s serving at %s\n", network.Parties[i], uri)
		}
		if exitCode := app.Run(c.Context(), network); exitCode != 0 {
			return fmt.Errorf("%w with code %d", errExited, exitCode)
		}
		return nil
	}

	if err := network.Stop(); err != nil {
		return err
	}
	if _, err := network.ExitCode(); err != nil {
		return err
	}
	return walkErr
}

// walkthrough lends cash from the bank to the customer, repays part of the
// loan and prints what each party sees after every step.
func walkthrough(ctx context.Context, network *app.LocalNetwork) error {
	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	for _, uri := range append(network.URIs(), network.Notary.URI()) {
		ready, err := health.AwaitReady(readyCtx, health.NewClient(uri), readyFreq)
		if err != nil {
			return err
		}
		if !ready {
			return fmt.Errorf("%w: %s", errNotReady, uri)
		}
	}

	uris := network.URIs()
	bank := node.NewClient(uris[0])
	customer := node.NewClient(uris[1])
	customerID := network.Parties[1]

	txID, err := bank.IssueCash(ctx, 100)
	if err != nil {
		return err
	}
	log.Printf("bank issued 100 in %s\n", txID)

	txID, err = bank.CreateDebt(ctx, 50, customerID)
	if err != nil {
		return err
	}
	log.Printf("bank lent 50 to %s in %s\n", customerID, txID)
	if err := printParties(ctx, bank, customer); err != nil {
		return err
	}

	debts, err := customer.Debts(ctx)
	if err != nil {
		return err
	}
	for _, debt := range debts {
		txID, err = customer.SettleDebt(ctx, debt.Ref, 30)
		if err != nil {
			return err
		}
		log.Printf("customer repaid 30 of %s in %s\n", debt.Ref, txID)
	}
	return printParties(ctx, bank, customer)
}

func printParties(ctx context.Context, clients ...*node.Client) error {
	for _, client := range clients {
		party, balance, err := client.Balance(ctx)
		if err != nil {
			return err
		}
		debts, err := client.Debts(ctx)
		if err != nil {
			return err
		}
		log.Printf("%s holds %d in cash\n", party, balance)
		for _, debt := range debts {
			if d, ok := debt.State.(*states.Debt); ok {
				log.Printf("  debt %s: %d from %s to %s\n", debt.Ref, d.Amount, d.Lender, d.Borrower)
			}
		}
	}
	return nil
}
