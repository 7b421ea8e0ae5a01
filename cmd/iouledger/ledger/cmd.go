// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/node"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

// Command returns the commands that ask a running node to act for its
// party.
func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "ledger",
		Short: "Issues requests to a running node",
	}
	c.AddCommand(
		issueCommand(),
		transferCommand(),
		lendCommand(),
		settleCommand(),
		balanceCommand(),
		debtsCommand(),
		cashCommand(),
		resumeCommand(),
	)
	return c
}

func issueCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "issue",
		Short: "Issues new cash to the issuing authority",
		RunE: agreementFunc(func(c *cobra.Command, client *node.Client, config *Config) (ids.ID, error) {
			return client.IssueCash(c.Context(), config.Amount)
		}),
	}
	flags := c.Flags()
	addURIFlag(flags)
	addAmountFlag(flags, "Amount of cash to issue")
	return c
}

func transferCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "transfer",
		Short: "Transfers cash to another party",
		RunE: agreementFunc(func(c *cobra.Command, client *node.Client, config *Config) (ids.ID, error) {
			return client.TransferCash(c.Context(), config.Amount, config.To)
		}),
	}
	flags := c.Flags()
	addURIFlag(flags)
	addAmountFlag(flags, "Amount of cash to transfer")
	addToFlag(flags, "Party receiving the cash")
	return c
}

func lendCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "lend",
		Short: "Lends cash to another party, recording the debt",
		RunE: agreementFunc(func(c *cobra.Command, client *node.Client, config *Config) (ids.ID, error) {
			return client.CreateDebt(c.Context(), config.Amount, config.To)
		}),
	}
	flags := c.Flags()
	addURIFlag(flags)
	addAmountFlag(flags, "Amount to lend")
	addToFlag(flags, "Party borrowing the cash")
	return c
}

func settleCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "settle",
		Short: "Repays a debt, in full or in part",
		RunE: agreementFunc(func(c *cobra.Command, client *node.Client, config *Config) (ids.ID, error) {
			return client.SettleDebt(c.Context(), config.Debt, config.Amount)
		}),
	}
	flags := c.Flags()
	addURIFlag(flags)
	addAmountFlag(flags, "Amount to repay. Zero repays the whole debt")
	addDebtFlag(flags)
	return c
}

func balanceCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "balance",
		Short: "Displays the cash balance of the node's party",
		RunE: func(c *cobra.Command, args []string) error {
			config, err := ParseFlags(c.Flags(), args)
			if err != nil {
				return err
			}

			party, balance, err := node.NewClient(config.URI).Balance(c.Context())
			if err != nil {
				return err
			}
			log.Printf("%s has %d\n", party, balance)
			return nil
		},
	}
	addURIFlag(c.Flags())
	return c
}

func debtsCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "debts",
		Short: "Displays the debts the node's party is lender or borrower of",
		RunE: outputsFunc(func(c *cobra.Command, client *node.Client) ([]*states.Output, error) {
			return client.Debts(c.Context())
		}),
	}
	addURIFlag(c.Flags())
	return c
}

func cashCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "cash",
		Short: "Displays the cash the node's party owns",
		RunE: outputsFunc(func(c *cobra.Command, client *node.Client) ([]*states.Output, error) {
			return client.Cash(c.Context())
		}),
	}
	addURIFlag(c.Flags())
	return c
}

func resumeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "resume",
		Short: "Retries the agreements suspended by communication failures",
		RunE: func(c *cobra.Command, args []string) error {
			config, err := ParseFlags(c.Flags(), args)
			if err != nil {
				return err
			}

			pending, err := node.NewClient(config.URI).Resume(c.Context())
			if err != nil {
				return err
			}
			log.Printf("%d agreements still suspended\n", pending)
			return nil
		},
	}
	addURIFlag(c.Flags())
	return c
}

type agreement func(*cobra.Command, *node.Client, *Config) (ids.ID, error)

func agreementFunc(f agreement) func(*cobra.Command, []string) error {
	return func(c *cobra.Command, args []string) error {
		config, err := ParseFlags(c.Flags(), args)
		if err != nil {
			return err
		}

		start := time.Now()
		txID, err := f(c, node.NewClient(config.URI), config)
		if err != nil {
			return err
		}
		log.Printf("finalized tx %s in %s\n", txID, time.Since(start))
		return nil
	}
}

type outputsQuery func(*cobra.Command, *node.Client) ([]*states.Output, error)

func outputsFunc(f outputsQuery) func(*cobra.Command, []string) error {
	return func(c *cobra.Command, args []string) error {
		config, err := ParseFlags(c.Flags(), args)
		if err != nil {
			return err
		}

		outputs, err := f(c, node.NewClient(config.URI))
		if err != nil {
			return err
		}
		for _, out := range outputs {
			log.Println(out)
		}
		return nil
	}
}
