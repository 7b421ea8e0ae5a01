// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-labs/iouledger/app"
	"github.com/ava-labs/iouledger/config"
)

var errExited = errors.New("notary exited")

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "notary",
		Short: "Runs the uniqueness service every node trusts",
		RunE:  notaryFunc,
	}
	flags := c.Flags()
	config.AddFlags(flags)
	config.SetNotaryDefaults(flags)
	return c
}

func notaryFunc(c *cobra.Command, args []string) error {
	v, err := config.BuildViper(c.Flags(), args)
	if err != nil {
		return err
	}

	cfg, err := config.GetNotaryConfig(v)
	if err != nil {
		return fmt.Errorf("couldn't load notary config: %w", err)
	}

	process, err := app.NewNotary(cfg, nil)
	if err != nil {
		return err
	}

	if exitCode := app.Run(c.Context(), process); exitCode != 0 {
		return fmt.Errorf("%w with code %d", errExited, exitCode)
	}
	return nil
}
