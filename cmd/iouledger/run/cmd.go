// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-labs/iouledger/app"
	"github.com/ava-labs/iouledger/config"
)

var errExited = errors.New("node exited")

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "node",
		Short: "Runs the node of a party",
		RunE:  runFunc,
	}
	config.AddFlags(c.Flags())
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	v, err := config.BuildViper(c.Flags(), args)
	if err != nil {
		return err
	}

	cfg, err := config.GetConfig(v)
	if err != nil {
		return fmt.Errorf("couldn't load node config: %w", err)
	}

	process, _, err := app.NewNode(cfg, nil)
	if err != nil {
		return err
	}

	if exitCode := app.Run(c.Context(), process); exitCode != 0 {
		return fmt.Errorf("%w with code %d", errExited, exitCode)
	}
	return nil
}
