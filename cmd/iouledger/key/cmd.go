// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package key

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/perms"
)

const OutputKey = "output"

var errWrongArgs = errors.New("expected exactly one private key")

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "key",
		Short: "Manages party keys",
	}
	c.AddCommand(
		newCommand(),
		addressCommand(),
	)
	return c
}

func newCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "new",
		Short: "Generates a private key and prints the party it identifies",
		RunE:  newFunc,
	}
	c.Flags().String(OutputKey, "", "If set, the private key is written to this file instead of being printed")
	return c
}

func newFunc(c *cobra.Command, _ []string) error {
	output, err := c.Flags().GetString(OutputKey)
	if err != nil {
		return err
	}

	sk, err := secp256k1.NewPrivateKey()
	if err != nil {
		return err
	}

	if output == "" {
		log.Printf("party %s\nprivate key %s\n", sk.Address(), sk)
		return nil
	}

	if err := os.WriteFile(output, []byte(sk.String()+"\n"), perms.ReadOnly); err != nil {
		return fmt.Errorf("couldn't write private key: %w", err)
	}
	log.Printf("party %s\nprivate key written to %s\n", sk.Address(), output)
	return nil
}

func addressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "address <private-key>",
		Short: "Prints the party identified by a private key",
		RunE:  addressFunc,
	}
}

func addressFunc(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errWrongArgs
	}

	sk := &secp256k1.PrivateKey{}
	if err := sk.UnmarshalText([]byte(strings.TrimSpace(args[0]))); err != nil {
		return fmt.Errorf("couldn't parse private key: %w", err)
	}
	log.Printf("party %s\n", sk.Address())
	return nil
}
