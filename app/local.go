// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package app

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/iouledger/config"
	"github.com/ava-labs/iouledger/database/factory"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/node"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

const localHost = "127.0.0.1"

var (
	_ App = (*LocalNetwork)(nil)

	errNoParties = errors.New("a local network needs at least one party")
)

// LocalNetwork is a notary and a set of party nodes serving on loopback
// ports of this process, each with an in-memory database.
type LocalNetwork struct {
	Notary  *Process
	// Nodes are in the order of the keys the network was created with.
	Nodes   []*Process
	Parties []ids.ShortID
}

// NewLocalNetwork creates a notary keyed by [notaryKey] and one node per
// [partyKeys]. Every node trusts the notary and [authority], and knows every
// other node as a peer. Logs are written under [dataDir].
func NewLocalNetwork(
	dataDir string,
	logConfig logging.Config,
	notaryKey *secp256k1.PrivateKey,
	authority ids.ShortID,
	partyKeys ...*secp256k1.PrivateKey,
) (*LocalNetwork, error) {
	if len(partyKeys) == 0 {
		return nil, errNoParties
	}

	listeners := make([]net.Listener, len(partyKeys)+1)
	for i := range listeners {
		listener, err := net.Listen("tcp", net.JoinHostPort(localHost, "0"))
		if err != nil {
			closeListeners(listeners)
			return nil, err
		}
		listeners[i] = listener
	}

	processConfig := func(name string, key *secp256k1.PrivateKey) config.ProcessConfig {
		dir := filepath.Join(dataDir, name)
		logs := logConfig
		logs.Directory = filepath.Join(dir, "logs")
		return config.ProcessConfig{
			PrivateKey: key,
			DataDir:    dir,
			Database: factory.DatabaseConfig{
				Name: memdb.Name,
			},
			HTTPHost:       localHost,
			AllowedOrigins: []string{"*"},
			MetricsEnabled: true,
			Logging:        logs,
		}
	}

	n := &LocalNetwork{
		Parties: make([]ids.ShortID, len(partyKeys)),
	}
	uris := make(map[ids.ShortID]string, len(partyKeys))
	for i, key := range partyKeys {
		n.Parties[i] = key.Address()
		uris[n.Parties[i]] = "http://" + listeners[i+1].Addr().String()
	}

	ledger := executor.Config{
		IssuingAuthority: authority,
	}

	var err error
	n.Notary, err = NewNotary(config.NotaryConfig{
		ProcessConfig: processConfig("notary", notaryKey),
		Ledger:        ledger,
	}, listeners[0])
	if err != nil {
		closeListeners(listeners[1:])
		return nil, fmt.Errorf("couldn't create notary: %w", err)
	}

	for i, key := range partyKeys {
		peers := make(map[ids.ShortID]string, len(uris)-1)
		for party, uri := range uris {
			if party != n.Parties[i] {
				peers[party] = uri
			}
		}

		cfg := config.Config{
			ProcessConfig: processConfig(fmt.Sprintf("node-%d", i), key),
			Node: node.Config{
				Config: flow.Config{
					Config:          ledger,
					Notary:          notaryKey.Address(),
					ProposeTimeout:  flow.DefaultProposeTimeout,
					NotarizeTimeout: flow.DefaultNotarizeTimeout,
				},
			},
			NotaryURI: n.Notary.URI(),
			Peers:     peers,
		}
		p, _, err := NewNode(cfg, listeners[i+1])
		if err != nil {
			closeListeners(listeners[i+2:])
			_ = n.stopCreated()
			return nil, fmt.Errorf("couldn't create node %s: %w", n.Parties[i], err)
		}
		n.Nodes = append(n.Nodes, p)
	}
	return n, nil
}

// URIs returns the URI of every node, in party order.
func (n *LocalNetwork) URIs() []string {
	uris := make([]string, len(n.Nodes))
	for i, p := range n.Nodes {
		uris[i] = p.URI()
	}
	return uris
}

func (n *LocalNetwork) Start() error {
	for _, p := range n.processes() {
		if err := p.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop notifies every process to exit.
func (n *LocalNetwork) Stop() error {
	errs := wrappers.Errs{}
	for _, p := range n.processes() {
		errs.Add(p.Stop())
	}
	return errs.Err
}

// ExitCode waits for every process to exit and returns the highest exit
// code.
func (n *LocalNetwork) ExitCode() (int, error) {
	var (
		eg        errgroup.Group
		processes = n.processes()
		exitCodes = make([]int, len(processes))
	)
	for i, p := range processes {
		i, p := i, p
		eg.Go(func() error {
			var err error
			exitCodes[i], err = p.ExitCode()
			return err
		})
	}
	err := eg.Wait()

	exitCode := 0
	for _, code := range exitCodes {
		exitCode = max(exitCode, code)
	}
	return exitCode, err
}

// stopCreated releases the processes of a network that was never started.
func (n *LocalNetwork) stopCreated() error {
	if err := n.Start(); err != nil {
		return err
	}
	if err := n.Stop(); err != nil {
		return err
	}
	_, err := n.ExitCode()
	return err
}

func (n *LocalNetwork) processes() []*Process {
	processes := make([]*Process, 0, len(n.Nodes)+1)
	if n.Notary != nil {
		processes = append(processes, n.Notary)
	}
	return append(processes, n.Nodes...)
}

func closeListeners(listeners []net.Listener) {
	for _, listener := range listeners {
		if listener != nil {
			_ = listener.Close()
		}
	}
}
