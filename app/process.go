// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ava-labs/iouledger/api/health"
	"github.com/ava-labs/iouledger/api/metrics"
	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/config"
	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/database/factory"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/utils/perms"
	"github.com/ava-labs/iouledger/utils/ulimit"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/network"
	"github.com/ava-labs/iouledger/vms/iouvm/node"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
)

const healthCheckFreq = 10 * time.Second

var _ App = (*Process)(nil)

// Process serves a party's node or the notary over HTTP.
type Process struct {
	log        logging.Logger
	logFactory logging.Factory
	registry   *prometheus.Registry
	db         database.Database
	health     health.Health
	server     *server.Server
	listener   net.Listener

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	// set before [done] is closed
	serveErr  error
}

// NewNotary returns a process serving the uniqueness service keyed by
// [cfg.PrivateKey]. If [listener] is nil, the configured HTTP address is
// bound.
func NewNotary(cfg config.NotaryConfig, listener net.Listener) (*Process, error) {
	p, err := newProcess(cfg.ProcessConfig, "notary", listener)
	if err != nil {
		return nil, err
	}

	uniqueness, err := notary.NewUniqueness(p.log, cfg.Ledger, cfg.PrivateKey, p.db, "notary", p.registry)
	if err != nil {
		return nil, p.abort(err)
	}
	interceptor, err := metric.NewAPIInterceptor("api", p.registry)
	if err != nil {
		return nil, p.abort(err)
	}
	handler, err := notary.NewHandler(notary.NewService(p.log, uniqueness), interceptor)
	if err != nil {
		return nil, p.abort(err)
	}
	err = p.server.AddRoute(
		&server.HTTPHandler{LockOptions: server.NoLock, Handler: handler},
		&sync.RWMutex{},
		notary.Endpoint,
		"",
	)
	if err != nil {
		return nil, p.abort(err)
	}
	return p, nil
}

// NewNode returns a process serving the node of the party keyed by
// [cfg.PrivateKey]. If [listener] is nil, the configured HTTP address is
// bound.
func NewNode(cfg config.Config, listener net.Listener) (*Process, *node.Node, error) {
	p, err := newProcess(cfg.ProcessConfig, "node", listener)
	if err != nil {
		return nil, nil, err
	}

	notaryClient := notary.NewClient(cfg.NotaryURI)
	n, err := node.New(
		p.log,
		cfg.Node,
		cfg.PrivateKey,
		p.db,
		notaryClient,
		network.NewClient(cfg.Peers),
		p.registry,
	)
	if err != nil {
		return nil, nil, p.abort(err)
	}

	interceptor, err := metric.NewAPIInterceptor("api", p.registry)
	if err != nil {
		return nil, nil, p.abort(err)
	}

	errs := wrappers.Errs{}
	errs.Add(
		n.RegisterRoutes(p.server, interceptor),
		p.health.RegisterHealthCheck("agreements", n),
		p.health.RegisterReadinessCheck("notary", health.CheckerFunc(func(ctx context.Context) (interface{}, error) {
			_, err := notaryClient.Finality(ctx, ids.Empty)
			if errors.Is(err, notary.ErrNotNotarized) {
				return cfg.NotaryURI, nil
			}
			return cfg.NotaryURI, err
		})),
	)
	if errs.Errored() {
		return nil, nil, p.abort(errs.Err)
	}
	return p, n, nil
}

func newProcess(cfg config.ProcessConfig, name string, listener net.Listener) (*Process, error) {
	if err := perms.ChmodR(cfg.DataDir, true, perms.ReadWriteExecute); err != nil {
		return nil, fmt.Errorf("failed to restrict the permissions of the data directory: %w", err)
	}

	logFactory := logging.NewFactory(cfg.Logging)
	log, err := logFactory.Make(name)
	if err != nil {
		logFactory.Close()
		return nil, fmt.Errorf("couldn't create logger: %w", err)
	}

	p := &Process{
		log:        log,
		logFactory: logFactory,
		registry:   prometheus.NewRegistry(),
		listener:   listener,
		done:       make(chan struct{}),
	}

	if err := ulimit.Set(cfg.FDLimit, log); err != nil {
		return nil, p.abort(fmt.Errorf("failed to set fd-limit: %w", err))
	}

	p.db, err = factory.NewDatabase(cfg.Database, log, "db", p.registry)
	if err != nil {
		return nil, p.abort(err)
	}

	p.health, err = health.New(log, p.registry)
	if err != nil {
		return nil, p.abort(err)
	}
	if err := p.health.RegisterHealthCheck("database", p.db); err != nil {
		return nil, p.abort(err)
	}

	if p.listener == nil {
		address := net.JoinHostPort(cfg.HTTPHost, strconv.FormatUint(uint64(cfg.HTTPPort), 10))
		p.listener, err = net.Listen("tcp", address)
		if err != nil {
			return nil, p.abort(err)
		}
	}

	p.server = server.New(
		log,
		cfg.HTTPHost,
		cfg.HTTPPort,
		cfg.AllowedOrigins,
		cfg.PrivateKey.Address(),
		nil,
	)
	if cfg.RateLimit > 0 {
		p.server.LimitRate(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	healthHandler, err := health.NewHandler(health.NewService(log, p.health))
	if err != nil {
		return nil, p.abort(err)
	}
	err = p.server.AddRoute(
		&server.HTTPHandler{LockOptions: server.NoLock, Handler: healthHandler},
		&sync.RWMutex{},
		health.Endpoint,
		"",
	)
	if err != nil {
		return nil, p.abort(err)
	}

	if cfg.MetricsEnabled {
		err = p.server.AddRoute(
			&server.HTTPHandler{LockOptions: server.NoLock, Handler: metrics.NewHandler(p.registry)},
			&sync.RWMutex{},
			metrics.Endpoint,
			"",
		)
		if err != nil {
			return nil, p.abort(err)
		}
	}
	return p, nil
}

// URI is where the process's HTTP server is reached.
func (p *Process) URI() string {
	return "http://" + p.listener.Addr().String()
}

// Start serves the process's APIs. Calls after the first are no-ops.
func (p *Process) Start() error {
	p.startOnce.Do(func() {
		p.health.Start(context.Background(), healthCheckFreq)
		go func() {
			p.serveErr = p.server.DispatchListener(p.listener)
			close(p.done)
		}()
	})
	return nil
}

func (p *Process) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		p.log.Info("shutting down")
		err = p.server.Shutdown()
	})
	return err
}

func (p *Process) ExitCode() (int, error) {
	<-p.done
	p.health.Stop()

	errs := wrappers.Errs{}
	errs.Add(p.serveErr, p.db.Close())
	if errs.Errored() {
		p.log.Error("process exited with an error",
			zap.Error(errs.Err),
		)
	} else {
		p.log.Info("process exited")
	}
	p.logFactory.Close()

	if errs.Errored() {
		return 1, errs.Err
	}
	return 0, nil
}

// abort releases everything acquired while building the process and returns
// [err].
func (p *Process) abort(err error) error {
	p.log.Error("couldn't create process",
		zap.Error(err),
	)
	if p.listener != nil {
		_ = p.listener.Close()
	}
	if p.db != nil {
		_ = p.db.Close()
	}
	p.logFactory.Close()
	return err
}
