// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database/leveldb"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/ulimit"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
)

var keys = secp256k1.TestKeys()

// requiredArgs are the flags every node must be given.
func requiredArgs() []string {
	return []string{
		fmt.Sprintf("--%s=%s", PrivateKeyKey, keys[0]),
		fmt.Sprintf("--%s=%s", NotaryIDKey, keys[2].Address()),
		fmt.Sprintf("--%s=%s", IssuingAuthorityKey, keys[0].Address()),
	}
}

func setupViper(t *testing.T, args ...string) *viper.Viper {
	v, err := BuildViper(BuildFlagSet(), args)
	require.NoError(t, err)
	return v
}

// setupConfigJSON writes [value] to a config file under [rootPath].
func setupConfigJSON(t *testing.T, rootPath string, value string) string {
	configFilePath := filepath.Join(rootPath, "config.json")
	require.NoError(t, os.WriteFile(configFilePath, []byte(value), 0o600))
	return configFilePath
}

func TestGetConfigDefaults(t *testing.T) {
	require := require.New(t)

	dataDir := t.TempDir()
	args := append(requiredArgs(), "--"+DataDirKey+"="+dataDir)
	config, err := GetConfig(setupViper(t, args...))
	require.NoError(err)

	require.Equal(keys[0].Address(), config.PrivateKey.Address())
	require.Equal(keys[2].Address(), config.Node.Notary)
	require.Equal(keys[0].Address(), config.Node.IssuingAuthority)
	require.Equal(flow.DefaultProposeTimeout, config.Node.ProposeTimeout)
	require.Equal(flow.DefaultNotarizeTimeout, config.Node.NotarizeTimeout)
	require.Zero(config.Node.MaxDebtAmount)
	require.Empty(config.Peers)

	require.Equal(dataDir, config.DataDir)
	require.Equal(uint64(ulimit.DefaultFDLimit), config.FDLimit)
	require.Equal(leveldb.Name, config.Database.Name)
	require.Equal(filepath.Join(dataDir, "db"), config.Database.Path)
	require.Equal(filepath.Join(dataDir, "logs"), config.Logging.Directory)
	require.Equal(logging.Info, config.Logging.LogLevel)
	require.Equal(logging.Info, config.Logging.DisplayLevel)

	require.Equal("127.0.0.1", config.HTTPHost)
	require.Equal(uint16(DefaultHTTPPort), config.HTTPPort)
	require.Equal(fmt.Sprintf("http://127.0.0.1:%d", DefaultNotaryPort), config.NotaryURI)
	require.True(config.MetricsEnabled)
}

func TestGetConfigFlags(t *testing.T) {
	require := require.New(t)

	args := append(requiredArgs(),
		"--"+DBTypeKey+"="+memdb.Name,
		"--"+HTTPPortKey+"=9700",
		"--"+HTTPRateLimitKey+"=12.5",
		"--"+ProposeTimeoutKey+"=3s",
		"--"+NotarizeTimeoutKey+"=0s",
		"--"+MaxDebtAmountKey+"=500",
		"--"+LogLevelKey+"=debug",
		"--"+LogDisplayLevelKey+"=warn",
		fmt.Sprintf("--%s=%s=http://127.0.0.1:9651", PeersKey, keys[1].Address()),
	)
	config, err := GetConfig(setupViper(t, args...))
	require.NoError(err)

	require.Equal(memdb.Name, config.Database.Name)
	require.Equal(uint16(9700), config.HTTPPort)
	require.Equal(12.5, config.RateLimit)
	require.Equal(100, config.RateBurst)
	require.Equal(3*time.Second, config.Node.ProposeTimeout)
	require.Zero(config.Node.NotarizeTimeout)
	require.Equal(uint64(500), config.Node.MaxDebtAmount)
	require.Equal(logging.Debug, config.Logging.LogLevel)
	require.Equal(logging.Warn, config.Logging.DisplayLevel)
	require.Equal(map[ids.ShortID]string{
		keys[1].Address(): "http://127.0.0.1:9651",
	}, config.Peers)
}

func TestGetConfigFromFile(t *testing.T) {
	require := require.New(t)

	root := t.TempDir()
	configJSON := fmt.Sprintf(`{
		%q: %q,
		%q: %q,
		%q: %q,
		%q: 250,
		%q: [%q, %q]
	}`,
		PrivateKeyKey, keys[1],
		NotaryIDKey, keys[2].Address(),
		IssuingAuthorityKey, keys[0].Address(),
		MaxDebtAmountKey,
		PeersKey,
		fmt.Sprintf("%s=http://127.0.0.1:9650", keys[0].Address()),
		fmt.Sprintf("%s=http://127.0.0.1:9652", keys[3].Address()),
	)
	configFile := setupConfigJSON(t, root, configJSON)

	// The command line takes precedence over the file.
	v := setupViper(t,
		"--"+ConfigFileKey+"="+configFile,
		"--"+MaxDebtAmountKey+"=300",
	)
	config, err := GetConfig(v)
	require.NoError(err)

	require.Equal(keys[1].Address(), config.PrivateKey.Address())
	require.Equal(keys[2].Address(), config.Node.Notary)
	require.Equal(uint64(300), config.Node.MaxDebtAmount)
	require.Len(config.Peers, 2)
	require.Equal("http://127.0.0.1:9652", config.Peers[keys[3].Address()])
}

func TestGetConfigFromEnv(t *testing.T) {
	require := require.New(t)

	t.Setenv("IOULEDGER_MAX_DEBT_AMOUNT", "42")
	t.Setenv("IOULEDGER_DB_TYPE", memdb.Name)

	config, err := GetConfig(setupViper(t, requiredArgs()...))
	require.NoError(err)
	require.Equal(uint64(42), config.Node.MaxDebtAmount)
	require.Equal(memdb.Name, config.Database.Name)
}

func TestGetPrivateKeyFromFile(t *testing.T) {
	require := require.New(t)

	keyPath := filepath.Join(t.TempDir(), "party.key")
	require.NoError(os.WriteFile(keyPath, []byte(keys[3].String()+"\n"), 0o600))

	key, err := GetPrivateKey(setupViper(t, "--"+PrivateKeyFileKey+"="+keyPath))
	require.NoError(err)
	require.Equal(keys[3].Address(), key.Address())
}

func TestGetConfigErrors(t *testing.T) {
	key := fmt.Sprintf("--%s=%s", PrivateKeyKey, keys[0])
	notary := fmt.Sprintf("--%s=%s", NotaryIDKey, keys[2].Address())
	authority := fmt.Sprintf("--%s=%s", IssuingAuthorityKey, keys[0].Address())
	peer := fmt.Sprintf("--%s=%s=http://127.0.0.1:9651", PeersKey, keys[1].Address())

	tests := []struct {
		name        string
		args        []string
		expectedErr error
	}{
		{
			name:        "missing private key",
			args:        []string{notary, authority},
			expectedErr: errMissingPrivateKey,
		},
		{
			name:        "conflicting private keys",
			args:        []string{key, notary, authority, "--" + PrivateKeyFileKey + "=party.key"},
			expectedErr: errConflictingKeys,
		},
		{
			name:        "missing notary",
			args:        []string{key, authority},
			expectedErr: errMissingNotary,
		},
		{
			name:        "missing issuing authority",
			args:        []string{key, notary},
			expectedErr: errMissingAuthority,
		},
		{
			name:        "peer without uri",
			args:        []string{key, notary, authority, "--" + PeersKey + "=" + keys[1].Address().String()},
			expectedErr: errInvalidPeer,
		},
		{
			name:        "peer with malformed party",
			args:        []string{key, notary, authority, "--" + PeersKey + "=bob=http://127.0.0.1:9651"},
			expectedErr: errInvalidPeer,
		},
		{
			name:        "duplicate peer",
			args:        []string{key, notary, authority, peer, peer},
			expectedErr: errDuplicatePeer,
		},
		{
			name:        "negative timeout",
			args:        []string{key, notary, authority, "--" + ProposeTimeoutKey + "=-1s"},
			expectedErr: errNegativeTimeout,
		},
		{
			name:        "http port out of range",
			args:        []string{key, notary, authority, "--" + HTTPPortKey + "=70000"},
			expectedErr: errInvalidHTTPPort,
		},
		{
			name:        "negative rate limit",
			args:        []string{key, notary, authority, "--" + HTTPRateLimitKey + "=-1"},
			expectedErr: errNegativeRateLimit,
		},
		{
			name:        "unknown log level",
			args:        []string{key, notary, authority, "--" + LogLevelKey + "=loud"},
			expectedErr: logging.ErrUnknownLevel,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := GetConfig(setupViper(t, test.args...))
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestGetNotaryConfig(t *testing.T) {
	require := require.New(t)

	v, err := BuildViper(BuildNotaryFlagSet(), []string{
		fmt.Sprintf("--%s=%s", PrivateKeyKey, keys[2]),
		fmt.Sprintf("--%s=%s", IssuingAuthorityKey, keys[0].Address()),
	})
	require.NoError(err)

	config, err := GetNotaryConfig(v)
	require.NoError(err)
	require.Equal(keys[2].Address(), config.PrivateKey.Address())
	require.Equal(uint16(DefaultNotaryPort), config.HTTPPort)
	require.Equal(keys[0].Address(), config.Ledger.IssuingAuthority)
}

func TestGetNotaryConfigMissingAuthority(t *testing.T) {
	v, err := BuildViper(BuildNotaryFlagSet(), []string{
		fmt.Sprintf("--%s=%s", PrivateKeyKey, keys[2]),
	})
	require.NoError(t, err)

	_, err = GetNotaryConfig(v)
	require.ErrorIs(t, err, errMissingAuthority)
}
