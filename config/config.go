// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/iouledger/database/factory"
	"github.com/ava-labs/iouledger/database/leveldb"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/ulimit"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/node"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

const (
	AppName = "iouledger"

	// EnvPrefix is prepended to the upper-cased flag names, with dashes
	// replaced by underscores, when reading the environment.
	EnvPrefix = "IOULEDGER"

	DefaultHTTPPort   = 9650
	DefaultNotaryPort = 9660
)

var (
	homeDir        = os.ExpandEnv("$HOME")
	defaultDataDir = filepath.Join(homeDir, "."+AppName)
	dataDirVar     = "${" + DataDirKey + "}"

	errMissingPrivateKey = errors.New("one of --private-key or --private-key-file must be set")
	errConflictingKeys   = errors.New("only one of --private-key or --private-key-file may be set")
	errMissingNotary     = errors.New("--notary-id must be set")
	errMissingAuthority  = errors.New("--issuing-authority must be set")
	errInvalidPeer       = errors.New("peers must be given as <party>=<uri>")
	errDuplicatePeer     = errors.New("duplicate peer")
	errNegativeTimeout   = errors.New("timeouts must not be negative")
	errInvalidHTTPPort   = errors.New("http port out of range")
	errNegativeRateLimit = errors.New("rate limits must not be negative")
)

// ProcessConfig is what every iouledger process needs to serve: its key,
// its database, its HTTP server and its logs.
type ProcessConfig struct {
	// PrivateKey signs on behalf of this process's party.
	PrivateKey *secp256k1.PrivateKey `json:"-"`

	DataDir  string                 `json:"dataDir"`
	Database factory.DatabaseConfig `json:"database"`

	// FDLimit is the soft limit on open file descriptors to request. Zero
	// leaves the limit unchanged.
	FDLimit uint64 `json:"fdLimit"`

	HTTPHost       string   `json:"httpHost"`
	HTTPPort       uint16   `json:"httpPort"`
	AllowedOrigins []string `json:"allowedOrigins"`
	MetricsEnabled bool     `json:"metricsEnabled"`

	// RateLimit is the number of API requests served per second. Zero
	// disables the limit.
	RateLimit float64 `json:"rateLimit"`
	RateBurst int     `json:"rateBurst"`

	Logging logging.Config `json:"logging"`
}

// Config is everything a party's node needs to start.
type Config struct {
	ProcessConfig `json:"process"`

	Node node.Config `json:"node"`

	// NotaryURI is where the notary's RPC service is reached.
	NotaryURI string `json:"notaryURI"`
	// Peers maps each counterparty to the URI of its node.
	Peers map[ids.ShortID]string `json:"peers"`
}

// NotaryConfig is everything the notary needs to start.
type NotaryConfig struct {
	ProcessConfig `json:"process"`

	// Ledger holds the rules every notarized transaction must satisfy.
	Ledger executor.Config `json:"ledger"`
}

// BuildFlagSet returns the complete set of flags for iouledger.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	AddFlags(fs)
	return fs
}

// BuildNotaryFlagSet returns the flags for a notary process, which differ
// from a node's only in the default HTTP port.
func BuildNotaryFlagSet() *pflag.FlagSet {
	fs := BuildFlagSet()
	SetNotaryDefaults(fs)
	return fs
}

// SetNotaryDefaults changes the defaults of the flags in [fs] to those of a
// notary process.
func SetNotaryDefaults(fs *pflag.FlagSet) {
	if flag := fs.Lookup(HTTPPortKey); flag != nil {
		flag.DefValue = strconv.Itoa(DefaultNotaryPort)
		_ = flag.Value.Set(flag.DefValue)
	}
}

// AddFlags registers the iouledger flags on [fs].
func AddFlags(fs *pflag.FlagSet) {
	// Process
	fs.String(ConfigFileKey, "", "Specifies a config file")
	fs.String(DataDirKey, defaultDataDir, "Sets the base data directory where default sub-directories will be placed unless otherwise specified")
	fs.String(PrivateKeyKey, "", "Private key of this party, formatted as PrivateKey-<cb58>")
	fs.String(PrivateKeyFileKey, "", "Path to a file holding the private key of this party")
	fs.Uint64(FDLimitKey, ulimit.DefaultFDLimit, "Attempts to raise the process file descriptor limit to at least this value. Zero leaves the limit unchanged")

	// Database
	fs.String(DBTypeKey, leveldb.Name, fmt.Sprintf("Database type to use. Should be one of {%s, %s}", leveldb.Name, memdb.Name))
	fs.String(DBPathKey, filepath.Join(dataDirVar, "db"), "Path to database directory")

	// HTTP APIs
	fs.String(HTTPHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(HTTPPortKey, DefaultHTTPPort, "Port of the HTTP server")
	fs.StringSlice(HTTPAllowedOriginsKey, []string{"*"}, "Origins to allow on the HTTP port")
	fs.Float64(HTTPRateLimitKey, 0, "Number of API requests served per second. Zero disables the limit")
	fs.Int(HTTPRateBurstKey, 100, "Number of API requests that may be served in a burst above the rate limit")
	fs.Bool(MetricsEnabledKey, true, "If true, serve prometheus metrics on the HTTP server")

	// Ledger
	fs.String(NotaryIDKey, "", "Party ID of the trusted notary")
	fs.String(NotaryURIKey, fmt.Sprintf("http://127.0.0.1:%d", DefaultNotaryPort), "URI of the notary's HTTP server")
	fs.String(IssuingAuthorityKey, "", "Party ID allowed to issue cash")
	fs.StringSlice(PeersKey, nil, "Counterparties, each given as <party>=<uri>")
	fs.Duration(ProposeTimeoutKey, flow.DefaultProposeTimeout, "Time to wait for a counterparty to answer a proposal. Zero disables the timeout")
	fs.Duration(NotarizeTimeoutKey, flow.DefaultNotarizeTimeout, "Time to wait for the notary to answer. Zero disables the timeout")
	fs.Uint64(MaxDebtAmountKey, 0, "Largest debt this party countersigns. Zero disables the ceiling")

	// Logging
	fs.String(LogsDirKey, filepath.Join(dataDirVar, "logs"), "Logging directory")
	fs.String(LogLevelKey, logging.Info.String(), "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogDisplayLevelKey, "", "The log display level. If left blank, will inherit the value of log-level")
	fs.String(LogFormatKey, "auto", "The structure of log format. Should be one of {auto, plain, colors, json}")
	fs.Uint(LogRotaterMaxSizeKey, 8, "The maximum file size in megabytes of the log file before it gets rotated")
	fs.Uint(LogRotaterMaxFilesKey, 7, "The maximum number of old log files to retain. 0 means retain all old log files")
	fs.Uint(LogRotaterMaxAgeKey, 0, "The maximum number of days to retain old log files based on the timestamp encoded in their filename. 0 means retain all old log files")
	fs.Bool(LogRotaterCompressKey, false, "Enables the compression of rotated log files through gzip")
	fs.Bool(LogDisableDisplayKey, false, "Disables displaying logs to stdout")
}

// BuildViper binds [fs] to a new viper instance after parsing [args]. Values
// are read, in increasing precedence, from the defaults, the config file, the
// environment and the command line.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if configFile := getExpandedArg(v, ConfigFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// getExpandedArg gets the string in viper corresponding to [key] and expands
// any variables using the OS env. If the [DataDirKey] var is used, it expands
// to the value of [DataDirKey].
func getExpandedArg(v *viper.Viper, key string) string {
	return getExpandedString(v, v.GetString(key))
}

func getExpandedString(v *viper.Viper, s string) string {
	return os.Expand(
		s,
		func(strVar string) string {
			if strVar == DataDirKey {
				return os.ExpandEnv(v.GetString(DataDirKey))
			}
			return os.Getenv(strVar)
		},
	)
}

// GetProcessConfig parses the process settings in [v].
func GetProcessConfig(v *viper.Viper) (ProcessConfig, error) {
	config := ProcessConfig{
		DataDir:        getExpandedArg(v, DataDirKey),
		FDLimit:        v.GetUint64(FDLimitKey),
		HTTPHost:       v.GetString(HTTPHostKey),
		AllowedOrigins: v.GetStringSlice(HTTPAllowedOriginsKey),
		MetricsEnabled: v.GetBool(MetricsEnabledKey),
		RateLimit:      v.GetFloat64(HTTPRateLimitKey),
		RateBurst:      v.GetInt(HTTPRateBurstKey),
		Database: factory.DatabaseConfig{
			Name: v.GetString(DBTypeKey),
			Path: getExpandedArg(v, DBPathKey),
		},
	}

	var err error
	config.PrivateKey, err = GetPrivateKey(v)
	if err != nil {
		return ProcessConfig{}, err
	}

	if config.RateLimit < 0 || config.RateBurst < 0 {
		return ProcessConfig{}, fmt.Errorf("%w: %s=%f, %s=%d",
			errNegativeRateLimit,
			HTTPRateLimitKey, config.RateLimit,
			HTTPRateBurstKey, config.RateBurst,
		)
	}

	port := v.GetUint(HTTPPortKey)
	if port > math.MaxUint16 {
		return ProcessConfig{}, fmt.Errorf("%w: %d", errInvalidHTTPPort, port)
	}
	config.HTTPPort = uint16(port)

	config.Logging, err = getLoggingConfig(v)
	if err != nil {
		return ProcessConfig{}, err
	}
	return config, nil
}

// GetConfig parses the node settings in [v].
func GetConfig(v *viper.Viper) (Config, error) {
	processConfig, err := GetProcessConfig(v)
	if err != nil {
		return Config{}, err
	}

	config := Config{
		ProcessConfig: processConfig,
		NotaryURI:     v.GetString(NotaryURIKey),
	}
	config.Node, err = getNodeConfig(v)
	if err != nil {
		return Config{}, err
	}

	config.Peers, err = getPeers(v.GetStringSlice(PeersKey))
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// GetNotaryConfig parses the notary settings in [v].
func GetNotaryConfig(v *viper.Viper) (NotaryConfig, error) {
	processConfig, err := GetProcessConfig(v)
	if err != nil {
		return NotaryConfig{}, err
	}
	authority, err := getIssuingAuthority(v)
	if err != nil {
		return NotaryConfig{}, err
	}
	return NotaryConfig{
		ProcessConfig: processConfig,
		Ledger: executor.Config{
			IssuingAuthority: authority,
		},
	}, nil
}

// GetPrivateKey parses the private key given inline or by file in [v].
func GetPrivateKey(v *viper.Viper) (*secp256k1.PrivateKey, error) {
	keyStr := v.GetString(PrivateKeyKey)
	keyPath := getExpandedArg(v, PrivateKeyFileKey)
	switch {
	case keyStr != "" && keyPath != "":
		return nil, errConflictingKeys
	case keyPath != "":
		keyBytes, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("couldn't read private key file: %w", err)
		}
		keyStr = strings.TrimSpace(string(keyBytes))
	case keyStr == "":
		return nil, errMissingPrivateKey
	}

	key := &secp256k1.PrivateKey{}
	if err := key.UnmarshalText([]byte(keyStr)); err != nil {
		return nil, fmt.Errorf("couldn't parse private key: %w", err)
	}
	return key, nil
}

func getNodeConfig(v *viper.Viper) (node.Config, error) {
	notaryStr := v.GetString(NotaryIDKey)
	if notaryStr == "" {
		return node.Config{}, errMissingNotary
	}
	notaryID, err := ids.ShortFromString(notaryStr)
	if err != nil {
		return node.Config{}, fmt.Errorf("couldn't parse %s: %w", NotaryIDKey, err)
	}

	authority, err := getIssuingAuthority(v)
	if err != nil {
		return node.Config{}, err
	}

	proposeTimeout := v.GetDuration(ProposeTimeoutKey)
	notarizeTimeout := v.GetDuration(NotarizeTimeoutKey)
	if proposeTimeout < 0 || notarizeTimeout < 0 {
		return node.Config{}, fmt.Errorf("%w: %s=%s, %s=%s",
			errNegativeTimeout,
			ProposeTimeoutKey, proposeTimeout,
			NotarizeTimeoutKey, notarizeTimeout,
		)
	}

	return node.Config{
		Config: flow.Config{
			Config: executor.Config{
				IssuingAuthority: authority,
			},
			Notary:          notaryID,
			ProposeTimeout:  proposeTimeout,
			NotarizeTimeout: notarizeTimeout,
		},
		MaxDebtAmount: v.GetUint64(MaxDebtAmountKey),
	}, nil
}

func getIssuingAuthority(v *viper.Viper) (ids.ShortID, error) {
	authorityStr := v.GetString(IssuingAuthorityKey)
	if authorityStr == "" {
		return ids.ShortEmpty, errMissingAuthority
	}
	authority, err := ids.ShortFromString(authorityStr)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("couldn't parse %s: %w", IssuingAuthorityKey, err)
	}
	return authority, nil
}

func getPeers(entries []string) (map[ids.ShortID]string, error) {
	peers := make(map[ids.ShortID]string, len(entries))
	for _, entry := range entries {
		partyStr, uri, ok := strings.Cut(entry, "=")
		if !ok || uri == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidPeer, entry)
		}
		party, err := ids.ShortFromString(partyStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", errInvalidPeer, entry, err)
		}
		if _, ok := peers[party]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicatePeer, party)
		}
		peers[party] = uri
	}
	return peers, nil
}

func getLoggingConfig(v *viper.Viper) (logging.Config, error) {
	loggingConfig := logging.Config{}
	loggingConfig.Directory = getExpandedArg(v, LogsDirKey)

	var err error
	loggingConfig.LogLevel, err = logging.ToLevel(v.GetString(LogLevelKey))
	if err != nil {
		return loggingConfig, err
	}

	logDisplayLevel := v.GetString(LogDisplayLevelKey)
	if logDisplayLevel == "" {
		logDisplayLevel = v.GetString(LogLevelKey)
	}
	loggingConfig.DisplayLevel, err = logging.ToLevel(logDisplayLevel)
	if err != nil {
		return loggingConfig, err
	}

	loggingConfig.LogFormat, err = logging.ToFormat(v.GetString(LogFormatKey), os.Stdout.Fd())
	loggingConfig.DisableWriterDisplaying = v.GetBool(LogDisableDisplayKey)
	loggingConfig.MaxSize = int(v.GetUint(LogRotaterMaxSizeKey))
	loggingConfig.MaxFiles = int(v.GetUint(LogRotaterMaxFilesKey))
	loggingConfig.MaxAge = int(v.GetUint(LogRotaterMaxAgeKey))
	loggingConfig.Compress = v.GetBool(LogRotaterCompressKey)
	return loggingConfig, err
}
