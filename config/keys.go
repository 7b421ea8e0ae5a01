// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	ConfigFileKey     = "config-file"
	DataDirKey        = "data-dir"
	PrivateKeyKey     = "private-key"
	PrivateKeyFileKey = "private-key-file"
	FDLimitKey        = "fd-limit"

	DBTypeKey = "db-type"
	DBPathKey = "db-dir"

	HTTPHostKey           = "http-host"
	HTTPPortKey           = "http-port"
	HTTPAllowedOriginsKey = "http-allowed-origins"
	HTTPRateLimitKey      = "http-rate-limit"
	HTTPRateBurstKey      = "http-rate-burst"
	MetricsEnabledKey     = "metrics-enabled"

	NotaryIDKey         = "notary-id"
	NotaryURIKey        = "notary-uri"
	IssuingAuthorityKey = "issuing-authority"
	PeersKey            = "peers"
	ProposeTimeoutKey   = "propose-timeout"
	NotarizeTimeoutKey  = "notarize-timeout"
	MaxDebtAmountKey    = "max-debt-amount"

	LogsDirKey            = "log-dir"
	LogLevelKey           = "log-level"
	LogDisplayLevelKey    = "log-display-level"
	LogFormatKey          = "log-format"
	LogRotaterMaxSizeKey  = "log-rotater-max-size"
	LogRotaterMaxFilesKey = "log-rotater-max-files"
	LogRotaterMaxAgeKey   = "log-rotater-max-age"
	LogRotaterCompressKey = "log-rotater-compress-enabled"
	LogDisableDisplayKey  = "log-disable-display"
)
