// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactoryMake(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	factory := NewFactory(Config{
		RotatingWriterConfig: RotatingWriterConfig{
			Directory: dir,
			MaxSize:   1,
		},
		DisplayLevel: Off,
		LogLevel:     Info,
	})

	logger, err := factory.Make("node")
	require.NoError(err)
	logger.Info("started")

	_, err = factory.Make("node")
	require.ErrorContains(err, "already exists")

	child, err := factory.MakeChild("node", "flow")
	require.NoError(err)
	child.Info("step")

	require.ElementsMatch([]string{"node", "node.flow"}, factory.GetLoggerNames())

	require.NoError(factory.SetLogLevel("node", Debug))
	level, err := factory.GetLogLevel("node")
	require.NoError(err)
	require.Equal(Debug, level)

	require.NoError(factory.SetDisplayLevel("node", Warn))
	level, err = factory.GetDisplayLevel("node")
	require.NoError(err)
	require.Equal(Warn, level)

	_, err = factory.GetLogLevel("missing")
	require.ErrorContains(err, "not found")

	factory.Close()

	contents, err := os.ReadFile(filepath.Join(dir, "node.log"))
	require.NoError(err)
	require.Contains(string(contents), "started")
}

func TestToFormat(t *testing.T) {
	require := require.New(t)

	f, err := ToFormat("json", os.Stdout.Fd())
	require.NoError(err)
	require.Equal(JSON, f)

	f, err = ToFormat("colors", os.Stdout.Fd())
	require.NoError(err)
	require.Equal(Colors, f)

	_, err = ToFormat("sparkles", os.Stdout.Fd())
	require.ErrorIs(err, errUnknownFormat)
}
