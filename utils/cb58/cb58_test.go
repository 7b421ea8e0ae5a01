// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cb58

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	require := require.New(t)

	for _, b := range [][]byte{
		{},
		{0},
		{1, 2, 3, 4, 5},
		make([]byte, 65),
	} {
		str, err := Encode(b)
		require.NoError(err)

		decoded, err := Decode(str)
		require.NoError(err)
		require.Equal(b, decoded)
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	require := require.New(t)

	str, err := Encode([]byte("iou"))
	require.NoError(err)

	// Flip the final character to corrupt the checksum
	corrupted := []byte(str)
	if corrupted[len(corrupted)-1] == '2' {
		corrupted[len(corrupted)-1] = '3'
	} else {
		corrupted[len(corrupted)-1] = '2'
	}
	_, err = Decode(string(corrupted))
	require.ErrorIs(err, ErrBadChecksum)
}

func TestDecodeMissingChecksum(t *testing.T) {
	_, err := Decode("1")
	require.ErrorIs(t, err, ErrMissingChecksum)
}
