// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"openpgp-card-driver/internal/tlv"
)

func TestNewSessionRejectsUnknownATR(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.atr = []byte{0x3B, 0x00}

	_, err := NewSession(f)
	require.ErrorIs(err, ErrUnsupportedCard)
}

func TestNewSessionSelectsAID(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F") // historical bytes

	_, err := NewSession(f)
	require.NoError(err)
	require.Equal(AID, f.selectedAID)
}

func TestListFilesRootOrderMatchesRegistry(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")

	s, err := NewSession(f)
	require.NoError(err)

	files, err := s.ListFiles()
	require.NoError(err)
	require.Len(files, len(doRegistry))

	for i, fi := range files {
		require.Equal(doRegistry[i].tag, fi.Tag)
	}
}

func TestSerialNumberReadsApplicationIdentifier(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	f.on(insGetData, 0x00, 0x4F, "D2760001240102001234567890AB")

	s, err := NewSession(f)
	require.NoError(err)

	serial, err := s.SerialNumber()
	require.NoError(err)
	require.Equal([]byte{0x12, 0x34, 0x56, 0x78, 0x90, 0xAB}, serial)
}

func TestBlobFetchedOnlyOnce(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	f.on(insGetData, 0x00, 0x65, "5B0454657374")

	s, err := NewSession(f)
	require.NoError(err)

	_, err = s.GetData(0x0065)
	require.NoError(err)

	// A second traversal of the same DO must not re-issue GET DATA.
	_, err = s.SelectFile(0x0065)
	require.NoError(err)

	_, err = s.ReadBinary(0, make([]byte, 1))
	require.Error(err) // 0065 is a directory, not a file

	require.Equal(1, f.countTransmits(insGetData, 0x00, 0x65))
}

func TestSelectFileIntoConstructedDOExposesChildren(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	// Cardholder Related Data (0065) containing a Name DO (5B).
	f.on(insGetData, 0x00, 0x65, "5B0454657374")

	s, err := NewSession(f)
	require.NoError(err)

	fi, err := s.SelectFile(0x0065)
	require.NoError(err)
	require.True(fi.IsDir)

	children, err := s.ListFiles()
	require.NoError(err)
	require.Len(children, 1)
	require.Equal(tlv.Tag(0x5B), children[0].Tag)
	require.False(children[0].IsDir)

	buf := make([]byte, 4)
	fi2, err := s.SelectFile(0x5B)
	require.NoError(err)
	require.False(fi2.IsDir)

	n, err := s.ReadBinary(0, buf)
	require.NoError(err)
	require.Equal(4, n)
	require.Equal("Test", string(buf))
}

func TestSelectMFReturnsToRoot(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	f.on(insGetData, 0x00, 0x65, "5B0454657374")

	s, err := NewSession(f)
	require.NoError(err)

	_, err = s.SelectFile(0x0065)
	require.NoError(err)

	fi, err := s.SelectFile(tagMF)
	require.NoError(err)
	require.True(fi.IsDir)
	require.Equal(tagMF, fi.Tag)

	files, err := s.ListFiles()
	require.NoError(err)
	require.Len(files, len(doRegistry))
}

func TestReadBinaryOffsetPastEndFails(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	f.on(insGetData, 0x01, 0x01, "AABBCCDD")

	s, err := NewSession(f)
	require.NoError(err)

	_, err = s.SelectFile(0x0101)
	require.NoError(err)

	buf := make([]byte, 4)

	n, err := s.ReadBinary(2, buf)
	require.NoError(err)
	require.Equal(2, n)
	require.Equal([]byte{0xCC, 0xDD}, buf[:n])

	n, err = s.ReadBinary(5, buf)
	require.ErrorIs(err, ErrIncorrectParameters)
	require.Equal(0, n)
}

func TestEnumerateMalformedTLVReturnsObjectNotValid(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	// 0x65 is constructed but its value is not valid BER-TLV: tag 5B is
	// followed by a long-form length byte (0x84) announcing four length
	// bytes, none of which follow it.
	f.on(insGetData, 0x00, 0x65, "5B84")

	s, err := NewSession(f)
	require.NoError(err)

	_, err = s.SelectFile(0x0065)
	require.NoError(err)

	_, err = s.ListFiles()
	require.ErrorIs(err, ErrObjectNotValid)
}

func TestPutDataAlwaysRefuses(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")

	s, err := NewSession(f)
	require.NoError(err)

	err = s.PutData(0x0101, []byte{0x01})
	require.ErrorIs(err, ErrNotSupported)

	err = s.PutData(0xB601, []byte{0x01})
	require.ErrorIs(err, ErrNotSupported)

	err = s.PutData(0xFFFF, []byte{0x01})
	require.ErrorIs(err, ErrNotSupported)
}

func TestFailedFetchIsCachedAndNotRetried(t *testing.T) {
	require := require.New(t)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	// No response queued for 0101: the fake errors on the first Transmit.

	s, err := NewSession(f)
	require.NoError(err)

	_, err1 := s.GetData(0x0101)
	require.Error(err1)

	_, err2 := s.GetData(0x0101)
	require.Error(err2)
	require.Equal(err1, err2)

	require.Equal(1, f.countTransmits(insGetData, 0x01, 0x01))
}

func TestHistoricalBytesSupportExtendedLength(t *testing.T) {
	require := require.New(t)

	require.True(historicalBytesSupportExtendedLength(hexMustDecode("0031C573C00140059000")))
	require.False(historicalBytesSupportExtendedLength(hexMustDecode("730300010000")))
	require.False(historicalBytesSupportExtendedLength(nil))
}
