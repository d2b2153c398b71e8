// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchPublicKeyPEMEncodesModulusAndExponent(t *testing.T) {
	require := require.New(t)

	// A tiny, deliberately insecure RSA public key: modulus 0x010001
	// (65537), exponent 0x010001. Only used to exercise the encoding path.
	modulus := []byte{0x01, 0x00, 0x01}
	exponent := []byte{0x01, 0x00, 0x01}

	template := encodePublicKeyTemplateForTest(modulus, exponent)

	f := newFakeCard()
	f.on(insGetData, 0x5F, 0x52, "73038001401F")
	f.on(insGenerateAsymmetricKey, p1ReadPublicKey, 0x00, hex.EncodeToString(template))

	s, err := NewSession(f)
	require.NoError(err)

	pemBytes, err := s.GetData(0xB601)
	require.NoError(err)

	block, _ := pem.Decode(pemBytes)
	require.NotNil(block)
	require.Equal("PUBLIC KEY", block.Type)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	rsaPub, ok := pub.(*rsa.PublicKey)
	require.True(ok)
	require.Equal(new(big.Int).SetBytes(modulus), rsaPub.N)
	require.Equal(65537, rsaPub.E)
}

// encodePublicKeyTemplateForTest builds a minimal 7F49 public key template
// wrapping a modulus (tag 81) and exponent (tag 82).
func encodePublicKeyTemplateForTest(modulus, exponent []byte) []byte {
	inner := append([]byte{0x81, byte(len(modulus))}, modulus...)
	inner = append(inner, 0x82, byte(len(exponent)))
	inner = append(inner, exponent...)

	return append([]byte{0x7F, 0x49, byte(len(inner))}, inner...)
}
