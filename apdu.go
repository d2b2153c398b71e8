// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"fmt"

	"openpgp-card-driver/internal/tlv"
)

// Instruction bytes used by this driver. Names follow ISO 7816-4 / the
// OpenPGP Card specification.
const (
	insGetData               byte = 0xCA
	insVerify                byte = 0x20
	insManageSecurityEnv     byte = 0x22
	insPerformSecurityOp     byte = 0x2A
	insInternalAuthenticate  byte = 0x88
	insGenerateAsymmetricKey byte = 0x47
)

// P1/P2 sub-codes for PERFORM SECURITY OPERATION.
const (
	p1ComputeDigitalSignature byte = 0x9E
	p2ComputeDigitalSignature byte = 0x9A

	p1Decipher byte = 0x80
	p2Decipher byte = 0x86
)

// p1ReadPublicKey selects the "read" variant of GENERATE ASYMMETRIC KEY
// PAIR: the card returns the public key of an existing key pair instead of
// generating a new one.
const p1ReadPublicKey byte = 0x81

// shortAPDUMaxResponse and extendedAPDUMaxResponse are the largest response
// buffers this driver requests under, respectively, short-form and
// extended-length APDUs. Which applies to a given session is decided once
// at init from the card's historical bytes (see
// historicalBytesSupportExtendedLength) and never changes afterwards.
const (
	shortAPDUMaxResponse    = 256
	extendedAPDUMaxResponse = 2048
)

// maxNe returns the largest expected-response length this session's
// negotiated APDU mode allows. Encoding that length as a short-form or
// extended-length Le is the transport's job, not this driver's.
func (s *Session) maxNe() int {
	if s.extendedLength {
		return extendedAPDUMaxResponse
	}

	return shortAPDUMaxResponse
}

// transmitGetData issues GET DATA for a root-level tag, addressed via P1/P2
// exactly as the tag value, and returns the raw response body.
func (s *Session) transmitGetData(tag tlv.Tag) ([]byte, error) {
	p1 := byte(tag >> 8)
	p2 := byte(tag)

	data, err := s.card.Transmit(insGetData, p1, p2, nil, s.maxNe())
	if err != nil {
		return nil, err
	}

	return data, nil
}

// transmitGetPublicKey issues the read variant of GENERATE ASYMMETRIC KEY
// PAIR for the control reference template identified by crt (one of 0xB6,
// 0xB8, 0xA4) and returns the raw 7F49 public key template.
func (s *Session) transmitGetPublicKey(crt byte) ([]byte, error) {
	data, err := s.card.Transmit(insGenerateAsymmetricKey, p1ReadPublicKey, 0x00, []byte{crt, 0x00}, s.maxNe())
	if err != nil {
		return nil, fmt.Errorf("reading public key for CRT %02X: %w", crt, err)
	}

	return data, nil
}

// keyRefForPublicKeyTag maps a root-level public-key-template tag (B600,
// B800, A400) to the one-byte control reference template tag used to
// address GENERATE ASYMMETRIC KEY PAIR.
func keyRefForPublicKeyTag(tag tlv.Tag) byte {
	switch tag {
	case 0xB600:
		return 0xB6
	case 0xB800:
		return 0xB8
	case 0xA400:
		return 0xA4
	default:
		return 0
	}
}

// transmitInternalAuthenticate issues INTERNAL AUTHENTICATE with challenge
// as the command data and returns the raw authentication response.
func (s *Session) transmitInternalAuthenticate(challenge []byte) ([]byte, error) {
	return s.card.Transmit(insInternalAuthenticate, 0x00, 0x00, challenge, s.maxNe())
}

// transmitComputeDigitalSignature issues PSO: COMPUTE DIGITAL SIGNATURE
// over digest and returns the raw signature bytes.
func (s *Session) transmitComputeDigitalSignature(digest []byte) ([]byte, error) {
	return s.card.Transmit(insPerformSecurityOp, p1ComputeDigitalSignature, p2ComputeDigitalSignature, digest, s.maxNe())
}

// transmitDecipher issues PSO: DECIPHER over ciphertext and returns the raw
// plaintext bytes.
func (s *Session) transmitDecipher(ciphertext []byte) ([]byte, error) {
	return s.card.Transmit(insPerformSecurityOp, p1Decipher, p2Decipher, ciphertext, s.maxNe())
}

// transmitManageSecurityEnv issues MANAGE SECURITY ENVIRONMENT, setting the
// control reference template selected by p2 (0xB6 signature, 0xB8
// confidentiality, 0xA4 authentication) to reference keyRef.
func (s *Session) transmitManageSecurityEnv(p2 byte, keyRef byte) error {
	data := []byte{0x83, 0x01, keyRef}

	_, err := s.card.Transmit(insManageSecurityEnv, 0x41, p2, data, 0)

	return err
}
