// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"

	"openpgp-card-driver/internal/tlv"
)

// fetchPublicKeyPEM reads the public key template for the signature,
// decryption, or authentication key (as selected by pemTag) and re-encodes
// it as a PKIX PEM block. Only RSA keys are supported: ECDH/ECDSA/EdDSA key
// formats exist only on OpenPGP Card v3.0, which this driver does not
// target.
func (s *Session) fetchPublicKeyPEM(pemTag tlv.Tag) ([]byte, error) {
	srcTag, ok := pemSourceTag(pemTag)
	if !ok {
		return nil, fmt.Errorf("%w: no public key backs tag %04X", ErrFileNotFound, pemTag)
	}

	raw, err := s.transmitGetPublicKey(keyRefForPublicKeyTag(srcTag))
	if err != nil {
		return nil, err
	}

	pub, err := decodeRSAPublicKeyTemplate(raw)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}

	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}

	return pem.EncodeToMemory(block), nil
}

// pemSourceTag maps a virtual PEM tag (B601, B801, A401) back to the
// corresponding public-key-template tag (B600, B800, A400) it is derived
// from.
func pemSourceTag(pemTag tlv.Tag) (tlv.Tag, bool) {
	switch pemTag {
	case 0xB601:
		return 0xB600, true
	case 0xB801:
		return 0xB800, true
	case 0xA401:
		return 0xA400, true
	default:
		return 0, false
	}
}

// decodeRSAPublicKeyTemplate parses a 7F49 public key template's modulus
// (tag 81) and exponent (tag 82) elements into an *rsa.PublicKey.
func decodeRSAPublicKeyTemplate(raw []byte) (*rsa.PublicKey, error) {
	tmpl, _, err := tlv.DecodeOne(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: public key template: %v", ErrObjectNotValid, err)
	}

	if tmpl.Tag != tagPublicKeyTemplate {
		return nil, fmt.Errorf("%w: expected tag %04X, got %04X", ErrObjectNotValid, tagPublicKeyTemplate, tmpl.Tag)
	}

	elems, err := tlv.DecodeAll(tmpl.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: public key template contents: %v", ErrObjectNotValid, err)
	}

	var modulus, exponent []byte

	for _, e := range elems {
		switch e.Tag {
		case tagModulus:
			modulus = e.Value
		case tagExponent:
			exponent = e.Value
		}
	}

	if modulus == nil || exponent == nil {
		return nil, fmt.Errorf("%w: public key template missing modulus or exponent", ErrObjectNotValid)
	}

	e := new(big.Int).SetBytes(exponent)
	if !e.IsInt64() || e.Int64() == 0 || e.Int64() > int64(^uint32(0)) {
		return nil, fmt.Errorf("%w: unsupported public exponent", ErrObjectNotValid)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulus),
		E: int(e.Int64()),
	}, nil
}
