// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

// Operation identifies a cryptographic operation this driver can dispatch
// to the card. There is no separate authenticate operation: SetSecurityEnv
// accepts the auth key reference under OperationSign, and ComputeSignature
// dispatches to PSO Compute Signature or INTERNAL AUTHENTICATE internally,
// based on which key reference was set.
type Operation int

const (
	OperationSign Operation = iota
	OperationDecrypt
)

// KeyRef identifies one of the card's three fixed key slots. Unlike a
// general-purpose smart card, the OpenPGP card does not support arbitrary
// key references: there is exactly one key per role.
type KeyRef int

const (
	KeyRefSign KeyRef = iota
	KeyRefDecrypt
	KeyRefAuthenticate
)

// crtForKeyRef maps a KeyRef to the one-byte control reference template tag
// MANAGE SECURITY ENVIRONMENT addresses it with.
func crtForKeyRef(ref KeyRef) byte {
	switch ref {
	case KeyRefSign:
		return 0xB6
	case KeyRefDecrypt:
		return 0xB8
	case KeyRefAuthenticate:
		return 0xA4
	default:
		return 0
	}
}

// operationAllowsKeyRef reports whether ref may be used for op.
// OperationSign accepts both the signature key (PSO Compute Signature) and
// the authentication key (INTERNAL AUTHENTICATE); OperationDecrypt accepts
// only the decipher key.
func operationAllowsKeyRef(op Operation, ref KeyRef) bool {
	switch op {
	case OperationSign:
		return ref == KeyRefSign || ref == KeyRefAuthenticate
	case OperationDecrypt:
		return ref == KeyRefDecrypt
	default:
		return false
	}
}

// SecurityEnv records the operation and key reference most recently
// validated by SetSecurityEnv. ComputeSignature and Decipher consult it to
// confirm the environment was actually prepared for the operation they are
// about to perform.
type SecurityEnv struct {
	valid bool
	op    Operation
	ref   KeyRef
}

// SetSecurityEnv validates that ref may perform op and, if so, issues
// MANAGE SECURITY ENVIRONMENT to point the card's internal state at it.
// Any op other than OperationSign/OperationDecrypt, or a ref incompatible
// with op, fails with ErrInvalidArguments.
func (s *Session) SetSecurityEnv(op Operation, ref KeyRef) error {
	if !operationAllowsKeyRef(op, ref) {
		s.sec = SecurityEnv{}

		return ErrInvalidArguments
	}

	p2 := crtForKeyRef(ref)

	// The OpenPGP card exposes exactly one key per role, so the key
	// reference carried in the command data is always 0x00: there is
	// nothing to disambiguate between.
	if err := s.transmitManageSecurityEnv(p2, 0x00); err != nil {
		s.sec = SecurityEnv{}

		return err
	}

	s.sec = SecurityEnv{valid: true, op: op, ref: ref}

	return nil
}

// ComputeSignature signs digest with the key most recently selected via
// SetSecurityEnv(OperationSign, ...). The key reference set determines
// which card operation is actually issued: KeyRefSign dispatches to PSO:
// COMPUTE DIGITAL SIGNATURE, KeyRefAuthenticate dispatches to INTERNAL
// AUTHENTICATE. KeyRefDecrypt fails with ErrNotSupported, since that key
// cannot sign; anything else fails with ErrInvalidArguments.
func (s *Session) ComputeSignature(digest []byte) ([]byte, error) {
	if !s.sec.valid || s.sec.op != OperationSign {
		return nil, ErrInvalidArguments
	}

	switch s.sec.ref {
	case KeyRefSign:
		return s.transmitComputeDigitalSignature(digest)
	case KeyRefAuthenticate:
		return s.transmitInternalAuthenticate(digest)
	case KeyRefDecrypt:
		return nil, ErrNotSupported
	default:
		return nil, ErrInvalidArguments
	}
}

// Decipher decrypts ciphertext with the key most recently selected via
// SetSecurityEnv(OperationDecrypt, ...). It fails with ErrInvalidArguments
// if the environment was not prepared for deciphering with the decipher
// key specifically.
//
// A single 0x00 padding-indicator byte is prepended to the command data
// ahead of ciphertext: this is not part of the RSA ciphertext itself, but a
// card-specific convention signaling "no padding scheme indicator follows",
// required by every OpenPGP card this driver targets.
func (s *Session) Decipher(ciphertext []byte) ([]byte, error) {
	if !s.sec.valid || s.sec.op != OperationDecrypt || s.sec.ref != KeyRefDecrypt {
		return nil, ErrInvalidArguments
	}

	padded := make([]byte, 1+len(ciphertext))
	copy(padded[1:], ciphertext)

	return s.transmitDecipher(padded)
}
