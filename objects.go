// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import "fmt"

// PasswordStatus decodes the PW Status Bytes Data Object (tag 00C4):
// validity and length policy for PW1/PW3, plus remaining verification
// attempts for PW1, the Resetting Code, and PW3.
type PasswordStatus struct {
	ValidityPW1 uint8

	LengthPW1 uint8
	LengthRC  uint8
	LengthPW3 uint8

	AttemptsPW1 uint8
	AttemptsRC  uint8
	AttemptsPW3 uint8
}

// Decode parses the 7-byte PW Status Bytes payload.
func (ps *PasswordStatus) Decode(b []byte) error {
	if len(b) != 7 {
		return fmt.Errorf("%w: PW status bytes must be 7 bytes, got %d", ErrObjectNotValid, len(b))
	}

	ps.ValidityPW1 = b[0]
	ps.LengthPW1 = b[1]
	ps.LengthRC = b[2]
	ps.LengthPW3 = b[3]
	ps.AttemptsPW1 = b[4]
	ps.AttemptsRC = b[5]
	ps.AttemptsPW3 = b[6]

	return nil
}

// PasswordStatus fetches and decodes the PW Status Bytes DO. Callers use
// this to read attempts-remaining counts without inferring them from a
// VERIFY status word, since the transport does not reliably surface that
// count (see isoadapter.Adapter.PINCmd).
func (s *Session) PasswordStatus() (PasswordStatus, error) {
	raw, err := s.GetData(0x00C4)
	if err != nil {
		return PasswordStatus{}, err
	}

	var ps PasswordStatus
	if err := ps.Decode(raw); err != nil {
		return PasswordStatus{}, err
	}

	return ps, nil
}
