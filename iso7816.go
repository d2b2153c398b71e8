// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

// ISO7816 is the generic ISO 7816-4 transport collaborator this driver
// builds on top of. It is intentionally narrow: raw select-by-AID, a single
// APDU transmit primitive with SW1/SW2 decoding folded into the returned
// error, a PIN verification primitive, and access to the card's ATR.
//
// A production implementation adapts cunicu.li/go-iso7816 (see
// internal/isoadapter); tests use a fake that records and replays APDUs.
type ISO7816 interface {
	// ATR returns the card's Answer-To-Reset bytes.
	ATR() []byte

	// SelectAID selects the application identified by aid. The response
	// data, if any, is discarded by callers of this driver: the card
	// serial number is read back out of the Application Identifier DO
	// (tag 0x004F) instead of the SELECT response.
	SelectAID(aid []byte) error

	// Transmit sends a single APDU with class byte 0x00 and returns the
	// response data. Ne is the expected response length; 0 means no data
	// is expected. A non-success status word is surfaced as a non-nil
	// error.
	Transmit(ins, p1, p2 byte, data []byte, ne int) ([]byte, error)

	// PINCmd verifies a PIN/CHV addressed by reference pinRef (already
	// carrying any card-specific high bits) against data, returning the
	// number of verification attempts remaining, or -1 if the
	// implementation cannot report that count.
	PINCmd(pinRef byte, data []byte) (triesLeft int, err error)
}
