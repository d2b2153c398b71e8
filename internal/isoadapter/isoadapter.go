// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

// Package isoadapter adapts cunicu.li/go-iso7816's transaction type to the
// narrow ISO7816 interface the driver package builds on. Keeping the
// adaptation in its own package means the rest of the driver never imports
// the transport library directly and can be exercised against a fake in
// tests.
package isoadapter

import (
	"fmt"

	iso "cunicu.li/go-iso7816"
)

// Adapter wraps an open transaction on an ISO 7816-4 card.
type Adapter struct {
	card *iso.Card
	tx   *iso.Transaction
}

// New opens a transaction on card and returns an Adapter ready for use by
// the driver package.
func New(card *iso.Card) (*Adapter, error) {
	tx, err := card.NewTransaction()
	if err != nil {
		return nil, fmt.Errorf("opening transaction: %w", err)
	}

	return &Adapter{card: card, tx: tx}, nil
}

// Close ends the underlying transaction.
func (a *Adapter) Close() error {
	return a.tx.Close()
}

// ATR returns the card's Answer-To-Reset bytes.
func (a *Adapter) ATR() []byte {
	return a.card.ATR()
}

// SelectAID selects the application identified by aid.
func (a *Adapter) SelectAID(aid []byte) error {
	_, err := a.tx.Select(aid)

	return err
}

// Transmit sends a single APDU with class byte 0x00 and returns the
// response data, translating a non-success status word into an error.
func (a *Adapter) Transmit(ins, p1, p2 byte, data []byte, ne int) ([]byte, error) {
	capdu := &iso.CAPDU{
		Ins:  iso.Instruction(ins),
		P1:   p1,
		P2:   p2,
		Data: data,
		Ne:   ne,
	}

	resp, err := a.tx.Send(capdu)
	if err != nil {
		return nil, fmt.Errorf("transmitting APDU: %w", err)
	}

	return resp, nil
}

// PINCmd verifies a PIN/CHV addressed by pinRef. The underlying transport
// does not expose a reliable tries-remaining count from the VERIFY
// response itself; callers that need it should read the PW Status Bytes
// Data Object (tag 00C4) before and after a failed attempt instead. A
// successful verification returns -1 for triesLeft.
func (a *Adapter) PINCmd(pinRef byte, data []byte) (int, error) {
	capdu := &iso.CAPDU{
		Ins:  iso.InsVerify,
		P1:   0x00,
		P2:   pinRef,
		Data: data,
	}

	if _, err := a.tx.Send(capdu); err != nil {
		return 0, fmt.Errorf("verifying PIN: %w", err)
	}

	return -1, nil
}
