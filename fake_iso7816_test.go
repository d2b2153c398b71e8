// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// fakeCard is a scripted ISO7816 implementation for unit tests. Responses
// are looked up by instruction/P1/P2; each lookup consumes the next queued
// response for that key, so a test can assert a DO is fetched only once by
// queuing exactly one response and failing the second transmit.
type fakeCard struct {
	atr       []byte
	responses map[string][][]byte
	transmits []transmitCall
	pinTries  int

	selectedAID []byte
	lastPINRef  byte
}

type transmitCall struct {
	ins, p1, p2 byte
	data        []byte
	ne          int
}

// newFakeCard defaults to the CryptoStick v1.2/OpenPGP v2.0 ATR, so tests
// exercising 2048-bit key material don't each need to override it.
func newFakeCard() *fakeCard {
	return &fakeCard{
		atr:       hexMustDecode("3BDA18FF81B1FE751F030031C573C001400090000C"),
		responses: map[string][][]byte{},
	}
}

func (f *fakeCard) key(ins, p1, p2 byte) string {
	return fmt.Sprintf("%02X%02X%02X", ins, p1, p2)
}

// on queues resp (given as a hex string, spaces ignored) to be returned by
// the next Transmit matching ins/p1/p2.
func (f *fakeCard) on(ins, p1, p2 byte, resp string) *fakeCard {
	b, err := hex.DecodeString(strings.ReplaceAll(resp, " ", ""))
	if err != nil {
		panic(err)
	}

	k := f.key(ins, p1, p2)
	f.responses[k] = append(f.responses[k], b)

	return f
}

func (f *fakeCard) ATR() []byte { return f.atr }

func (f *fakeCard) SelectAID(aid []byte) error {
	f.selectedAID = aid

	return nil
}

func (f *fakeCard) Transmit(ins, p1, p2 byte, data []byte, ne int) ([]byte, error) {
	f.transmits = append(f.transmits, transmitCall{ins: ins, p1: p1, p2: p2, data: data, ne: ne})

	k := f.key(ins, p1, p2)

	queue := f.responses[k]
	if len(queue) == 0 {
		return nil, fmt.Errorf("fakeCard: no response queued for %s", k)
	}

	f.responses[k] = queue[1:]

	return queue[0], nil
}

func (f *fakeCard) PINCmd(pinRef byte, data []byte) (int, error) {
	f.lastPINRef = pinRef

	if f.pinTries <= 0 {
		return 0, fmt.Errorf("fakeCard: PIN verification failed")
	}

	f.pinTries--

	return f.pinTries, nil
}

// countTransmits returns how many times Transmit was called with the given
// ins/p1/p2.
func (f *fakeCard) countTransmits(ins, p1, p2 byte) int {
	n := 0

	for _, c := range f.transmits {
		if c.ins == ins && c.p1 == p1 && c.p2 == p2 {
			n++
		}
	}

	return n
}
