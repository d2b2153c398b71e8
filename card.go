// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AID is the application identifier the OpenPGP card application is
// selected under: RID D2:76:00:01, application D2:76:00:01:24:01.
var AID = []byte{0xD2, 0x76, 0x00, 0x01, 0x24, 0x01}

// CardType identifies a family of ATRs this driver knows how to talk to.
// The two families differ in which RSA key sizes their applet registers:
// CardTypeV2 additionally supports 2048-bit keys.
type CardType int

const (
	CardTypeUnknown CardType = iota
	CardTypeV1                 // OpenPGP card v1.0/1.1
	CardTypeV2                 // CryptoStick v1.2 / OpenPGP card v2.0
)

// atrEntry pairs a full ATR byte string with the CardType it identifies.
// Matching is by exact equality, as in the source driver: there is no
// wildcard or mask support.
type atrEntry struct {
	atr []byte
	typ CardType
}

// knownATRs lists the two ATRs the source driver recognizes for the
// OpenPGP applet; an ATR not on this list is rejected by NewSession with
// ErrUnsupportedCard rather than guessed at.
var knownATRs = []atrEntry{
	{atr: hexMustDecode("3BFA1300FF813180450031C173C00100009000B1"), typ: CardTypeV1},
	{atr: hexMustDecode("3BDA18FF81B1FE751F030031C573C001400090000C"), typ: CardTypeV2},
}

// MatchATR returns the CardType for atr, or CardTypeUnknown if atr does not
// match any known OpenPGP card.
func MatchATR(atr []byte) CardType {
	for _, e := range knownATRs {
		if bytes.Equal(e.atr, atr) {
			return e.typ
		}
	}

	return CardTypeUnknown
}

// AlgorithmFlag describes a capability of a registered RSA algorithm, as
// the source driver records alongside each call to _sc_card_add_rsa_alg.
type AlgorithmFlag int

const (
	AlgorithmRSARaw      AlgorithmFlag = 1 << iota // raw RSA, no padding applied by the card
	AlgorithmRSAPadPKCS1                           // card applies PKCS#1 v1.5 padding
	AlgorithmRSAHashNone                           // card performs no hashing itself
)

// AlgorithmInfo describes one RSA key size this driver considers the card
// capable of, along with the flags that apply to every size it registers.
type AlgorithmInfo struct {
	KeySizeBits int
	Flags       AlgorithmFlag
}

// rsaAlgorithmFlags applies uniformly to every RSA key size this driver
// registers: OpenPGP card spec 1.1 & 2.0 §2.1, §7.2.9-7.2.10.
const rsaAlgorithmFlags = AlgorithmRSARaw | AlgorithmRSAPadPKCS1 | AlgorithmRSAHashNone

// algorithmsFor lists the RSA key sizes a card of the given type registers.
// Every recognized card supports 512/768/1024-bit keys; only v2.0 (and the
// CryptoStick v1.2 it covers) additionally supports 2048-bit keys.
func algorithmsFor(typ CardType) []AlgorithmInfo {
	sizes := []int{512, 768, 1024}
	if typ == CardTypeV2 {
		sizes = append(sizes, 2048)
	}

	algs := make([]AlgorithmInfo, len(sizes))
	for i, size := range sizes {
		algs[i] = AlgorithmInfo{KeySizeBits: size, Flags: rsaAlgorithmFlags}
	}

	return algs
}

// historicalBytesSupportExtendedLength reports whether the card's
// historical bytes advertise support for extended-length APDUs: the first
// card capabilities byte (0x73) whose third following byte has bit 0x40 set.
func historicalBytesSupportExtendedLength(historical []byte) bool {
	for i, b := range historical {
		if b == 0x73 {
			return i+3 < len(historical) && historical[i+3]&0x40 != 0
		}
	}

	return false
}

// Session represents one logical connection to an OpenPGP card application:
// a selected AID, a synthesized filesystem over its Data Objects, and the
// current security environment. A Session is not safe for concurrent use;
// callers that need concurrent access should serialize calls themselves, as
// the underlying transport is a single-threaded conversation with the card.
type Session struct {
	card     ISO7816
	cardType CardType
	algs     []AlgorithmInfo

	root    *blob
	current *blob // currently selected file or directory; always non-nil

	extendedLength bool

	sec SecurityEnv
}

// NewSession selects the OpenPGP application on card and returns a ready
// Session. It fails with ErrUnsupportedCard if the card's ATR is not
// recognized.
func NewSession(card ISO7816) (*Session, error) {
	typ := MatchATR(card.ATR())
	if typ == CardTypeUnknown {
		return nil, ErrUnsupportedCard
	}

	if err := card.SelectAID(AID); err != nil {
		return nil, fmt.Errorf("selecting OpenPGP application: %w", err)
	}

	root := newRootBlob()

	s := &Session{
		card:     card,
		cardType: typ,
		algs:     algorithmsFor(typ),
		root:     root,
		current:  root,
	}

	if hist, err := s.historicalBytes(); err == nil {
		s.extendedLength = historicalBytesSupportExtendedLength(hist)
	}

	return s, nil
}

// CardType returns the card family recognized at session init.
func (s *Session) CardType() CardType {
	return s.cardType
}

// Algorithms returns the RSA key sizes registered for this session's card
// type at init.
func (s *Session) Algorithms() []AlgorithmInfo {
	return s.algs
}

// Close releases any resources held by the Session. The underlying card
// connection is owned by the caller and is not closed here.
func (s *Session) Close() error {
	return nil
}

// historicalBytes reads the Historical Bytes DO (tag 5F52) through the
// normal blob mechanism.
func (s *Session) historicalBytes() ([]byte, error) {
	return s.GetData(0x5F52)
}

// SerialNumber returns the card's 6-byte serial number, extracted from the
// Application Identifier DO (tag 004F). This mirrors the source driver's
// behavior of reading the serial back out of the AID object rather than out
// of a SELECT response, since some readers rewrite SELECT response data.
func (s *Session) SerialNumber() ([]byte, error) {
	aid, err := s.GetData(tagApplicationIdentifier)
	if err != nil {
		return nil, err
	}

	if len(aid) < 14 {
		return nil, fmt.Errorf("%w: application identifier too short", ErrObjectNotValid)
	}

	return aid[8:14], nil
}

// ControlCode identifies a CardCtl operation, modeled after the source
// driver's card_ctl switch.
type ControlCode int

const (
	CardCtlGetSerialNumber ControlCode = iota
)

// CardCtl dispatches a vendor control operation. Only GetSerialNumber is
// implemented; every other code returns ErrNotSupported, matching the
// source driver's default case.
func (s *Session) CardCtl(code ControlCode) ([]byte, error) {
	switch code {
	case CardCtlGetSerialNumber:
		return s.SerialNumber()
	default:
		return nil, ErrNotSupported
	}
}

// PINType identifies which of the card's PINs (CHVs) a VERIFY targets.
type PINType int

const (
	PINUser PINType = iota + 1
	PINUserForSigning
	PINAdmin
)

// pinReference maps a PINType to the reference byte VERIFY addresses it
// with, per the OpenPGP Card specification: CHV1 (0x81), CHV2 (0x82, used
// for signing when PW1 status bit 0x80 is set), CHV3 (0x83).
func pinReference(t PINType) (byte, error) {
	switch t {
	case PINUser:
		return 0x81, nil
	case PINUserForSigning:
		return 0x82, nil
	case PINAdmin:
		return 0x83, nil
	default:
		return 0, ErrInvalidArguments
	}
}

// VerifyPIN verifies pin against the PIN identified by t, returning the
// number of attempts remaining as reported by the ISO7816 collaborator
// (-1 when the collaborator cannot report it).
func (s *Session) VerifyPIN(t PINType, pin []byte) (triesLeft int, err error) {
	ref, err := pinReference(t)
	if err != nil {
		return 0, err
	}

	return s.card.PINCmd(ref, pin)
}

// hexMustDecode decodes a static hex literal. It panics on malformed input,
// which would indicate a typo in knownATRs rather than anything
// recoverable at runtime.
func hexMustDecode(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}
