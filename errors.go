// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import "errors"

// Error kinds surfaced by this package. Card-side failures are wrapped
// transport errors returned by the ISO7816 collaborator; these sentinels
// are the ones the driver itself decides to return.
var (
	// ErrOutOfMemory is returned when an allocation failure prevents an
	// operation from completing. It is always fatal to the current call.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidArguments is returned for malformed paths, malformed
	// security environments, or an incompatible key reference for the
	// requested operation.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrNotSupported is returned by write operations (write_binary,
	// put_data), by card_ctl codes other than GET_SERIAL_NUMBER, and for
	// key references that are valid but cannot perform the requested
	// cryptographic operation (e.g. signing with the decipher-only key).
	ErrNotSupported = errors.New("not supported")

	// ErrFileNotFound is returned when a path segment or DO tag cannot be
	// located among a DF's children.
	ErrFileNotFound = errors.New("file not found")

	// ErrObjectNotValid is returned when a constructed DO's contents
	// cannot be parsed as well-formed BER-TLV.
	ErrObjectNotValid = errors.New("object not valid")

	// ErrIncorrectParameters is returned when a read offset lies beyond
	// the end of the selected file.
	ErrIncorrectParameters = errors.New("incorrect parameters")

	// ErrUnsupportedCard is returned by NewSession when the presented ATR
	// does not match any recognized OpenPGP card.
	ErrUnsupportedCard = errors.New("unrecognized card")
)
