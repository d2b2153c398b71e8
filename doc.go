// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

// Package openpgp implements a driver for the OpenPGP smart-card application,
// conforming to the OpenPGP Card specifications v1.1 and v2.0.
//
// The card has no filesystem of its own: everything is stored in a flat
// namespace of numbered Data Objects (DOs), addressed via GET DATA/PUT DATA
// and a handful of special-purpose commands. Much of the software that
// consumes cards (PKCS#15 in particular) assumes a hierarchical filesystem,
// so this package synthesizes one: [Session] lazily parses constructed DOs
// as directories and exposes [Session.SelectFile], [Session.ListFiles], and
// [Session.ReadBinary] over the result.
//
// Selecting the MF causes the OpenPGP application to be (re-)selected.
// Everything else is addressed via "file" IDs that are really just DO tags.
package openpgp
