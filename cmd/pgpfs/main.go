// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

// Command pgpfs is a minimal shell over the synthesized OpenPGP card
// filesystem: list the root-level Data Objects, read one by tag, and print
// the card's serial number.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/ebfe/scard"
	"github.com/spf13/cobra"

	openpgp "openpgp-card-driver"
	"openpgp-card-driver/internal/isoadapter"
	"openpgp-card-driver/internal/tlv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var reader string

	root := &cobra.Command{
		Use:   "pgpfs",
		Short: "Inspect an OpenPGP card's synthesized Data Object filesystem",
	}

	root.PersistentFlags().StringVar(&reader, "reader", "", "PC/SC reader name (default: first available)")

	root.AddCommand(newLSCmd(&reader))
	root.AddCommand(newCatCmd(&reader))
	root.AddCommand(newInfoCmd(&reader))

	return root
}

func withSession(reader string, fn func(*openpgp.Session) error) error {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return fmt.Errorf("establishing PC/SC context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return fmt.Errorf("listing readers: %w", err)
	}

	if len(readers) == 0 {
		return fmt.Errorf("no PC/SC readers found")
	}

	name := readers[0]
	if reader != "" {
		name = reader
	}

	sc, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return fmt.Errorf("connecting to %q: %w", name, err)
	}
	defer sc.Disconnect(scard.LeaveCard)

	adapter, err := isoadapter.New(sc)
	if err != nil {
		return err
	}
	defer adapter.Close()

	session, err := openpgp.NewSession(adapter)
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	return fn(session)
}

func newLSCmd(reader *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the root-level Data Objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(*reader, func(s *openpgp.Session) error {
				files, err := s.ListFiles()
				if err != nil {
					return err
				}

				for _, f := range files {
					kind := "file"
					if f.IsDir {
						kind = "dir"
					}

					fmt.Printf("%04X\t%s\n", f.Tag, kind)
				}

				return nil
			})
		},
	}
}

func newCatCmd(reader *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cat [tag]",
		Short: "Print a Data Object's bytes as hex, addressed by its tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := parseTag(args[0])
			if err != nil {
				return err
			}

			return withSession(*reader, func(s *openpgp.Session) error {
				data, err := s.GetData(tag)
				if err != nil {
					return err
				}

				fmt.Println(hex.EncodeToString(data))

				return nil
			})
		},
	}
}

func newInfoCmd(reader *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the card's serial number",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(*reader, func(s *openpgp.Session) error {
				serial, err := s.SerialNumber()
				if err != nil {
					return err
				}

				fmt.Println(hex.EncodeToString(serial))

				return nil
			})
		},
	}
}

func parseTag(s string) (tlv.Tag, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tag %q: %w", s, err)
	}

	return tlv.Tag(v), nil
}
