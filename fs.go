// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"fmt"

	"openpgp-card-driver/internal/tlv"
)

// tagMF is the reserved tag that addresses the Master File: selecting it
// resets the current directory to the root of the synthesized tree and
// re-selects the OpenPGP application, mirroring the source driver's
// treatment of a bare 3F00 path.
const tagMF tlv.Tag = 0x3F00

// FileInfo describes one entry of a directory, as returned by ListFiles.
type FileInfo struct {
	Tag   tlv.Tag
	IsDir bool
}

// SelectFile moves the current selection to the child of the current
// selection identified by tag, or back to the root if tag is tagMF. It
// returns a FileInfo describing the file or directory just selected.
//
// Selecting a leaf file does not fetch its contents; that happens lazily
// the first time ReadBinary is called, consistent with how the root's
// children are themselves lazy.
func (s *Session) SelectFile(tag tlv.Tag) (FileInfo, error) {
	if tag == tagMF {
		if err := s.card.SelectAID(AID); err != nil {
			return FileInfo{}, fmt.Errorf("re-selecting OpenPGP application: %w", err)
		}

		s.current = s.root

		return FileInfo{Tag: tagMF, IsDir: true}, nil
	}

	child, err := s.getBlob(s.current, tag)
	if err != nil {
		return FileInfo{}, err
	}

	s.current = child

	return FileInfo{Tag: child.tag, IsDir: child.kind == blobKindDir}, nil
}

// ListFiles enumerates the children of the current directory, fetching and
// parsing it first if necessary. The order matches doRegistry for the
// root, and the physical TLV order for any nested directory.
func (s *Session) ListFiles() ([]FileInfo, error) {
	if s.current.kind != blobKindDir {
		return nil, fmt.Errorf("%w: current selection is not a directory", ErrInvalidArguments)
	}

	if err := s.enumerate(s.current); err != nil {
		return nil, err
	}

	infos := make([]FileInfo, len(s.current.children))
	for i, c := range s.current.children {
		infos[i] = FileInfo{Tag: c.tag, IsDir: c.kind == blobKindDir}
	}

	return infos, nil
}

// ReadBinary reads up to len(buf) bytes from the currently selected file,
// starting at offset, and returns the number of bytes copied. Reading past
// the end of the file's data returns ErrIncorrectParameters, matching the
// source driver's offset-out-of-range behavior; reading exactly at the end
// returns 0 bytes and no error.
func (s *Session) ReadBinary(offset int, buf []byte) (int, error) {
	if s.current.kind != blobKindFile {
		return 0, fmt.Errorf("%w: current selection is not a file", ErrInvalidArguments)
	}

	if err := s.fetchBlob(s.current); err != nil {
		return 0, err
	}

	data := s.current.data

	if offset > len(data) {
		return 0, ErrIncorrectParameters
	}

	if offset == len(data) {
		return 0, nil
	}

	n := copy(buf, data[offset:])

	return n, nil
}

// WriteBinary is not supported: this driver refuses every write operation.
func (s *Session) WriteBinary(offset int, data []byte) (int, error) {
	return 0, ErrNotSupported
}

// GetData returns a root-level tag's bytes, independent of the current
// directory selection. It shares the same cache as the synthesized
// filesystem: a tag fetched once via GetData is not re-fetched by a later
// SelectFile/ReadBinary, and vice versa.
func (s *Session) GetData(tag tlv.Tag) ([]byte, error) {
	child := s.root.findChild(tag)
	if child == nil {
		return nil, ErrFileNotFound
	}

	if err := s.fetchBlob(child); err != nil {
		return nil, err
	}

	return child.data, nil
}

// PutData always fails with ErrNotSupported: this driver refuses every
// write or personalization operation, regardless of tag.
func (s *Session) PutData(tag tlv.Tag, value []byte) error {
	return ErrNotSupported
}
