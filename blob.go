// SPDX-FileCopyrightText: 2023-2024 Steffen Vogel <post@steffenvogel.de>
// SPDX-License-Identifier: Apache-2.0

package openpgp

import (
	"fmt"

	"openpgp-card-driver/internal/tlv"
)

// blobKind distinguishes the two roles a blob can play in the synthesized
// filesystem: a directory whose children are other blobs, or a leaf that
// holds bytes a caller can read.
type blobKind int

const (
	blobKindFile blobKind = iota
	blobKindDir
)

// blob is a single node of the synthesized filesystem: either the MF, a
// root-level Data Object, or a DO nested inside a constructed parent. The
// tree is built lazily: a directory blob's children slice is nil until
// enumerate has run on it, and a leaf blob's data is nil until fetchBlob
// has run on it.
type blob struct {
	tag      tlv.Tag
	kind     blobKind
	desc     *doDescriptor // non-nil only for root-level blobs
	parent   *blob
	children []*blob

	hasData    bool // data has been fetched from the card at least once
	enumerated bool // children has been populated at least once
	data       []byte
	status     error // sticky error from the last failed fetch, cleared on success
}

// newRootBlob builds the MF blob with one child per entry in doRegistry, in
// registry order. Children are not fetched or enumerated yet; that happens
// the first time a caller descends into them.
func newRootBlob() *blob {
	root := &blob{kind: blobKindDir, enumerated: true}

	for i := range doRegistry {
		d := &doRegistry[i]
		child := &blob{
			tag:    d.tag,
			desc:   d,
			parent: root,
		}

		if d.constructed {
			child.kind = blobKindDir
		} else {
			child.kind = blobKindFile
		}

		root.children = append(root.children, child)
	}

	return root
}

// findChild returns the direct child of b carrying tag, or nil if there is
// none. It does not trigger enumeration; callers that need a constructed
// blob's lazily-discovered children must enumerate first.
func (b *blob) findChild(tag tlv.Tag) *blob {
	for _, c := range b.children {
		if c.tag == tag {
			return c
		}
	}

	return nil
}

// fetchBlob ensures b.data holds the blob's current bytes, fetching them
// from the card through s if they have not been fetched yet. It is a no-op
// on repeat calls, which is what lets a blob be traversed more than once
// without re-issuing its APDU.
func (s *Session) fetchBlob(b *blob) error {
	if b.hasData {
		return nil
	}

	if b.status != nil {
		return b.status
	}

	var data []byte
	var err error

	switch {
	case b.desc == nil:
		// Nested DOs are materialized during enumeration of their parent,
		// never fetched directly.
		return nil

	case b.desc.kind == doKindPublicKeyPEM:
		data, err = s.fetchPublicKeyPEM(b.desc.tag)

	case b.desc.kind == doKindPublicKey:
		data, err = s.transmitGetPublicKey(keyRefForPublicKeyTag(b.desc.tag))

	default:
		data, err = s.transmitGetData(b.desc.tag)
	}

	if err != nil {
		b.status = fmt.Errorf("fetching %04X: %w", b.tag, err)

		return b.status
	}

	b.data = data
	b.hasData = true
	b.status = nil

	return nil
}

// enumerate ensures a directory blob's children are populated, parsing its
// raw TLV payload on first use. A payload that does not parse as well-formed
// BER-TLV fails the call with ErrObjectNotValid; b is left unenumerated so a
// retry re-attempts the parse rather than silently caching an empty
// directory.
func (s *Session) enumerate(b *blob) error {
	if b.enumerated {
		return nil
	}

	if err := s.fetchBlob(b); err != nil {
		return err
	}

	objs, err := tlv.DecodeAll(b.data)
	if err != nil {
		return fmt.Errorf("%w: enumerating %04X: %v", ErrObjectNotValid, b.tag, err)
	}

	for _, obj := range objs {
		child := &blob{
			tag:     obj.Tag,
			parent:  b,
			data:    obj.Value,
			hasData: true,
		}

		if obj.Constructed {
			child.kind = blobKindDir
		} else {
			child.kind = blobKindFile
		}

		b.children = append(b.children, child)
	}

	b.enumerated = true

	return nil
}

// getBlob resolves tag as a direct child of b, enumerating b first if it is
// a directory whose children are not yet known. It returns ErrFileNotFound
// if no such child exists.
func (s *Session) getBlob(b *blob, tag tlv.Tag) (*blob, error) {
	if b.kind == blobKindDir {
		if err := s.enumerate(b); err != nil {
			return nil, err
		}
	}

	child := b.findChild(tag)
	if child == nil {
		return nil, ErrFileNotFound
	}

	return child, nil
}
