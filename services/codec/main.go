// Package codec serializes allele counts into append-mergeable blobs.
//
// A blob is a sequence of one or more sub-messages, each prefixed with its
// uvarint length. Appending a blob to another one (a physical append in the
// store) is therefore always a valid blob, and decoding it merges the lists
// of every sub-message in order.
//
// Sub-messages use the protobuf wire format:
//
//	reference message                 alternate message
//	  1: pass      packed uint32        5: alternate  repeated Entry
//	  2: not pass  packed uint32        6: reference allele
//	  3: reference repeated Entry       7: alternate allele
//	  4: secondary repeated Secondary
//
//	Entry     { 1: index sint32, 2: sample ids packed uint32 }
//	Secondary { 1: symbol string, 2: repeated Entry }
package codec

import (
	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/counts"
	coreErrors "gohan/allelecounts/models/errors"

	"golang.org/x/exp/slices"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldPass      protowire.Number = 1
	fieldNotPass   protowire.Number = 2
	fieldReference protowire.Number = 3
	fieldSecondary protowire.Number = 4
	fieldAlternate protowire.Number = 5
	fieldRefAllele protowire.Number = 6
	fieldAltAllele protowire.Number = 7

	fieldEntryIndex   protowire.Number = 1
	fieldEntrySamples protowire.Number = 2

	fieldSecondarySymbol  protowire.Number = 1
	fieldSecondaryEntries protowire.Number = 2
)

// Alleles are the normalized alleles of the variant an alternate
// message belongs to.
type Alleles struct {
	Reference string
	Alternate string
}

// EncodeReference encodes the pass/not pass lists, the reference map and
// the secondary allele maps as a single sub-message blob.
func EncodeReference(ac *counts.AlleleCount) []byte {
	var msg []byte
	msg = appendPacked(msg, fieldPass, sortedCopy(ac.Pass))
	msg = appendPacked(msg, fieldNotPass, sortedCopy(ac.NotPass))
	msg = appendGenotypeMap(msg, fieldReference, ac.Reference)

	for _, symbol := range ac.SecondarySymbols() {
		var secondary []byte
		secondary = protowire.AppendTag(secondary, fieldSecondarySymbol, protowire.BytesType)
		secondary = protowire.AppendString(secondary, symbol)
		entries := appendGenotypeMap(nil, fieldSecondaryEntries, ac.SecondaryAlleles[symbol])
		if len(entries) == 0 {
			continue
		}
		secondary = append(secondary, entries...)

		msg = protowire.AppendTag(msg, fieldSecondary, protowire.BytesType)
		msg = protowire.AppendBytes(msg, secondary)
	}

	return frame(msg)
}

// EncodeAlternate encodes the alternate map only.
func EncodeAlternate(ac *counts.AlleleCount, alleles Alleles) []byte {
	var msg []byte
	msg = protowire.AppendTag(msg, fieldRefAllele, protowire.BytesType)
	msg = protowire.AppendString(msg, alleles.Reference)
	msg = protowire.AppendTag(msg, fieldAltAllele, protowire.BytesType)
	msg = protowire.AppendString(msg, alleles.Alternate)
	msg = appendGenotypeMap(msg, fieldAlternate, ac.Alternate)
	return frame(msg)
}

// Merge is what the store does on append: a plain concatenation.
func Merge(blobs ...[]byte) []byte {
	var merged []byte
	for _, b := range blobs {
		merged = append(merged, b...)
	}
	return merged
}

// DecodeReference decodes every sub-message of a reference blob and
// concatenates their lists.
func DecodeReference(blob []byte) (*counts.AlleleCount, error) {
	ac := counts.New()
	err := eachMessage(blob, func(msg []byte) error {
		return decodeReferenceMessage(msg, ac)
	})
	if err != nil {
		return nil, err
	}
	return ac, nil
}

// DecodeAlternate decodes every sub-message of an alternate blob and
// concatenates their lists.
func DecodeAlternate(blob []byte) (*counts.AlleleCount, Alleles, error) {
	ac := counts.New()
	var (
		alleles     Alleles
		seenAlleles bool
	)
	err := eachMessage(blob, func(msg []byte) error {
		msgAlleles, hasAlleles, err := decodeAlternateMessage(msg, ac)
		if err != nil {
			return err
		}
		if !hasAlleles {
			return nil
		}
		if seenAlleles && msgAlleles != alleles {
			return coreErrors.New(coreErrors.ErrMalformedMessage,
				"conflicting alleles %s:%s and %s:%s in one column",
				alleles.Reference, alleles.Alternate, msgAlleles.Reference, msgAlleles.Alternate)
		}
		alleles, seenAlleles = msgAlleles, true
		return nil
	})
	if err != nil {
		return nil, Alleles{}, err
	}
	return ac, alleles, nil
}

// CompactReference rewrites a (possibly appended) blob as one normalized sub-message.
func CompactReference(blob []byte) ([]byte, error) {
	ac, err := DecodeReference(blob)
	if err != nil {
		return nil, err
	}
	return EncodeReference(ac.Normalize()), nil
}

func CompactAlternate(blob []byte) ([]byte, error) {
	ac, alleles, err := DecodeAlternate(blob)
	if err != nil {
		return nil, err
	}
	return EncodeAlternate(ac.Normalize(), alleles), nil
}

// SubMessages counts the sub-messages of a blob, i.e. how many appends
// it went through since it was last compacted.
func SubMessages(blob []byte) (int, error) {
	n := 0
	err := eachMessage(blob, func([]byte) error {
		n++
		return nil
	})
	return n, err
}

// -- framing

func frame(msg []byte) []byte {
	out := make([]byte, 0, protowire.SizeVarint(uint64(len(msg)))+len(msg))
	out = protowire.AppendVarint(out, uint64(len(msg)))
	return append(out, msg...)
}

func eachMessage(blob []byte, fn func(msg []byte) error) error {
	if len(blob) == 0 {
		return coreErrors.New(coreErrors.ErrMalformedMessage, "empty blob")
	}
	for offset := 0; offset < len(blob); {
		size, n := protowire.ConsumeVarint(blob[offset:])
		if n < 0 {
			return malformed(offset, protowire.ParseError(n))
		}
		offset += n
		if uint64(len(blob)-offset) < size {
			return coreErrors.New(coreErrors.ErrMalformedMessage,
				"sub-message at offset %d truncated: want %d bytes, have %d", offset, size, len(blob)-offset)
		}
		if err := fn(blob[offset : offset+int(size)]); err != nil {
			return err
		}
		offset += int(size)
	}
	return nil
}

// -- reference / alternate messages

func decodeReferenceMessage(msg []byte, ac *counts.AlleleCount) error {
	for offset := 0; offset < len(msg); {
		num, typ, n := protowire.ConsumeTag(msg[offset:])
		if n < 0 {
			return malformed(offset, protowire.ParseError(n))
		}
		offset += n

		switch {
		case num == fieldPass && typ == protowire.BytesType,
			num == fieldNotPass && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(msg[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			ids, err := consumePacked(packed)
			if err != nil {
				return err
			}
			if num == fieldPass {
				ac.Pass = append(ac.Pass, ids...)
			} else {
				ac.NotPass = append(ac.NotPass, ids...)
			}
			offset += n

		case num == fieldReference && typ == protowire.BytesType:
			entry, n := protowire.ConsumeBytes(msg[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			if err := decodeEntry(entry, ac.Reference); err != nil {
				return err
			}
			offset += n

		case num == fieldSecondary && typ == protowire.BytesType:
			secondary, n := protowire.ConsumeBytes(msg[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			if err := decodeSecondary(secondary, ac); err != nil {
				return err
			}
			offset += n

		case num == fieldAlternate || num == fieldRefAllele || num == fieldAltAllele:
			return coreErrors.New(coreErrors.ErrMalformedMessage, "alternate field %d in a reference message", num)

		default:
			return coreErrors.New(coreErrors.ErrMalformedMessage, "unexpected field %d (wire type %d)", num, typ)
		}
	}
	return nil
}

func decodeAlternateMessage(msg []byte, ac *counts.AlleleCount) (Alleles, bool, error) {
	var (
		alleles Alleles
		hasRef  bool
		hasAlt  bool
	)
	for offset := 0; offset < len(msg); {
		num, typ, n := protowire.ConsumeTag(msg[offset:])
		if n < 0 {
			return alleles, false, malformed(offset, protowire.ParseError(n))
		}
		offset += n

		switch {
		case num == fieldAlternate && typ == protowire.BytesType:
			entry, n := protowire.ConsumeBytes(msg[offset:])
			if n < 0 {
				return alleles, false, malformed(offset, protowire.ParseError(n))
			}
			if err := decodeEntry(entry, ac.Alternate); err != nil {
				return alleles, false, err
			}
			offset += n

		case (num == fieldRefAllele || num == fieldAltAllele) && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(msg[offset:])
			if n < 0 {
				return alleles, false, malformed(offset, protowire.ParseError(n))
			}
			if num == fieldRefAllele {
				alleles.Reference, hasRef = s, true
			} else {
				alleles.Alternate, hasAlt = s, true
			}
			offset += n

		case num >= fieldPass && num <= fieldSecondary:
			return alleles, false, coreErrors.New(coreErrors.ErrMalformedMessage, "reference field %d in an alternate message", num)

		default:
			return alleles, false, coreErrors.New(coreErrors.ErrMalformedMessage, "unexpected field %d (wire type %d)", num, typ)
		}
	}
	if hasRef != hasAlt {
		return alleles, false, coreErrors.New(coreErrors.ErrMalformedMessage, "incomplete allele pair")
	}
	return alleles, hasRef, nil
}

// -- entries

func appendGenotypeMap(b []byte, field protowire.Number, gm counts.GenotypeMap) []byte {
	for _, index := range gm.Indices() {
		ids := gm[index]
		if len(ids) == 0 {
			continue
		}
		var entry []byte
		entry = protowire.AppendTag(entry, fieldEntryIndex, protowire.VarintType)
		entry = protowire.AppendVarint(entry, protowire.EncodeZigZag(int64(index)))
		entry = appendPacked(entry, fieldEntrySamples, sortedCopy(ids))

		b = protowire.AppendTag(b, field, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func decodeEntry(entry []byte, gm counts.GenotypeMap) error {
	var (
		index    constants.GenotypeIndex
		hasIndex bool
		ids      []uint32
	)
	for offset := 0; offset < len(entry); {
		num, typ, n := protowire.ConsumeTag(entry[offset:])
		if n < 0 {
			return malformed(offset, protowire.ParseError(n))
		}
		offset += n

		switch {
		case num == fieldEntryIndex && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(entry[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			index, hasIndex = constants.GenotypeIndex(protowire.DecodeZigZag(v)), true
			offset += n

		case num == fieldEntrySamples && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(entry[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			decoded, err := consumePacked(packed)
			if err != nil {
				return err
			}
			ids = append(ids, decoded...)
			offset += n

		default:
			return coreErrors.New(coreErrors.ErrMalformedMessage, "unexpected entry field %d (wire type %d)", num, typ)
		}
	}
	if !hasIndex {
		return coreErrors.New(coreErrors.ErrMalformedMessage, "entry without genotype index")
	}
	gm.Append(index, ids...)
	return nil
}

func decodeSecondary(secondary []byte, ac *counts.AlleleCount) error {
	var (
		symbol    string
		hasSymbol bool
		entries   = counts.GenotypeMap{}
	)
	for offset := 0; offset < len(secondary); {
		num, typ, n := protowire.ConsumeTag(secondary[offset:])
		if n < 0 {
			return malformed(offset, protowire.ParseError(n))
		}
		offset += n

		switch {
		case num == fieldSecondarySymbol && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(secondary[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			symbol, hasSymbol = s, true
			offset += n

		case num == fieldSecondaryEntries && typ == protowire.BytesType:
			entry, n := protowire.ConsumeBytes(secondary[offset:])
			if n < 0 {
				return malformed(offset, protowire.ParseError(n))
			}
			if err := decodeEntry(entry, entries); err != nil {
				return err
			}
			offset += n

		default:
			return coreErrors.New(coreErrors.ErrMalformedMessage, "unexpected secondary field %d (wire type %d)", num, typ)
		}
	}
	if !hasSymbol {
		return coreErrors.New(coreErrors.ErrMalformedMessage, "secondary allele without symbol")
	}

	if ac.SecondaryAlleles[symbol] == nil {
		ac.SecondaryAlleles[symbol] = counts.GenotypeMap{}
	}
	for _, index := range entries.Indices() {
		ac.SecondaryAlleles[symbol].Append(index, entries[index]...)
	}
	return nil
}

// -- packed sample ids

func appendPacked(b []byte, field protowire.Number, ids []uint32) []byte {
	if len(ids) == 0 {
		return b
	}
	var packed []byte
	for _, id := range ids {
		packed = protowire.AppendVarint(packed, uint64(id))
	}
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func consumePacked(packed []byte) ([]uint32, error) {
	ids := make([]uint32, 0, len(packed))
	for offset := 0; offset < len(packed); {
		v, n := protowire.ConsumeVarint(packed[offset:])
		if n < 0 {
			return nil, malformed(offset, protowire.ParseError(n))
		}
		if v > uint64(^uint32(0)) {
			return nil, coreErrors.New(coreErrors.ErrMalformedMessage, "sample id %d overflows uint32", v)
		}
		ids = append(ids, uint32(v))
		offset += n
	}
	return ids, nil
}

func sortedCopy(ids []uint32) []uint32 {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return sorted
}

func malformed(offset int, err error) error {
	return coreErrors.New(coreErrors.ErrMalformedMessage, "offset %d: %v", offset, err)
}
