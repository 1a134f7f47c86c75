// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package sts parses the STS (Sequence Tagged Site) catalog file and
// builds the word-indexed hash table the matching engine scans against.
package sts

// Direct records which of the two primers in the original pair a Record
// represents.
type Direct byte

const (
	Plus  Direct = '+'
	Minus Direct = '-'
)

// Record is one primer paired with its reverse-complemented partner,
// ready to be matched left-to-right against a sequence buffer.
type Record struct {
	// PFwd is the primer whose hash word is looked up directly; PRev is
	// the other primer of the pair, already reverse-complemented so it
	// can be matched left-to-right following PFwd.
	PFwd, PRev []byte

	// PCRSize is the expected amplicon length, inclusive of both
	// primers.
	PCRSize int

	// Margin is the allowed deviation, in bases, of the observed
	// amplicon length from PCRSize.
	Margin int

	// HashOffset is the 0-based offset within PFwd at which the
	// hashable W-mer begins.
	HashOffset int

	// AmbigFwd and AmbigRev record whether PFwd/PRev (respectively)
	// contain an IUPAC ambiguity code.
	AmbigFwd, AmbigRev bool

	// Direct records which primer of the original pair PFwd is.
	Direct Direct

	// FileOffset is the byte offset of the originating STS-file line,
	// used by the reporter to recover descriptive columns on demand.
	FileOffset int64
}

// LenFwd and LenRev are the lengths of the two primers.
func (r *Record) LenFwd() int { return len(r.PFwd) }
func (r *Record) LenRev() int { return len(r.PRev) }
