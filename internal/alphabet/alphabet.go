// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package alphabet holds the process-wide nucleotide tables: base-to-2-bit
// codes, the IUPAC complement, and the IUPAC compatibility matrix used by
// the constrained primer comparator.  These are read-only for the lifetime
// of the program and are safe to share across goroutines without
// synchronization.
package alphabet

import "github.com/golang-collections/go-datastructures/bitarray"

// Ambig is the sentinel 2-bit code for any base outside A, C, G, T.
const Ambig uint8 = 100

var code [256]uint8

func init() {
	for i := range code {
		code[i] = Ambig
	}
	code['A'] = 0
	code['C'] = 1
	code['G'] = 2
	code['T'] = 3
}

// Code returns the 2-bit code for base b, or Ambig if b is not A, C, G, or
// T. Callers are expected to have already upper-cased b.
func Code(b byte) uint8 {
	return code[b]
}

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'

	// Ambiguity codes, per the IUPAC expansion table.
	complement['B'] = 'V' // B = C, G or T
	complement['D'] = 'H' // D = A, G or T
	complement['H'] = 'D' // H = A, C or T
	complement['K'] = 'M' // K = G or T
	complement['M'] = 'K' // M = A or C
	complement['N'] = 'N' // N = A, C, G or T
	complement['R'] = 'Y' // R = A or G
	complement['S'] = 'S' // S = C or G
	complement['V'] = 'B' // V = A, C or G
	complement['W'] = 'W' // W = A or T
	complement['X'] = 'X'
	complement['Y'] = 'R' // Y = C or T
}

// Complement returns the IUPAC complement of base b.  A byte with no known
// complement maps to 'N'.
func Complement(b byte) byte {
	c := complement[b]
	if c == 0 {
		return 'N'
	}
	return c
}

// ReverseComplement returns the reverse complement of seq as a new slice.
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	n := len(seq)
	for i, b := range seq {
		out[n-1-i] = Complement(b)
	}
	return out
}

// ambig marks bytes that are IUPAC ambiguity codes (not plain A/C/G/T).
var ambig [256]bool

func init() {
	for _, b := range []byte("BDHKMNRSVWXY") {
		ambig[b] = true
	}
}

// IsAmbiguous reports whether b is an IUPAC ambiguity code.
func IsAmbiguous(b byte) bool {
	return ambig[b]
}

// iupacExpansions lists, for each IUPAC code, the sequence bases it is
// compatible with. Grounded on the original me-PCR mapping table
// (stsmatch.cpp _IUPAC_mapping), which folds T/U together.
var iupacExpansions = []struct {
	code    byte
	matches string
}{
	{'A', "A"},
	{'C', "C"},
	{'G', "G"},
	{'T', "TU"},
	{'U', "TU"},
	{'R', "AGR"},
	{'Y', "CTUY"},
	{'M', "ACM"},
	{'K', "GTUK"},
	{'S', "CGS"},
	{'W', "ATUW"},
	{'B', "CGTUYKSB"},
	{'D', "AGTURKWD"},
	{'H', "ACTUYMWH"},
	{'V', "ACGRMSV"},
	{'N', "ACGTURYMKSWBDHVN"},
}

// Matrix is a 256x256 compatibility matrix: IUPAC.Match(x, y)
// is true iff IUPAC code x (as it appears in an STS primer) is compatible
// with base y (as it appears in the target sequence).  Backed by a
// bitarray.BitArray rather than a [256][256]bool, since the matrix is a
// fixed 65536-bit set built once and never mutated after init.
type Matrix struct {
	bits bitarray.BitArray
}

// index mirrors the original table's layout: the sequence base occupies
// the high byte, the STS primer code the low byte.
func index(seq, primer byte) uint64 {
	return uint64(seq)<<8 | uint64(primer)
}

// Match reports whether STS code primer (in the primer) is compatible
// with sequence base seq.
func (m *Matrix) Match(primer, seq byte) bool {
	ok, err := m.bits.GetBit(index(seq, primer))
	if err != nil {
		return false
	}
	return ok
}

// IUPAC is the process-wide compatibility matrix, built once at package
// init from the standard IUPAC expansions.
var IUPAC = buildMatrix()

func buildMatrix() *Matrix {
	m := &Matrix{bits: bitarray.NewBitArray(1 << 16)}
	for _, e := range iupacExpansions {
		for i := 0; i < len(e.matches); i++ {
			_ = m.bits.SetBit(index(e.matches[i], e.code))
		}
	}
	return m
}
