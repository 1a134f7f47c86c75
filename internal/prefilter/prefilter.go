// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package prefilter provides a rolling buzhash32 keyed on the same
// W-base window the matching engine's exact hash scans, so the catalog
// and the engine can share one Bloom sketch as a cost-reduction
// pre-filter ahead of the exact hash-bucket lookup (see SPEC_FULL.md,
// Domain Stack). The sketch can only produce false positives.
package prefilter

import (
	"encoding/binary"
	"math/rand"

	"github.com/chmduquesne/rollinghash"
	"github.com/chmduquesne/rollinghash/buzhash32"
)

// table is generated once, deterministically, so that the table used to
// sketch the catalog's primers at load time matches the table used to
// roll across the sequence at scan time.
var table = buildTable()

func buildTable() [256]uint32 {
	var t [256]uint32
	rng := rand.New(rand.NewSource(0xe9c12))
	seen := make(map[uint32]bool, 256)
	for i := range t {
		for {
			v := rng.Uint32()
			if !seen[v] {
				t[i] = v
				seen[v] = true
				break
			}
		}
	}
	return t
}

// New returns a fresh rolling hash over the shared table.
func New() rollinghash.Hash32 {
	return buzhash32.NewFromUint32Array(table)
}

// Key encodes a buzhash32 sum as the 4-byte key used by the Bloom
// filter.
func Key(sum uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, sum)
	return b
}

// KeyOf computes the sketch key for a single window directly, used when
// building the catalog's Bloom filter from primer windows rather than by
// rolling across a longer buffer.
func KeyOf(window []byte) []byte {
	h := New()
	_, _ = h.Write(window)
	return Key(h.Sum32())
}
