// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package engine implements the word-indexed rolling hash scan and the
// constrained primer comparator described in spec.md §4.2: for every
// position of a sequence shard, candidate STSs are proposed in O(1)
// expected time from the catalog's hash buckets, then checked with a
// mismatch budget and a 3'-anchor constraint.
package engine

import (
	"github.com/kshedden/epcr/internal/alphabet"
	"github.com/kshedden/epcr/internal/prefilter"
	"github.com/kshedden/epcr/internal/sts"
)

// Params bundles the scanning parameters exposed on the CLI (spec §6).
type Params struct {
	// W is the hashable word length, matching the catalog's.
	W int

	// MaxMismatch (N) is the number of mismatches tolerated per primer.
	MaxMismatch int

	// ThreePrime (X) is the number of 3'-end bases that must match
	// exactly.
	ThreePrime int

	// IUPAC (I), when true, compares primer ambiguity codes against the
	// sequence using the IUPAC compatibility matrix rather than requiring
	// a literal match.
	IUPAC bool

	// UsePreFilter enables the Bloom-sketch pre-filter ahead of the
	// exact hash bucket lookup. It never changes the result, only the
	// cost of computing it.
	UsePreFilter bool
}

// Hit is one recorded primer-pair match, with coordinates already
// translated to be absolute within the FASTA record (i.e. shard offset
// applied).
type Hit struct {
	Pos1, Pos2 int
	Record     *sts.Record
}

// Scan runs the rolling hash scan and constrained comparator over one
// shard of a sequence, appending hits to dst and returning the extended
// slice. shardOffset is the shard's absolute byte offset within the FASTA
// record; reported positions are shardOffset + local position.
func Scan(cat *sts.Catalog, shard []byte, shardOffset int, p Params, dst []Hit) []Hit {
	w := cat.W
	if len(shard) < w {
		return dst
	}

	var h uint32
	mask := uint32(1)<<uint(2*w) - 1
	nskip := w

	var bh prefilterHash
	if p.UsePreFilter {
		bh = newPrefilterHash()
		// Initialize the hash with the first window, mirroring
		// muscato_screen.go's "Initialize the hashes with the first
		// window" step: Write establishes the ring buffer Roll then
		// slides one byte at a time.
		_ = bh.write(shard[0:w])
	}

	// Prime the exact rolling hash with the first w-1 bases; the loop
	// below folds in base w and begins testing at position 0.
	for i := 0; i < w-1; i++ {
		h, nskip = rollIn(h, nskip, w, shard[i])
	}

	for pos := 0; pos+w <= len(shard); pos++ {
		b := shard[pos+w-1]
		h, nskip = rollIn(h, nskip, w, b)
		// pos 0's window is exactly the bytes already passed to
		// bh.write above; only roll in the new trailing byte once the
		// window has advanced past that initial write.
		if p.UsePreFilter && pos > 0 {
			bh.roll(b)
		}

		if nskip != 0 {
			continue
		}
		if p.UsePreFilter && !cat.PreFilter.Test(bh.key()) {
			continue
		}

		for _, idx := range cat.Bucket(h & mask) {
			rec := &cat.Records[idx]
			k := pos - rec.HashOffset
			if k < 0 {
				continue
			}
			dst = match(shard, shardOffset, k, rec, p, dst)
		}
	}

	return dst
}

// rollIn folds base b into the rolling 2-bit window hash h, returning
// the updated hash and invalid-countdown. An ambiguous base invalidates
// the next w windows (spec §4.2).
func rollIn(h uint32, nskip, w int, b byte) (uint32, int) {
	h <<= 2
	code := alphabet.Code(b)
	if code == alphabet.Ambig {
		return h, w
	}
	h |= uint32(code)
	if nskip > 0 {
		nskip--
	}
	return h, nskip
}

// prefilterHash wraps a rolling buzhash32 over the same w-base window the
// exact hash tracks.
type prefilterHash struct {
	h interface {
		Write([]byte) (int, error)
		Roll(byte)
		Sum32() uint32
	}
}

func newPrefilterHash() prefilterHash {
	return prefilterHash{h: prefilter.New()}
}

// write establishes the initial w-byte window. It must be called exactly
// once, before any call to roll, since Roll indexes into a history ring
// buffer that Write is what allocates and fills.
func (p *prefilterHash) write(window []byte) error {
	_, err := p.h.Write(window)
	return err
}

func (p *prefilterHash) roll(b byte) {
	p.h.Roll(b)
}

func (p *prefilterHash) key() []byte {
	return prefilter.Key(p.h.Sum32())
}

// match implements spec §4.2's Match procedure: compare the forward
// primer, locate the nominal reverse-primer position, and sweep ±margin
// around it.
func match(shard []byte, shardOffset, k int, rec *sts.Record, p Params, dst []Hit) []Hit {
	lenFwd := rec.LenFwd()
	lenRev := rec.LenRev()
	if k+lenFwd > len(shard) {
		return dst
	}
	if !seqmcmp(shard[k:k+lenFwd], rec.PFwd, p.ThreePrime, p.MaxMismatch, +1, p.IUPAC, rec.AmbigFwd) {
		return dst
	}

	shardLen := len(shard)
	expSize := rec.PCRSize
	var hiMargin, loMargin int

	if expSize > shardLen {
		if shardLen < lenFwd+lenRev || expSize-shardLen > rec.Margin {
			return dst
		}
		expSize = shardLen
		hiMargin = 0
	} else {
		hiMargin = rec.Margin
		if hiMargin+expSize > shardLen {
			hiMargin = shardLen - expSize
		}
	}

	// Shrinking expSize to the shard length already used part of the
	// margin; the downward sweep may only use what is left of it.
	loMargin = rec.Margin - (rec.PCRSize - expSize)
	if loMargin > expSize-lenFwd-lenRev {
		loMargin = expSize - lenFwd - lenRev
	}

	q := k + expSize - lenRev

	tryOffset := func(delta int) []Hit {
		qi := q + delta
		if qi < 0 || qi+lenRev > len(shard) {
			return dst
		}
		if seqmcmp(shard[qi:qi+lenRev], rec.PRev, p.ThreePrime, p.MaxMismatch, -1, p.IUPAC, rec.AmbigRev) {
			dst = append(dst, Hit{
				Pos1:   shardOffset + k,
				Pos2:   shardOffset + k + expSize + delta - 1,
				Record: rec,
			})
		}
		return dst
	}

	dst = tryOffset(0)
	for i := 1; i <= rec.Margin; i++ {
		if i <= loMargin {
			dst = tryOffset(-i)
		}
		if i <= hiMargin {
			dst = tryOffset(i)
		}
	}
	return dst
}

// seqmcmp is the constrained comparator (spec §4.2): sequence is the
// target-sequence bytes, primer is the STS primer (or its
// reverse-complement, for the reverse orientation). strand is +1 when
// the primer's 3' end is at the high index (the forward primer), -1 when
// it is at the low index (the stored, already-reverse-complemented
// reverse primer). useIUPAC gates whether ambig-aware comparison is
// used; it is only consulted when the primer itself contains an
// ambiguity code and the caller has enabled IUPAC mode.
func seqmcmp(sequence, primer []byte, threePrime, maxMismatch, strand int, iupacMode, primerAmbiguous bool) bool {
	n := len(primer)
	useIUPAC := iupacMode && primerAmbiguous

	mismatches := 0
	for i := 0; i < n; i++ {
		var ok bool
		if useIUPAC {
			ok = alphabet.IUPAC.Match(primer[i], sequence[i])
		} else {
			ok = sequence[i] == primer[i]
		}
		if ok {
			continue
		}
		mismatches++
		withinAnchor := (strand > 0 && i >= n-threePrime) || (strand < 0 && i < threePrime)
		if mismatches > maxMismatch || withinAnchor {
			return false
		}
	}
	return true
}
