// Copyright 2017, Kerby Shedden and the Muscato contributors.

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kshedden/epcr/internal/sts"
)

func loadCatalog(t *testing.T, line string, w, margin int) *sts.Catalog {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "test.sts")
	require.NoError(t, os.WriteFile(p, []byte(line+"\n"), 0644))

	cat, _, err := sts.Load(p, sts.Options{
		WordSize:       w,
		MaxLineLength:  1022,
		DefaultPCRSize: 240,
		DefaultMargin:  margin,
	})
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

// A sequence built exactly as prefix || p_fwd || gap || rc(p_rev) || suffix
// produces exactly one hit from the "+" record.
func TestHashCompleteness(t *testing.T) {
	cat := loadCatalog(t, "id1\tACGTACGT\tAAAACCCC\t20", 4, 0) // rc(AAAACCCC)=GGGGTTTT, gap=20-8-8=4

	seq := []byte("NNNN" + "ACGTACGT" + "TTTT" + "GGGGTTTT" + "NNNN")
	hits := Scan(cat, seq, 0, Params{W: 4, MaxMismatch: 0, ThreePrime: 0}, nil)

	require.Len(t, hits, 1)
	require.Equal(t, sts.Plus, hits[0].Record.Direct)
	require.Equal(t, 4, hits[0].Pos1)
	require.Equal(t, 23, hits[0].Pos2)
	require.Equal(t, 20, hits[0].Pos2-hits[0].Pos1+1)
}

// With I=1, an ambiguous primer base matches any compatible sequence base;
// with I=0, the same primer only matches a literal occurrence of that code.
func TestIUPACCorrectness(t *testing.T) {
	// R (= A or G) at the 5th position of the forward primer.
	cat := loadCatalog(t, "id1\tACGTRCGT\tAAAACCCC\t20", 4, 0)

	seq := []byte("ACGTGCGT" + "TTTT" + "GGGGTTTT")

	hits := Scan(cat, seq, 0, Params{W: 4, MaxMismatch: 0, ThreePrime: 0, IUPAC: false}, nil)
	require.Len(t, hits, 0)

	hits = Scan(cat, seq, 0, Params{W: 4, MaxMismatch: 0, ThreePrime: 0, IUPAC: true}, nil)
	require.Len(t, hits, 1)
}

// X = len_fwd forces an exact match on the forward primer even when N > 0.
func TestThreePrimeFullAnchorForcesExactMatch(t *testing.T) {
	cat := loadCatalog(t, "id1\tACGTACGT\tAAAACCCC\t20", 4, 0)

	seq := []byte("TCGTACGT" + "TTTT" + "GGGGTTTT") // mismatch at first base of primer1, outside its hash word

	hits := Scan(cat, seq, 0, Params{W: 4, MaxMismatch: 2, ThreePrime: 8}, nil)
	require.Len(t, hits, 0)
}

// Margin bound: a size range "lo-hi" coerces pcr_size to the midpoint and
// widens the margin so that both endpoints of the range, plus one base of
// slack on each side, are accepted, but no further.
func TestMarginBoundFromSizeRange(t *testing.T) {
	cat := loadCatalog(t, "id1\tACGTACGT\tGGGGTTTT\t18-22", 4, 0)
	rec := &cat.Records[0]
	require.Equal(t, 20, rec.PCRSize)
	require.Equal(t, 3, rec.Margin) // ceil((22-18)/2) + 1

	build := func(gapLen int) []byte {
		gap := make([]byte, gapLen)
		for i := range gap {
			gap[i] = 'T'
		}
		return append(append([]byte("ACGTACGT"), gap...), []byte("AAAACCCC")...) // rc(GGGGTTTT)=AAAACCCC
	}

	for _, size := range []int{17, 18, 20, 22, 23} {
		gapLen := size - 8 - 8
		seq := build(gapLen)
		hits := Scan(cat, seq, 0, Params{W: 4, MaxMismatch: 0, ThreePrime: 0}, nil)
		require.Lenf(t, hits, 1, "amplicon size %d should hit", size)
	}

	for _, size := range []int{16, 24} {
		gapLen := size - 8 - 8
		seq := build(gapLen)
		hits := Scan(cat, seq, 0, Params{W: 4, MaxMismatch: 0, ThreePrime: 0}, nil)
		require.Lenf(t, hits, 0, "amplicon size %d should not hit", size)
	}
}
