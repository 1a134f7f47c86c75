// Copyright 2017, Kerby Shedden and the Muscato contributors.

package sts

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/willf/bloom"

	"github.com/kshedden/epcr/internal/alphabet"
	"github.com/kshedden/epcr/internal/prefilter"
)

// Options configures catalog construction (spec §6: W, S, Z, M).
type Options struct {
	// WordSize is the hashable word length W, 3 <= WordSize <= 16.
	WordSize int

	// MaxLineLength is the maximum STS-file line length, not counting
	// line terminators. A longer line is a fatal format error.
	MaxLineLength int

	// DefaultPCRSize substitutes for an STS whose size field is "-" or
	// "0".
	DefaultPCRSize int

	// DefaultMargin is the per-STS margin before any size-range
	// enlargement (spec §3, "inherits global margin").
	DefaultMargin int
}

// Stats summarizes non-fatal rejections encountered while building the
// catalog (spec §7, "Catalog rejection").
type Stats struct {
	ShortPrimer      int // primer shorter than W
	UnhashablePrimer int // no AMBIG-free W-window anywhere in the primer
	CoercedSize      int // pcr_size raised to len_fwd+len_rev
	Lines            int
}

// Catalog is the word-indexed STS hash table: a flat vector of records
// plus, for every bucket 0..4^W-1, the indices of records whose hash word
// falls in that bucket. The STS file descriptor is kept open for the
// catalog's lifetime so the reporter can seek into it later.
type Catalog struct {
	W          int
	Records    []Record
	buckets    [][]int32
	MaxPCRSize int

	// PreFilter is a Bloom sketch of every accepted hashable W-mer,
	// queried by the matching engine ahead of the exact bucket lookup
	// as a cost-reduction pre-filter (see SPEC_FULL.md Domain Stack).
	// It can only produce false positives, never false negatives: the
	// exact comparator is always the final word.
	PreFilter *bloom.BloomFilter

	file     *os.File
	filePath string
}

// Bucket returns the record indices hashing to h.
func (c *Catalog) Bucket(h uint32) []int32 {
	return c.buckets[h]
}

// Close releases the STS file descriptor kept open for reporting.
func (c *Catalog) Close() error {
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// LineAt seeks to offset in the underlying STS file and returns the line
// starting there, with its line terminator(s) stripped.
func (c *Catalog) LineAt(offset int64, maxLen int) (string, error) {
	if _, err := c.file.Seek(offset, io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "seeking to offset %d in %s", offset, c.filePath)
	}
	buf := make([]byte, 0, 256)
	r := bufio.NewReaderSize(c.file, maxLen+2)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", errors.Wrapf(err, "reading line at offset %d in %s", offset, c.filePath)
		}
		if b == '\n' {
			break
		}
		buf = append(buf, b)
		if len(buf) > maxLen+1 {
			return "", errors.Errorf("line at offset %d exceeds maximum length %d", offset, maxLen)
		}
	}
	return strings.TrimRight(string(buf), "\r"), nil
}

func wordSpace(w int) uint32 {
	return uint32(1) << uint(2*w)
}

// Load parses the STS file and builds the catalog. opts carries the
// configured word size and the remaining §6 parameters.
func Load(path string, opts Options) (*Catalog, Stats, error) {
	if opts.WordSize < 3 || opts.WordSize > 16 {
		return nil, Stats{}, errors.Errorf("word size %d out of range [3,16]", opts.WordSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrapf(err, "opening STS file %s", path)
	}

	cat := &Catalog{
		W:         opts.WordSize,
		buckets:   make([][]int32, wordSpace(opts.WordSize)),
		PreFilter: bloom.NewWithEstimates(1<<20, 0.01),
		file:      f,
		filePath:  path,
	}

	var stats Stats
	r := bufio.NewReaderSize(f, opts.MaxLineLength+2)

	var lineOffset int64
	lineNo := 0
	for {
		line, nextOffset, eof, err := readLine(r, lineOffset, opts.MaxLineLength)
		if err != nil {
			cat.Close()
			return nil, stats, errors.Wrapf(err, "line %d of %s", lineNo+1, path)
		}
		if eof && line == "" {
			break
		}
		lineNo++

		trimmed := strings.TrimRight(line, "\r")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			lineOffset = nextOffset
			if eof {
				break
			}
			continue
		}
		stats.Lines++

		if err := cat.addLine(trimmed, lineOffset, opts, &stats); err != nil {
			cat.Close()
			return nil, stats, errors.Wrapf(err, "line %d of %s", lineNo, path)
		}

		lineOffset = nextOffset
		if eof {
			break
		}
	}

	return cat, stats, nil
}

// readLine reads one line from r, returning its text (without the
// terminator), the byte offset immediately following it, and whether EOF
// was reached with no further data.
func readLine(r *bufio.Reader, offset int64, maxLen int) (string, int64, bool, error) {
	buf, err := r.ReadBytes('\n')
	eof := err == io.EOF
	if err != nil && !eof {
		return "", 0, false, err
	}
	if eof && len(buf) == 0 {
		return "", offset, true, nil
	}
	text := strings.TrimRight(string(buf), "\n")
	if n := len(strings.TrimRight(text, "\r")); n > maxLen {
		return "", 0, false, errors.Errorf("line length %d exceeds maximum %d", n, maxLen)
	}
	return text, offset + int64(len(buf)), eof, nil
}

// addLine implements spec §4.1's per-line construction algorithm.
func (c *Catalog) addLine(line string, offset int64, opts Options, stats *Stats) error {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		return errors.Errorf("malformed STS line (want id<TAB>primer1<TAB>primer2<TAB>size): %q", line)
	}

	p1 := strings.ToUpper(fields[1])
	p2 := strings.ToUpper(fields[2])

	pcrSize, margin, err := parseSize(fields[3], opts.DefaultPCRSize, opts.DefaultMargin)
	if err != nil {
		return err
	}

	len1, len2 := len(p1), len(p2)
	if len1+len2 > pcrSize {
		pcrSize = len1 + len2
		stats.CoercedSize++
	}

	if len1 < c.W || len2 < c.W {
		stats.ShortPrimer++
		return nil
	}

	off1, h1, ok1 := hashValue([]byte(p1), c.W)
	off2, h2, ok2 := hashValue([]byte(p2), c.W)
	if !ok1 || !ok2 {
		// Atomic per spec invariant 1: a line contributes either both
		// records or neither.
		stats.UnhashablePrimer++
		return nil
	}

	ambig1 := hasAmbiguity(p1)
	ambig2 := hasAmbiguity(p2)

	rc1 := alphabet.ReverseComplement([]byte(p1))
	rc2 := alphabet.ReverseComplement([]byte(p2))

	if pcrSize > c.MaxPCRSize {
		c.MaxPCRSize = pcrSize
	}

	idxFwd := int32(len(c.Records))
	c.Records = append(c.Records, Record{
		PFwd:       []byte(p1),
		PRev:       rc2,
		PCRSize:    pcrSize,
		Margin:     margin,
		HashOffset: off1,
		AmbigFwd:   ambig1,
		AmbigRev:   ambig2,
		Direct:     Plus,
		FileOffset: offset,
	})
	c.buckets[h1] = append(c.buckets[h1], idxFwd)
	c.addToPreFilter(p1, off1)

	idxRev := int32(len(c.Records))
	c.Records = append(c.Records, Record{
		PFwd:       []byte(p2),
		PRev:       rc1,
		PCRSize:    pcrSize,
		Margin:     margin,
		HashOffset: off2,
		AmbigFwd:   ambig2,
		AmbigRev:   ambig1,
		Direct:     Minus,
		FileOffset: offset,
	})
	c.buckets[h2] = append(c.buckets[h2], idxRev)
	c.addToPreFilter(p2, off2)

	return nil
}

func (c *Catalog) addToPreFilter(primer string, hashOffset int) {
	window := []byte(primer)[hashOffset : hashOffset+c.W]
	c.PreFilter.Add(prefilter.KeyOf(window))
}

// hasAmbiguity reports whether primer contains any IUPAC ambiguity code.
func hasAmbiguity(primer string) bool {
	for i := 0; i < len(primer); i++ {
		if alphabet.IsAmbiguous(primer[i]) {
			return true
		}
	}
	return false
}

// hashValue computes the packed 2-bit hash of the rightmost AMBIG-free
// W-window of primer, walking left from offset len(primer)-W if needed
// (spec §4.1 step 2). ok is false if no such window exists.
func hashValue(primer []byte, w int) (offset int, hash uint32, ok bool) {
	offset = len(primer) - w
	for offset >= 0 {
		var h uint32
		clean := true
		for i := 0; i < w; i++ {
			code := alphabet.Code(primer[offset+i])
			if code == alphabet.Ambig {
				clean = false
				break
			}
			h = h<<2 | uint32(code)
		}
		if clean {
			return offset, h, true
		}
		offset--
	}
	return 0, 0, false
}

// parseSize interprets the STS file's size field per spec §4.1: a bare
// integer, a range "lo-hi", the literal "-", or "0" (the latter two mean
// "unknown" and fall back to defaultSize).
func parseSize(field string, defaultSize, defaultMargin int) (pcrSize, margin int, err error) {
	margin = defaultMargin

	if field == "-" {
		return defaultSize, margin, nil
	}

	if idx := strings.IndexByte(field, '-'); idx > 0 {
		lo, err := strconv.Atoi(field[:idx])
		if err != nil {
			return 0, 0, errors.Errorf("invalid PCR size range %q", field)
		}
		hi, err := strconv.Atoi(field[idx+1:])
		if err != nil {
			return 0, 0, errors.Errorf("invalid PCR size range %q", field)
		}
		pcrSize = (lo + hi) / 2
		margin += int(math.Ceil(float64(hi-lo)/2)) + 1
		return pcrSize, margin, nil
	}

	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid PCR size %q", field)
	}
	if n == 0 {
		return defaultSize, margin, nil
	}
	return n, margin, nil
}
