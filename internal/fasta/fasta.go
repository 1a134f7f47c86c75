// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package fasta loads FASTA-formatted sequence files into contiguous,
// uppercased, whitespace-stripped buffers suitable for the matching
// engine to scan directly.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// alphabet is the set of nucleotide bytes retained from sequence lines;
// everything else is dropped (spec §6).
const alphabet = "GATCNBDHKMRSVWY-"

var keep [256]bool

func init() {
	for i := 0; i < len(alphabet); i++ {
		keep[alphabet[i]] = true
	}
}

// Record is one FASTA entry: a label (the first whitespace-delimited
// token after '>') and its sequence as a single contiguous, upper-cased
// buffer.
type Record struct {
	Label string
	Seq   []byte
}

// ReadAll parses every record out of r. A '>' appearing outside the first
// column of a line is a fatal parse error, matching spec §6.
func ReadAll(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024*1024)

	var records []Record
	var label string
	var seq []byte
	haveRecord := false
	lineNo := 0

	flush := func() {
		if haveRecord {
			records = append(records, Record{Label: label, Seq: seq})
		}
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			label = parseLabel(line)
			seq = nil
			haveRecord = true
			continue
		}
		if !haveRecord {
			return nil, errors.Errorf("line %d: sequence data before any '>' header", lineNo)
		}
		for _, b := range line {
			if b == '>' {
				return nil, errors.Errorf("line %d: stray '>' outside the first column", lineNo)
			}
			b = upper(b)
			if keep[b] {
				seq = append(seq, b)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading FASTA data")
	}
	flush()

	return records, nil
}

func parseLabel(headerLine []byte) string {
	s := strings.TrimLeft(string(headerLine[1:]), " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
