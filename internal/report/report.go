// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package report formats matching-engine hits into the tab-delimited
// output line format (spec §5) and writes them, optionally through
// Snappy compression, to the configured output stream.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"

	"github.com/kshedden/epcr/internal/engine"
	"github.com/kshedden/epcr/internal/sts"
)

// Writer accumulates the running hit count while emitting formatted
// report lines to an underlying stream.
type Writer struct {
	w       *bufio.Writer
	closer  io.Closer
	cat     *sts.Catalog
	maxLine int
	count   int
}

// New wraps dst for reporting. If compressed is true, dst is wrapped in
// a Snappy framing-format stream writer (spec §6, the ".sz" output
// suffix) before the
// buffered writer is layered on top.
func New(dst io.WriteCloser, cat *sts.Catalog, maxLine int, compressed bool) *Writer {
	var w io.Writer = dst
	var closer io.Closer = dst
	if compressed {
		sw := snappy.NewBufferedWriter(dst)
		w = sw
		closer = multiCloser{sw, dst}
	}
	return &Writer{
		w:       bufio.NewWriter(w),
		closer:  closer,
		cat:     cat,
		maxLine: maxLine,
	}
}

type multiCloser struct {
	first  io.Closer
	second io.Closer
}

func (m multiCloser) Close() error {
	if err := m.first.Close(); err != nil {
		return err
	}
	return m.second.Close()
}

// Hit writes one formatted report line (spec §5): the sequence label,
// the 1-based inclusive coordinate range, the STS id, any trailing
// descriptive columns carried in the STS file beyond the size field, and
// the primer orientation.
func (r *Writer) Hit(seqLabel string, h engine.Hit) error {
	line, err := r.cat.LineAt(h.Record.FileOffset, r.maxLine)
	if err != nil {
		return err
	}

	id, tail := splitIDAndTail(line)

	if tail != "" {
		_, err = fmt.Fprintf(r.w, "%s\t%d..%d\t%s\t%s\t(%c)\n", seqLabel, h.Pos1+1, h.Pos2+1, id, tail, h.Record.Direct)
	} else {
		_, err = fmt.Fprintf(r.w, "%s\t%d..%d\t%s\t(%c)\n", seqLabel, h.Pos1+1, h.Pos2+1, id, h.Record.Direct)
	}
	if err != nil {
		return err
	}

	r.count++
	return nil
}

// Count returns the number of hits written so far.
func (r *Writer) Count() int { return r.count }

// Flush flushes any buffered output.
func (r *Writer) Flush() error { return r.w.Flush() }

// Close flushes and closes the underlying stream(s).
func (r *Writer) Close() error {
	if err := r.w.Flush(); err != nil {
		return err
	}
	return r.closer.Close()
}

// splitIDAndTail splits a raw STS-file line into its id (first field)
// and any descriptive columns beyond the size field (the fifth field
// onward). A line with no such columns yields an empty tail.
func splitIDAndTail(line string) (id, tail string) {
	fields := strings.SplitN(line, "\t", 5)
	if len(fields) == 0 {
		return "", ""
	}
	id = fields[0]
	if len(fields) == 5 {
		tail = fields[4]
	}
	return id, tail
}
