// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package shard partitions a sequence into overlapping chunks so the
// matching engine can scan a record in parallel without losing hits that
// straddle a chunk boundary, then merges the per-shard results back into
// one hit list (spec §4.3).
package shard

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/kshedden/epcr/internal/engine"
	"github.com/kshedden/epcr/internal/sts"
)

// MinFileSizeForThreading is the sequence length below which sharding
// across more than one goroutine is not worth the overhead.
const MinFileSizeForThreading = 100000

// Shard is one partition of a sequence: [Offset, Offset+len(Seq)) within
// the original buffer, where Seq includes the trailing overlap region
// shared with the next shard.
type Shard struct {
	Offset int
	Seq    []byte
	First  bool
}

// Plan partitions a sequence of length l into at most t shards, each
// overlapping its successor by overlap bases so that any hit whose
// window crosses a boundary is still fully contained in at least one
// shard. It reduces the thread count (and finally returns a single
// shard) when l is too small or overlap too large to support t-way
// partitioning, mirroring muscato_screen's threading fallback.
func Plan(seq []byte, t, overlap int) ([]Shard, error) {
	l := len(seq)
	if t < 1 {
		t = 1
	}
	if l < MinFileSizeForThreading {
		t = 1
	}

	for t > 1 && (t+1)*overlap > l {
		t--
	}

	if t <= 1 {
		return []Shard{{Offset: 0, Seq: seq, First: true}}, nil
	}

	chunk := ceilDiv(l-(t+1)*overlap, t) + 2*overlap
	if overlap >= chunk {
		return nil, errors.Errorf("overlap %d too large for %d shards of sequence length %d", overlap, t, l)
	}

	var shards []Shard
	stride := chunk - overlap
	for start := 0; start < l; start += stride {
		end := start + chunk
		if end > l {
			end = l
		}
		shards = append(shards, Shard{
			Offset: start,
			Seq:    seq[start:end],
			First:  start == 0,
		})
		if end == l {
			break
		}
	}

	return shards, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Run scans every shard concurrently, bounded to limit simultaneous
// goroutines, and returns the merged, deduplicated hit list. The pattern
// follows the teacher's worker-pool idiom: a semaphore channel gates
// concurrency, a WaitGroup joins the workers, a separate goroutine closes
// the result channel once they are all done, and the caller harvests
// results off that channel.
func Run(cat *sts.Catalog, shards []Shard, p engine.Params, overlap, limit int) ([]engine.Hit, error) {
	if limit < 1 {
		limit = 1
	}

	type result struct {
		hits []engine.Hit
	}

	results := make(chan result, len(shards))
	sem := make(chan bool, limit)
	var wg sync.WaitGroup

	for _, sh := range shards {
		sh := sh
		wg.Add(1)
		sem <- true
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			hits := engine.Scan(cat, sh.Seq, sh.Offset, p, nil)
			if !sh.First {
				hits = dedupLeadingEdge(hits, sh.Offset, overlap)
			}
			results <- result{hits: hits}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var merged []engine.Hit
	for r := range results {
		merged = append(merged, r.hits...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Pos1 < merged[j].Pos1
	})

	return merged, nil
}

// dedupLeadingEdge discards hits whose end position (Pos2) falls within
// the overlap region shared with the previous shard, since such a hit
// lies wholly inside the preceding shard and was found there (spec §4.3).
func dedupLeadingEdge(hits []engine.Hit, shardOffset, overlap int) []engine.Hit {
	kept := hits[:0]
	for _, h := range hits {
		if h.Pos2-shardOffset < overlap {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}
