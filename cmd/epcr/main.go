// Copyright 2017, Kerby Shedden and the Muscato contributors.

// epcr performs electronic PCR: given a catalog of STS primer pairs and
// a collection of target sequences, it reports every place in the
// target sequences where both primers of a pair bind within the
// expected amplicon size, subject to a mismatch budget and 3' anchoring.
//
// USAGE: epcr stsfile seqfile [options]
//
// OPTIONS (defaults are the constants in internal/config):
//
//	M=##     Margin
//	N=##     Number of mismatches allowed
//	X=##     Number of 3' bases which must match
//	W=##     Word size
//	T=##     Number of threads
//	O=file   Output file name (".sz" suffix Snappy-compresses it)
//	Q=##     Quiet flag (0=verbose, 1=quiet)
//	S=##     Max. line length for the STS file
//	Z=##     Default PCR size
//	I=#      Honor IUPAC ambiguity symbols in STS's (0 or 1)
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"

	"github.com/kshedden/epcr/internal/config"
	"github.com/kshedden/epcr/internal/engine"
	"github.com/kshedden/epcr/internal/fasta"
	"github.com/kshedden/epcr/internal/report"
	"github.com/kshedden/epcr/internal/shard"
	"github.com/kshedden/epcr/internal/sts"
)

// nopCloser wraps an io.Writer that must not be closed (stdout) so it
// satisfies io.WriteCloser alongside a real *os.File output.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runID := config.NewRunID()
	logger, err := config.SetupLogger("", runID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if os.Getenv("EPCR_PROFILE") == "1" {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if err := run(cfg, logger); err != nil {
		logger.Print(err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	logger.Printf("loading STS catalog from %s", cfg.StsFile)
	cat, stats, err := sts.Load(cfg.StsFile, sts.Options{
		WordSize:       cfg.WordSize,
		MaxLineLength:  cfg.MaxLineLength,
		DefaultPCRSize: cfg.DefaultSize,
		DefaultMargin:  cfg.Margin,
	})
	if err != nil {
		return err
	}
	defer cat.Close()

	if !cfg.Quiet {
		logger.Printf("catalog: %d lines, %d records, %d short primers, %d unhashable, %d coerced sizes",
			stats.Lines, len(cat.Records), stats.ShortPrimer, stats.UnhashablePrimer, stats.CoercedSize)
	}

	seqFile, err := os.Open(cfg.SeqFile)
	if err != nil {
		return err
	}
	defer seqFile.Close()

	records, err := fasta.ReadAll(seqFile)
	if err != nil {
		return err
	}

	var out io.WriteCloser
	if cfg.Outfile == "" || cfg.Outfile == "stdout" {
		out = nopCloser{os.Stdout}
	} else {
		f, err := os.Create(cfg.Outfile)
		if err != nil {
			return err
		}
		out = f
	}
	defer out.Close()

	compressed := strings.HasSuffix(cfg.Outfile, ".sz")
	w := report.New(out, cat, cfg.MaxLineLength, compressed)
	defer w.Close()

	params := engine.Params{
		W:            cfg.WordSize,
		MaxMismatch:  cfg.Mismatch,
		ThreePrime:   cfg.ThreePrime,
		IUPAC:        cfg.IUPAC,
		UsePreFilter: true,
	}

	overlap := cat.MaxPCRSize + cfg.Margin - 1
	if overlap < 0 {
		overlap = 0
	}

	for _, rec := range records {
		if !cfg.Quiet {
			logger.Printf("scanning %s (%d bases)", rec.Label, len(rec.Seq))
		}

		shards, err := shard.Plan(rec.Seq, cfg.Threads, overlap)
		if err != nil {
			return err
		}

		hits, err := shard.Run(cat, shards, params, overlap, cfg.Threads)
		if err != nil {
			return err
		}

		for _, h := range hits {
			if err := w.Hit(rec.Label, h); err != nil {
				return err
			}
		}
	}

	if !cfg.Quiet {
		logger.Printf("%d hits reported", w.Count())
	}

	return nil
}
