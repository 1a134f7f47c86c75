// Copyright 2017, Kerby Shedden and the Muscato contributors.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, DefaultWordSize, cfg.WordSize)
	require.Equal(t, DefaultMismatch, cfg.Mismatch)
	require.Equal(t, DefaultMargin, cfg.Margin)
	require.Equal(t, DefaultThreePrime, cfg.ThreePrime)
	require.Equal(t, DefaultOutfile, cfg.Outfile)
	require.True(t, cfg.Quiet)
	require.False(t, cfg.IUPAC)
}

func TestParsePositionalArgsOnly(t *testing.T) {
	cfg, err := Parse([]string{"markers.sts", "genome.fa"})
	require.NoError(t, err)
	require.Equal(t, "markers.sts", cfg.StsFile)
	require.Equal(t, "genome.fa", cfg.SeqFile)
	require.Equal(t, Default().WordSize, cfg.WordSize)
}

func TestParseAppliesOptions(t *testing.T) {
	cfg, err := Parse([]string{"markers.sts", "genome.fa", "W=8", "N=2", "M=30", "X=4", "T=6", "O=out.sz", "Q=0", "I=1"})
	require.NoError(t, err)
	require.Equal(t, 8, cfg.WordSize)
	require.Equal(t, 2, cfg.Mismatch)
	require.Equal(t, 30, cfg.Margin)
	require.Equal(t, 4, cfg.ThreePrime)
	require.Equal(t, 6, cfg.Threads)
	require.Equal(t, "out.sz", cfg.Outfile)
	require.False(t, cfg.Quiet)
	require.True(t, cfg.IUPAC)
}

func TestParseRejectsWrongPositionalCount(t *testing.T) {
	_, err := Parse([]string{"markers.sts"})
	require.Error(t, err)

	_, err = Parse([]string{"markers.sts", "genome.fa", "extra.fa"})
	require.Error(t, err)
}

func TestParseRejectsWordSizeOutOfRange(t *testing.T) {
	_, err := Parse([]string{"markers.sts", "genome.fa", "W=2"})
	require.Error(t, err)

	_, err = Parse([]string{"markers.sts", "genome.fa", "W=17"})
	require.Error(t, err)
}

func TestParseRejectsMalformedOptionValue(t *testing.T) {
	_, err := Parse([]string{"markers.sts", "genome.fa", "N=abc"})
	require.Error(t, err)
}

func TestParseRejectsThreadsOutOfRange(t *testing.T) {
	_, err := Parse([]string{"markers.sts", "genome.fa", "T=0"})
	require.Error(t, err)

	_, err = Parse([]string{"markers.sts", "genome.fa", "T=-1"})
	require.Error(t, err)

	cfg, err := Parse([]string{"markers.sts", "genome.fa", "T=1"})
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Threads)
}

func TestParseRejectsQuietOutOfRange(t *testing.T) {
	_, err := Parse([]string{"markers.sts", "genome.fa", "Q=2"})
	require.Error(t, err)

	_, err = Parse([]string{"markers.sts", "genome.fa", "Q=-1"})
	require.Error(t, err)

	cfg, err := Parse([]string{"markers.sts", "genome.fa", "Q=0"})
	require.NoError(t, err)
	require.False(t, cfg.Quiet)
}

func TestParseRejectsDefaultSizeOutOfRange(t *testing.T) {
	_, err := Parse([]string{"markers.sts", "genome.fa", "Z=0"})
	require.Error(t, err)

	_, err = Parse([]string{"markers.sts", "genome.fa", "Z=10001"})
	require.Error(t, err)

	cfg, err := Parse([]string{"markers.sts", "genome.fa", "Z=10000"})
	require.NoError(t, err)
	require.Equal(t, 10000, cfg.DefaultSize)
}

func TestParseRejectsEmptyOptionValue(t *testing.T) {
	_, err := Parse([]string{"markers.sts", "genome.fa", "N="})
	require.Error(t, err)
}

func TestParseTreatsUnrecognizedEqualsAsPositional(t *testing.T) {
	// "chr=1.fa" doesn't start with a recognized option key, so it's a
	// positional argument, not a malformed option.
	cfg, err := Parse([]string{"markers.sts", "chr=1.fa"})
	require.NoError(t, err)
	require.Equal(t, "chr=1.fa", cfg.SeqFile)
}

func TestNewRunIDIsUnique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	require.NotEqual(t, a, b)
	require.Len(t, a, 36)
}

func TestSetupLoggerWritesToStderrWhenNoDir(t *testing.T) {
	logger, err := SetupLogger("", "run1")
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestSetupLoggerCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	logger, err := SetupLogger(logDir, "run-xyz")
	require.NoError(t, err)
	logger.Print("hello")

	data, err := os.ReadFile(filepath.Join(logDir, "epcr_run-xyz.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}
