// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package config parses the command-line KEY=VALUE options (spec §6)
// into a validated Config, and sets up the run logger and scratch
// directory the way the rest of the toolchain does.
package config

import (
	"log"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Defaults mirror the original command-line defaults (spec §6).
const (
	DefaultWordSize      = 11
	DefaultMismatch      = 0
	DefaultMargin        = 50
	DefaultThreePrime    = 1
	DefaultPCRSize       = 240
	DefaultMaxLineLength = 1022
	DefaultOutfile       = "stdout"
)

// Config holds every option exposed on the command line plus the two
// positional file arguments.
type Config struct {
	StsFile string
	SeqFile string

	WordSize      int
	Mismatch      int
	Margin        int
	ThreePrime    int
	Threads       int
	Outfile       string
	Quiet         bool
	MaxLineLength int
	DefaultSize   int
	IUPAC         bool
	Profile       bool
}

// Default returns a Config with every option at its documented default,
// with no file arguments set.
func Default() Config {
	return Config{
		WordSize:      DefaultWordSize,
		Mismatch:      DefaultMismatch,
		Margin:        DefaultMargin,
		ThreePrime:    DefaultThreePrime,
		Threads:       1,
		Outfile:       DefaultOutfile,
		Quiet:         true,
		MaxLineLength: DefaultMaxLineLength,
		DefaultSize:   DefaultPCRSize,
		IUPAC:         false,
	}
}

// Parse interprets args as "stsfile seqfile [KEY=VALUE ...]", following
// the original tool's argument grammar: two required positional
// arguments, then any number of KEY=VALUE options.
func Parse(args []string) (Config, error) {
	cfg := Default()

	var positional []string
	for _, a := range args {
		if idx := strings.IndexByte(a, '='); idx > 0 && isOptionKey(a[:idx]) {
			key := a[:idx]
			val := a[idx+1:]
			if val == "" {
				return Config{}, errors.Errorf("missing value for %s", a)
			}
			if err := cfg.apply(key, val); err != nil {
				return Config{}, err
			}
			continue
		}
		positional = append(positional, a)
	}

	if len(positional) != 2 {
		return Config{}, errors.Errorf("usage: epcr stsfile seqfile [options]")
	}
	cfg.StsFile = positional[0]
	cfg.SeqFile = positional[1]

	if cfg.WordSize < 3 || cfg.WordSize > 16 {
		return Config{}, errors.Errorf("W=%d out of range [3,16]", cfg.WordSize)
	}

	return cfg, nil
}

func isOptionKey(key string) bool {
	switch key {
	case "M", "N", "W", "X", "T", "O", "Q", "S", "Z", "I":
		return true
	}
	return false
}

func (cfg *Config) apply(key, val string) error {
	switch key {
	case "M":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "M=%s", val)
		}
		cfg.Margin = n
	case "N":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "N=%s", val)
		}
		cfg.Mismatch = n
	case "W":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "W=%s", val)
		}
		cfg.WordSize = n
	case "X":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "X=%s", val)
		}
		cfg.ThreePrime = n
	case "T":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "T=%s", val)
		}
		if n < 1 {
			return errors.Errorf("T=%d out of range [1,)", n)
		}
		cfg.Threads = n
	case "O":
		cfg.Outfile = val
	case "Q":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "Q=%s", val)
		}
		if n < 0 || n > 1 {
			return errors.Errorf("Q=%d out of range [0,1]", n)
		}
		cfg.Quiet = n != 0
	case "S":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "S=%s", val)
		}
		cfg.MaxLineLength = n
	case "Z":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "Z=%s", val)
		}
		if n < 1 || n > 10000 {
			return errors.Errorf("Z=%d out of range [1,10000]", n)
		}
		cfg.DefaultSize = n
	case "I":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "I=%s", val)
		}
		cfg.IUPAC = n != 0
	}
	return nil
}

// NewRunID generates a UUID-tagged identifier for a scratch directory or
// log file name, so concurrent runs sharing a working directory never
// collide.
func NewRunID() string {
	return uuid.New().String()
}

// SetupLogger creates a logger writing to logDir/epcr_<runID>.log, or to
// stderr if logDir is empty. If the directory or the log file cannot be
// created, it returns an error. Mirrors muscato's per-run log file
// convention.
func SetupLogger(logDir, runID string) (*log.Logger, error) {
	if logDir == "" {
		return log.New(os.Stderr, "", log.Ltime), nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating log directory %s", logDir)
	}
	name := path.Join(logDir, "epcr_"+runID+".log")
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, "creating log file %s", name)
	}
	return log.New(f, "", log.Ltime), nil
}
