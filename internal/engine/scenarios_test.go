// Copyright 2017, Kerby Shedden and the Muscato contributors.

package engine

import (
	"os"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"

	"github.com/kshedden/epcr/internal/sts"
)

type scenario struct {
	Name       string
	STS        string `toml:"sts"`
	Seq        string
	W          int
	Mismatch   int
	ThreePrime int    `toml:"three_prime"`
	IUPAC      bool   `toml:"iupac"`
	MinHits    int    `toml:"min_hits"`
	MaxHits    int    `toml:"max_hits"` // -1 means no upper bound
	WantDirect string `toml:"want_direct"`
}

type scenarioTable struct {
	Test []scenario
}

// TestScenarioTable runs the named scenario table in testdata/scenarios.toml,
// mirroring the teacher's own tests.toml-driven test runner but executing
// each case in-process instead of shelling out to a built binary.
func TestScenarioTable(t *testing.T) {
	data, err := os.ReadFile("testdata/scenarios.toml")
	require.NoError(t, err)

	var table scenarioTable
	_, err = toml.Decode(string(data), &table)
	require.NoError(t, err)
	require.NotEmpty(t, table.Test)

	for _, sc := range table.Test {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			cat := loadTestCatalog(t, sc.STS, sc.W)
			hits := Scan(cat, []byte(sc.Seq), 0, Params{
				W:           sc.W,
				MaxMismatch: sc.Mismatch,
				ThreePrime:  sc.ThreePrime,
				IUPAC:       sc.IUPAC,
			}, nil)

			require.GreaterOrEqual(t, len(hits), sc.MinHits)
			if sc.MaxHits >= 0 {
				require.LessOrEqual(t, len(hits), sc.MaxHits)
			}
			if sc.WantDirect != "" && len(hits) > 0 {
				require.Equal(t, sts.Direct(sc.WantDirect[0]), hits[0].Record.Direct)
			}
		})
	}
}
