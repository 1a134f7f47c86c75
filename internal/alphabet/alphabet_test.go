// Copyright 2017, Kerby Shedden and the Muscato contributors.

package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	assert.Equal(t, uint8(0), Code('A'))
	assert.Equal(t, uint8(1), Code('C'))
	assert.Equal(t, uint8(2), Code('G'))
	assert.Equal(t, uint8(3), Code('T'))
	assert.Equal(t, Ambig, Code('N'))
	assert.Equal(t, Ambig, Code('R'))
}

func TestComplement(t *testing.T) {
	assert.Equal(t, byte('T'), Complement('A'))
	assert.Equal(t, byte('A'), Complement('T'))
	assert.Equal(t, byte('G'), Complement('C'))
	assert.Equal(t, byte('C'), Complement('G'))
	assert.Equal(t, byte('N'), Complement('N'))
}

func TestReverseComplement(t *testing.T) {
	require.Equal(t, "TACG", string(ReverseComplement([]byte("CGTA"))))
	require.Equal(t, "", string(ReverseComplement(nil)))
}

func TestIsAmbiguous(t *testing.T) {
	for _, b := range []byte("ACGT") {
		assert.False(t, IsAmbiguous(b), "base %c should not be ambiguous", b)
	}
	for _, b := range []byte("NRYMKSWBDHV") {
		assert.True(t, IsAmbiguous(b), "base %c should be ambiguous", b)
	}
}

func TestIUPACMatchExact(t *testing.T) {
	assert.True(t, IUPAC.Match('A', 'A'))
	assert.False(t, IUPAC.Match('A', 'C'))
}

func TestIUPACMatchAmbiguous(t *testing.T) {
	// R expands to A or G.
	assert.True(t, IUPAC.Match('R', 'A'))
	assert.True(t, IUPAC.Match('R', 'G'))
	assert.False(t, IUPAC.Match('R', 'C'))
	assert.False(t, IUPAC.Match('R', 'T'))

	// N matches anything.
	for _, b := range []byte("ACGT") {
		assert.True(t, IUPAC.Match('N', b))
	}
}
