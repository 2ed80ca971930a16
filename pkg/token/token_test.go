package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/pkg/token"
)

func TestGenerate_TokensDistintosYBienFormados(t *testing.T) {
	a, err := token.Generate()
	require.NoError(t, err)
	b, err := token.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, token.WellFormed(a))
	assert.True(t, token.WellFormed(b))
}

func TestHash_Determinista(t *testing.T) {
	tok, hash, err := token.GenerateWithHash()
	require.NoError(t, err)
	assert.Equal(t, hash, token.Hash(tok))
	assert.Len(t, hash, 64)
}

func TestWellFormed_RechazaMalformados(t *testing.T) {
	assert.False(t, token.WellFormed(""))
	assert.False(t, token.WellFormed("corto"))
	assert.False(t, token.WellFormed("!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!"))
}
