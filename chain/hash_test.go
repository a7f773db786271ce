package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBlockHash(t *testing.T) {
	h, err := ParseBlockHash("BLrUSnmhoWczorTYG8utWTLcD8yup6MX1MCehXG8f8QWew8t1N8")
	assert.NoError(t, err)
	assert.True(t, h.IsValid())

	_, err = ParseBlockHash("xyz")
	assert.Error(t, err)

	assert.False(t, ZeroBlockHash.IsValid())
}

func TestParseOpHash(t *testing.T) {
	h, err := ParseOpHash("ooPbtVVy7TZLoRirGsCgyy6Esyqm3Kj22QvEVpAmEXX3vHBGbF8")
	assert.NoError(t, err)
	assert.True(t, h.IsValid())

	_, err = ParseOpHash("BLrU")
	assert.Error(t, err)
}
