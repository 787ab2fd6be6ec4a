package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, "100!%", escapeLike("100%"))
	assert.Equal(t, "wc-2025-0000!_", escapeLike("wc-2025-0000_"))
	assert.Equal(t, "a!!b", escapeLike("a!b"))
	assert.Equal(t, "!!!%!_", escapeLike("!%_"))
}
