package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnovationRegistry(t *testing.T) {
	r := NewInnovationRegistry()

	assert.Equal(t, 0, r.Innovation(0, 3))
	assert.Equal(t, 1, r.Innovation(3, 0), "direction matters")
	assert.Equal(t, 0, r.Innovation(0, 3))
	assert.Equal(t, 2, r.Innovation(BiasNodeID, 3))
	assert.Equal(t, 3, r.Len())

	desc, ok := r.Describe(2)
	require.True(t, ok)
	assert.Equal(t, "-1 3", desc)

	_, ok = r.Describe(-1)
	assert.False(t, ok)
}
