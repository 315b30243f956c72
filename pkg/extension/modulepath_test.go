package extension

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In a test binary the lookup resolves to the test executable itself.
func TestGetModulePath(t *testing.T) {
	p := GetModulePath()
	require.NotEmpty(t, p)

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
