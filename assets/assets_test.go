package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	entries, err := ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".sql"))

	page, err := ReadFile("index.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), "/java?hostname=")
}
