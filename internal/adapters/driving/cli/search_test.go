package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search <query>", searchCmd.Use)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	err := searchCmd.Args(searchCmd, nil)
	assert.Error(t, err)

	err = searchCmd.Args(searchCmd, []string{"invoices"})
	assert.NoError(t, err)
}

func TestSearchCmd_LimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short text", snippet("short text", 200))
	assert.Equal(t, "line one line two", snippet("line one\nline two", 200))

	long := strings.Repeat("a", 250)
	got := snippet(long, 200)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}
