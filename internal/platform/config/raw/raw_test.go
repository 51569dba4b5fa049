package raw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	c := New().Prefix("LOG_")
	require.Equal(t, "console", c.Get("FORMAT", "console"))
	t.Setenv("LOG_FORMAT", " json ")
	require.Equal(t, "json", c.Get("FORMAT", "console"))
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("LOG_")
	require.True(t, c.GetBool("CALLER", true))
	for in, want := range map[string]bool{"1": true, "YES": true, "true": true, "0": false, "off": false} {
		t.Setenv("LOG_CALLER", in)
		require.Equal(t, want, c.GetBool("CALLER", !want), in)
	}
}

func TestGetInt(t *testing.T) {
	c := New().Prefix("LOG_")
	require.Equal(t, 0, c.GetInt("SAMPLE_EVERY", 0))
	t.Setenv("LOG_SAMPLE_EVERY", "10")
	require.Equal(t, 10, c.GetInt("SAMPLE_EVERY", 0))
	t.Setenv("LOG_SAMPLE_EVERY", "-3")
	require.Equal(t, 1, c.GetInt("SAMPLE_EVERY", 1))
	t.Setenv("LOG_SAMPLE_EVERY", "ten")
	require.Equal(t, 1, c.GetInt("SAMPLE_EVERY", 1))
}
