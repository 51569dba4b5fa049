package strings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIfEmpty(t *testing.T) {
	def := []string{"GET", "POST"}
	require.Equal(t, def, IfEmpty(nil, def))
	require.Equal(t, []string{"GET"}, IfEmpty([]string{"GET"}, def))
}

func TestMustString(t *testing.T) {
	require.Equal(t, "meta", MustString("meta", "module name"))
	require.PanicsWithValue(t, "module name is required", func() { MustString("  ", "module name") })
}

func TestMustPrefix(t *testing.T) {
	for in, want := range map[string]string{
		"webhooks":      "/webhooks",
		"/workspaces/":  "/workspaces",
		" //meta// ":    "/meta",
		"/hot-scores/x": "/hot-scores/x",
	} {
		require.Equal(t, want, MustPrefix(in), in)
	}
	require.Panics(t, func() { MustPrefix(" / ") })
}
