package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfo_DefaultsService(t *testing.T) {
	bi := Info("")
	require.Equal(t, "pimms-api", bi.Service)
	require.Equal(t, "dev", bi.Version)
	require.NotEmpty(t, bi.Commit)
}

func TestInfo_LinkedCommitWins(t *testing.T) {
	orig := commit
	t.Cleanup(func() { commit = orig })
	commit = "abc1234"

	require.Equal(t, BuildInfo{Service: "pimmsctl", Version: "dev", Commit: "abc1234", Date: "unknown"}, Info("pimmsctl"))
}
