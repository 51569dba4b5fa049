package ch

import (
	"os"
	"runtime"
	"strings"

	"pimms/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags queries in system.query_log with the binary, e.g. role pimms-scorer
func BuildClientInfo(role string) clickhouse.ClientInfo {
	role = strings.TrimSpace(role)
	bi := version.Info(role)
	host, _ := os.Hostname()

	type product = struct{ Name, Version string }
	return clickhouse.ClientInfo{Products: []product{
		{Name: "pimms", Version: bi.Version},
		{Name: "role", Version: role},
		{Name: "commit", Version: bi.Commit},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: host},
	}}
}
