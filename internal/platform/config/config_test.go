package config

import (
	"testing"
	"time"

	kit "pimms/internal/platform/testkit"

	"github.com/stretchr/testify/require"
)

func TestPrefix_Nests(t *testing.T) {
	c := New().Prefix("CORE_API_").Prefix("WEBHOOKS_")
	require.Equal(t, "CORE_API_WEBHOOKS_MAX_BODY", c.key("MAX_BODY"))
}

func TestMustString(t *testing.T) {
	c := New().Prefix("SERVICE_PGSQL_")
	t.Setenv("SERVICE_PGSQL_DBURL", "  postgres://pimms@db/pimms ")
	require.Equal(t, "postgres://pimms@db/pimms", c.MustString("DBURL"))

	t.Setenv("SERVICE_PGSQL_DBURL", "   ")
	kit.MustPanic(t, func() { c.MustString("DBURL") })
}

func TestMayString(t *testing.T) {
	c := New().Prefix("T_")
	require.Equal(t, "def", c.MayString("APP_NAME", "def"))
	t.Setenv("T_APP_NAME", " pimms-api ")
	require.Equal(t, "pimms-api", c.MayString("APP_NAME", "def"))
}

func TestMayParsed_FallsBackOnBadValues(t *testing.T) {
	c := New().Prefix("T_")

	require.Equal(t, 64, c.MayInt("INFLIGHT", 64))
	t.Setenv("T_INFLIGHT", "8")
	require.Equal(t, 8, c.MayInt("INFLIGHT", 64))
	t.Setenv("T_INFLIGHT", "eight")
	require.Equal(t, 64, c.MayInt("INFLIGHT", 64))

	t.Setenv("T_SWAGGER", "false")
	require.False(t, c.MayBool("SWAGGER", true))
	t.Setenv("T_SWAGGER", "nope")
	require.True(t, c.MayBool("SWAGGER", true))

	t.Setenv("T_LEASE", "750ms")
	require.Equal(t, 750*time.Millisecond, c.MayDuration("LEASE", time.Second))
	t.Setenv("T_LEASE", "soon")
	require.Equal(t, time.Second, c.MayDuration("LEASE", time.Second))
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("T_")
	def := []string{"*"}
	require.Equal(t, def, c.MayCSV("ORIGINS", def))

	t.Setenv("T_ORIGINS", " https://a.example , ,https://b.example ")
	require.Equal(t, []string{"https://a.example", "https://b.example"}, c.MayCSV("ORIGINS", def))

	t.Setenv("T_ORIGINS", " , ")
	require.Equal(t, def, c.MayCSV("ORIGINS", def))
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("HOTSCORE_")
	require.Equal(t, "auto", c.MayEnum("QUEUE", "auto", "auto", "nats", "local"))

	t.Setenv("HOTSCORE_QUEUE", "NATS")
	require.Equal(t, "nats", c.MayEnum("QUEUE", "auto", "auto", "nats", "local"))

	t.Setenv("HOTSCORE_QUEUE", "kafka")
	kit.MustPanic(t, func() { c.MayEnum("QUEUE", "auto", "auto", "nats", "local") })
}
