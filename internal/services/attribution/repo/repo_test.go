package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/store"
	kit "pimms/internal/platform/testkit"
)

type fakeRows struct {
	data [][]any
	i    int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = row[i].(string)
		case *time.Time:
			*d = row[i].(time.Time)
		}
	}
	return nil
}
func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return nil }

type fakeCH struct {
	rows    *fakeRows
	err     error
	lastSQL string
	args    []any
}

func (f *fakeCH) Insert(context.Context, string, any) error { return nil }
func (f *fakeCH) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.lastSQL, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}
func (f *fakeCH) Close() error { return nil }

func clickRow(tok string, at time.Time) []any {
	return []any{tok, "lnk_1", "ws_a", "anon_1", "https://x.test", "FR", "desktop", "", at}
}

func TestClickByToken_Found(t *testing.T) {
	at := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	ch := &fakeCH{rows: &fakeRows{data: [][]any{clickRow("tok", at)}}}
	ck, err := NewClicks(ch).ClickByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ClickByToken: %v", err)
	}
	if ck.Token != "tok" || ck.LinkID != "lnk_1" || ck.WorkspaceID != "ws_a" || !ck.At.Equal(at) {
		t.Fatalf("unexpected click %+v", ck)
	}
	if !strings.Contains(ch.lastSQL, "click_id = ?") || ch.args[0] != "tok" {
		t.Fatalf("unexpected query %q %v", ch.lastSQL, ch.args)
	}
}

func TestClickByToken_NotFound(t *testing.T) {
	ch := &fakeCH{rows: &fakeRows{}}
	_, err := NewClicks(ch).ClickByToken(context.Background(), "nope")
	if !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestClickByToken_StoreDownIsUnavailable(t *testing.T) {
	ch := &fakeCH{err: errors.New("dial tcp: refused")}
	_, err := NewClicks(ch).ClickByToken(context.Background(), "tok")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want Unavailable, got %v", err)
	}
}

func TestClicksByAnonymous(t *testing.T) {
	now := time.Now().UTC()
	ch := &fakeCH{rows: &fakeRows{data: [][]any{clickRow("a", now), clickRow("b", now.Add(-time.Hour))}}}
	out, err := NewClicks(ch).ClicksByAnonymous(context.Background(), "ws_a", "anon_1", now.Add(-24*time.Hour), 0)
	if err != nil || len(out) != 2 {
		t.Fatalf("ClicksByAnonymous = %d, %v", len(out), err)
	}
	if ch.args[3] != 500 {
		t.Fatalf("default limit not applied: %v", ch.args)
	}

	none, err := NewClicks(ch).ClicksByAnonymous(context.Background(), "ws_a", "", now, 10)
	if err != nil || none != nil {
		t.Fatalf("blank anonymous id should short circuit")
	}
}

func TestNewClicks_NilPanics(t *testing.T) {
	kit.MustPanic(t, func() { NewClicks(nil) })
}
