// Package testkit holds small helpers shared by package tests
package testkit

import (
	"strings"
	"testing"
)

// MustPanic fails the test unless fn panics, the recovered value is returned
func MustPanic(t testing.TB, fn func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
	return nil
}

// MustContain fails the test unless out contains want, printing out in full
func MustContain(t testing.TB, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("missing %q in output:\n%s", want, out)
	}
}
