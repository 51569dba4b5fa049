package guardrails

import (
	"context"
	"testing"
	"time"
)

func TestWithIngest_ZeroInheritsParent(t *testing.T) {
	ctx, cancel := WithIngest(context.Background(), Timeouts{})
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("zero budget must not add a deadline")
	}
}

func TestForStore_NeverExtendsParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ctx, c2 := ForStore(parent, Timeouts{Store: time.Hour})
	defer c2()
	if rem := Remaining(ctx); rem <= 0 || rem > 50*time.Millisecond {
		t.Fatalf("remaining = %v", rem)
	}
}

func TestForAudit_SurvivesCanceledParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()
	ctx, c2 := ForAudit(parent, Timeouts{Audit: time.Second})
	defer c2()
	if ctx.Err() != nil {
		t.Fatalf("audit ctx canceled: %v", ctx.Err())
	}
	if Remaining(ctx) <= 0 {
		t.Fatal("audit ctx should carry its own deadline")
	}
}

func TestRemaining_NoDeadline(t *testing.T) {
	if Remaining(context.Background()) != 0 {
		t.Fatal("want zero without a deadline")
	}
}
