package event

import (
	"context"
	"errors"
	"testing"
)

func TestCleanRunsHooksOnceInReverseOrder(t *testing.T) {
	c := NewCleaner()
	var order []string
	loggerClosed := false

	c.loggerShutdown = CallableFunc(func(ctx context.Context) error {
		loggerClosed = true
		return nil
	})
	c.Add(CallableFunc(func(ctx context.Context) error {
		order = append(order, "database")
		return nil
	}))
	c.Add(CallableFunc(func(ctx context.Context) error {
		order = append(order, "listener")
		return errors.New("already closed")
	}))

	errs := c.Clean()
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	if len(order) != 2 || order[0] != "listener" || order[1] != "database" {
		t.Errorf("expected listener then database, got %v", order)
	}
	if !loggerClosed {
		t.Error("expected logger shutdown to run last")
	}

	if errs := c.Clean(); len(errs) != 0 || len(order) != 2 {
		t.Errorf("second Clean must be a no-op, got errs=%v order=%v", errs, order)
	}

	c.Add(CallableFunc(func(ctx context.Context) error { return nil }))
	if len(c.cleaners) != 2 {
		t.Errorf("hooks added during shutdown must be ignored")
	}
}
