package ast

import (
	"errors"
	"testing"

	"github.com/standardbeagle/bbcore/internal/datastore"
)

func TestStatementGroupEvalRunsInOrder(t *testing.T) {
	ds := datastore.NewMemDataStore()
	ctx := &EvalContext{DS: ds}
	group := &StatementGroup{}
	group.Append(&DataAssign{Var: "A", Op: OpSet, Value: "1"})
	group.Append(&DataAssign{Var: "A", Op: OpAppend, Value: "2"})

	if err := group.Eval(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := ds.GetVar("A")
	if v != "1 2" {
		t.Fatalf("got %q", v)
	}
}

func TestStatementGroupEvalStopsOnError(t *testing.T) {
	ds := datastore.NewMemDataStore()
	ctx := &EvalContext{DS: ds}
	group := &StatementGroup{}
	group.Append(&Include{Path: "missing.inc", Required: true})
	group.Append(&DataAssign{Var: "SHOULD_NOT_RUN", Op: OpSet, Value: "1"})

	ctx.Include = func(ctx *EvalContext, path string, required bool) error {
		return errors.New("boom")
	}

	err := group.Eval(ctx)
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
	if _, ok := ds.GetVar("SHOULD_NOT_RUN"); ok {
		t.Fatalf("expected evaluation to stop after first error")
	}
}
