// Package ast is the statement tree produced by the grammar packages and
// consumed by the dispatcher: one node type per directive kind the config
// and recipe grammars recognize (spec §4.G). Grounded on ConfHandler.py's
// and BBHandler.py's feeder() dispatch tables, which build a StatementGroup
// of closures; here each directive gets its own typed node instead, with
// evaluation delegated to the node itself.
//
// Nodes never import internal/dispatch, internal/inherit or
// internal/resolver directly — the cross-package behavior include/inherit/
// addtask trigger is injected as function fields on EvalContext, the same
// way ast.py calls back into bb.parse instead of the reverse.
package ast

import "github.com/standardbeagle/bbcore/internal/datastore"

// Position marks where a statement came from, used in error messages and by
// callers that want to report back to the user.
type Position struct {
	File string
	Line int
}

// Statement is any one directive recognized by the config or recipe
// grammar. Eval applies the statement's effect against ctx.
type Statement interface {
	Pos() Position
	Eval(ctx *EvalContext) error
}

// EvalContext carries everything a statement's Eval needs beyond the
// datastore itself: the hooks that let a handful of statement kinds trigger
// behavior that lives in other packages (include resolution, inheritance,
// task bookkeeping) without this package depending on them.
type EvalContext struct {
	DS datastore.Datastore

	// SearchPath is the current BBPATH-like list of directories consulted
	// by Include/Inherit/IncludeAll resolution.
	SearchPath []string

	// Include is invoked for `include`/`require`. required is true for
	// `require`, where a resolution failure must propagate.
	Include func(ctx *EvalContext, path string, required bool) error

	// IncludeAll is invoked for `include_all`, expanding pattern as a glob
	// across every BBPATH directory and including every match.
	IncludeAll func(ctx *EvalContext, pattern string) error

	// Inherit is invoked for `inherit`. deferred is true for
	// `inherit_defer`.
	Inherit func(ctx *EvalContext, classExpr string, deferred bool) error

	// AddTask/DelTask/AddHandler/ExportFuncs/AddPyLib/AddFragments record
	// recipe-level bookkeeping the dispatcher/inherit engine consume after
	// the whole statement group has been evaluated.
	AddTask      func(name string, before, after []string) error
	DelTask      func(name string)
	AddHandler   func(names []string)
	ExportFuncs  func(classname string, funcs []string)
	AddPyLib     func(path, namespace string)
	AddFragments func(pattern, varname string)

	// ShellFunc/PythonFunc record the body of an anonymous or named
	// shell/python function as it is parsed.
	ShellFunc  func(name, body string)
	PythonFunc func(name, body string)
}

// StatementGroup is an ordered sequence of statements, the unit
// internal/statementcache stores per file.
type StatementGroup struct {
	Statements []Statement
}

// Eval runs every statement in order, stopping at the first error.
func (g *StatementGroup) Eval(ctx *EvalContext) error {
	for _, s := range g.Statements {
		if err := s.Eval(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Append adds a statement to the group.
func (g *StatementGroup) Append(s Statement) {
	g.Statements = append(g.Statements, s)
}
