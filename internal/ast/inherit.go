package ast

// Inherit handles `inherit <classexpr>`. classExpr may expand to more than
// one whitespace-separated class name; splitting it is the inherit engine's
// job (internal/inherit), not this node's, since whether a given class
// defers depends on BB_DEFER_BBCLASSES, something only the engine knows.
type Inherit struct {
	Position
	ClassExpr string
}

func (n *Inherit) Pos() Position { return n.Position }

func (n *Inherit) Eval(ctx *EvalContext) error {
	expr, err := ctx.DS.Expand(n.ClassExpr)
	if err != nil {
		return err
	}
	return ctx.Inherit(ctx, expr, false)
}

// InheritDeferred handles `inherit_defer <classexpr>`: unlike plain
// inherit, the raw (post-expansion) expression is queued on the inherit
// engine's deferred list without a per-name BB_DEFER_BBCLASSES check.
type InheritDeferred struct {
	Position
	ClassExpr string
}

func (n *InheritDeferred) Pos() Position { return n.Position }

func (n *InheritDeferred) Eval(ctx *EvalContext) error {
	expr, err := ctx.DS.Expand(n.ClassExpr)
	if err != nil {
		return err
	}
	return ctx.Inherit(ctx, expr, true)
}
