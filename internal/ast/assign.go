package ast

// Operator is one of bitbake's variable assignment operators. Deep laziness
// (deferring expansion until first read, priority between := / = / ?=) is
// out of scope here: `:=` behaves the same as `=` and `??=` the same as
// `?=`, both performing an immediate Datastore.Expand at assignment time.
type Operator int

const (
	// OpSet is `=` and `:=`: set unconditionally.
	OpSet Operator = iota
	// OpDefault is `?=` and `??=`: set only if the variable is unset.
	OpDefault
	// OpAppend is `+=`: append with a separating space.
	OpAppend
	// OpPrepend is `=+`: prepend with a separating space.
	OpPrepend
	// OpAppendImmediate is `.=`: append with no separator.
	OpAppendImmediate
	// OpPrependImmediate is `=.`: prepend with no separator.
	OpPrependImmediate
)

// DataAssign is one `VAR <op> "value"` line, optionally flagged (VAR[flag])
// and optionally preceded by `export`.
type DataAssign struct {
	Position
	Var     string
	Flag    string // empty unless this assigns a variable flag
	Op      Operator
	Value   string
	Export  bool
}

func (n *DataAssign) Pos() Position { return n.Position }

func (n *DataAssign) Eval(ctx *EvalContext) error {
	value, err := ctx.DS.Expand(n.Value)
	if err != nil {
		return err
	}

	if n.Flag != "" {
		n.applyFlag(ctx, value)
	} else {
		n.applyVar(ctx, value)
	}

	if n.Export {
		ctx.DS.SetVarFlag(n.Var, "export", "1")
	}
	return nil
}

func (n *DataAssign) applyVar(ctx *EvalContext, value string) {
	current, exists := ctx.DS.GetVar(n.Var)
	switch n.Op {
	case OpSet:
		ctx.DS.SetVar(n.Var, value)
	case OpDefault:
		if !exists {
			ctx.DS.SetVar(n.Var, value)
		}
	case OpAppend:
		ctx.DS.SetVar(n.Var, joinSpace(current, value, exists))
	case OpPrepend:
		ctx.DS.SetVar(n.Var, joinSpace(value, current, true))
	case OpAppendImmediate:
		ctx.DS.SetVar(n.Var, current+value)
	case OpPrependImmediate:
		ctx.DS.SetVar(n.Var, value+current)
	}
}

func (n *DataAssign) applyFlag(ctx *EvalContext, value string) {
	current, exists := ctx.DS.GetVarFlag(n.Var, n.Flag)
	switch n.Op {
	case OpSet:
		ctx.DS.SetVarFlag(n.Var, n.Flag, value)
	case OpDefault:
		if !exists {
			ctx.DS.SetVarFlag(n.Var, n.Flag, value)
		}
	case OpAppend:
		ctx.DS.SetVarFlag(n.Var, n.Flag, joinSpace(current, value, exists))
	case OpPrepend:
		ctx.DS.SetVarFlag(n.Var, n.Flag, joinSpace(value, current, true))
	case OpAppendImmediate:
		ctx.DS.SetVarFlag(n.Var, n.Flag, current+value)
	case OpPrependImmediate:
		ctx.DS.SetVarFlag(n.Var, n.Flag, value+current)
	}
}

// joinSpace joins base and extra with a single space, unless base was empty
// (the variable was previously unset), mirroring bitbake's append/prepend
// behavior of not introducing a leading/trailing stray space.
func joinSpace(base, extra string, baseExists bool) string {
	if !baseExists || base == "" {
		return extra
	}
	if extra == "" {
		return base
	}
	return base + " " + extra
}

// Export is a bare `export VAR` directive with no assignment.
type Export struct {
	Position
	Var string
}

func (n *Export) Pos() Position { return n.Position }

func (n *Export) Eval(ctx *EvalContext) error {
	ctx.DS.SetVarFlag(n.Var, "export", "1")
	return nil
}

// Unset removes a variable entirely.
type Unset struct {
	Position
	Var string
}

func (n *Unset) Pos() Position { return n.Position }

func (n *Unset) Eval(ctx *EvalContext) error {
	ctx.DS.DelVar(n.Var)
	return nil
}

// UnsetFlag removes a single flag from a variable.
type UnsetFlag struct {
	Position
	Var  string
	Flag string
}

func (n *UnsetFlag) Pos() Position { return n.Position }

func (n *UnsetFlag) Eval(ctx *EvalContext) error {
	ctx.DS.DelVarFlag(n.Var, n.Flag)
	return nil
}
