package ast

// Include handles `include` and `require`. Required mirrors `require`'s
// stricter behavior: a resolution failure must propagate as an error
// instead of being silently skipped.
type Include struct {
	Position
	Path     string
	Required bool
}

func (n *Include) Pos() Position { return n.Position }

func (n *Include) Eval(ctx *EvalContext) error {
	path, err := ctx.DS.Expand(n.Path)
	if err != nil {
		return err
	}
	return ctx.Include(ctx, path, n.Required)
}

// IncludeAll handles `include_all`, which expands a glob across every
// BBPATH directory and includes every match rather than stopping at the
// first.
type IncludeAll struct {
	Position
	Pattern string
}

func (n *IncludeAll) Pos() Position { return n.Position }

func (n *IncludeAll) Eval(ctx *EvalContext) error {
	pattern, err := ctx.DS.Expand(n.Pattern)
	if err != nil {
		return err
	}
	return ctx.IncludeAll(ctx, pattern)
}

// AddPyLib registers a directory as an additional Python module search path
// under the given namespace (`addpylib <path> <namespace>`).
type AddPyLib struct {
	Position
	Path      string
	Namespace string
}

func (n *AddPyLib) Pos() Position { return n.Position }

func (n *AddPyLib) Eval(ctx *EvalContext) error {
	path, err := ctx.DS.Expand(n.Path)
	if err != nil {
		return err
	}
	if ctx.AddPyLib != nil {
		ctx.AddPyLib(path, n.Namespace)
	}
	return nil
}

// AddFragments handles `addfragments <pattern> <varname> <...>`: every file
// matching pattern contributes a fragment of varname.
type AddFragments struct {
	Position
	Pattern string
	VarName string
}

func (n *AddFragments) Pos() Position { return n.Position }

func (n *AddFragments) Eval(ctx *EvalContext) error {
	pattern, err := ctx.DS.Expand(n.Pattern)
	if err != nil {
		return err
	}
	if ctx.AddFragments != nil {
		ctx.AddFragments(pattern, n.VarName)
	}
	return nil
}
