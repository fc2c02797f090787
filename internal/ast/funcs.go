package ast

// ShellMethod is a brace-delimited function body (`name () { ... }`, the
// anonymous recipe-level body, or a `python [name] () { ... }` block),
// recorded verbatim: running shell is out of scope here, only collecting
// and exposing the body is.
type ShellMethod struct {
	Position
	Name string
	Body string
}

func (n *ShellMethod) Pos() Position { return n.Position }

func (n *ShellMethod) Eval(ctx *EvalContext) error {
	if ctx.ShellFunc != nil {
		ctx.ShellFunc(n.Name, n.Body)
	}
	return nil
}

// LanguageMethod is a `def name(...): ...` python function body. Brace
// blocks such as `python () { ... }` are recorded as ShellMethod instead.
type LanguageMethod struct {
	Position
	Name string
	Body string
}

func (n *LanguageMethod) Pos() Position { return n.Position }

func (n *LanguageMethod) Eval(ctx *EvalContext) error {
	if ctx.PythonFunc != nil {
		ctx.PythonFunc(n.Name, n.Body)
	}
	return nil
}
