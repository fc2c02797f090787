package ast

// AddTask handles `addtask <name> [before <t1> <t2> ...] [after <t1> ...]`.
type AddTask struct {
	Position
	Name   string
	Before []string
	After  []string
}

func (n *AddTask) Pos() Position { return n.Position }

func (n *AddTask) Eval(ctx *EvalContext) error {
	if ctx.AddTask == nil {
		return nil
	}
	return ctx.AddTask(n.Name, n.Before, n.After)
}

// DelTask handles `deltask <name>`.
type DelTask struct {
	Position
	Name string
}

func (n *DelTask) Pos() Position { return n.Position }

func (n *DelTask) Eval(ctx *EvalContext) error {
	if ctx.DelTask != nil {
		ctx.DelTask(n.Name)
	}
	return nil
}

// AddHandler handles `addhandler <name> [<name> ...]`, registering one or
// more event handler function names.
type AddHandler struct {
	Position
	Names []string
}

func (n *AddHandler) Pos() Position { return n.Position }

func (n *AddHandler) Eval(ctx *EvalContext) error {
	if ctx.AddHandler != nil {
		ctx.AddHandler(n.Names)
	}
	return nil
}

// ExportFuncs handles `EXPORT_FUNCTIONS <func> [<func> ...]` inside a
// .bbclass, recording that classname's implementation of each named
// function should be exposed to recipes that inherit it.
type ExportFuncs struct {
	Position
	Classname string
	Funcs     []string
}

func (n *ExportFuncs) Pos() Position { return n.Position }

func (n *ExportFuncs) Eval(ctx *EvalContext) error {
	if ctx.ExportFuncs != nil {
		ctx.ExportFuncs(n.Classname, n.Funcs)
	}
	return nil
}
