// Package bbgrammar implements the statement recognizer for .bb, .bbclass
// and .inc files (spec §4.F): the recipe/class superset grammar layered on
// top of everything confgrammar understands, plus shell/python function
// bodies, EXPORT_FUNCTIONS, addtask/deltask, addhandler and inherit/
// inherit_defer. Grounded on BBHandler.py's feeder(), which is itself a
// stateful line-by-line state machine (shell function body collection,
// python def body collection, backslash-continuation residue) falling
// through to ConfHandler.py's feeder for anything it doesn't recognize
// itself.
package bbgrammar

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/standardbeagle/bbcore/internal/ast"
	"github.com/standardbeagle/bbcore/internal/bberrors"
	"github.com/standardbeagle/bbcore/internal/grammar/confgrammar"
)

var (
	defRegexp        = regexp.MustCompile(`^def\s+(\w+).*:`)
	exportFuncRegexp = regexp.MustCompile(`^EXPORT_FUNCTIONS\s+(.+)$`)
	addTaskRegexp    = regexp.MustCompile(`^addtask\s+([^#\n]+)`)
	delTaskRegexp    = regexp.MustCompile(`^deltask\s+([^#\n]+)`)
	addHandlerRegexp = regexp.MustCompile(`^addhandler\s+(.+)$`)
	inheritRegexp    = regexp.MustCompile(`^inherit\s+(.+)$`)
	inheritDefRegexp = regexp.MustCompile(`^inherit_defer\s+(.+)$`)
	funcTailRegexp   = regexp.MustCompile(`^([\w.\-+{}$:]*)\s*\(\s*\)\s*\{$`)
)

// reservedTaskKeywords mirrors bb.data_smart's deprecated override
// operators: a task name containing "<keyword>_" or "_<keyword>" is almost
// always a typo for the override syntax rather than an intentional task name.
var reservedTaskKeywords = []string{"append", "prepend", "remove"}

type funcStart struct {
	name       string
	file       string
	lineno     int
	isPython   bool
	isFakeroot bool
}

// matchFuncStart recognizes a `[python] [fakeroot] <name>? () {` header,
// written by hand rather than as a single regexp since Go's RE2 engine
// cannot express the reference grammar's lookahead-qualified keyword
// prefixes.
func matchFuncStart(s string) (name string, isPython, isFakeroot bool, ok bool) {
	rest := s
	for {
		switch {
		case rest == "python" || strings.HasPrefix(rest, "python ") || strings.HasPrefix(rest, "python\t") || strings.HasPrefix(rest, "python("):
			isPython = true
			rest = strings.TrimPrefix(rest, "python")
			rest = strings.TrimLeft(rest, " \t")
		case strings.HasPrefix(rest, "fakeroot ") || strings.HasPrefix(rest, "fakeroot\t"):
			isFakeroot = true
			rest = strings.TrimPrefix(rest, "fakeroot")
			rest = strings.TrimLeft(rest, " \t")
		default:
			m := funcTailRegexp.FindStringSubmatch(rest)
			if m == nil {
				return "", false, false, false
			}
			name = m[1]
			if name == "" {
				name = "__anonymous"
			}
			return name, isPython, isFakeroot, true
		}
	}
}

// parser holds the state machine BBHandler.py keeps in module globals:
// which function or python def body is being collected, and any
// backslash-continuation residue.
type parser struct {
	file   string
	group  *ast.StatementGroup
	infunc *funcStart
	body   []string

	inPython   bool
	pythonLine string

	residue []string
}

func newParser(file string) *parser {
	return &parser{file: file, group: &ast.StatementGroup{}}
}

// feed processes one raw physical line (no pre-joining: this grammar joins
// its own backslash continuations via residue, mirroring the reference
// feeder exactly).
func (p *parser) feed(lineno int, s string, eof bool) error {
	if p.infunc != nil {
		if eof {
			return bberrors.NewParseError(p.file, p.infunc.lineno,
				"shell function "+p.infunc.name+" is never closed")
		}
		if s == "}" {
			p.body = append(p.body, "")
			p.group.Append(&ast.ShellMethod{
				Position: ast.Position{File: p.file, Line: p.infunc.lineno},
				Name:     p.infunc.name,
				Body:     strings.Join(p.body, "\n"),
			})
			p.infunc = nil
			p.body = nil
		} else {
			p.body = append(p.body, s)
		}
		return nil
	}

	if p.inPython {
		if !eof && (s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, " ") || strings.HasPrefix(s, "\t")) {
			p.body = append(p.body, s)
			return nil
		}
		p.group.Append(&ast.LanguageMethod{
			Position: ast.Position{File: p.file, Line: lineno},
			Name:     p.pythonLine,
			Body:     strings.Join(p.body, "\n"),
		})
		p.body = nil
		p.inPython = false
		if eof {
			return nil
		}
	}

	if strings.HasPrefix(s, "#") {
		if len(p.residue) != 0 && !strings.HasPrefix(p.residue[0], "#") {
			return bberrors.NewFatalError(p.file, lineno, "comment in the middle of a multiline expression")
		}
	}
	if len(p.residue) != 0 && strings.HasPrefix(p.residue[0], "#") && (s == "" || !strings.HasPrefix(s, "#")) {
		return bberrors.NewFatalError(p.file, lineno, "confusing multiline partially commented expression")
	}

	if strings.HasSuffix(s, "\\") {
		p.residue = append(p.residue, s[:len(s)-1])
		return nil
	}

	joined := strings.Join(p.residue, "") + s
	p.residue = nil

	if joined == "" || strings.HasPrefix(joined, "#") {
		return nil
	}

	return p.dispatch(lineno, joined)
}

func (p *parser) dispatch(lineno int, s string) error {
	pos := ast.Position{File: p.file, Line: lineno}

	if name, isPy, isFr, ok := matchFuncStart(s); ok {
		p.infunc = &funcStart{name: name, file: p.file, lineno: lineno, isPython: isPy, isFakeroot: isFr}
		p.body = nil
		return nil
	}

	if m := defRegexp.FindStringSubmatch(s); m != nil {
		p.inPython = true
		p.pythonLine = m[1]
		p.body = []string{s}
		return nil
	}

	if m := exportFuncRegexp.FindStringSubmatch(s); m != nil {
		p.group.Append(&ast.ExportFuncs{Position: pos, Funcs: strings.Fields(m[1])})
		return nil
	}

	if m := addTaskRegexp.FindStringSubmatch(s); m != nil {
		return p.handleAddTask(pos, s, m[1])
	}

	if m := delTaskRegexp.FindStringSubmatch(s); m != nil {
		p.group.Append(&ast.DelTask{Position: pos, Name: strings.TrimSpace(m[1])})
		return nil
	}

	if m := addHandlerRegexp.FindStringSubmatch(s); m != nil {
		p.group.Append(&ast.AddHandler{Position: pos, Names: strings.Fields(m[1])})
		return nil
	}

	if m := inheritRegexp.FindStringSubmatch(s); m != nil {
		p.group.Append(&ast.Inherit{Position: pos, ClassExpr: strings.TrimSpace(m[1])})
		return nil
	}

	if m := inheritDefRegexp.FindStringSubmatch(s); m != nil {
		p.group.Append(&ast.InheritDeferred{Position: pos, ClassExpr: strings.TrimSpace(m[1])})
		return nil
	}

	stmt, err := confgrammar.Feed(p.file, lineno, s)
	if err != nil {
		return err
	}
	p.group.Append(stmt)
	return nil
}

// handleAddTask splits addtask's argument on " before "/" after " the same
// way the reference feeder does, deferring which tasks are actually named
// to the caller rather than requiring a fixed clause order.
func (p *parser) handleAddTask(pos ast.Position, rawLine, arg string) error {
	for _, word := range strings.Fields(rawLine) {
		for _, kw := range reservedTaskKeywords {
			if strings.Contains(word, kw+"_") || strings.Contains(word, "_"+kw) {
				return bberrors.NewParseError(pos.File, pos.Line,
					"task name '"+word+"' contains a reserved keyword and is not supported")
			}
		}
	}

	tasks := splitClause(arg, " before ")
	tasks = splitClause(tasks, " after ")

	var after, before []string
	for _, part := range strings.Split(arg, " before ") {
		sub := strings.SplitN(part, " after ", 2)
		if len(sub) > 1 {
			after = append(after, strings.Fields(sub[1])...)
		}
	}
	for _, part := range strings.Split(arg, " after ") {
		sub := strings.SplitN(part, " before ", 2)
		if len(sub) > 1 {
			before = append(before, strings.Fields(sub[1])...)
		}
	}

	for _, name := range strings.Fields(tasks) {
		p.group.Append(&ast.AddTask{Position: pos, Name: name, Before: before, After: after})
	}
	return nil
}

func splitClause(s, sep string) string {
	if idx := strings.Index(s, sep); idx >= 0 {
		return s[:idx]
	}
	return s
}

// ParseReader reads every statement out of r (a .bb/.bbclass/.inc file
// named file for error reporting) and returns them in file order.
func ParseReader(r io.Reader, file string) (*ast.StatementGroup, error) {
	p := newParser(file)
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		if err := p.feed(lineno, sc.Text(), false); err != nil {
			return nil, err
		}
	}
	if p.inPython || p.infunc != nil {
		if err := p.feed(lineno+1, "", true); err != nil {
			return nil, err
		}
	}
	if len(p.residue) != 0 {
		return nil, bberrors.NewParseError(file, lineno,
			"Leftover unparsed (incomplete line continuation?) data")
	}
	return p.group, nil
}
