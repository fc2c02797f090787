package confgrammar

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/bbcore/internal/ast"
	"github.com/standardbeagle/bbcore/internal/bberrors"
)

// assignHeadRegexp matches everything up to and including the operator of
// an assignment statement: optional `export`, the variable name, an
// optional [flag], whitespace, then one of the eight operators. The quoted
// value that follows is extracted separately since Go's RE2 engine cannot
// express ConfHandler.py's same-quote backreference.
var assignHeadRegexp = regexp.MustCompile(
	`^(export\s+)?([a-zA-Z0-9\-_+.${}/~:]*?)(\[([a-zA-Z0-9\-_+.][a-zA-Z0-9\-_+.@/]*)\])?\s*(:=|\?\?=|\?=|\+=|=\+|=\.|\.=|=)\s*`)

var (
	includeRegexp     = regexp.MustCompile(`^include\s+(.+)$`)
	requireRegexp     = regexp.MustCompile(`^require\s+(.+)$`)
	includeAllRegexp  = regexp.MustCompile(`^include_all\s+(.+)$`)
	exportRegexp      = regexp.MustCompile(`^export\s+([a-zA-Z0-9\-_+.${}/~]+)$`)
	unsetFlagRegexp   = regexp.MustCompile(`^unset\s+([a-zA-Z0-9\-_+.${}/~]+)\[([a-zA-Z0-9\-_+.][a-zA-Z0-9\-_+.@]+)\]$`)
	unsetRegexp       = regexp.MustCompile(`^unset\s+([a-zA-Z0-9\-_+.${}/~]+)$`)
	addPyLibRegexp    = regexp.MustCompile(`^addpylib\s+(\S+)\s+(\S+)`)
	addFragmentsRegex = regexp.MustCompile(`^addfragments\s+(\S+)\s+(\S+)`)
)

func operatorFor(tok string) ast.Operator {
	switch tok {
	case ":=", "=":
		return ast.OpSet
	case "?=", "??=":
		return ast.OpDefault
	case "+=":
		return ast.OpAppend
	case "=+":
		return ast.OpPrepend
	case ".=":
		return ast.OpAppendImmediate
	case "=.":
		return ast.OpPrependImmediate
	default:
		return ast.OpSet
	}
}

// parseQuotedValue strips a single matching pair of quotes ("...") or
// ('...') surrounding the remainder of the line, returning the inner value.
func parseQuotedValue(rest string) (string, bool) {
	if len(rest) < 2 {
		return "", false
	}
	quote := rest[0]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	if rest[len(rest)-1] != quote {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

func tryAssign(file string, lineno int, s string) (ast.Statement, bool, error) {
	m := assignHeadRegexp.FindStringSubmatch(s)
	if m == nil {
		return nil, false, nil
	}
	rest := s[len(m[0]):]
	value, ok := parseQuotedValue(rest)
	if !ok {
		return nil, false, nil
	}
	varname := m[2]
	if varname == "" {
		return nil, true, bberrors.NewParseError(file, lineno, "empty variable name in assignment: '"+s+"'")
	}
	return &ast.DataAssign{
		Position: ast.Position{File: file, Line: lineno},
		Var:      varname,
		Flag:     m[4],
		Op:       operatorFor(m[5]),
		Value:    value,
		Export:   m[1] != "",
	}, true, nil
}

// Feed recognizes one logical line already produced by LineFeeder.Next and
// returns the ast.Statement it represents, mirroring ConfHandler.py's
// feeder() dispatch order: assignment first, then include/require/
// include_all/export/unset/addpylib/addfragments. An unrecognized line is a
// ParseError, same as the reference implementation's final fallthrough.
func Feed(file string, lineno int, s string) (ast.Statement, error) {
	s = strings.TrimSpace(s)

	if stmt, matched, err := tryAssign(file, lineno, s); matched {
		return stmt, err
	}

	pos := ast.Position{File: file, Line: lineno}

	if m := includeRegexp.FindStringSubmatch(s); m != nil {
		return &ast.Include{Position: pos, Path: strings.TrimSpace(m[1]), Required: false}, nil
	}
	if m := requireRegexp.FindStringSubmatch(s); m != nil {
		return &ast.Include{Position: pos, Path: strings.TrimSpace(m[1]), Required: true}, nil
	}
	if m := includeAllRegexp.FindStringSubmatch(s); m != nil {
		return &ast.IncludeAll{Position: pos, Pattern: strings.TrimSpace(m[1])}, nil
	}
	if m := exportRegexp.FindStringSubmatch(s); m != nil {
		return &ast.Export{Position: pos, Var: m[1]}, nil
	}
	if m := unsetFlagRegexp.FindStringSubmatch(s); m != nil {
		return &ast.UnsetFlag{Position: pos, Var: m[1], Flag: m[2]}, nil
	}
	if m := unsetRegexp.FindStringSubmatch(s); m != nil {
		return &ast.Unset{Position: pos, Var: m[1]}, nil
	}
	if m := addPyLibRegexp.FindStringSubmatch(s); m != nil {
		return &ast.AddPyLib{Position: pos, Path: m[1], Namespace: m[2]}, nil
	}
	if m := addFragmentsRegex.FindStringSubmatch(s); m != nil {
		return &ast.AddFragments{Position: pos, Pattern: m[1], VarName: m[2]}, nil
	}

	return nil, bberrors.NewParseError(file, lineno, "unparsed line: '"+s+"'")
}

// ParseStatements runs Feed over every logical line produced by a
// LineFeeder, building a StatementGroup in file order.
func ParseStatements(feeder *LineFeeder) (*ast.StatementGroup, error) {
	group := &ast.StatementGroup{}
	for {
		line, lineno, ok, err := feeder.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		stmt, err := Feed(feeder.filename, lineno, line)
		if err != nil {
			return nil, err
		}
		group.Append(stmt)
	}
	return group, nil
}
