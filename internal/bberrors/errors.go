// Package bberrors defines the typed error kinds raised by the parse layer
// (spec §1, error kinds table): ParseError, NotFoundError, NotAFileError,
// SkipRecipeError and FatalError. Shaped after the lci project's
// internal/errors package — a Kind enum plus one struct per kind carrying
// context fields and an Unwrap-able underlying error.
package bberrors

import (
	"fmt"
	"time"
)

// Kind classifies what went wrong during resolution, parsing or dispatch.
type Kind string

const (
	KindParse      Kind = "parse"
	KindNotFound   Kind = "not_found"
	KindNotAFile   Kind = "not_a_file"
	KindSkipRecipe Kind = "skip_recipe"
	KindFatal      Kind = "fatal"
)

// ParseError reports a malformed statement at a specific file/line, the
// analogue of bb.parse.ParseError.
type ParseError struct {
	File       string
	Line       int
	Message    string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a ParseError for file at the given line.
func NewParseError(file string, line int, message string) *ParseError {
	return &ParseError{File: file, Line: line, Message: message, Timestamp: time.Now()}
}

// WithUnderlying attaches the error that triggered this ParseError.
func (e *ParseError) WithUnderlying(err error) *ParseError {
	e.Underlying = err
	return e
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("ParseError: %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("ParseError: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// NotFoundError reports that a name could not be resolved against any
// search-path directory. Suggestions, if present, are edit-distance
// candidates offered to the caller (spec §4.C, go-edlib suggestion).
type NotFoundError struct {
	Name        string
	SearchPath  []string
	Suggestions []string
}

func NewNotFoundError(name string, searchPath []string) *NotFoundError {
	return &NotFoundError{Name: name, SearchPath: searchPath}
}

// WithSuggestions attaches nearest-match candidates to the error.
func (e *NotFoundError) WithSuggestions(suggestions []string) *NotFoundError {
	e.Suggestions = suggestions
	return e
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("unable to find %q in %d search directories (did you mean: %v?)", e.Name, len(e.SearchPath), e.Suggestions)
	}
	return fmt.Sprintf("unable to find %q in %d search directories", e.Name, len(e.SearchPath))
}

// NotAFileError reports that a resolved path exists but is not a regular
// file (e.g. a directory matched a glob meant for IncludeAll).
type NotAFileError struct {
	Path string
}

func NewNotAFileError(path string) *NotAFileError {
	return &NotAFileError{Path: path}
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("%s exists but is not a regular file", e.Path)
}

// SkipRecipeError signals that handling a recipe should stop without being
// treated as a hard failure, the analogue of bb.parse.SkipRecipe /
// SkipPackage.
type SkipRecipeError struct {
	File   string
	Reason string
}

func NewSkipRecipeError(file, reason string) *SkipRecipeError {
	return &SkipRecipeError{File: file, Reason: reason}
}

func (e *SkipRecipeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("skipping %s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("skipping recipe: %s", e.Reason)
}

// FatalError wraps a condition the caller must not attempt to recover from,
// such as a comment mid continuation line.
type FatalError struct {
	File       string
	Line       int
	Message    string
	Underlying error
}

func NewFatalError(file string, line int, message string) *FatalError {
	return &FatalError{File: file, Line: line, Message: message}
}

func (e *FatalError) WithUnderlying(err error) *FatalError {
	e.Underlying = err
	return e
}

func (e *FatalError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("FatalError: %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("FatalError: %s", e.Message)
}

func (e *FatalError) Unwrap() error { return e.Underlying }

// KindOf classifies err into one of the Kind constants, or "" if err is not
// one of this package's types.
func KindOf(err error) Kind {
	switch err.(type) {
	case *ParseError:
		return KindParse
	case *NotFoundError:
		return KindNotFound
	case *NotAFileError:
		return KindNotAFile
	case *SkipRecipeError:
		return KindSkipRecipe
	case *FatalError:
		return KindFatal
	default:
		return ""
	}
}
