package bberrors

import (
	"errors"
	"testing"
)

func TestParseErrorFormatsLocation(t *testing.T) {
	err := NewParseError("recipe.bb", 42, "unexpected token")
	want := "ParseError: recipe.bb:42: unexpected token"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
	if KindOf(err) != KindParse {
		t.Fatalf("expected KindParse, got %v", KindOf(err))
	}
}

func TestParseErrorUnwraps(t *testing.T) {
	underlying := errors.New("boom")
	err := NewParseError("f.bb", 1, "bad").WithUnderlying(underlying)
	if !errors.Is(err, underlying) {
		t.Fatalf("expected errors.Is to find underlying error")
	}
}

func TestNotFoundErrorWithSuggestions(t *testing.T) {
	err := NewNotFoundError("libfoo.bbclass", []string{"/a", "/b"}).WithSuggestions([]string{"libfoobar.bbclass"})
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected KindNotFound")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty message")
	}
}

func TestSkipRecipeErrorKind(t *testing.T) {
	err := NewSkipRecipeError("x.bb", "unsupported machine")
	if KindOf(err) != KindSkipRecipe {
		t.Fatalf("expected KindSkipRecipe")
	}
}

func TestFatalErrorKind(t *testing.T) {
	err := NewFatalError("x.conf", 7, "comment mid continuation")
	if KindOf(err) != KindFatal {
		t.Fatalf("expected KindFatal")
	}
}

func TestKindOfUnknownError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty Kind for non-bberrors error")
	}
}
