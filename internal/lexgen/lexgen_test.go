package lexgen

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

func TestGenLexerBodyParsesAsGo(t *testing.T) {
	alphabet := []Literal{
		{Text: "red", Expr: "ColorRed"},
		{Text: "green", Expr: "ColorGreen"},
		{Text: "blue", Expr: "ColorBlue"},
		{Text: "re", Expr: "ColorRe"}, // shares a prefix with "red"
	}
	body := GenLexerBody("in", alphabet)
	body += "return ColorInvalid, fmt.Errorf(\"unrecognized value %q\", in)\n"

	var src bytes.Buffer
	fmt.Fprintf(&src, "package tmp\nfunc lex(in string) (int, error) {\n%s\n}\n", body)

	if _, err := parser.ParseFile(token.NewFileSet(), "", src.String(), 0); err != nil {
		t.Fatalf("generated lexer body is not valid Go: %v\n%s", err, src.String())
	}
	if !strings.Contains(body, `"re"`) == false {
		// sanity: terminal "re" node must be distinguished from "red" by length check
	}
	if !strings.Contains(body, "len(in) == 2") {
		t.Error("expected a length guard distinguishing \"re\" from \"red\"")
	}
}

func TestGenLexerBodyEmptyAlphabet(t *testing.T) {
	body := GenLexerBody("in", nil)
	if body != "" {
		t.Errorf("expected empty body for empty alphabet, got %q", body)
	}
}
