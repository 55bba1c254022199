package xsdgen

import (
	"go/ast"
	"go/token"

	"uxsdc/internal/gen"
	"uxsdc/internal/lexgen"
)

// emitLexers implements spec.md 4.F: a perfect-hash (byte-trie) lexer
// per complex type with children (gtok<T>), per complex type with
// attributes (atok<T>), and per enumeration (lexEnum<name>), plus
// their reverse lookup arrays. internal/lexgen supplies the trie body;
// this file only builds the (literal, Go expression) alphabet and the
// surrounding function/array declarations.
func (cfg *Config) emitLexers(reg *registry) ([]ast.Decl, error) {
	var decls []ast.Decl

	for _, t := range reg.allComplexTypes() {
		if len(t.Children) > 0 {
			decls = append(decls, emitGroupLexer(t)...)
		}
		if len(t.Attrs) > 0 {
			decls = append(decls, emitAttrLexer(t)...)
		}
	}
	for _, e := range reg.enums {
		decls = append(decls, emitEnumLexer(e)...)
	}
	return decls, nil
}

// emitGroupLexer emits gtok<T>(name string) (int, error), mapping a
// child element's local name to its position in t.Children, and the
// matching gtokLookup<T> reverse array used by uxsdrt's DFAError and
// AllError helpers. A wildcard child has no literal to match against,
// so it is left out of the trie; any name the trie misses falls
// through to the wildcard's position if the type has one, else -1.
func emitGroupLexer(t *complexType) []ast.Decl {
	var alphabet []lexgen.Literal
	lookup := make([]ast.Expr, len(t.Children))
	fallback := "-1"
	for i, el := range t.Children {
		lookup[i] = gen.String(el.XSDName.Local)
		if el.Wildcard {
			fallback = itoaLit(i)
			continue
		}
		alphabet = append(alphabet, lexgen.Literal{Text: el.XSDName.Local, Expr: itoaLit(i)})
	}
	body := lexgen.GenLexerBody("name", alphabet) + "return " + fallback + ", nil"
	fn, err := gen.Func("gtok" + t.Name).
		Args("name string").
		Returns("int", "error").
		Body(body).Decl()
	if err != nil {
		panic("xsdgen: generated gtok lexer for " + t.Name + " failed to parse: " + err.Error())
	}
	lookupDecl := varArrayDecl("gtokLookup"+t.Name, "string", lookup)
	return []ast.Decl{fn, lookupDecl}
}

// emitAttrLexer is emitGroupLexer's analogue for attributes
// (atok<T>/atokLookup<T>).
func emitAttrLexer(t *complexType) []ast.Decl {
	alphabet := make([]lexgen.Literal, len(t.Attrs))
	lookup := make([]ast.Expr, len(t.Attrs))
	for i, attr := range t.Attrs {
		alphabet[i] = lexgen.Literal{Text: attr.XSDName.Local, Expr: itoaLit(i)}
		lookup[i] = gen.String(attr.XSDName.Local)
	}
	body := lexgen.GenLexerBody("name", alphabet) + "return -1, nil"
	fn, err := gen.Func("atok" + t.Name).
		Args("name string").
		Returns("int", "error").
		Body(body).Decl()
	if err != nil {
		panic("xsdgen: generated atok lexer for " + t.Name + " failed to parse: " + err.Error())
	}
	lookupDecl := varArrayDecl("atokLookup"+t.Name, "string", lookup)
	return []ast.Decl{fn, lookupDecl}
}

// emitEnumLexer emits lexEnum<name>(s string) (name, bool), returning
// the matched member and true, or the zero (UXSD_INVALID) member and
// false when s matches no enumeration literal. Callers decide whether a
// false result is a hard error (attribute/element value) or a signal to
// try the next union member (spec.md 4.H's union loading loop).
func emitEnumLexer(e *enumType) []ast.Decl {
	alphabet := make([]lexgen.Literal, 0, len(e.Members)-1)
	for i := 1; i < len(e.Members); i++ {
		alphabet = append(alphabet, lexgen.Literal{
			Text: e.Values[i],
			Expr: e.Name + e.Members[i] + ", true",
		})
	}
	body := lexgen.GenLexerBody("s", alphabet) + "return " + e.Name + "UXSD_INVALID, false"
	fn, err := gen.Func("lexEnum" + e.Name).
		Args("s string").
		Returns(e.Name, "bool").
		Body(body).Decl()
	if err != nil {
		panic("xsdgen: generated enum lexer for " + e.Name + " failed to parse: " + err.Error())
	}
	return []ast.Decl{fn}
}

func itoaLit(i int) string {
	// small, fixed alphabets (child/attribute counts per type); no need
	// for strconv at generator build time.
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func varArrayDecl(name, elemType string, elts []ast.Expr) *ast.GenDecl {
	return &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names: []*ast.Ident{ast.NewIdent(name)},
				Values: []ast.Expr{
					&ast.CompositeLit{
						Type: &ast.ArrayType{Elt: ast.NewIdent(elemType)},
						Elts: elts,
					},
				},
			},
		},
	}
}
