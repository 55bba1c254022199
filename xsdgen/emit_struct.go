package xsdgen

import (
	"fmt"
	"go/ast"
	"go/token"

	"uxsdc/internal/gen"
)

// emitStructs implements spec.md 4.E: declarations for enums (from
// restrictions), tagged unions, complex-type records, and global arena
// handles, in the same emission order the spec lists. Go has no
// separate forward-declaration pass (step 1 of 4.E is a no-op here:
// package-level declarations may reference each other in any order).
func (cfg *Config) emitStructs(reg *registry) ([]ast.Decl, error) {
	var decls []ast.Decl

	for _, e := range reg.enums {
		decls = append(decls, emitEnum(e)...)
	}

	if len(reg.simpleTypesInUnions) > 0 {
		decls = append(decls, emitTypeTagEnum(reg.sortedSimpleTypesInUnions())...)
	}

	for _, u := range reg.unions {
		d, err := emitUnionStruct(u)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}

	for _, t := range reg.allComplexTypes() {
		d, err := cfg.emitComplexStruct(t)
		if err != nil {
			return nil, fmt.Errorf("emit struct %s: %w", t.Name, err)
		}
		decls = append(decls, d)
	}

	decls = append(decls, emitArenaGlobals(reg.sortedArenaTypes())...)

	return decls, nil
}

// emitEnum emits a type declaration for a token enum plus its
// companion lookup array, with UXSD_INVALID as member 0 (the enum-zero
// sentinel invariant spec.md 8 requires).
func emitEnum(e *enumType) []ast.Decl {
	lookupElts := make([]ast.Expr, 0, len(e.Members))
	for i := range e.Members {
		lookupElts = append(lookupElts, gen.String(e.Values[i]))
	}
	typeDecl := gen.TypeDecl(ast.NewIdent(e.Name), ast.NewIdent("int"))
	constDecl := &ast.GenDecl{
		Tok:    token.CONST,
		Lparen: 1,
	}
	for i, m := range e.Members {
		name := e.Name + m
		spec := &ast.ValueSpec{Names: []*ast.Ident{ast.NewIdent(name)}}
		if i == 0 {
			spec.Type = ast.NewIdent(e.Name)
			spec.Values = []ast.Expr{ast.NewIdent("iota")}
		}
		constDecl.Specs = append(constDecl.Specs, spec)
	}
	lookup := &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names: []*ast.Ident{ast.NewIdent("lookup" + e.Name)},
				Values: []ast.Expr{
					&ast.CompositeLit{
						Type: &ast.ArrayType{Elt: ast.NewIdent("string")},
						Elts: lookupElts,
					},
				},
			},
		},
	}
	return []ast.Decl{typeDecl, constDecl, lookup}
}

// emitTypeTagEnum emits the single synthesized discriminator enum used
// by every tagged union (spec.md 4.E step 3), one member per distinct
// Go type appearing in any union: a type declaration plus its const
// block (Go cannot mix a TypeSpec and ValueSpecs in one GenDecl, unlike
// emitEnum's single-kind const blocks).
func emitTypeTagEnum(members []string) []ast.Decl {
	typeDecl := gen.TypeDecl(ast.NewIdent("unionTag"), ast.NewIdent("int"))
	constDecl := &ast.GenDecl{Tok: token.CONST, Lparen: 1}
	for i, m := range members {
		spec := &ast.ValueSpec{Names: []*ast.Ident{ast.NewIdent("tag" + m)}}
		if i == 0 {
			spec.Type = ast.NewIdent("unionTag")
			spec.Values = []ast.Expr{ast.NewIdent("iota")}
		}
		constDecl.Specs = append(constDecl.Specs, spec)
	}
	return []ast.Decl{typeDecl, constDecl}
}

// emitUnionStruct emits a record with a tag field and one field per
// member type, named As<MemberType> (spec.md 4.E step 4).
func emitUnionStruct(u *unionType) (ast.Decl, error) {
	args := []ast.Expr{ast.NewIdent("Tag"), ast.NewIdent("unionTag"), nil}
	for _, m := range u.Members {
		fieldName := "As" + exportedFieldSuffix(m.GoType)
		args = append(args, ast.NewIdent(fieldName), ast.NewIdent(m.GoType), nil)
	}
	st := gen.Struct(args...)
	return gen.TypeDecl(ast.NewIdent(u.Name), st), nil
}

// exportedFieldSuffix turns a Go type expression like "TFoo" or "int"
// into a field-name-safe suffix ("TFoo", "Int").
func exportedFieldSuffix(goType string) string {
	if goType == "" {
		return "Value"
	}
	r := []rune(goType)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

// emitComplexStruct emits a struct for one complex type: attributes,
// then per-child fields, then (if applicable) a Value field for simple
// content (spec.md 4.E step 5).
func (cfg *Config) emitComplexStruct(t *complexType) (ast.Decl, error) {
	var args []ast.Expr
	for _, attr := range t.Attrs {
		tag := fmt.Sprintf(`xml:"%s,attr"`, attr.XSDName.Local)
		args = append(args, ast.NewIdent(attr.Field), ast.NewIdent(attr.Value.GoType), gen.String(tag))
	}
	for _, el := range t.Children {
		tag := fmt.Sprintf(`xml:"%s"`, el.XSDName.Local)
		var fieldType ast.Expr
		switch {
		case el.Wildcard:
			fieldType = &ast.ArrayType{Elt: ast.NewIdent("xmltree.Element")}
		case el.Complex != nil:
			fieldType = ast.NewIdent(el.Complex.Name)
		case el.Builtin != nil:
			fieldType = ast.NewIdent(el.Builtin.GoType)
		case el.Simple != nil:
			fieldType = ast.NewIdent(el.Simple.GoType)
		default:
			return nil, fmt.Errorf("child %s has no resolved type", el.XSDName.Local)
		}
		if el.Many {
			fieldType = &ast.ArrayType{Elt: fieldType}
			args = append(args, ast.NewIdent(el.Field+"List"), fieldType, gen.String(tag))
			args = append(args, ast.NewIdent("Num"+el.Field), ast.NewIdent("int"), nil)
		} else {
			args = append(args, ast.NewIdent(el.Field), fieldType, gen.String(tag))
			if el.Optional {
				args = append(args, ast.NewIdent("Has"+el.Field), ast.NewIdent("bool"), nil)
			}
		}
	}
	if t.Model == modelSimple && t.Simple != nil {
		args = append(args, ast.NewIdent("Value"), ast.NewIdent(t.Simple.GoType), gen.String(`xml:",chardata"`))
	}
	st := gen.Struct(args...)
	return gen.TypeDecl(ast.NewIdent(t.Name), st), nil
}

// emitArenaGlobals emits, per arena type, a package-level counter and
// an (initially nil) arena slice (spec.md 4.E step 6). The Get<T>
// functions emitted by driver.go's emitRoots size them (via allocArenas)
// and fill them; they stay package-level between calls, and there is no
// free_arenas, per spec.md's DESIGN NOTES on global mutable state.
func emitArenaGlobals(arenas []*complexType) []ast.Decl {
	var decls []ast.Decl
	for _, t := range arenas {
		counterName := "numArena" + t.Name
		arenaName := "arena" + t.Name
		decls = append(decls, &ast.GenDecl{
			Tok: token.VAR,
			Specs: []ast.Spec{
				&ast.ValueSpec{
					Names: []*ast.Ident{ast.NewIdent(counterName)},
					Type:  ast.NewIdent("int"),
				},
				&ast.ValueSpec{
					Names: []*ast.Ident{ast.NewIdent(arenaName)},
					Type:  &ast.ArrayType{Elt: ast.NewIdent(t.Name)},
				},
			},
		})
	}
	return decls
}
