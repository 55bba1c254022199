package xsdgen

import (
	"bytes"
	"fmt"
	"go/ast"
	"text/template"

	"uxsdc/internal/gen"
)

// emitLoads implements spec.md 4.H: per complex type, a function that
// walks DOM children and attributes, converts leaf strings via the
// lexers and built-in parsers, and fills a caller-provided record.
func (cfg *Config) emitLoads(reg *registry) ([]ast.Decl, error) {
	var decls []ast.Decl
	for _, t := range reg.allComplexTypes() {
		d, err := emitLoadFunc(t)
		if err != nil {
			return nil, fmt.Errorf("emit load function for %s: %w", t.Name, err)
		}
		decls = append(decls, d)
	}
	decls = append(decls, emitAllocArenas(reg.sortedArenaTypes()))
	return decls, nil
}

type builtinSubst struct{ Dst, Src string }

func renderBuiltinTmpl(tmplSrc, dst, src string) (string, error) {
	t, err := template.New("builtin").Parse(tmplSrc)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, builtinSubst{Dst: dst, Src: src}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// emitLoadFunc emits load<T>(el *xmltree.Element, out *T) error.
func emitLoadFunc(t *complexType) (ast.Decl, error) {
	var body bytes.Buffer

	for i, el := range t.Children {
		if el.Many && el.Complex != nil {
			fmt.Fprintf(&body, "start%s%d := numArena%s\n", t.Name, i, el.Complex.Name)
		}
	}

	body.WriteString("for i := range el.Children {\n")
	body.WriteString("c := &el.Children[i]\n")
	fmt.Fprintf(&body, "sym, _ := gtok%s(c.Name.Local)\n", t.Name)
	body.WriteString("switch sym {\n")
	for i, el := range t.Children {
		fmt.Fprintf(&body, "case %d:\n", i)
		stmt, err := loadChildStmt(t, el)
		if err != nil {
			return nil, err
		}
		body.WriteString(stmt)
	}
	body.WriteString("}\n}\n")

	for i, el := range t.Children {
		if !el.Many {
			continue
		}
		if el.Complex != nil {
			fmt.Fprintf(&body, "out.%sList = arena%s[start%s%d:numArena%s]\n",
				el.Field, el.Complex.Name, t.Name, i, el.Complex.Name)
		}
		fmt.Fprintf(&body, "out.Num%s = len(out.%sList)\n", el.Field, el.Field)
	}

	if len(t.Attrs) > 0 {
		fmt.Fprintf(&body, "attrSeen := uxsdrt.NewBitset(%d)\n", len(t.Attrs))
		body.WriteString("for _, a := range el.StartElement.Attr {\n")
		fmt.Fprintf(&body, "pos, _ := atok%s(a.Name.Local)\n", t.Name)
		body.WriteString("if pos < 0 {\ncontinue\n}\n")
		body.WriteString("attrSeen.Set(pos)\n")
		body.WriteString("switch pos {\n")
		for i, attr := range t.Attrs {
			fmt.Fprintf(&body, "case %d:\n", i)
			stmt, err := loadSimpleValueStmt(attr.Value, "out."+attr.Field, "a.Value", t.Name)
			if err != nil {
				return nil, err
			}
			body.WriteString(stmt)
		}
		body.WriteString("}\n}\n")
		var requiredPositions []int
		for i, attr := range t.Attrs {
			if !attr.Required {
				requiredPositions = append(requiredPositions, i)
			}
		}
		fmt.Fprintf(&body, "attrSeen.SetMask(%s)\n", intSliceLit(requiredPositions))
		fmt.Fprintf(&body, "if !attrSeen.All() {\nreturn uxsdrt.AttrError(attrSeen, atokLookup%s)\n}\n", t.Name)
	} else {
		body.WriteString(`for range el.StartElement.Attr {
	return uxsdrt.UnexpectedError("attribute", "` + t.Name + `")
}
`)
	}

	if t.Model == modelSimple && t.Simple != nil {
		stmt, err := loadSimpleValueStmt(*t.Simple, "out.Value", "string(el.Content)", t.Name)
		if err != nil {
			return nil, err
		}
		body.WriteString(stmt)
	}

	body.WriteString("return nil\n")

	return gen.Func("load" + t.Name).
		Args("el *xmltree.Element", "out *"+t.Name).
		Returns("error").
		Body(body.String()).Decl()
}

// loadChildStmt emits the body of one case in load<T>'s child switch,
// per spec.md 4.H's three child kinds.
func loadChildStmt(t *complexType, el annotatedElement) (string, error) {
	switch {
	case el.Wildcard:
		if el.Many {
			return fmt.Sprintf("out.%sList = append(out.%sList, []xmltree.Element{*c})\n", el.Field, el.Field), nil
		}
		return fmt.Sprintf("out.%s = append(out.%s, *c)\n", el.Field, el.Field), nil
	case el.Complex != nil:
		if el.Many {
			return fmt.Sprintf(
				"if err := load%s(c, &arena%s[numArena%s]); err != nil {\nreturn err\n}\nnumArena%s++\n",
				el.Complex.Name, el.Complex.Name, el.Complex.Name, el.Complex.Name), nil
		}
		stmt := fmt.Sprintf("if err := load%s(c, &out.%s); err != nil {\nreturn err\n}\n", el.Complex.Name, el.Field)
		if el.Optional {
			stmt += fmt.Sprintf("out.Has%s = true\n", el.Field)
		}
		return stmt, nil
	case el.Builtin != nil:
		sv := simpleValueType{Kind: simpleBuiltin, GoType: el.Builtin.GoType, Builtin: el.Builtin}
		return loadSimpleChildStmt(el, sv)
	case el.Simple != nil:
		return loadSimpleChildStmt(el, *el.Simple)
	default:
		return "", fmt.Errorf("child %s of %s has no resolved type", el.XSDName.Local, t.Name)
	}
}

func loadSimpleChildStmt(el annotatedElement, sv simpleValueType) (string, error) {
	if el.Many {
		valueStmt, err := loadSimpleValueStmt(sv, "item", "string(c.Content)", el.XSDName.Local)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("var item %s\n%sout.%sList = append(out.%sList, item)\n", sv.GoType, valueStmt, el.Field, el.Field), nil
	}
	stmt, err := loadSimpleValueStmt(sv, "out."+el.Field, "string(c.Content)", el.XSDName.Local)
	if err != nil {
		return "", err
	}
	if el.Optional {
		stmt += fmt.Sprintf("out.Has%s = true\n", el.Field)
	}
	return stmt, nil
}

// loadSimpleValueStmt dispatches by simple-value variant, per spec.md
// 4.H's "simple-value loading" rules.
func loadSimpleValueStmt(sv simpleValueType, dst, src, owner string) (string, error) {
	switch sv.Kind {
	case simpleBuiltin:
		return renderBuiltinTmpl(sv.Builtin.ParseExpr, dst, src)
	case simpleList:
		return fmt.Sprintf("%s = %s\n", dst, src), nil
	case simpleEnum:
		return fmt.Sprintf(
			"if v, ok := lexEnum%s(%s); ok {\n%s = v\n} else {\nreturn uxsdrt.EnumError(%q, %s)\n}\n",
			sv.Enum.Name, src, dst, sv.Enum.Name, src), nil
	case simpleUnion:
		var body bytes.Buffer
		for _, m := range sv.Union.Members {
			suffix := exportedFieldSuffix(m.GoType)
			switch m.Kind {
			case simpleEnum:
				fmt.Fprintf(&body, "if v, ok := lexEnum%s(%s); ok {\n%s.Tag = tag%s\n%s.As%s = v\ngoto done%sUnion\n}\n",
					m.Enum.Name, src, dst, suffix, dst, suffix, sv.Union.Name)
			default:
				inner, err := renderBuiltinTmpl(m.Builtin.ParseExpr, "tmp", src)
				if err != nil {
					return "", err
				}
				// tmp is declared outside the closure (and the closure
				// returns only error) so ParseExpr's bare "return err"
				// failure branches keep the single-result arity func()
				// error requires; the whole member branch is wrapped in
				// its own block so "tmp" doesn't collide with the next
				// member's declaration in the same switch case.
				fmt.Fprintf(&body, "{\nvar tmp %s\nif err := func() error {\n%s\nreturn nil\n}(); err == nil {\n%s.Tag = tag%s\n%s.As%s = tmp\ngoto done%sUnion\n}\n}\n",
					m.GoType, inner, dst, suffix, dst, suffix, sv.Union.Name)
			}
		}
		fmt.Fprintf(&body, "return uxsdrt.UnionError(%q, %s)\n", owner, src)
		// The label must be followed by a statement, not just the next
		// case/closing brace a caller happens to append: a trailing "_ =
		// dst" is always valid, since dst is always an addressable
		// expression (a struct field or a "tmp"-style local).
		fmt.Fprintf(&body, "done%sUnion:\n_ = %s\n", sv.Union.Name, dst)
		return body.String(), nil
	}
	return "", fmt.Errorf("unsupported simple value kind %d", sv.Kind)
}

// emitAllocArenas emits allocArenas(), which preallocates every arena
// type's backing slice to exactly the size the count pass measured and
// resets its counter to zero so the load pass can reuse it as a write
// cursor (spec.md invariant 4, section 5's count->alloc->load
// lifecycle).
func emitAllocArenas(arenas []*complexType) ast.Decl {
	var body bytes.Buffer
	for _, t := range arenas {
		fmt.Fprintf(&body, "arena%s = make([]%s, numArena%s)\n", t.Name, t.Name, t.Name)
		fmt.Fprintf(&body, "numArena%s = 0\n", t.Name)
	}
	fn, err := gen.Func("allocArenas").Body(body.String()).Decl()
	if err != nil {
		panic("xsdgen: allocArenas body failed to parse: " + err.Error())
	}
	return fn
}
