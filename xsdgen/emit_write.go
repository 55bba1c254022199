package xsdgen

import (
	"bytes"
	"fmt"
	"go/ast"

	"uxsdc/internal/gen"
)

// emitWriters implements spec.md 4.I: per complex type, a function that
// walks a filled-in record and re-serializes it as XML, mirroring
// load<T>'s traversal in reverse. Tags are written directly to an
// io.Writer rather than through encoding/xml.Encoder, matching
// xmltree.Encode's own style (open tag, recurse, close tag) since both
// need the same fine control over attribute and child ordering that a
// generic struct marshaler doesn't give.
func (cfg *Config) emitWriters(reg *registry) ([]ast.Decl, error) {
	var decls []ast.Decl
	for _, t := range reg.allComplexTypes() {
		d, err := emitWriteFunc(t)
		if err != nil {
			return nil, fmt.Errorf("emit write function for %s: %w", t.Name, err)
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// emitWriteFunc emits write<T>(w io.Writer, name string, v *T) error.
func emitWriteFunc(t *complexType) (ast.Decl, error) {
	var body bytes.Buffer

	body.WriteString("if _, err := io.WriteString(w, \"<\"+name); err != nil {\nreturn err\n}\n")
	for _, attr := range t.Attrs {
		formatted, err := formatSimpleValueExpr(attr.Value, "v."+attr.Field)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr.Field, err)
		}
		attrStmt := fmt.Sprintf(`if _, err := fmt.Fprintf(w, " %s=\""); err != nil {
	return err
}
if err := xml.EscapeText(w, []byte(%s)); err != nil {
	return err
}
if _, err := io.WriteString(w, "\""); err != nil {
	return err
}
`, attr.XSDName.Local, formatted)
		if !attr.Required {
			if guard, ok := attrPresenceGuard(attr.Value, "v."+attr.Field); ok {
				attrStmt = fmt.Sprintf("if %s {\n%s}\n", guard, attrStmt)
			}
		}
		body.WriteString(attrStmt)
	}
	body.WriteString("if _, err := io.WriteString(w, \">\"); err != nil {\nreturn err\n}\n")

	for _, el := range t.Children {
		stmt, err := writeChildStmt(el)
		if err != nil {
			return nil, err
		}
		body.WriteString(stmt)
	}

	if t.Model == modelSimple && t.Simple != nil {
		formatted, err := formatSimpleValueExpr(*t.Simple, "v.Value")
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&body, "if err := xml.EscapeText(w, []byte(%s)); err != nil {\nreturn err\n}\n", formatted)
	}

	body.WriteString("_, err := io.WriteString(w, \"</\"+name+\">\")\nreturn err\n")

	return gen.Func("write" + t.Name).
		Args("w io.Writer", "name string", "v *"+t.Name).
		Returns("error").
		Body(body.String()).Decl()
}

// attrPresenceGuard returns a boolean Go expression testing whether expr
// (an optional attribute's Go value) holds a non-default value, along
// with whether such a test exists at all. Optional attributes carry no
// Has<Field> bookkeeping field (DESIGN.md's optional-attribute
// resolution keeps them plain value fields), so an absent attribute is
// distinguished from a present-but-zero one by the value's own zero
// value instead — the same convention the loader's absence of a
// required-attribute bit for optional attributes already implies. A
// tagged union has no single zero value to test, so it is always
// written (ok is false).
func attrPresenceGuard(sv simpleValueType, expr string) (string, bool) {
	switch sv.Kind {
	case simpleUnion:
		return "", false
	case simpleBuiltin, simpleList, simpleEnum:
		switch sv.GoType {
		case "string":
			return fmt.Sprintf("%s != \"\"", expr), true
		case "bool":
			return expr, true
		default:
			return fmt.Sprintf("%s != 0", expr), true
		}
	}
	return "", false
}

// writeChildStmt emits one child element's serialization, reversing the
// corresponding case in loadChildStmt.
func writeChildStmt(el annotatedElement) (string, error) {
	name := el.XSDName.Local
	switch {
	case el.Wildcard:
		if el.Many {
			return fmt.Sprintf(
				"for _, group := range v.%sList {\nfor i := range group {\nif err := xmltree.Encode(w, &group[i]); err != nil {\nreturn err\n}\n}\n}\n",
				el.Field), nil
		}
		return fmt.Sprintf(
			"for i := range v.%s {\nif err := xmltree.Encode(w, &v.%s[i]); err != nil {\nreturn err\n}\n}\n",
			el.Field, el.Field), nil
	case el.Complex != nil:
		if el.Many {
			return fmt.Sprintf(
				"for i := range v.%sList {\nif err := write%s(w, %q, &v.%sList[i]); err != nil {\nreturn err\n}\n}\n",
				el.Field, el.Complex.Name, name, el.Field), nil
		}
		stmt := fmt.Sprintf("if err := write%s(w, %q, &v.%s); err != nil {\nreturn err\n}\n", el.Complex.Name, name, el.Field)
		if el.Optional {
			stmt = fmt.Sprintf("if v.Has%s {\n%s}\n", el.Field, stmt)
		}
		return stmt, nil
	case el.Builtin != nil:
		sv := simpleValueType{Kind: simpleBuiltin, GoType: el.Builtin.GoType, Builtin: el.Builtin}
		return writeSimpleChildStmt(el, sv)
	case el.Simple != nil:
		return writeSimpleChildStmt(el, *el.Simple)
	default:
		return "", fmt.Errorf("child %s has no resolved type", name)
	}
}

func writeSimpleChildStmt(el annotatedElement, sv simpleValueType) (string, error) {
	name := el.XSDName.Local
	if el.Many {
		formatted, err := formatSimpleValueExpr(sv, "item")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`for _, item := range v.%sList {
	if _, err := fmt.Fprintf(w, "<%s>"); err != nil {
		return err
	}
	if err := xml.EscapeText(w, []byte(%s)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "</%s>"); err != nil {
		return err
	}
}
`, el.Field, name, formatted, name), nil
	}
	formatted, err := formatSimpleValueExpr(sv, "v."+el.Field)
	if err != nil {
		return "", err
	}
	stmt := fmt.Sprintf(`if _, err := fmt.Fprintf(w, "<%s>"); err != nil {
	return err
}
if err := xml.EscapeText(w, []byte(%s)); err != nil {
	return err
}
if _, err := fmt.Fprintf(w, "</%s>"); err != nil {
	return err
}
`, name, formatted, name)
	if el.Optional {
		stmt = fmt.Sprintf("if v.Has%s {\n%s}\n", el.Field, stmt)
	}
	return stmt, nil
}

// formatSimpleValueExpr returns a Go expression of type string holding
// src's textual representation, per spec.md 4.I's format dispatch.
// Unlike loadSimpleValueStmt (which assigns through an imperative
// statement list because parsing can fail), formatting never fails, so
// every variant reduces to a single string-typed expression.
func formatSimpleValueExpr(sv simpleValueType, src string) (string, error) {
	switch sv.Kind {
	case simpleBuiltin:
		rendered, err := renderBuiltinTmpl(sv.Builtin.FormatExpr, "out", src)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("func() string {\nvar out string\n%s\nreturn out\n}()", rendered), nil
	case simpleList:
		return src, nil
	case simpleEnum:
		return fmt.Sprintf("lookup%s[%s]", sv.Enum.Name, src), nil
	case simpleUnion:
		var body bytes.Buffer
		fmt.Fprintf(&body, "switch %s.Tag {\n", src)
		for _, m := range sv.Union.Members {
			suffix := exportedFieldSuffix(m.GoType)
			fmt.Fprintf(&body, "case tag%s:\n", suffix)
			memberExpr, err := formatSimpleValueExpr(m, fmt.Sprintf("%s.As%s", src, suffix))
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&body, "return %s\n", memberExpr)
		}
		body.WriteString("}\nreturn \"\"\n")
		return fmt.Sprintf("func() string {\n%s}()", body.String()), nil
	}
	return "", fmt.Errorf("unsupported simple value kind %d", sv.Kind)
}
