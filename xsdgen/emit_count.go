package xsdgen

import (
	"bytes"
	"fmt"
	"go/ast"

	"uxsdc/internal/dfa"
	"uxsdc/internal/gen"
)

// emitCounts implements spec.md 4.G: per complex type, a function that
// walks DOM children, runs the DFA (or the all/none check), and
// recursively counts complex-typed children into the arena counters
// declared by emit_struct.go's emitArenaGlobals.
func (cfg *Config) emitCounts(reg *registry) ([]ast.Decl, error) {
	var decls []ast.Decl
	for _, t := range reg.allComplexTypes() {
		d, err := emitCountFunc(t)
		if err != nil {
			return nil, fmt.Errorf("emit count function for %s: %w", t.Name, err)
		}
		decls = append(decls, d...)
	}
	return decls, nil
}

func emitCountFunc(t *complexType) ([]ast.Decl, error) {
	switch t.Model {
	case modelDFA:
		return emitCountDFA(t)
	case modelAll:
		return emitCountAll(t)
	default:
		return emitCountNoneOrSimple(t)
	}
}

// emitCountDFA emits the static transition table (a [][]int, -1
// standing in for a missing sparse entry) and the counting function
// that drives it, one state transition per child.
func emitCountDFA(t *complexType) ([]ast.Decl, error) {
	d := t.DFA
	tableName := "dfaTable" + t.Name

	var table bytes.Buffer
	fmt.Fprintf(&table, "var %s = [][]int{\n", tableName)
	for _, s := range d.States {
		table.WriteString("{")
		for sym := range d.Alphabet {
			next := -1
			if row, ok := d.Transitions[s]; ok {
				if n, ok := row[sym]; ok {
					next = n
				}
			}
			fmt.Fprintf(&table, "%d, ", next)
		}
		table.WriteString("},\n")
	}
	table.WriteString("}\n")

	acceptName := "dfaAccept" + t.Name
	fmt.Fprintf(&table, "var %s = map[int]bool{\n", acceptName)
	for _, s := range d.Accepts {
		fmt.Fprintf(&table, "%d: true,\n", s)
	}
	table.WriteString("}\n")

	tableDecls, err := gen.Declarations(table.String())
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "state := 0\n")
	fmt.Fprintf(&body, "for i := range el.Children {\n")
	fmt.Fprintf(&body, "c := &el.Children[i]\n")
	fmt.Fprintf(&body, "sym, _ := gtok%s(c.Name.Local)\n", t.Name)
	fmt.Fprintf(&body, "if sym < 0 {\nreturn uxsdrt.UnrecognizedError(\"element\", c.Name.Local, %q)\n}\n", t.Name)
	fmt.Fprintf(&body, "next := %s[state][sym]\n", tableName)
	fmt.Fprintf(&body, "if next < 0 {\nreturn uxsdrt.DFAError(c.Name.Local, outEdges%s(state))\n}\n", t.Name)
	fmt.Fprintf(&body, "state = next\n")
	if hasComplexChild(t) {
		body.WriteString("switch sym {\n")
		for i, el := range t.Children {
			if el.Complex == nil {
				continue
			}
			fmt.Fprintf(&body, "case %d:\n", i)
			fmt.Fprintf(&body, "if err := count%s(c); err != nil {\nreturn err\n}\n", el.Complex.Name)
			if el.Many {
				fmt.Fprintf(&body, "numArena%s++\n", el.Complex.Name)
			}
		}
		body.WriteString("}\n")
	}
	body.WriteString("}\n")
	fmt.Fprintf(&body, "if !%s[state] {\nreturn uxsdrt.DFAError(\"end of input\", outEdges%s(state))\n}\n", acceptName, t.Name)
	body.WriteString("return nil\n")

	fn, err := gen.Func("count" + t.Name).
		Args("el *xmltree.Element").
		Returns("error").
		Body(body.String()).Decl()
	if err != nil {
		return nil, err
	}

	edges, err := emitOutEdgesHelper(t, d)
	if err != nil {
		return nil, err
	}

	return append(append(tableDecls, edges), fn), nil
}

// emitOutEdgesHelper emits a small per-type helper returning the
// lookup-array names legal from a given DFA state, used to build the
// "expected X or Y, found Z" message uxsdrt.DFAError formats.
func emitOutEdgesHelper(t *complexType, d *dfa.DFA) (ast.Decl, error) {
	var body bytes.Buffer
	fmt.Fprintf(&body, "var out []string\n")
	fmt.Fprintf(&body, "row, ok := dfaTable%s[state], true\n", t.Name)
	body.WriteString("_ = ok\n")
	fmt.Fprintf(&body, "for sym, next := range row {\nif next >= 0 {\nout = append(out, gtokLookup%s[sym])\n}\n}\n", t.Name)
	body.WriteString("return out\n")
	return gen.Func("outEdges" + t.Name).
		Args("state int").
		Returns("[]string").
		Body(body.String()).Decl()
}

// emitCountAll emits the bitset-based check for an <xs:all> content
// model: each child sets its position's bit (duplicates are errors),
// then the optional-elements mask is folded in before requiring All().
func emitCountAll(t *complexType) ([]ast.Decl, error) {
	var body bytes.Buffer
	fmt.Fprintf(&body, "seen := uxsdrt.NewBitset(%d)\n", len(t.Children))
	body.WriteString("for i := range el.Children {\n")
	body.WriteString("c := &el.Children[i]\n")
	fmt.Fprintf(&body, "pos, _ := gtok%s(c.Name.Local)\n", t.Name)
	fmt.Fprintf(&body, "if pos < 0 {\nreturn uxsdrt.UnrecognizedError(\"element\", c.Name.Local, %q)\n}\n", t.Name)
	fmt.Fprintf(&body, "if seen.Get(pos) {\nreturn uxsdrt.DuplicateError(\"element\", c.Name.Local, %q)\n}\n", t.Name)
	body.WriteString("seen.Set(pos)\n")
	if hasComplexChild(t) {
		body.WriteString("switch pos {\n")
		for i, el := range t.Children {
			if el.Complex == nil {
				continue
			}
			fmt.Fprintf(&body, "case %d:\n", i)
			fmt.Fprintf(&body, "if err := count%s(c); err != nil {\nreturn err\n}\n", el.Complex.Name)
			if el.Many {
				fmt.Fprintf(&body, "numArena%s++\n", el.Complex.Name)
			}
		}
		body.WriteString("}\n")
	}
	body.WriteString("}\n")
	var optionalPositions []int
	for i, el := range t.Children {
		if el.Optional {
			optionalPositions = append(optionalPositions, i)
		}
	}
	fmt.Fprintf(&body, "seen.SetMask(%s)\n", intSliceLit(optionalPositions))
	fmt.Fprintf(&body, "if !seen.All() {\nreturn uxsdrt.AllError(seen, gtokLookup%s)\n}\n", t.Name)
	body.WriteString("return nil\n")

	fn, err := gen.Func("count" + t.Name).
		Args("el *xmltree.Element").
		Returns("error").
		Body(body.String()).Decl()
	if err != nil {
		return nil, err
	}
	return []ast.Decl{fn}, nil
}

// emitCountNoneOrSimple emits the trivial count function for types with
// no element content: any child element is an error (modelNone), or
// the type has simple content and carries no element children either
// way (modelSimple).
func emitCountNoneOrSimple(t *complexType) ([]ast.Decl, error) {
	body := fmt.Sprintf(`if len(el.Children) > 0 {
	return uxsdrt.UnexpectedError("child element", %q)
}
return nil
`, t.Name)
	fn, err := gen.Func("count" + t.Name).
		Args("el *xmltree.Element").
		Returns("error").
		Body(body).Decl()
	if err != nil {
		return nil, err
	}
	return []ast.Decl{fn}, nil
}

func hasComplexChild(t *complexType) bool {
	for _, el := range t.Children {
		if el.Complex != nil {
			return true
		}
	}
	return false
}

func intSliceLit(ints []int) string {
	var buf bytes.Buffer
	buf.WriteString("[]int{")
	for i, v := range ints {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%d", v)
	}
	buf.WriteString("}")
	return buf.String()
}
