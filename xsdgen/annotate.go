package xsdgen

import (
	"encoding/xml"
	"fmt"
	"strings"

	"uxsdc/internal/dfa"
	"uxsdc/internal/namegen"
	"uxsdc/xsd"
)

// Logger receives diagnostic messages from the annotator (keyword
// collisions) and the driver (progress/debug lines). *log.Logger and
// charm.land/log/v2's Logger both satisfy it.
type Logger interface {
	Printf(format string, args ...interface{})
}

// contentModel is the closed sum spec.md 4.C assigns to a complex
// type's content: {none, simple, all, dfa}.
type contentModel int

const (
	modelNone contentModel = iota
	modelSimple
	modelAll
	modelDFA
)

func (m contentModel) String() string {
	switch m {
	case modelNone:
		return "none"
	case modelSimple:
		return "simple"
	case modelAll:
		return "all"
	case modelDFA:
		return "dfa"
	}
	return "unknown"
}

// simpleKind discriminates the closed sum of simple-type variants
// spec.md 4.C dispatches on.
type simpleKind int

const (
	simpleBuiltin simpleKind = iota
	simpleEnum
	simpleList
	simpleUnion
)

// simpleValueType is the annotated form of any Builtin/SimpleType used
// as an attribute value, simple-content leaf, or union member.
type simpleValueType struct {
	Kind    simpleKind
	GoType  string
	Builtin *builtinInfo
	Enum    *enumType
	Union   *unionType
}

// enumType is the annotated form of an <xs:simpleType> restricted to an
// enumeration: spec.md's RestrictionEnum.
type enumType struct {
	XSDName xml.Name
	Name    string   // Go type name, e.g. "TColor"
	Members []string // Go token names, UXSD_INVALID first
	Values  []string // original XSD string literals, aligned with Members
}

// unionType is the annotated form of an <xs:simpleType> with member
// types: spec.md's UnionSimpleType.
type unionType struct {
	Name    string
	Members []simpleValueType
}

// annotatedElement is the annotated form of an xsd.Element reachable as
// a complex type's child, or of a top-level root-element declaration
// (annotated the same way, with Many and Optional false).
type annotatedElement struct {
	XSDName  xml.Name
	Field    string // exported Go struct field name
	Many     bool
	Optional bool
	Wildcard bool

	// Exactly one of Complex, Builtin, or Simple is non-nil, unless this
	// element is a wildcard, in which case all three are nil and the
	// field is emitted as []xmltree.Element.
	Complex *complexType
	Builtin *builtinInfo
	Simple  *simpleValueType
}

// annotatedAttr is the annotated form of an xsd.Attribute.
type annotatedAttr struct {
	XSDName  xml.Name
	Field    string
	Value    simpleValueType
	Required bool
	Default  string
}

// complexType is the annotated form of an xsd.ComplexType: spec.md's
// ComplexType entity.
type complexType struct {
	XSD       *xsd.ComplexType
	Name      string
	Anonymous bool
	Attrs     []annotatedAttr
	Model     contentModel
	Children  []annotatedElement
	DFA       *dfa.DFA
	Simple    *simpleValueType // set iff Model == modelSimple
	Height    int
}

// annotator carries the shared registry and logger through the
// mutually recursive annotate* entry points of spec.md 4.C.
type annotator struct {
	reg    *registry
	logger Logger
}

// Annotate walks schema (plus any extra schemas needed to resolve
// cross-schema type references) and builds the parallel annotated graph
// that every emitter consumes. The one change it makes to the xsd
// package's types is in annotateElement, which sets an anonymous
// *xsd.ComplexType's Name to the name of the element that declares it.
// Only schema's own top-level elements become document roots;
// xsd.Parse resolves cross-schema references to shared *xsd.ComplexType
// pointers before Annotate ever runs, so extra's named types are walked
// into the same registry purely to pick up types extra declares but
// schema's own content model never reaches.
func Annotate(schema *xsd.Schema, logger Logger, extra ...*xsd.Schema) (*registry, error) {
	reg := newRegistry(logger)
	a := &annotator{reg: reg, logger: logger}

	all := append([]*xsd.Schema{schema}, extra...)
	for _, s := range all {
		typeNames := make([]xml.Name, 0, len(s.Types))
		for name := range s.Types {
			typeNames = append(typeNames, name)
		}
		sortXMLNames(typeNames)
		for _, name := range typeNames {
			if ct, ok := s.Types[name].(*xsd.ComplexType); ok {
				if _, err := a.annotateComplexType(ct); err != nil {
					return nil, err
				}
			}
		}
	}

	names := make([]xml.Name, 0, len(schema.Elements))
	for name := range schema.Elements {
		names = append(names, name)
	}
	sortXMLNames(names)
	for _, name := range names {
		ael, err := a.annotateElement(schema.Elements[name], false, false)
		if err != nil {
			return nil, fmt.Errorf("root element %s: %w", name.Local, err)
		}
		reg.addRoot(ael)
	}
	return reg, nil
}

// sortXMLNames orders type and root-element names by local name:
// schema.Types and schema.Elements are Go maps, whose iteration order
// is random, but the annotation order and the driver's Get<T>/Write<T>
// emission order must be stable across runs (spec.md invariant 3's
// "deterministic traversal" philosophy).
func sortXMLNames(names []xml.Name) {
	for i := 1; i < len(names); i++ {
		j := i
		for j > 0 && names[j-1].Local > names[j].Local {
			names[j-1], names[j] = names[j], names[j-1]
			j--
		}
	}
}

// annotateElement implements spec.md 4.C's Element case: inherited many
// and optional flags are widened by occurrence bounds, anonymous types
// are promoted and named after the element, and the element's type is
// added to the arena set when Many ends up true.
func (a *annotator) annotateElement(el xsd.Element, many, optional bool) (annotatedElement, error) {
	ael := annotatedElement{
		XSDName:  el.Name,
		Field:    namegen.Checked(a.logger, namegen.Exported(sanitizeIdent(el.Name.Local))),
		Many:     many,
		Optional: optional,
		Wildcard: el.Wildcard,
	}
	if el.Wildcard {
		return ael, nil
	}

	switch t := el.Type.(type) {
	case *xsd.ComplexType:
		if t.Anonymous {
			t.Name = el.Name
		}
		ct, err := a.annotateComplexType(t)
		if err != nil {
			return ael, err
		}
		ael.Complex = ct
		if ael.Many {
			a.reg.markArena(ct)
		}
	case xsd.Builtin:
		info, ok := lookupBuiltin(t)
		if !ok {
			return ael, fmt.Errorf("element %s: unsupported built-in type %s", el.Name.Local, t.Name().Local)
		}
		ael.Builtin = &info
	case *xsd.SimpleType:
		sv, err := a.annotateSimpleType(t)
		if err != nil {
			return ael, fmt.Errorf("element %s: %w", el.Name.Local, err)
		}
		ael.Simple = &sv
	default:
		return ael, fmt.Errorf("element %s: unexpected type %T", el.Name.Local, el.Type)
	}
	return ael, nil
}

// annotateGroup implements spec.md 4.C's Group case: it flattens a
// group's members into a single child-element list (used by the struct
// emitter and the gtok lexer), widening many/optional by the group's own
// occurs bounds at each particle. Nested groups recurse; the DFA
// builder instead walks the xsd.Group tree directly (see
// groupToDFANode) so it keeps the compositor structure this flattening
// discards.
//
// Distinct element names are deduplicated in first-appearance order,
// mirroring xsd.ComplexType.Elements() and internal/dfa's own alphabet
// construction: the gtok lexer's alphabet must line up position-for-
// position with the DFA's alphabet, and a name that recurs across
// multiple particles (e.g. in separate <choice> branches) has its
// Many/Optional flags folded together rather than producing duplicate
// struct fields.
func (a *annotator) annotateGroup(g *xsd.Group, many, optional bool, result *[]annotatedElement, index map[xml.Name]int) error {
	for _, p := range g.Particle {
		pMany := many || p.Plural()
		pOptional := optional || p.Optional()
		if p.Elem != nil {
			key := p.Elem.Name
			if !p.Elem.Wildcard {
				if i, ok := index[key]; ok {
					(*result)[i].Many = (*result)[i].Many || pMany
					(*result)[i].Optional = (*result)[i].Optional || pOptional
					continue
				}
			}
			ael, err := a.annotateElement(*p.Elem, pMany, pOptional)
			if err != nil {
				return err
			}
			if !p.Elem.Wildcard {
				index[key] = len(*result)
			}
			*result = append(*result, ael)
		} else if p.Group != nil {
			if err := a.annotateGroup(p.Group, pMany, pOptional, result, index); err != nil {
				return err
			}
		}
	}
	return nil
}

// annotateSimpleType implements spec.md 4.C's Simple type case.
func (a *annotator) annotateSimpleType(t *xsd.SimpleType) (simpleValueType, error) {
	if memo, ok := a.reg.memo[t]; ok {
		return memo.(simpleValueType), nil
	}

	if t.List {
		sv := simpleValueType{Kind: simpleList, GoType: "string"}
		a.reg.memo[t] = sv
		return sv, nil
	}
	if len(t.Union) > 0 {
		u := &unionType{Name: namegen.TypeName(sanitizeIdent(t.Name.Local))}
		for _, mt := range t.Union {
			var msv simpleValueType
			var err error
			switch mt := mt.(type) {
			case xsd.Builtin:
				info, ok := lookupBuiltin(mt)
				if !ok {
					return simpleValueType{}, fmt.Errorf("union %s: unsupported built-in member %s", t.Name.Local, mt.Name().Local)
				}
				msv = simpleValueType{Kind: simpleBuiltin, GoType: info.GoType, Builtin: &info}
			case *xsd.SimpleType:
				msv, err = a.annotateSimpleType(mt)
				if err != nil {
					return simpleValueType{}, err
				}
			default:
				return simpleValueType{}, fmt.Errorf("union %s: unexpected member type %T", t.Name.Local, mt)
			}
			u.Members = append(u.Members, msv)
			a.reg.addSimpleTypeInUnion(msv.GoType)
		}
		a.reg.addUnion(u)
		sv := simpleValueType{Kind: simpleUnion, GoType: u.Name, Union: u}
		a.reg.memo[t] = sv
		return sv, nil
	}
	if len(t.Restriction.Enum) > 0 {
		e := &enumType{
			XSDName: t.Name,
			Name:    namegen.TypeName(sanitizeIdent(t.Name.Local)),
			Members: []string{"UXSD_INVALID"},
			Values:  []string{""},
		}
		for _, v := range t.Restriction.Enum {
			e.Members = append(e.Members, namegen.Token(v))
			e.Values = append(e.Values, v)
		}
		e = a.reg.addEnum(e)
		sv := simpleValueType{Kind: simpleEnum, GoType: e.Name, Enum: e}
		a.reg.memo[t] = sv
		return sv, nil
	}
	// Any other restriction (length, pattern, numeric range) without an
	// enumeration is unsupported: spec.md 4.C requires exactly one
	// validator, and it must be an enumeration.
	if r := t.Restriction; r.Pattern != nil || r.Min != 0 || r.Max != 0 ||
		r.MinLength != 0 || r.MaxLength != 0 || r.Precision != 0 {
		return simpleValueType{}, fmt.Errorf("simpleType %s: restriction validator other than enumeration is unsupported", t.Name.Local)
	}
	if base, ok := xsd.Base(t).(xsd.Builtin); ok {
		info, ok := lookupBuiltin(base)
		if !ok {
			return simpleValueType{}, fmt.Errorf("simpleType %s: unsupported built-in base %s", t.Name.Local, base.Name().Local)
		}
		sv := simpleValueType{Kind: simpleBuiltin, GoType: info.GoType, Builtin: &info}
		a.reg.memo[t] = sv
		return sv, nil
	}
	return simpleValueType{}, fmt.Errorf("simpleType %s: restriction validator other than enumeration is unsupported", t.Name.Local)
}

// annotateComplexType implements spec.md 4.C's Complex type case,
// including the idempotence guard (invariant 2) that terminates
// recursive schemas: a type already present in the memo table returns
// immediately without re-walking its content.
func (a *annotator) annotateComplexType(t *xsd.ComplexType) (*complexType, error) {
	if memo, ok := a.reg.memo[t]; ok {
		return memo.(*complexType), nil
	}
	ct := &complexType{
		XSD:       t,
		Name:      namegen.TypeName(sanitizeIdent(t.Name.Local)),
		Anonymous: t.Anonymous,
	}
	a.reg.memo[t] = ct
	a.reg.addComplexType(ct, t.Anonymous)

	seen := make(map[xml.Name]bool)
	for _, attr := range t.Attributes {
		if seen[attr.Name] {
			continue
		}
		seen[attr.Name] = true
		var sv simpleValueType
		var err error
		switch at := attr.Type.(type) {
		case xsd.Builtin:
			info, ok := lookupBuiltin(at)
			if !ok {
				return nil, fmt.Errorf("complexType %s attribute %s: unsupported built-in %s", t.Name.Local, attr.Name.Local, at.Name().Local)
			}
			sv = simpleValueType{Kind: simpleBuiltin, GoType: info.GoType, Builtin: &info}
		case *xsd.SimpleType:
			sv, err = a.annotateSimpleType(at)
			if err != nil {
				return nil, fmt.Errorf("complexType %s attribute %s: %w", t.Name.Local, attr.Name.Local, err)
			}
		default:
			return nil, fmt.Errorf("complexType %s attribute %s: unexpected type %T", t.Name.Local, attr.Name.Local, attr.Type)
		}
		ct.Attrs = append(ct.Attrs, annotatedAttr{
			XSDName:  attr.Name,
			Field:    namegen.Checked(a.logger, namegen.Exported(sanitizeIdent(attr.Name.Local))),
			Value:    sv,
			Required: !attr.Optional,
			Default:  attr.Default,
		})
	}

	switch {
	case t.Content != nil:
		var children []annotatedElement
		if err := a.annotateGroup(t.Content, false, false, &children, make(map[xml.Name]int)); err != nil {
			return nil, fmt.Errorf("complexType %s: %w", t.Name.Local, err)
		}
		ct.Children = children
		switch t.Content.Kind {
		case xsd.AllModel:
			ct.Model = modelAll
		case xsd.SequenceModel, xsd.ChoiceModel:
			node := groupToDFANode(t.Content)
			d, err := dfa.Build(node)
			if err != nil {
				return nil, fmt.Errorf("complexType %s: %w", t.Name.Local, err)
			}
			ct.DFA = d
			ct.Model = modelDFA
		default:
			return nil, fmt.Errorf("complexType %s: unknown content model group kind %v", t.Name.Local, t.Content.Kind)
		}
	case t.Mixed:
		ct.Model = modelSimple
		switch b := t.Base.(type) {
		case xsd.Builtin:
			info, ok := lookupBuiltin(b)
			if !ok {
				return nil, fmt.Errorf("complexType %s: unsupported simple-content base %s", t.Name.Local, b.Name().Local)
			}
			sv := simpleValueType{Kind: simpleBuiltin, GoType: info.GoType, Builtin: &info}
			ct.Simple = &sv
		case *xsd.SimpleType:
			sv, err := a.annotateSimpleType(b)
			if err != nil {
				return nil, fmt.Errorf("complexType %s: %w", t.Name.Local, err)
			}
			ct.Simple = &sv
		default:
			return nil, fmt.Errorf("complexType %s: unexpected simple-content base %T", t.Name.Local, t.Base)
		}
	default:
		ct.Model = modelNone
	}

	return ct, nil
}

// groupToDFANode lowers an xsd.Group's nested compositor/occurs-bounds
// tree into the dfa.Node tree internal/dfa.Build consumes, per spec.md
// 4.D.
func groupToDFANode(g *xsd.Group) dfa.Node {
	items := make([]dfa.Node, 0, len(g.Particle))
	for _, p := range g.Particle {
		var n dfa.Node
		if p.Elem != nil {
			n = dfa.Elem{Symbol: p.Elem.Name.Local}
		} else if p.Group != nil {
			n = groupToDFANode(p.Group)
		} else {
			continue
		}
		if p.MinOccurs != 1 || p.MaxOccurs != 1 {
			n = dfa.Rep{Item: n, Min: p.MinOccurs, Max: p.MaxOccurs}
		}
		items = append(items, n)
	}
	if g.Kind == xsd.ChoiceModel {
		return dfa.Choice{Items: items}
	}
	return dfa.Seq{Items: items}
}

// sanitizeIdent strips namespace prefixes schema authors sometimes
// leave on local names and otherwise passes s through; namegen.Exported
// and namegen.TypeName handle the rest of the identifier mangling.
func sanitizeIdent(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}
