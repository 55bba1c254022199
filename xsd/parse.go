package xsd

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"uxsdc/internal/dependency"
	"uxsdc/xmltree"
)

func hasCycle(root *xmltree.Element, visited map[*xmltree.Element]struct{}) bool {
	if visited == nil {
		visited = make(map[*xmltree.Element]struct{})
	}
	visited[root] = struct{}{}
	for i := range root.Children {
		el := &root.Children[i]
		if _, ok := visited[el]; ok {
			return true
		}
		visited[el] = struct{}{}
		if hasCycle(el, visited) {
			return true
		}
	}
	delete(visited, root)
	return false
}

// A Ref contains the canonical namespace of a schema document, and
// possibly a URI to retrieve the document from. It is not required
// for XML Schema documents to provide the location of schema that
// they import; it is expected that all well-known schema namespaces
// are available to the consumer of a schema beforehand.
type Ref struct {
	Namespace, Location string
}

// Imports reads an XML document containing one or more <schema>
// elements and returns a list of canonical XML name spaces that
// the schema imports or includes, along with a URL for the schema,
// if provided.
func Imports(data []byte) ([]Ref, error) {
	var result []Ref

	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}

	for _, v := range root.Search(schemaNS, "import") {
		s := Ref{v.Attr("", "namespace"), v.Attr("", "schemaLocation")}
		result = append(result, s)
	}

	var schema []*xmltree.Element
	if (root.Name == xml.Name{schemaNS, "schema"}) {
		schema = []*xmltree.Element{root}
	} else {
		schema = root.Search(schemaNS, "schema")
	}

	for _, tree := range schema {
		ns := tree.Attr("", "targetNamespace")
		for _, v := range tree.Search(schemaNS, "include") {
			s := Ref{ns, v.Attr("", "schemaLocation")}
			result = append(result, s)
		}
	}

	return result, nil
}

// Normalize reads XML schema documents and returns xml trees for each
// schema with the following properties:
//
//   - various XSD shorthand, such as omitting <complexContent>, are
//     expanded into their canonical forms.
//   - all <element ref=.../>, <attribute ref=.../> and <group ref=.../>
//     links are dereferenced by merging in the linked element.
//   - all types have names. For anonymous types, unique (per
//     namespace) names of the form "_anon_HASH" are generated.
//
// Because one document may contain more than one schema, the number
// of trees returned by Normalize may not equal the number of
// arguments.
func Normalize(docs ...[]byte) ([]*xmltree.Element, error) {
	result := make([]*xmltree.Element, 0, len(docs))

	for _, data := range docs {
		root, err := xmltree.Parse(data)
		if err != nil {
			return nil, err
		}
		if (root.Name == xml.Name{schemaNS, "schema"}) {
			result = append(result, root)
		} else {
			result = append(result, root.Search(schemaNS, "schema")...)
		}
	}

	// Copy element names to anonymous types in order to preserve context within
	// generated type names. This is done in two passes in order to preserve
	// as much naming context as possible. Potential collisions are avoided by
	// appending a suffix to names that would otherwise collide. Suffixes are
	// based on hashes of the type being renamed in order to decouple generated
	// type names from the ordering in which the xsd documents were passed as
	// arguments.
	namedTypesByNS := map[string]map[xml.Name]string{}
	namesToBeCopiedByNS := map[string]map[xml.Name][]string{}
	for _, root := range result {
		if err := prepCopyEltNamesToAnonTypes(
			root,
			namedTypesByNS,
			namesToBeCopiedByNS,
		); err != nil {
			return nil, err
		}
	}
	for _, root := range result {
		copyEltNamesToAnonTypes(
			root,
			namedTypesByNS,
			namesToBeCopiedByNS,
		)
	}

	// Give all remaining anonymous types a name based on hashes of the
	// type, decoupling the generated name from document ordering.
	anonTypeHashes := make(map[string]xml.Name)
	for _, root := range result {
		prepNameAnonymousTypes(root, anonTypeHashes)
	}
	for _, root := range result {
		if err := nameAnonymousTypes(root, anonTypeHashes); err != nil {
			return nil, err
		}
	}

	for _, root := range result {
		expandComplexShorthand(root)
	}
	if err := flattenRef(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Parse reads XML documents containing one or more <schema> elements.
// The returned slice has one Schema for every <schema> element in the
// documents. Parse will not fetch schema used in <import> or <include>
// statements; use the Imports function to find any additional schema
// documents required for a schema.
func Parse(docs ...[]byte) ([]Schema, error) {
	var (
		result = make([]Schema, 0, len(docs))
		parsed = make(map[string]Schema, len(docs))
		types  = make(map[xml.Name]Type)
	)

	schema, err := Normalize(docs...)
	if err != nil {
		return nil, err
	}

	for _, root := range schema {
		tns := root.Attr("", "targetNamespace")
		s := Schema{TargetNS: tns, Types: make(map[xml.Name]Type), Elements: make(map[xml.Name]Element)}
		sHash := hash(root)

		if err := s.parse(root); err != nil {
			return nil, err
		}
		parsed[sHash] = s
	}

	for _, s := range parsed {
		for _, t := range s.Types {
			// This should never happen, as type names should be
			// unique per namespace. But better to know than to
			// silently overwrite a duplicate XMLName.
			if _, exists := types[XMLName(t)]; exists {
				return nil, fmt.Errorf("type collision: name %s, namespace %s",
					XMLName(t), s.TargetNS)
			}
			types[XMLName(t)] = t
		}
	}

	for _, root := range schema {
		s := parsed[hash(root)]
		if err := s.resolvePartialTypes(types); err != nil {
			return nil, err
		}
		s.propagateMixedAttr()
		result = append(result, s)
	}
	return result, nil
}

func parseType(name xml.Name) Type {
	builtin, err := ParseBuiltin(name)
	if err != nil {
		return linkedType(name)
	}
	return builtin
}

func anonTypeName(hash, ns string) xml.Name {
	return xml.Name{ns, fmt.Sprintf("_anon_%s", suffixFromHash(hash))}
}

/*
	Convert:
	<element name="foo">
	  <complexType>
	  ...
	  </complexType>
	</element>

	to:
	<element name="foo" type="foo">
	  <complexType name="foo">
	  ...
	  </complexType>
	</element>
*/
func prepCopyEltNamesToAnonTypes(
	root *xmltree.Element,
	namedTypesByNS map[string]map[xml.Name]string,
	namesToCopiedByNS map[string]map[xml.Name][]string,
) error {
	var nTypes map[xml.Name]string
	var nTypesToCopy map[xml.Name][]string
	tns := root.Attr("", "targetNamespace")

	if _, nsEncountered := namedTypesByNS[tns]; !nsEncountered {
		nTypes = map[xml.Name]string{}
		namedTypesByNS[tns] = nTypes

		nTypesToCopy = map[xml.Name][]string{}
		namesToCopiedByNS[tns] = nTypesToCopy
	} else {
		nTypes = namedTypesByNS[tns]
		nTypesToCopy = namesToCopiedByNS[tns]
	}

	namedTypes := and(isType, hasAttr("", "name"))
	for _, el := range root.SearchFunc(namedTypes) {
		xmlName := el.ResolveDefault(el.Attr("", "name"), tns)

		if _, prevUsed := nTypes[xmlName]; !prevUsed {
			nTypes[xmlName] = hash(el)
		} else {
			return fmt.Errorf("type collision: name %s, namespace %s", xmlName, tns)
		}
	}

	eltWithAnonType := and(
		or(isElem(schemaNS, "element"), isElem(schemaNS, "attribute")),
		hasAttr("", "name"),
		hasAnonymousType)

	for _, el := range root.SearchFunc(eltWithAnonType) {
		xmlname := el.ResolveDefault(el.Attr("", "name"), tns)
		ntHash, explicitlyNamed := nTypes[xmlname]
		for _, t := range el.Children {
			if !isAnonymousType(&t) {
				continue
			}
			t.SetAttr("", "name", el.Attr("", "name"))
			tHash := hash(t)

			if explicitlyNamed {
				if ntHash != tHash {
					nTypesToCopy[xmlname] = append(nTypesToCopy[xmlname], tHash)
				}
			} else {
				nTypesToCopy[xmlname] = append(nTypesToCopy[xmlname], tHash)
			}
			break
		}
	}

	return nil
}

func copyEltNamesToAnonTypes(
	root *xmltree.Element,
	namedTypesByNS map[string]map[xml.Name]string,
	namesToCopiedByNS map[string]map[xml.Name][]string,
) {
	tns := root.Attr("", "targetNamespace")
	nTypes := namedTypesByNS[tns]
	nTypesToCopy := namesToCopiedByNS[tns]

	getSuffix := func(xmlName xml.Name, typeHash string) (isNamedType bool, suffix string) {
		ntHash, isNamedType := nTypes[xmlName]
		if isNamedType {
			if typeHash == ntHash {
				suffix = ""
				return
			}
		} else {
			if numUnique(nTypesToCopy[xmlName]) == 1 {
				suffix = ""
				return
			}
		}
		isNamedType = false
		suffix = suffixFromHash(typeHash)
		return
	}

	eltWithAnonType := and(
		or(isElem(schemaNS, "element"), isElem(schemaNS, "attribute")),
		hasAttr("", "name"),
		hasAnonymousType)

	for _, el := range root.SearchFunc(eltWithAnonType) {
		xmlname := el.ResolveDefault(el.Attr("", "name"), tns)

		for i, t := range el.Children {
			if !isAnonymousType(&t) {
				continue
			}
			t.SetAttr("", "name", el.Attr("", "name"))
			tHash := hash(t)
			isNamedType, suffix := getSuffix(xmlname, tHash)

			if isNamedType {
				el.SetAttr("", "type", el.Prefix(xmlname))
				el.Children = append(el.Children[:i], el.Children[i+1:]...)
				el.Content = nil
			} else {
				t.SetAttr("", "name", fmt.Sprintf("%s%s", el.Attr("", "name"), suffix))
				el.SetAttr("", "type", fmt.Sprintf("%s%s", el.Prefix(xmlname), suffix))
				el.Children = append(el.Children[:i], el.Children[i+1:]...)
				el.Content = nil
				root.Children = append(root.Children, t)
			}
			break
		}
	}
}

func prepNameAnonymousTypes(root *xmltree.Element, anonTypeHashes map[string]xml.Name) {
	for _, el := range root.SearchFunc(hasAnonymousType) {
		if el.Name.Space != schemaNS {
			continue
		}
		for i := 0; i < len(el.Children); i++ {
			t := el.Children[i]
			if !isAnonymousType(&t) {
				continue
			}
			anonTypeHashes[hash(t)] = xml.Name{}
		}
	}
}

func nameAnonymousTypes(root *xmltree.Element, anonTypeHashes map[string]xml.Name) error {
	var (
		updateAttr string
		accum      bool
	)
	tns := root.Attr("", "targetNamespace")

	for _, el := range root.SearchFunc(hasAnonymousType) {
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "element", "attribute":
			updateAttr = "type"
			accum = false
		case "list":
			updateAttr = "itemType"
			accum = false
		case "restriction":
			updateAttr = "base"
			accum = false
		case "union":
			updateAttr = "memberTypes"
			accum = true
		default:
			return fmt.Errorf("did not expect <%s> to have an anonymous type", el.Prefix(el.Name))
		}
		for i := 0; i < len(el.Children); i++ {
			t := el.Children[i]
			if !isAnonymousType(&t) {
				continue
			}

			var prevUsed bool
			tHash := hash(t)

			name := anonTypeHashes[tHash]
			if zeroVal := (xml.Name{}); name == zeroVal {
				name = anonTypeName(tHash, tns)
				anonTypeHashes[tHash] = name
				prevUsed = false
			} else {
				prevUsed = true
			}

			qname := el.Prefix(name)

			t.SetAttr("", "name", name.Local)
			t.SetAttr("", "_isAnonymous", "true")
			if accum {
				qname = el.Attr("", updateAttr) + " " + qname
			}
			el.SetAttr("", updateAttr, qname)
			el.Children = append(el.Children[:i], el.Children[i+1:]...)
			el.Content = nil

			if !prevUsed {
				root.Children = append(root.Children, t)
			}
			if !accum {
				break
			}
		}
	}

	return nil
}

// schemaIndex assigns every element in a set of schema documents a
// stable integer ID, so that a dependency graph of ref= links can be
// built and flattened in dependency order.
type elementKey struct {
	Name, Type xml.Name
}

type schemaIndex struct {
	eltByID  map[int]*xmltree.Element
	idByName map[elementKey]int
}

func (idx *schemaIndex) ByName(name, typ xml.Name) (*xmltree.Element, bool) {
	if id, ok := idx.idByName[elementKey{name, typ}]; ok {
		if el, ok := idx.eltByID[id]; ok {
			return el, true
		}
		panic("bug building schema index; name map does not match ID map")
	}
	return nil, false
}

func (idx *schemaIndex) ElementID(name, typ xml.Name) (int, bool) {
	id, ok := idx.idByName[elementKey{name, typ}]
	return id, ok
}

func indexSchema(schema []*xmltree.Element) *schemaIndex {
	counter := 0
	index := &schemaIndex{
		eltByID:  make(map[int]*xmltree.Element),
		idByName: make(map[elementKey]int),
	}
	for _, root := range schema {
		targetNS := root.Attr("", "targetNamespace")
		for _, el := range root.Flatten() {
			index.eltByID[counter] = el
			if name := el.Attr("", "name"); name != "" {
				xmlname := el.ResolveDefault(name, targetNS)
				index.idByName[elementKey{xmlname, el.Name}] = counter
			}
			counter++
		}
	}
	return index
}

/*
Dereference all ref= links within a document.

  <attribute name="id" type="xsd:ID" />
  <complexType name="MyType">
    <attribute ref="tns:id" />
  </complexType>

becomes

  <complexType name="MyType">
    <attribute name="id" type="xsd:ID" />
  </complexType>

Unlike the flattened variant of this package, group refs are *not*
spliced into their parent's child list afterwards: a <group ref="g"/>
dereferences to a <group> element whose own children are the group's
compositor (<sequence>, <choice> or <all>), and parseGroup recurses
through that wrapper directly, preserving the nesting.
*/
func flattenRef(schema []*xmltree.Element) error {
	var (
		depends = new(dependency.Graph)
		index   = indexSchema(schema)
	)
	for id, el := range index.eltByID {
		if el.Attr("", "ref") == "" {
			continue
		}
		name := el.Resolve(el.Attr("", "ref"))
		if dep, ok := index.ElementID(name, el.Name); !ok {
			return fmt.Errorf("could not find ref %s in %s", el.Attr("", "ref"), el)
		} else {
			depends.Add(strconv.Itoa(id), strconv.Itoa(dep))
		}
	}
	depends.Flatten(func(key string) {
		id, err := strconv.Atoi(key)
		if err != nil {
			panic("bug building dep tree; non-numeric key " + key)
		}
		el := index.eltByID[id]
		if el.Attr("", "ref") == "" {
			return
		}
		ref := el.Resolve(el.Attr("", "ref"))
		real, ok := index.ByName(ref, el.Name)
		if !ok {
			panic("bug building dep tree; missing " + el.Attr("", "ref"))
		}
		*el = *deref(el, real)
	})
	for i, doc := range schema {
		if hasCycle(doc, nil) {
			return fmt.Errorf("cycle detected after flattening references in schema %d:\n%s",
				i, xmltree.MarshalIndent(doc, "", "  "))
		}
	}
	return nil
}

// Flatten a reference to an XML element, returning the full XML object.
func deref(ref, real *xmltree.Element) *xmltree.Element {
	el := new(xmltree.Element)
	el.Scope = ref.Scope
	el.Name = real.Name
	el.StartElement.Attr = append([]xml.Attr{}, real.StartElement.Attr...)
	el.Content = append([]byte{}, real.Content...)
	el.Children = append([]xmltree.Element{}, real.Children...)

	hasQName := map[xml.Name]bool{{"", "type"}: true}
	for i, attr := range el.StartElement.Attr {
		if hasQName[attr.Name] {
			xmlname := real.Resolve(attr.Value)
			attr.Value = ref.Prefix(xmlname)
			el.StartElement.Attr[i] = attr
		}
	}
	if len(el.Children) > 0 {
		el.Scope = *real.JoinScope(&ref.Scope)
	}

	for _, attr := range ref.StartElement.Attr {
		if (attr.Name != xml.Name{"", "ref"}) {
			el.SetAttr(attr.Name.Space, attr.Name.Local, attr.Value)
		}
	}

	return el
}

// a complex type defined without any simpleContent or complexContent
// is interpreted as shorthand for complex content that restricts
// anyType.
func expandComplexShorthand(root *xmltree.Element) {
	isComplexType := isElem(schemaNS, "complexType")

Loop:
	for _, el := range root.SearchFunc(isComplexType) {
		newChildren := make([]xmltree.Element, 0, len(el.Children))
		restrict := xmltree.Element{
			Scope:    el.Scope,
			Children: make([]xmltree.Element, 0, len(el.Children)),
		}

		for _, child := range el.Children {
			if child.Name.Space != schemaNS {
				newChildren = append(newChildren, child)
				continue
			}
			switch child.Name.Local {
			case "annotation":
				newChildren = append(newChildren, child)
				continue
			case "simpleContent", "complexContent":
				continue Loop
			}
			restrict.Children = append(restrict.Children, child)
		}
		restrict.Name.Space = schemaNS
		restrict.Name.Local = "restriction"
		restrict.SetAttr("", "base", restrict.Prefix(AnyType.Name()))

		content := xmltree.Element{
			Scope:    el.Scope,
			Children: []xmltree.Element{restrict},
		}
		content.Name.Space = schemaNS
		content.Name.Local = "complexContent"

		el.Content = nil
		el.Children = append(newChildren, content)
	}
}

// Propagate the "mixed" attribute of a type appropriately to all types
// derived from it. For the propagation rules, see
// https://www.w3.org/TR/xmlschema-1/#coss-ct, translated into plain
// English:
//
//   - When extending a complex type, the derived type *must* be mixed
//     iff the base type is mixed.
//   - When restricting a complex type, the derived type *may* be mixed
//     iff the base type is mixed.
//   - The builtin "xs:anyType" is mixed.
//
// This package extends the concept of Mixed to complex types with
// simpleContent, since Mixed is also used there as the signal that
// generated code should keep the character data alongside the
// attributes.
func (s *Schema) propagateMixedAttr() {
	for _, t := range s.Types {
		propagateMixedAttr(t, Base(t), 0)
	}
}

func propagateMixedAttr(t, b Type, depth int) {
	const maxDepth = 1000
	if b == nil || depth > maxDepth {
		return
	}
	propagateMixedAttr(b, Base(b), depth+1)

	c, ok := t.(*ComplexType)
	if !ok || c.Mixed {
		return
	}
	switch b := b.(type) {
	case Builtin:
		if b == AnyType {
			c.Mixed = c.Mixed || c.Extends
		}
	case *ComplexType:
		if c.Extends {
			c.Mixed = b.Mixed
		}
	case *SimpleType:
		c.Mixed = true
	default:
		panic(fmt.Sprintf("unexpected %T", b))
	}
}

func (s *Schema) parse(root *xmltree.Element) error {
	return s.parseTypes(root)
}

func (s *Schema) parseTypes(root *xmltree.Element) (err error) {
	defer catchParseError(&err)
	tns := root.Attr("", "targetNamespace")

	for _, el := range root.Search(schemaNS, "complexType") {
		t := s.parseComplexType(el)
		s.Types[t.Name] = t
	}
	for _, el := range root.Search(schemaNS, "simpleType") {
		t := s.parseSimpleType(el)
		s.Types[t.Name] = t
	}
	for i := range root.Children {
		el := &root.Children[i]
		if (el.Name != xml.Name{schemaNS, "element"}) {
			continue
		}
		e := parseElement(tns, el)
		s.Elements[e.Name] = e
	}

	return err
}

// http://www.w3.org/TR/2004/REC-xmlschema-1-20041028/structures.html#element-complexType
func (s *Schema) parseComplexType(root *xmltree.Element) *ComplexType {
	var t ComplexType
	var doc annotation
	t.Name = root.ResolveDefault(root.Attr("", "name"), s.TargetNS)
	t.Abstract = parseBool(root.Attr("", "abstract"))
	t.Mixed = parseBool(root.Attr("", "mixed"))

	// We set this special attribute in a pre-processing step.
	t.Anonymous = (root.Attr("", "_isAnonymous") == "true")

	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "annotation":
			doc = doc.append(parseAnnotation(el))
		case "simpleContent":
			t.parseSimpleContent(s.TargetNS, el)
		case "complexContent":
			t.parseComplexContent(s.TargetNS, el)
		default:
			stop("unexpected element " + el.Name.Local)
		}
	})
	t.Doc += string(doc)
	return &t
}

// simpleContent indicates that the content model of the new type
// contains only character data and no elements.
func (t *ComplexType) parseSimpleContent(ns string, root *xmltree.Element) {
	var doc annotation

	t.Mixed = true
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "annotation":
			doc = doc.append(parseAnnotation(el))
		case "restriction":
			t.Base = parseType(el.Resolve(el.Attr("", "base")))
		case "extension":
			t.Base = parseType(el.Resolve(el.Attr("", "base")))
			t.Extends = true
			for _, v := range el.Search(schemaNS, "attribute") {
				t.Attributes = append(t.Attributes, parseAttribute(ns, v))
			}
		}
	})
	t.Doc += string(doc)
}

// The complexContent element signals that we intend to restrict or
// extend the content model of a complex type. Unlike a flattened
// representation, the compositor found here (<sequence>, <choice> or
// <all>) is kept as a Group tree rather than being reduced to a plain
// list of elements.
func (t *ComplexType) parseComplexContent(ns string, root *xmltree.Element) {
	var doc annotation
	if mixed := root.Attr("", "mixed"); mixed != "" {
		t.Mixed = parseBool(mixed)
	}
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "extension":
			t.Extends = true
			fallthrough
		case "restriction":
			t.Base = parseType(el.Resolve(el.Attr("", "base")))
			if c := findCompositor(el); c != nil {
				t.Content = parseGroup(ns, c)
			}
			for _, v := range el.Search(schemaNS, "attribute") {
				t.Attributes = append(t.Attributes, parseAttribute(ns, v))
			}
		case "annotation":
			doc = doc.append(parseAnnotation(el))
		default:
			stop("unexpected element " + el.Name.Local)
		}
	})
	t.Doc += string(doc)
}

// findCompositor returns the first <sequence>, <choice>, <all> or
// (post-deref) <group> child of an <extension> or <restriction>
// element, or nil if the type has no element content.
func findCompositor(el *xmltree.Element) *xmltree.Element {
	for i := range el.Children {
		c := &el.Children[i]
		if c.Name.Space != schemaNS {
			continue
		}
		switch c.Name.Local {
		case "sequence", "choice", "all", "group":
			return c
		}
	}
	return nil
}

// parseGroup turns a <sequence>, <choice>, <all> or <group> element
// into a Group tree, recursing through nested compositors and through
// the single compositor child left behind by a dereferenced group ref.
func parseGroup(ns string, el *xmltree.Element) *Group {
	if el.Name.Local == "group" {
		if c := findCompositor(el); c != nil {
			return parseGroup(ns, c)
		}
		return &Group{Kind: SequenceModel}
	}

	var kind ModelKind
	switch el.Name.Local {
	case "sequence":
		kind = SequenceModel
	case "choice":
		kind = ChoiceModel
	case "all":
		kind = AllModel
	default:
		stop("unexpected group element " + el.Name.Local)
	}

	g := &Group{Kind: kind}
	for i := range el.Children {
		c := &el.Children[i]
		if c.Name.Space != schemaNS {
			continue
		}
		bounds := Particle{MinOccurs: occursMin(c), MaxOccurs: occursMax(c)}
		switch c.Name.Local {
		case "annotation":
			continue
		case "element":
			e := parseElement(ns, c)
			bounds.Elem = &e
		case "any":
			e := parseAnyElement(ns, c)
			bounds.Elem = &e
		case "sequence", "choice", "all", "group":
			bounds.Group = parseGroup(ns, c)
		default:
			stop("unexpected particle " + c.Name.Local)
		}
		g.Particle = append(g.Particle, bounds)
	}
	return g
}

func occursMin(el *xmltree.Element) int {
	if x := el.Attr("", "minOccurs"); x != "" {
		return parseInt(x)
	}
	return 1
}

func occursMax(el *xmltree.Element) int {
	if x := el.Attr("", "maxOccurs"); x != "" {
		return parseInt(x)
	}
	return 1
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "unbounded":
		return Unbounded
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		stop(err.Error())
	}
	return n
}

// https://www.w3.org/TR/xmlschema-2/#decimal
func parseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		stop(err.Error())
	}
	return n
}

func parseBool(s string) bool {
	switch s {
	case "", "0", "false":
		return false
	case "1", "true":
		return true
	}
	stop("invalid boolean value " + s)
	return false
}

func parseAnyElement(ns string, el *xmltree.Element) Element {
	var base Type = AnyType
	if typeattr := el.Attr("", "type"); typeattr != "" {
		base = parseType(el.Resolve(typeattr))
	}
	return Element{
		Type:     base,
		Wildcard: true,
	}
}

func parseElement(ns string, el *xmltree.Element) Element {
	var doc annotation
	e := Element{
		Name:     el.ResolveDefault(el.Attr("", "name"), ns),
		Type:     parseType(el.Resolve(el.Attr("", "type"))),
		Default:  el.Attr("", "default"),
		Abstract: parseBool(el.Attr("", "abstract")),
		Nillable: parseBool(el.Attr("", "nillable")),
		Scope:    el.Scope,
	}
	if el.Attr("", "type") == "" {
		e.Type = AnyType
	}
	walk(el, func(el *xmltree.Element) {
		if el.Name.Local == "annotation" {
			doc = doc.append(parseAnnotation(el))
		}
	})
	if t, ok := e.Type.(linkedType); ok {
		e.Name.Space = t.Space
	}
	e.Doc = string(doc)
	e.Attr = el.StartElement.Attr
	return e
}

func parseAttribute(ns string, el *xmltree.Element) Attribute {
	var a Attribute
	var doc annotation
	// Non-QName xml attributes explicitly do *not* have a namespace.
	if name := el.Attr("", "name"); strings.Contains(name, ":") {
		a.Name = el.Resolve(name)
	} else {
		a.Name.Local = name
	}
	a.Name.Space = ns
	a.Type = parseType(el.Resolve(el.Attr("", "type")))
	a.Default = el.Attr("", "default")
	a.Scope = el.Scope
	a.Optional = el.Attr("", "use") != "required"

	walk(el, func(el *xmltree.Element) {
		if el.Name.Local == "annotation" {
			doc = doc.append(parseAnnotation(el))
		}
	})
	a.Doc = string(doc)
	a.Attr = el.StartElement.Attr
	return a
}

func (s *Schema) parseSimpleType(root *xmltree.Element) *SimpleType {
	var t SimpleType
	var doc annotation

	t.Name = root.ResolveDefault(root.Attr("", "name"), s.TargetNS)
	t.Anonymous = (root.Attr("", "_isAnonymous") == "true")
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "restriction":
			t.Base = parseType(el.Resolve(el.Attr("", "base")))
			t.Restriction = parseSimpleRestriction(el)
		case "list":
			t.Base = parseType(el.Resolve(el.Attr("", "itemType")))
			t.List = true
		case "union":
			for _, name := range strings.Fields(el.Attr("", "memberTypes")) {
				t.Union = append(t.Union, parseType(el.Resolve(name)))
				t.Base = AnySimpleType
			}
		case "annotation":
			doc = doc.append(parseAnnotation(el))
		}
	})
	t.Doc = string(doc)
	return &t
}

func parseAnnotation(el *xmltree.Element) (doc annotation) {
	if err := el.Unmarshal(&doc); err != nil {
		stop(err.Error())
	}
	return doc
}

func parseSimpleRestriction(root *xmltree.Element) Restriction {
	var r Restriction
	var doc annotation
	// Most of the restrictions on a simpleType are suited for
	// validating input. This package is not a validator; we assume
	// that a document conforms to its schema, and that restriction
	// metadata exists only to pick the right Go representation and
	// to surface useful documentation.
	walk(root, func(el *xmltree.Element) {
		switch el.Name.Local {
		case "enumeration":
			r.Enum = append(r.Enum, el.Attr("", "value"))
		case "minExclusive", "minInclusive":
			r.Min = parseDecimal(el.Attr("", "value"))
		case "maxExclusive", "maxInclusive":
			r.Max = parseDecimal(el.Attr("", "value"))
		case "length":
			r.MaxLength = parseInt(el.Attr("", "value"))
		case "minLength":
			r.MinLength = parseInt(el.Attr("", "value"))
		case "pattern":
			pat := el.Attr("", "value")
			if r.Pattern != nil {
				pat = r.Pattern.String() + "|" + pat
			}
			reg, err := parsePattern(pat)
			if err != nil {
				msg := fmt.Sprintf("This type must conform to the pattern %q, but the pattern could not be compiled (%v)", pat, err)
				doc = doc.append(annotation(msg))
			}
			r.Pattern = reg
		case "whiteSpace":
			// facet recorded for validators; not needed for codegen
		case "fractionDigits":
			r.Precision = parseInt(el.Attr("", "value"))
			if r.Precision < 0 {
				stop("invalid fractionDigits value " + el.Attr("", "value"))
			}
		case "annotation":
			doc = doc.append(parseAnnotation(el))
		}
	})
	r.Doc = string(doc)
	return r
}

// XML Schema defines its own flavor of regular expressions; for now
// they are close enough to RE2 that we try to compile them as-is.
//
// http://www.w3.org/TR/xmlschema-0/#regexAppendix
func parsePattern(pat string) (*regexp.Regexp, error) {
	return regexp.Compile(pat)
}

// Resolve all linkedTypes in a schema, so that all types are based on
// a SimpleType, ComplexType, or a Builtin. Also resolve the types of
// all Attributes, Elements and top-level Elements.
func (s *Schema) resolvePartialTypes(types map[xml.Name]Type) error {
	for name, t := range s.Types {
		switch t := t.(type) {
		case Builtin:
			continue
		case *ComplexType:
			if t.Base != nil {
				if ref, ok := t.Base.(linkedType); ok {
					base, ok := s.lookupType(ref, types)
					if !ok {
						return fmt.Errorf("complexType %s: could not find base type %s in namespace %s",
							name.Local, ref.Local, ref.Space)
					}
					t.Base = base
				}
			}
			if t.Content != nil {
				if err := resolveGroupTypes(t.Content, s, types, name.Local); err != nil {
					return err
				}
			}
			for i, a := range t.Attributes {
				ref, ok := a.Type.(linkedType)
				if !ok {
					continue
				}
				base, ok := s.lookupType(ref, types)
				if !ok {
					return fmt.Errorf("complexType %s: could not find type %s in namespace %s for attribute %s",
						name.Local, ref.Local, ref.Space, a.Name.Local)
				}
				a.Type = base
				t.Attributes[i] = a
			}
		case *SimpleType:
			if t.Base != nil {
				if ref, ok := t.Base.(linkedType); ok {
					base, ok := s.lookupType(ref, types)
					if !ok {
						return fmt.Errorf("simpleType %s: could not find base type %s in namespace %s",
							name.Local, ref.Local, ref.Space)
					}
					t.Base = base
				}
			}
			for i, u := range t.Union {
				ref, ok := u.(linkedType)
				if !ok {
					continue
				}
				real, ok := s.lookupType(ref, types)
				if !ok {
					return fmt.Errorf("simpleType %s: could not find union memberType %s in namespace %s",
						name.Local, ref.Local, ref.Space)
				}
				t.Union[i] = real
			}
		default:
			panic(fmt.Sprintf("unexpected %s (%T) in Schema.Types map", name.Local, t))
		}
	}
	for name, e := range s.Elements {
		ref, ok := e.Type.(linkedType)
		if !ok {
			continue
		}
		base, ok := s.lookupType(ref, types)
		if !ok {
			return fmt.Errorf("top-level element %s: could not find type %s in namespace %s",
				name.Local, ref.Local, ref.Space)
		}
		e.Type = base
		s.Elements[name] = e
	}
	return nil
}

func resolveGroupTypes(g *Group, s *Schema, types map[xml.Name]Type, owner string) error {
	for i := range g.Particle {
		p := &g.Particle[i]
		if p.Elem != nil {
			if ref, ok := p.Elem.Type.(linkedType); ok {
				base, ok := s.lookupType(ref, types)
				if !ok {
					return fmt.Errorf("complexType %s: could not find type %s in namespace %s for element %s",
						owner, ref.Local, ref.Space, p.Elem.Name.Local)
				}
				p.Elem.Type = base
			}
		}
		if p.Group != nil {
			if err := resolveGroupTypes(p.Group, s, types, owner); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schema) lookupType(name linkedType, ext map[xml.Name]Type) (Type, bool) {
	if b, err := ParseBuiltin(xml.Name(name)); err == nil {
		return b, true
	}
	if v, ok := ext[xml.Name(name)]; ok {
		return v, true
	}
	v, ok := s.Types[xml.Name(name)]
	return v, ok
}

// numUnique returns the number of unique strings in a slice.
func numUnique(stringSlice []string) int {
	u := make(map[string]bool)
	for _, s := range stringSlice {
		u[s] = true
	}
	return len(u)
}

func suffixFromHash(hash string) string {
	const suffixLength = 6
	return strings.ToUpper(hash[:suffixLength])
}

// hash returns the hex encoded sha256 hash of the serialized argument.
func hash(i interface{}) string {
	var sum [sha256.Size]byte

	switch t := i.(type) {
	case xmltree.Element:
		sum = sha256.Sum256([]byte(fmt.Sprintf("%+v", t)))
	case *xmltree.Element:
		sum = sha256.Sum256([]byte(fmt.Sprintf("%+v", *t)))
	case *Schema:
		sum = sha256.Sum256([]byte(fmt.Sprintf("%+v", *t)))
	default:
		panic("xsd: unable to hash unknown element")
	}

	return hex.EncodeToString(sum[:sha256.Size])
}
