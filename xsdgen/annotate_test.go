package xsdgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"uxsdc/xsd"
)

const testSchemaHeader = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:tns="http://example.com/ns"
           targetNamespace="http://example.com/ns">
`

func parseTestSchema(t *testing.T, body string) *xsd.Schema {
	t.Helper()
	doc := []byte(testSchemaHeader + body + "\n</xs:schema>")
	schemas, err := xsd.Parse(doc)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	return &schemas[0]
}

// TestAnnotate_HeightSort confirms allComplexTypes orders a type's
// complex-typed children strictly before the type itself (invariant 3:
// a topological, not merely stable, ordering).
func TestAnnotate_HeightSort(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="root" type="tns:root"/>
	<xs:complexType name="root">
	  <xs:sequence>
	    <xs:element name="item" type="tns:item" maxOccurs="unbounded"/>
	  </xs:sequence>
	</xs:complexType>
	<xs:complexType name="item">
	  <xs:sequence>
	    <xs:element name="name" type="xs:string"/>
	  </xs:sequence>
	</xs:complexType>
	`)

	reg, err := Annotate(schema, nil)
	require.NoError(t, err)

	all := reg.allComplexTypes()
	require.Len(t, all, 2)

	pos := make(map[string]int, len(all))
	for i, ct := range all {
		pos[ct.Name] = i
	}
	require.Less(t, pos["TItem"], pos["TRoot"], "item (leaf) must be emitted before root (which contains it)")
}

// TestAnnotate_ArenaIdentification confirms a Many-occurring complex
// child's type is added to the arena set, and a non-Many complex child
// is not.
func TestAnnotate_ArenaIdentification(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="root" type="tns:root"/>
	<xs:complexType name="root">
	  <xs:sequence>
	    <xs:element name="item" type="tns:item" maxOccurs="unbounded"/>
	    <xs:element name="header" type="tns:header"/>
	  </xs:sequence>
	</xs:complexType>
	<xs:complexType name="item">
	  <xs:sequence>
	    <xs:element name="name" type="xs:string"/>
	  </xs:sequence>
	</xs:complexType>
	<xs:complexType name="header">
	  <xs:sequence>
	    <xs:element name="id" type="xs:string"/>
	  </xs:sequence>
	</xs:complexType>
	`)

	reg, err := Annotate(schema, nil)
	require.NoError(t, err)

	arenas := reg.sortedArenaTypes()
	require.Len(t, arenas, 1)
	require.Equal(t, "TItem", arenas[0].Name)
}

// TestAnnotate_EnumZeroSentinel confirms an enumeration's member list
// always begins with the synthesized UXSD_INVALID sentinel at position
// zero, so a zero-valued Go enum variable reads as "no value" rather
// than aliasing the schema's first legitimate member.
func TestAnnotate_EnumZeroSentinel(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="root" type="tns:root"/>
	<xs:complexType name="root">
	  <xs:sequence>
	    <xs:element name="color" type="tns:color"/>
	  </xs:sequence>
	</xs:complexType>
	<xs:simpleType name="color">
	  <xs:restriction base="xs:string">
	    <xs:enumeration value="red"/>
	    <xs:enumeration value="blue"/>
	  </xs:restriction>
	</xs:simpleType>
	`)

	reg, err := Annotate(schema, nil)
	require.NoError(t, err)
	require.Len(t, reg.enums, 1)

	e := reg.enums[0]
	require.Equal(t, "UXSD_INVALID", e.Members[0])
	require.Equal(t, "", e.Values[0])
	require.Equal(t, []string{"UXSD_INVALID", "RED", "BLUE"}, e.Members)
}

// TestAnnotate_AttributeListStability confirms attributes are annotated
// in declaration order, since the attribute lexer's position-based
// dispatch and the emitted bitset mask both depend on that order being
// stable across repeated annotation of the same schema.
func TestAnnotate_AttributeListStability(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="root" type="tns:root"/>
	<xs:complexType name="root">
	  <xs:attribute name="id" type="xs:string" use="required"/>
	  <xs:attribute name="rev" type="xs:int" use="optional"/>
	  <xs:attribute name="kind" type="xs:string" use="optional"/>
	</xs:complexType>
	`)

	reg, err := Annotate(schema, nil)
	require.NoError(t, err)
	require.Len(t, reg.complexTypes, 1)

	attrs := reg.complexTypes[0].Attrs
	require.Len(t, attrs, 3)
	require.Equal(t, "id", attrs[0].XSDName.Local)
	require.Equal(t, "rev", attrs[1].XSDName.Local)
	require.Equal(t, "kind", attrs[2].XSDName.Local)
	require.True(t, attrs[0].Required)
	require.False(t, attrs[1].Required)
	require.False(t, attrs[2].Required)
}

// TestAnnotate_Idempotence confirms a recursive complexType (one whose
// content refers back to itself) terminates instead of looping forever,
// and that re-annotating the same *xsd.ComplexType pointer returns the
// identical *complexType rather than building a duplicate.
func TestAnnotate_Idempotence(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="root" type="tns:node"/>
	<xs:complexType name="node">
	  <xs:sequence>
	    <xs:element name="child" type="tns:node" minOccurs="0" maxOccurs="unbounded"/>
	  </xs:sequence>
	</xs:complexType>
	`)

	reg, err := Annotate(schema, nil)
	require.NoError(t, err)
	require.Len(t, reg.complexTypes, 1)

	ct := reg.complexTypes[0]
	require.Len(t, ct.Children, 1)
	require.Same(t, ct, ct.Children[0].Complex, "self-referential child must resolve to the same annotated node")
}

// TestAnnotate_RootElements confirms every top-level element becomes a
// document root, in name-sorted order (map iteration over
// xsd.Schema.Elements is otherwise nondeterministic).
func TestAnnotate_RootElements(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="zebra" type="xs:string"/>
	<xs:element name="apple" type="xs:string"/>
	`)

	reg, err := Annotate(schema, nil)
	require.NoError(t, err)
	require.Len(t, reg.roots, 2)
	require.Equal(t, "apple", reg.roots[0].XSDName.Local)
	require.Equal(t, "zebra", reg.roots[1].XSDName.Local)
}
