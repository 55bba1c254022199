package xsd

import (
	"encoding/xml"
	"fmt"
	"testing"
)

const tmpl = `<schema targetNamespace="tns" ` +
	`xmlns="http://www.w3.org/2001/XMLSchema" xmlns:tns="tns">%s</schema>`

func parseFragment(t *testing.T, body string) Schema {
	t.Helper()
	doc := []byte(fmt.Sprintf(tmpl, body))
	schemas, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, s := range schemas {
		if s.TargetNS == "tns" {
			return s
		}
	}
	t.Fatal("target schema not found")
	return Schema{}
}

func TestParseSequenceContentModel(t *testing.T) {
	s := parseFragment(t, `
		<complexType name="Order">
			<sequence>
				<element name="id" type="int"/>
				<element name="item" type="string" maxOccurs="unbounded"/>
				<choice minOccurs="0">
					<element name="cash" type="boolean"/>
					<element name="card" type="string"/>
				</choice>
			</sequence>
		</complexType>`)

	typ, ok := s.Types[xml.Name{"tns", "Order"}]
	if !ok {
		t.Fatal("type Order not found")
	}
	ct := typ.(*ComplexType)
	if ct.Content == nil {
		t.Fatal("expected a content model")
	}
	if ct.Content.Kind != SequenceModel {
		t.Fatalf("Kind = %v, want SequenceModel", ct.Content.Kind)
	}
	if len(ct.Content.Particle) != 3 {
		t.Fatalf("len(Particle) = %d, want 3", len(ct.Content.Particle))
	}

	id := ct.Content.Particle[0]
	if id.Elem == nil || id.Elem.Name.Local != "id" {
		t.Fatalf("particle 0 = %+v, want element id", id)
	}
	if id.MinOccurs != 1 || id.MaxOccurs != 1 {
		t.Errorf("id occurs = %d..%d, want 1..1", id.MinOccurs, id.MaxOccurs)
	}

	item := ct.Content.Particle[1]
	if item.MaxOccurs != Unbounded {
		t.Errorf("item.MaxOccurs = %d, want Unbounded", item.MaxOccurs)
	}
	if !item.Plural() {
		t.Error("item should be Plural()")
	}

	choice := ct.Content.Particle[2]
	if choice.Group == nil || choice.Group.Kind != ChoiceModel {
		t.Fatalf("particle 2 = %+v, want nested choice group", choice)
	}
	if !choice.Optional() {
		t.Error("choice particle should be Optional()")
	}
	if len(choice.Group.Particle) != 2 {
		t.Fatalf("choice has %d particles, want 2", len(choice.Group.Particle))
	}
}

func TestParseSimpleTypeRestriction(t *testing.T) {
	s := parseFragment(t, `
		<simpleType name="Grade">
			<restriction base="string">
				<enumeration value="A"/>
				<enumeration value="B"/>
				<enumeration value="C"/>
			</restriction>
		</simpleType>`)

	typ, ok := s.Types[xml.Name{"tns", "Grade"}]
	if !ok {
		t.Fatal("type Grade not found")
	}
	st := typ.(*SimpleType)
	if len(st.Restriction.Enum) != 3 {
		t.Fatalf("enum = %v, want 3 values", st.Restriction.Enum)
	}
	if st.Base != String {
		t.Errorf("Base = %v, want String builtin", st.Base)
	}
}

func TestParseAttributeGroupRef(t *testing.T) {
	s := parseFragment(t, `
		<attributeGroup name="idAttrs">
			<attribute name="id" type="int" use="required"/>
		</attributeGroup>
		<complexType name="Widget">
			<sequence>
				<element name="name" type="string"/>
			</sequence>
			<attributeGroup ref="tns:idAttrs"/>
		</complexType>`)

	typ, ok := s.Types[xml.Name{"tns", "Widget"}]
	if !ok {
		t.Fatal("type Widget not found")
	}
	ct := typ.(*ComplexType)
	var found bool
	for _, a := range ct.Attributes {
		if a.Name.Local == "id" {
			found = true
		}
	}
	if !found {
		t.Errorf("attributes = %+v, want id inherited via attributeGroup ref", ct.Attributes)
	}
}

func TestComplexTypeElementsFlattensContent(t *testing.T) {
	s := parseFragment(t, `
		<complexType name="Pair">
			<choice>
				<element name="a" type="string"/>
				<element name="b" type="string"/>
			</choice>
		</complexType>`)

	typ := s.Types[xml.Name{"tns", "Pair"}].(*ComplexType)
	elems := typ.Elements()
	if len(elems) != 2 {
		t.Fatalf("Elements() = %v, want 2 elements", elems)
	}
}

func TestTopLevelElement(t *testing.T) {
	s := parseFragment(t, `
		<element name="root" type="string"/>`)

	e, ok := s.Elements[xml.Name{"tns", "root"}]
	if !ok {
		t.Fatal("top-level element root not found")
	}
	if e.Type != String {
		t.Errorf("Type = %v, want String builtin", e.Type)
	}
}
