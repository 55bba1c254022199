package xsdgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uxsdc/internal/testutil"
	"uxsdc/xsd"
)

// TestGenerate_Smoke confirms Generate produces compilable-looking Go
// source (package clause, Get/Write pair, no stray formatting errors)
// for a minimal one-root schema.
func TestGenerate_Smoke(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:element name="root" type="tns:root"/>
	<xs:complexType name="root">
	  <xs:sequence>
	    <xs:element name="item" type="xs:string" maxOccurs="unbounded"/>
	  </xs:sequence>
	  <xs:attribute name="id" type="xs:string" use="required"/>
	</xs:complexType>
	`)

	cfg := NewConfig(PackageName("widgets"))
	out, err := cfg.Generate(schema)
	require.NoError(t, err)

	src := string(out)
	assert.Contains(t, src, "package widgets")
	assert.Contains(t, src, "func GetTRoot(data []byte) (*TRoot, error)")
	assert.Contains(t, src, "func WriteTRoot(w io.Writer, v *TRoot) error")
}

// TestGenerate_NoRootElements confirms Generate rejects a schema with no
// top-level elements instead of silently emitting an empty file.
func TestGenerate_NoRootElements(t *testing.T) {
	schema := parseTestSchema(t, `
	<xs:complexType name="orphan">
	  <xs:sequence>
	    <xs:element name="x" type="xs:string"/>
	  </xs:sequence>
	</xs:complexType>
	`)

	cfg := NewConfig()
	_, err := cfg.Generate(schema)
	require.Error(t, err)
}

// TestResolveDependencies_FetchesImport confirms resolveDependencies
// follows an <xs:import> to its schemaLocation over HTTP and folds the
// fetched document into the returned slice.
func TestResolveDependencies_FetchesImport(t *testing.T) {
	imported := []byte(`<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/imported">
  <xs:element name="thing" type="xs:string"/>
</xs:schema>`)

	primary := []byte(`<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/main">
  <xs:import namespace="http://example.com/imported"
             schemaLocation="http://schemas.example.com/imported.xsd"/>
</xs:schema>`)

	cli := testutil.FakeClient("http://schemas.example.com/imported.xsd", imported)
	cfg := NewConfig(WithHTTPClient(&cli))

	docs, err := cfg.resolveDependencies(primary)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Contains(t, string(docs[1]), "imported")
}

// TestResolveDependencies_AlreadyHave confirms a namespace the caller's
// own documents already declare is not re-fetched.
func TestResolveDependencies_AlreadyHave(t *testing.T) {
	primary := []byte(`<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/main">
  <xs:import namespace="http://example.com/main"
             schemaLocation="http://schemas.example.com/self.xsd"/>
</xs:schema>`)

	cli := testutil.FakeClient("http://schemas.example.com/should-not-be-fetched.xsd", nil)
	cfg := NewConfig(WithHTTPClient(&cli))

	docs, err := cfg.resolveDependencies(primary)
	require.NoError(t, err)
	require.Len(t, docs, 1, "importing one's own target namespace must not trigger a fetch")
}

func TestDeclaredEncoding(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"none", `<root/>`, ""},
		{"utf8", `<?xml version="1.0" encoding="UTF-8"?><root/>`, "UTF-8"},
		{"latin1-single-quote", `<?xml version='1.0' encoding='ISO-8859-1'?><root/>`, "ISO-8859-1"},
		{"no-decl-encoding", `<?xml version="1.0"?><root/>`, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, declaredEncoding([]byte(c.doc)))
		})
	}
}

func TestNormalizeCharset_PassesThroughUTF8(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?><root/>`)
	out, err := normalizeCharset(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}

func TestNormalizeCharset_TranscodesDeclaredLabel(t *testing.T) {
	// ISO-8859-1 byte 0xE9 is "é"; re-encoded to UTF-8 it becomes the
	// two-byte sequence 0xC3 0xA9.
	doc := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><root name="`), 0xE9)
	doc = append(doc, []byte(`"/>`)...)

	out, err := normalizeCharset(doc)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte{0xC3, 0xA9}))
}

func TestLookupTargetNS(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/ns">
  <xs:element name="root" type="xs:string"/>
</xs:schema>`)
	got := lookupTargetNS(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "http://example.com/ns", got[0])
}

// TestSelectPrimary_NoMatch confirms an unmatched namespace filter
// reports an error rather than silently generating nothing.
func TestSelectPrimary_NoMatch(t *testing.T) {
	schema := parseTestSchema(t, `<xs:element name="root" type="xs:string"/>`)
	cfg := NewConfig(Namespaces("http://example.com/other"))
	_, err := cfg.SelectPrimary([]xsd.Schema{*schema})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no schema found"))
}
