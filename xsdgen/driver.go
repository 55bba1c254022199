package xsdgen

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"go/ast"
	"io/ioutil"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/tools/imports"

	"uxsdc/internal/gen"
	"uxsdc/xmltree"
	"uxsdc/xsd"
)

// Generate implements spec.md 4.J: it sequences the annotator and the
// five emitters (struct, lexer, count, load, write) over schema, adds
// the per-root-element Get<T>/Write<T> functions, and assembles the result into
// formatted, goimported Go source. extra supplies any additional
// schemas the primary schema's cross-schema type references depend on,
// exactly as the ones LoadSchemas collects via resolveDependencies.
func (cfg *Config) Generate(schema *xsd.Schema, extra ...*xsd.Schema) ([]byte, error) {
	reg, err := Annotate(schema, cfg.logger, extra...)
	if err != nil {
		return nil, fmt.Errorf("annotate schema %q: %w", schema.TargetNS, err)
	}
	if len(reg.roots) == 0 {
		return nil, fmt.Errorf("schema %q declares no top-level elements", schema.TargetNS)
	}

	structDecls, err := cfg.emitStructs(reg)
	if err != nil {
		return nil, err
	}
	lexerDecls, err := cfg.emitLexers(reg)
	if err != nil {
		return nil, err
	}
	countDecls, err := cfg.emitCounts(reg)
	if err != nil {
		return nil, err
	}
	loadDecls, err := cfg.emitLoads(reg)
	if err != nil {
		return nil, err
	}
	writeDecls, err := cfg.emitWriters(reg)
	if err != nil {
		return nil, err
	}
	rootDecls, err := emitRoots(reg)
	if err != nil {
		return nil, err
	}

	file := gen.PackageDoc(&ast.File{Name: ast.NewIdent(cfg.pkgname)},
		"Code generated by uxsdc. DO NOT EDIT.")
	file.Decls = append(file.Decls, structDecls...)
	file.Decls = append(file.Decls, lexerDecls...)
	file.Decls = append(file.Decls, countDecls...)
	file.Decls = append(file.Decls, loadDecls...)
	file.Decls = append(file.Decls, writeDecls...)
	file.Decls = append(file.Decls, rootDecls...)

	src, err := gen.FormattedSource(file)
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	out, err := imports.Process("", src, nil)
	if err != nil {
		return nil, fmt.Errorf("goimports generated source: %w", err)
	}
	return out, nil
}

// emitRoots emits, per complex-typed document root element, a Get<T>
// constructor (count -> allocArenas -> load, spec.md section 5's
// lifecycle) and a Write<T> function. The arena slices stay
// package-level globals: callers hold the returned *T and the arena
// slices it points into for as long as they need it, with no explicit
// free (spec.md section 5's resource policy).
func emitRoots(reg *registry) ([]ast.Decl, error) {
	var out []ast.Decl
	for _, root := range reg.roots {
		if root.Complex == nil {
			// A root element of builtin or simple type carries no
			// load/write pair of its own; spec.md 4.J names no such
			// case, so it is skipped rather than guessed at.
			continue
		}
		d, err := emitGetRootElement(root)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		w, err := emitWriteRootElement(root)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func emitGetRootElement(root annotatedElement) (ast.Decl, error) {
	name := exportedFieldSuffix(root.Complex.Name)
	body := fmt.Sprintf(`root, err := xmltree.Parse(data)
if err != nil {
	return nil, err
}
if root.Name.Local != %q {
	return nil, uxsdrt.UnrecognizedError("root element", root.Name.Local, %q)
}
if err := count%s(root); err != nil {
	return nil, err
}
allocArenas()
out := new(%s)
if err := load%s(root, out); err != nil {
	return nil, err
}
return out, nil
`, root.XSDName.Local, root.XSDName.Local, root.Complex.Name, root.Complex.Name, root.Complex.Name)
	return gen.Func("Get"+name).
		Args("data []byte").
		Returns("*"+root.Complex.Name, "error").
		Body(body).Decl()
}

func emitWriteRootElement(root annotatedElement) (ast.Decl, error) {
	name := exportedFieldSuffix(root.Complex.Name)
	body := fmt.Sprintf("return write%s(w, %q, v)\n", root.Complex.Name, root.XSDName.Local)
	return gen.Func("Write"+name).
		Args("w io.Writer", "v *"+root.Complex.Name).
		Returns("error").
		Body(body).Decl()
}

// LoadSchemas reads and parses the XSD document at each path, resolving
// schema-import dependencies over HTTP the way the teacher's own
// resolveDependencies does for in-memory byte slices, and normalizing
// each document's declared character encoding to UTF-8 before handing
// it to xsd.Parse (xsd.Parse, like the xmltree.Parse primitive it is
// built on, assumes UTF-8 input).
func (cfg *Config) LoadSchemas(paths ...string) ([]xsd.Schema, error) {
	var docs [][]byte
	for _, p := range paths {
		b, err := ioutil.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		norm, err := normalizeCharset(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		cfg.logf("read %s (%d bytes)", p, len(norm))
		docs = append(docs, norm)
	}
	docs, err := cfg.resolveDependencies(docs...)
	if err != nil {
		return nil, err
	}
	if len(cfg.namespaces) == 0 {
		cfg.namespaces = lookupTargetNS(docs...)
		cfg.debugf("no namespaces configured, defaulting to %v", cfg.namespaces)
	}
	return xsd.Parse(docs...)
}

// SelectPrimary picks, from every schema LoadSchemas parsed, those
// whose target namespace matches cfg.namespaces: the schemas Generate
// should actually emit code for, as opposed to ones pulled in purely to
// resolve cross-schema type references (spec.md section 6's namespace
// selection, mirroring the teacher's own Generate primaries loop).
func (cfg *Config) SelectPrimary(schemas []xsd.Schema) ([]*xsd.Schema, error) {
	var primaries []*xsd.Schema
	for i := range schemas {
		for _, ns := range cfg.namespaces {
			if schemas[i].TargetNS == ns {
				primaries = append(primaries, &schemas[i])
				break
			}
		}
	}
	if len(primaries) == 0 {
		return nil, fmt.Errorf("no schema found for configured namespaces %v", cfg.namespaces)
	}
	return primaries, nil
}

// lookupTargetNS extracts the target namespace of every <xs:schema>
// root found in docs, used both to decide which parsed xsd.Schema is
// primary and to populate resolveDependencies' "already have" set.
func lookupTargetNS(docs ...[]byte) []string {
	var result []string
	for _, doc := range docs {
		tree, err := xmltree.Parse(doc)
		if err != nil {
			continue
		}
		outer := xmltree.Element{Children: []xmltree.Element{*tree}}
		for _, el := range outer.Search("http://www.w3.org/2001/XMLSchema", "schema") {
			if ns := el.Attr("", "targetNamespace"); ns != "" {
				result = append(result, ns)
			}
		}
	}
	return result
}

// resolveDependencies fetches, over cfg.httpClient, any schema a
// document in docs imports but does not itself define, recursively,
// mirroring the teacher's own HTTP-backed dependency walk in
// xsdgen.Config.resolveDependencies/resolveDependencies1.
func (cfg *Config) resolveDependencies(docs ...[]byte) ([][]byte, error) {
	var refs []xsd.Ref
	have := make(xsdSet)

	for _, b := range docs {
		r, err := xsd.Imports(b)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
		for _, tns := range lookupTargetNS(b) {
			have[tns] = true
		}
	}
	for _, ref := range refs {
		if have[ref.Namespace] {
			continue
		}
		d, err := cfg.resolveDependencies1(ref, have, 1)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}

type xsdSet map[string]bool

const maxImportDepth = 10

func (cfg *Config) resolveDependencies1(ref xsd.Ref, have xsdSet, depth int) ([][]byte, error) {
	var result [][]byte
	if have[ref.Namespace] {
		return nil, nil
	}
	if depth >= maxImportDepth {
		return nil, fmt.Errorf("maximum schema import depth of %d reached resolving %s", maxImportDepth, ref.Namespace)
	}
	if ref.Location == "" {
		return nil, fmt.Errorf("do not know where to find schema for namespace %s", ref.Namespace)
	}

	cfg.debugf("fetching schema for %s from %s", ref.Namespace, ref.Location)
	rsp, err := cfg.httpClient().Get(ref.Location)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	body, err := ioutil.ReadAll(rsp.Body)
	if err != nil {
		return nil, err
	}
	body, err = normalizeCharset(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.Location, err)
	}
	result = append(result, body)

	refs, err := xsd.Imports(body)
	if err != nil {
		return nil, err
	}
	for _, ns := range lookupTargetNS(body) {
		have[ns] = true
	}
	for _, r := range refs {
		if have[r.Namespace] {
			continue
		}
		d, err := cfg.resolveDependencies1(r, have, depth+1)
		if err != nil {
			return nil, err
		}
		result = append(result, d...)
	}
	return result, nil
}

func normalizeCharset(data []byte) ([]byte, error) {
	label := declaredEncoding(data)
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return data, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	return ioutil.ReadAll(r)
}

// declaredEncoding returns the encoding label from an XML document's
// declaration (<?xml version="1.0" encoding="..."?>), or "" if absent
// or unparseable; xsd schemas are not required to carry one, in which
// case UTF-8 is assumed per the XML specification's own default.
func declaredEncoding(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	tok, err := dec.RawToken()
	if err != nil {
		return ""
	}
	proc, ok := tok.(xml.ProcInst)
	if !ok || proc.Target != "xml" {
		return ""
	}
	s := string(proc.Inst)
	idx := strings.Index(s, "encoding=")
	if idx < 0 {
		return ""
	}
	s = s[idx+len("encoding="):]
	if len(s) == 0 {
		return ""
	}
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	s = s[1:]
	end := strings.IndexByte(s, quote)
	if end < 0 {
		return ""
	}
	return s[:end]
}

// httpClient returns cfg's configured client, defaulting to
// http.DefaultClient so production callers need not set one; tests
// override it via WithHTTPClient and internal/testutil.FakeClient.
func (cfg *Config) httpClient() *http.Client {
	if cfg.client != nil {
		return cfg.client
	}
	return http.DefaultClient
}
