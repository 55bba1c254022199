// Package namegen implements the deterministic mapping from XML Schema
// identifiers to Go-safe identifiers and tokens that the rest of uxsdc
// relies on. It is the Go analogue of uxsdcxx's to_token/checked/to_cpp_type
// helpers.
package namegen

import (
	"regexp"
	"strings"
	"unicode"
)

var notIdentRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Token upper-cases s and replaces each character that is not a letter,
// digit, or underscore with an underscore. Used for enum
// members and the group/attribute token enums.
func Token(s string) string {
	return strings.ToUpper(notIdentRe.ReplaceAllString(s, "_"))
}

// UnionMember returns the name of the struct field that holds a union's
// value when its active member is the type named s.
func UnionMember(s string) string {
	return "As" + Exported(notIdentRe.ReplaceAllString(s, "_"))
}

// Exported title-cases the first rune of s, so it can be used as an
// exported Go identifier.
func Exported(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// TypeName returns the Go type name for a user-defined complex or simple
// type named s. Built-in types are mapped separately, by the caller,
// before TypeName is ever consulted.
func TypeName(s string) string {
	return "T" + Exported(notIdentRe.ReplaceAllString(s, "_"))
}

// Logger receives one warning per renamed identifier. *log.Logger and
// charm.land/log/v2's Logger both satisfy this with their Printf/Warnf
// wrappers; see xsdgen.Config for the concrete adapter used by uxsdc.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Checked returns s unchanged unless it collides with a reserved word of
// the target language (Go), in which case it appends an underscore and
// logs a single warning to logger. The reserved word list is a property
// of the Go emitter backend, not of the schema being compiled.
func Checked(logger Logger, s string) string {
	if _, reserved := goReservedWords[s]; !reserved {
		return s
	}
	if logger != nil {
		logger.Printf("%s is a Go keyword or predeclared identifier; renaming to %s_", s, s)
	}
	return s + "_"
}

// goReservedWords is the set of identifiers that would either fail to
// parse as Go source (keywords) or silently shadow a predeclared
// identifier that generated code depends on.
var goReservedWords = map[string]bool{
	// keywords
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
	// predeclared identifiers generated code relies on staying unshadowed
	"bool": true, "byte": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"true": true, "false": true, "iota": true, "nil": true,
	"append": true, "cap": true, "close": true, "complex": true, "copy": true,
	"delete": true, "imag": true, "len": true, "make": true, "new": true,
	"panic": true, "print": true, "println": true, "real": true, "recover": true,
}
