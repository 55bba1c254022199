package namegen

import "testing"

func TestToken(t *testing.T) {
	cases := map[string]string{
		"red":       "RED",
		"dark-blue": "DARK_BLUE",
		"a.b:c":     "A_B_C",
	}
	for in, want := range cases {
		if got := Token(in); got != want {
			t.Errorf("Token(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnionMember(t *testing.T) {
	if got, want := UnionMember("t_color"), "AsT_color"; got != want {
		t.Errorf("UnionMember = %q, want %q", got, want)
	}
}

func TestCheckedRenamesKeyword(t *testing.T) {
	var warnings []string
	logger := loggerFunc(func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	})
	if got, want := Checked(logger, "type"), "type_"; got != want {
		t.Errorf("Checked(%q) = %q, want %q", "type", got, want)
	}
	if len(warnings) != 1 {
		t.Errorf("expected exactly one warning, got %d", len(warnings))
	}
	if got, want := Checked(nil, "color"), "color"; got != want {
		t.Errorf("Checked(%q) = %q, want %q", "color", got, want)
	}
}

type loggerFunc func(format string, args ...interface{})

func (f loggerFunc) Printf(format string, args ...interface{}) { f(format, args...) }
