package dfa

import "testing"

func run(t *testing.T, d *DFA, input []string) bool {
	state := d.Start
	symIndex := make(map[string]int, len(d.Alphabet))
	for i, s := range d.Alphabet {
		symIndex[s] = i
	}
	for _, tok := range input {
		sym, ok := symIndex[tok]
		if !ok {
			t.Fatalf("symbol %q not in alphabet", tok)
		}
		next, ok := d.Transitions[state][sym]
		if !ok {
			return false
		}
		state = next
	}
	return d.Accepting(state)
}

func TestChoiceWithRepetition(t *testing.T) {
	// <choice minOccurs="0" maxOccurs="2"><a/><b/></choice>
	root := Rep{
		Item: Choice{Items: []Node{Elem{"a"}, Elem{"b"}}},
		Min:  0, Max: 2,
	}
	d, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		in   []string
		want bool
	}{
		{[]string{"a", "b"}, true},
		{nil, true},
		{[]string{"a"}, true},
		{[]string{"a", "b", "a"}, false},
	}
	for _, c := range cases {
		if got := run(t, d, c.in); got != c.want {
			t.Errorf("run(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSequenceWithUnboundedRepetition(t *testing.T) {
	// <sequence><element name="x" minOccurs="1" maxOccurs="unbounded"/></sequence>
	root := Seq{Items: []Node{Rep{Item: Elem{"x"}, Min: 1, Max: -1}}}
	d, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	if run(t, d, nil) {
		t.Error("empty input should be rejected (minOccurs=1)")
	}
	if !run(t, d, []string{"x", "x", "x"}) {
		t.Error("x,x,x should be accepted")
	}
}

func TestAlphabetOrderIsFirstAppearance(t *testing.T) {
	root := Seq{Items: []Node{Elem{"b"}, Elem{"a"}, Elem{"b"}}}
	got := orderedAlphabet(root)
	want := []string{"b", "a"}
	if len(got) != len(want) {
		t.Fatalf("alphabet = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("alphabet = %v, want %v", got, want)
		}
	}
}
