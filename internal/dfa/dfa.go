// Package dfa compiles an XML Schema <xs:choice>/<xs:sequence> content
// model into a deterministic finite automaton over child-element tag
// names. It is consumed by xsdgen as a library: the annotator hands it a
// Node built from an xsd.Group, and gets back a DFA whose accept states
// encode which sequences of children are schema-legal.
package dfa

import (
	"fmt"
	"sort"
)

// A Node is a content-model term: an element symbol, a sequence,
// a choice, or a bounded repetition of some other Node.
type Node interface {
	isNode()
}

// Elem matches exactly one occurrence of the named child element.
type Elem struct {
	Symbol string
}

// Seq matches its Items in order.
type Seq struct {
	Items []Node
}

// Choice matches exactly one of its Items.
type Choice struct {
	Items []Node
}

// Rep matches Item repeated between Min and Max times, inclusive.
// Max of -1 means unbounded (XSD's maxOccurs="unbounded").
type Rep struct {
	Item     Node
	Min, Max int
}

func (Elem) isNode()   {}
func (Seq) isNode()    {}
func (Choice) isNode() {}
func (Rep) isNode()    {}

// DFA is the compiled form of a content model. States are numbered
// 0..len(States)-1. Transitions is a sparse state*symbol table: a
// missing entry for Transitions[state][symbol] means the DFA has no
// legal transition there, i.e. that symbol cannot legally appear while
// in that state.
type DFA struct {
	States      []int
	Alphabet    []string
	Start       int
	Accepts     []int
	Transitions map[int]map[int]int
}

// Accepting reports whether state is one of the DFA's accept states.
func (d *DFA) Accepting(state int) bool {
	for _, s := range d.Accepts {
		if s == state {
			return true
		}
	}
	return false
}

// maxExpansion bounds how many copies Rep will unroll a bounded
// repetition into. XSD schemas describing real document formats never
// come close to this; it exists only to turn a pathological
// maxOccurs="100000" into an error instead of a multi-gigabyte NFA.
const maxExpansion = 4096

// Build compiles root into a DFA. The alphabet is ordered by each
// symbol's first appearance in a pre-order walk of root, matching the
// "ordered set of distinct child-element names" contract.
func Build(root Node) (*DFA, error) {
	b := &builder{}
	alphabet := orderedAlphabet(root)
	symIndex := make(map[string]int, len(alphabet))
	for i, s := range alphabet {
		symIndex[s] = i
	}

	frag, err := b.build(root, symIndex)
	if err != nil {
		return nil, err
	}
	b.states[frag.end].accept = true

	return subsetConstruct(b, frag.start, alphabet), nil
}

func orderedAlphabet(root Node) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case Elem:
			if !seen[n.Symbol] {
				seen[n.Symbol] = true
				out = append(out, n.Symbol)
			}
		case Seq:
			for _, it := range n.Items {
				walk(it)
			}
		case Choice:
			for _, it := range n.Items {
				walk(it)
			}
		case Rep:
			walk(n.Item)
		}
	}
	walk(root)
	return out
}

// nfaState is one state of the Thompson-constructed NFA.
type nfaState struct {
	eps    []int
	edges  map[int][]int // symbol index -> destination states
	accept bool
}

type builder struct {
	states []nfaState
}

func (b *builder) newState() int {
	b.states = append(b.states, nfaState{edges: make(map[int][]int)})
	return len(b.states) - 1
}

func (b *builder) addEps(from, to int) {
	b.states[from].eps = append(b.states[from].eps, to)
}

func (b *builder) addEdge(from, to, sym int) {
	b.states[from].edges[sym] = append(b.states[from].edges[sym], to)
}

type fragment struct {
	start, end int
}

func (b *builder) build(n Node, symIndex map[string]int) (fragment, error) {
	switch n := n.(type) {
	case Elem:
		start, end := b.newState(), b.newState()
		sym, ok := symIndex[n.Symbol]
		if !ok {
			return fragment{}, fmt.Errorf("dfa: symbol %q not in alphabet", n.Symbol)
		}
		b.addEdge(start, end, sym)
		return fragment{start, end}, nil
	case Seq:
		if len(n.Items) == 0 {
			s := b.newState()
			return fragment{s, s}, nil
		}
		first, err := b.build(n.Items[0], symIndex)
		if err != nil {
			return fragment{}, err
		}
		cur := first.end
		for _, it := range n.Items[1:] {
			next, err := b.build(it, symIndex)
			if err != nil {
				return fragment{}, err
			}
			b.addEps(cur, next.start)
			cur = next.end
		}
		return fragment{first.start, cur}, nil
	case Choice:
		start, end := b.newState(), b.newState()
		if len(n.Items) == 0 {
			b.addEps(start, end)
		}
		for _, it := range n.Items {
			frag, err := b.build(it, symIndex)
			if err != nil {
				return fragment{}, err
			}
			b.addEps(start, frag.start)
			b.addEps(frag.end, end)
		}
		return fragment{start, end}, nil
	case Rep:
		return b.buildRep(n, symIndex)
	default:
		return fragment{}, fmt.Errorf("dfa: unsupported node type %T", n)
	}
}

func (b *builder) buildRep(n Rep, symIndex map[string]int) (fragment, error) {
	if n.Min < 0 || (n.Max >= 0 && n.Max < n.Min) {
		return fragment{}, fmt.Errorf("dfa: invalid occurs bounds [%d,%d]", n.Min, n.Max)
	}
	if n.Max >= 0 && n.Max > maxExpansion {
		return fragment{}, fmt.Errorf("dfa: maxOccurs %d exceeds supported limit %d", n.Max, maxExpansion)
	}
	if n.Min > maxExpansion {
		return fragment{}, fmt.Errorf("dfa: minOccurs %d exceeds supported limit %d", n.Min, maxExpansion)
	}

	start := b.newState()
	cur := start

	// Min mandatory copies.
	for i := 0; i < n.Min; i++ {
		frag, err := b.build(n.Item, symIndex)
		if err != nil {
			return fragment{}, err
		}
		b.addEps(cur, frag.start)
		cur = frag.end
	}

	switch {
	case n.Max < 0:
		// Unbounded: one more copy that loops back on itself.
		frag, err := b.build(n.Item, symIndex)
		if err != nil {
			return fragment{}, err
		}
		b.addEps(cur, frag.start)
		b.addEps(frag.end, frag.start)
		end := b.newState()
		b.addEps(frag.end, end)
		b.addEps(cur, end)
		return fragment{start, end}, nil
	case n.Max == n.Min:
		return fragment{start, cur}, nil
	default:
		// (Max - Min) optional copies.
		end := b.newState()
		b.addEps(cur, end)
		for i := n.Min; i < n.Max; i++ {
			frag, err := b.build(n.Item, symIndex)
			if err != nil {
				return fragment{}, err
			}
			b.addEps(cur, frag.start)
			b.addEps(frag.end, end)
			cur = frag.end
		}
		return fragment{start, end}, nil
	}
}

func (b *builder) epsilonClosure(states []int) []int {
	seen := make(map[int]bool, len(states))
	var stack, out []int
	for _, s := range states {
		if !seen[s] {
			seen[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, s)
		for _, next := range b.states[s].eps {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	sort.Ints(out)
	return out
}

func setKey(states []int) string {
	s := make([]string, len(states))
	for i, v := range states {
		s[i] = fmt.Sprint(v)
	}
	return fmt.Sprint(s)
}

func subsetConstruct(b *builder, nfaStart int, alphabet []string) *DFA {
	startSet := b.epsilonClosure([]int{nfaStart})
	dfa := &DFA{
		Alphabet:    alphabet,
		Transitions: make(map[int]map[int]int),
	}

	setToState := make(map[string]int)
	var queue [][]int
	addState := func(set []int) int {
		key := setKey(set)
		if id, ok := setToState[key]; ok {
			return id
		}
		id := len(dfa.States)
		dfa.States = append(dfa.States, id)
		setToState[key] = id
		queue = append(queue, set)
		return id
	}

	dfa.Start = addState(startSet)

	for i := 0; i < len(queue); i++ {
		set := queue[i]
		stateID := i
		for _, nfaS := range set {
			if b.states[nfaS].accept {
				if !dfa.Accepting(stateID) {
					dfa.Accepts = append(dfa.Accepts, stateID)
				}
			}
		}
		for sym := range alphabet {
			var dest []int
			for _, nfaS := range set {
				dest = append(dest, b.states[nfaS].edges[sym]...)
			}
			if len(dest) == 0 {
				continue
			}
			closure := b.epsilonClosure(dest)
			destID := addState(closure)
			if dfa.Transitions[stateID] == nil {
				dfa.Transitions[stateID] = make(map[int]int)
			}
			dfa.Transitions[stateID][sym] = destID
		}
	}

	sort.Ints(dfa.Accepts)
	return dfa
}
