package xsdgen

import (
	"uxsdc/internal/ordered"
	"uxsdc/xsd"
)

// registry holds the five ordered containers spec.md's component B
// names, plus the memo table that implements annotation idempotence
// (invariant 2) over the parallel annotated graph described in
// SPEC_FULL.md section 3, rather than by mutating xsd's AST in place.
type registry struct {
	logger Logger

	complexTypes          []*complexType
	anonymousComplexTypes []*complexType
	enums                 []*enumType
	unions                []*unionType
	simpleTypesInUnions    map[string]bool
	roots                 []annotatedElement

	arenaTypes map[*complexType]bool
	arenaOrder []*complexType

	// memo maps an xsd.Type's identity to the annotated node already
	// built for it, so a recursive type's inner annotate call returns
	// the in-progress node instead of recursing forever.
	memo map[xsd.Type]interface{}

	enumSeen map[string]*enumType
}

func newRegistry(logger Logger) *registry {
	return &registry{
		logger:              logger,
		simpleTypesInUnions: make(map[string]bool),
		arenaTypes:          make(map[*complexType]bool),
		memo:                make(map[xsd.Type]interface{}),
		enumSeen:            make(map[string]*enumType),
	}
}

func (r *registry) addComplexType(t *complexType, anonymous bool) {
	if anonymous {
		r.anonymousComplexTypes = append(r.anonymousComplexTypes, t)
	} else {
		r.complexTypes = append(r.complexTypes, t)
	}
}

func (r *registry) addEnum(e *enumType) *enumType {
	if existing, ok := r.enumSeen[e.Name]; ok {
		return existing
	}
	r.enumSeen[e.Name] = e
	r.enums = append(r.enums, e)
	return e
}

func (r *registry) addUnion(u *unionType) {
	r.unions = append(r.unions, u)
}

// addRoot records a top-level schema element as a document root; the
// driver emits one Get<T>/Write<T> pair per complex-typed entry, in the
// order Annotate adds them (sorted by local name).
func (r *registry) addRoot(el annotatedElement) {
	r.roots = append(r.roots, el)
}

func (r *registry) addSimpleTypeInUnion(goType string) {
	r.simpleTypesInUnions[goType] = true
}

// markArena adds t to the arena set the first time an element reference
// to it is found with Many = true; subsequent calls are no-ops, and
// order of first insertion is kept for deterministic emission.
func (r *registry) markArena(t *complexType) {
	if r.arenaTypes[t] {
		return
	}
	r.arenaTypes[t] = true
	r.arenaOrder = append(r.arenaOrder, t)
}

// allComplexTypes returns every named and anonymous complex type,
// topologically sorted by ascending tree height (invariant 3): a type's
// complex children always appear strictly before it.
func (r *registry) allComplexTypes() []*complexType {
	all := make([]*complexType, 0, len(r.complexTypes)+len(r.anonymousComplexTypes))
	all = append(all, r.complexTypes...)
	all = append(all, r.anonymousComplexTypes...)

	height := make(map[*complexType]int)
	var computeHeight func(t *complexType, visiting map[*complexType]bool) int
	computeHeight = func(t *complexType, visiting map[*complexType]bool) int {
		if h, ok := height[t]; ok {
			return h
		}
		if visiting[t] {
			// Cycle-breaking rule: a type already being visited is
			// treated as height 0 for the purposes of its parent's
			// height computation.
			return 0
		}
		visiting[t] = true
		max := 0
		for _, el := range t.Children {
			if el.Complex != nil {
				if h := computeHeight(el.Complex, visiting); h+1 > max {
					max = h + 1
				}
			}
		}
		delete(visiting, t)
		height[t] = max
		return max
	}
	for _, t := range all {
		computeHeight(t, make(map[*complexType]bool))
	}

	sorted := make([]*complexType, len(all))
	copy(sorted, all)
	// stable insertion sort by height keeps deterministic tie-breaking
	// by discovery order, matching ordered's "deterministic traversal"
	// philosophy.
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && height[sorted[j-1]] > height[sorted[j]] {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
			j--
		}
	}
	for _, t := range sorted {
		t.Height = height[t]
	}
	return sorted
}

// sortedArenaTypes returns the arena set in first-insertion order.
func (r *registry) sortedArenaTypes() []*complexType {
	return r.arenaOrder
}

// sortedSimpleTypesInUnions returns the tag-enum member set, sorted by
// Go type name (spec.md 4.B: "later sorted by name for the tag enum").
func (r *registry) sortedSimpleTypesInUnions() []string {
	out := make([]string, 0, len(r.simpleTypesInUnions))
	ordered.RangeStrings(r.simpleTypesInUnions, func(name string) {
		out = append(out, name)
	})
	return out
}
