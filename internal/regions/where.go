package regions

// TraitBound is a declared `T: Trait<'a, ...>` fact of the environment.
type TraitBound struct {
	Param   string
	Trait   string
	Regions []RegionVid
}

// WhereClauseSet is the declared outlives predicates of a function. It is
// immutable once built.
type WhereClauseSet struct {
	types   map[string][]RegionVid    // T -> regions T outlives
	regions map[RegionVid][]RegionVid // 'a -> regions 'a outlives
	traits  []TraitBound
	order   []Obligation
}

// NewWhereClauseSet builds a set from declared obligations and trait bounds.
// Duplicate obligations are kept once.
func NewWhereClauseSet(preds []Obligation, traits []TraitBound) *WhereClauseSet {
	w := &WhereClauseSet{
		types:   make(map[string][]RegionVid),
		regions: make(map[RegionVid][]RegionVid),
		traits:  append([]TraitBound(nil), traits...),
	}
	seen := make(map[Key]bool)
	for _, p := range preds {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		w.order = append(w.order, p)
		if p.Subject.IsRegion {
			w.regions[p.Subject.Region] = append(w.regions[p.Subject.Region], p.Target)
		} else {
			w.types[p.Subject.Param] = append(w.types[p.Subject.Param], p.Target)
		}
	}
	return w
}

// Contains reports direct membership.
func (w *WhereClauseSet) Contains(subject Subject, target RegionVid) bool {
	var declared []RegionVid
	if subject.IsRegion {
		declared = w.regions[subject.Region]
	} else {
		declared = w.types[subject.Param]
	}
	for _, r := range declared {
		if r == target {
			return true
		}
	}
	return false
}

// TypeBounds returns the regions declared for param, in declaration order.
func (w *WhereClauseSet) TypeBounds(param string) []RegionVid {
	return append([]RegionVid(nil), w.types[param]...)
}

// RegionBounds returns the regions declared to be outlived by r.
func (w *WhereClauseSet) RegionBounds(r RegionVid) []RegionVid {
	return append([]RegionVid(nil), w.regions[r]...)
}

// Traits returns the declared trait bounds in declaration order.
func (w *WhereClauseSet) Traits() []TraitBound {
	return append([]TraitBound(nil), w.traits...)
}

// Predicates returns the declared outlives predicates in declaration order.
func (w *WhereClauseSet) Predicates() []Obligation {
	return append([]Obligation(nil), w.order...)
}

// Names reports whether r appears anywhere in the set.
func (w *WhereClauseSet) Names(r RegionVid) bool {
	for _, p := range w.order {
		if p.Target == r || (p.Subject.IsRegion && p.Subject.Region == r) {
			return true
		}
	}
	return false
}
