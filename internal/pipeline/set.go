package pipeline

// Set is a built array of instances. Split groups that share instances hold
// the same *Set, so sharing can be checked by pointer identity.
type Set struct {
	Instances []*Pipeline
}

// NewSet creates a set from instances.
func NewSet(instances ...*Pipeline) *Set {
	return &Set{Instances: instances}
}

// Concat creates a new set holding the instances of every given set.
func Concat(sets ...*Set) *Set {
	out := &Set{}
	for _, s := range sets {
		if s != nil {
			out.Instances = append(out.Instances, s.Instances...)
		}
	}
	return out
}

// Len returns the number of instances. A nil set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Instances)
}
