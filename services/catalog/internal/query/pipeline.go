// Package query runs catalog listings: one conditional filter pipeline per
// store, a unifier into the common item shape, then sort and pagination, with
// the filtered set cached by fingerprint.
package query

// Step narrows one source's query handle.
type Step[Q any] func(Q) Q

// Pipeline is an ordered list of steps over one source's query handle.
// Steps are only added for criteria that are present, so an absent
// criterion means no filtering on that dimension.
type Pipeline[Q any] struct {
	steps []Step[Q]
}

// Add appends step unconditionally.
func (p *Pipeline[Q]) Add(step Step[Q]) *Pipeline[Q] {
	p.steps = append(p.steps, step)
	return p
}

// AddIf appends step only when cond holds.
func (p *Pipeline[Q]) AddIf(cond bool, step Step[Q]) *Pipeline[Q] {
	if cond {
		p.steps = append(p.steps, step)
	}
	return p
}

func (p *Pipeline[Q]) Len() int { return len(p.steps) }

// Apply runs every step in order over q.
func (p *Pipeline[Q]) Apply(q Q) Q {
	for _, step := range p.steps {
		q = step(q)
	}
	return q
}
