package analyzer

import (
	"github.com/funvibe/regionck/internal/regions"
)

// propagate eliminates the local regions of a scope. Every external region
// reachable from an obligation's target through local regions becomes a
// requirement on the obligation's subject. For a closure the result is its
// external requirements, which may still mention regions local to the
// enclosing scope; for a function it is what the solver must prove.
func propagate(s *scopeState, ctx *regions.Context) []regions.Obligation {
	edges := make(map[regions.RegionVid][]regions.RegionVid)
	for _, c := range s.constraints {
		if c.region != nil {
			edges[c.region.Longer] = append(edges[c.region.Longer], c.region.Shorter)
		}
	}

	external := func(v regions.RegionVid) bool { return s.isExternal(ctx, v) }

	// externalsFrom returns r itself when external, otherwise the first
	// external regions found walking outlives edges through locals.
	externalsFrom := func(r regions.RegionVid) []regions.RegionVid {
		if external(r) {
			return []regions.RegionVid{r}
		}
		var found []regions.RegionVid
		visited := map[regions.RegionVid]bool{r: true}
		queue := []regions.RegionVid{r}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range edges[cur] {
				if visited[next] {
					continue
				}
				visited[next] = true
				if external(next) {
					found = append(found, next)
					continue
				}
				queue = append(queue, next)
			}
		}
		return found
	}

	var out []regions.Obligation
	seen := make(map[regions.Key]bool)
	add := func(o regions.Obligation) {
		if seen[o.Key()] {
			return
		}
		seen[o.Key()] = true
		out = append(out, o)
	}

	for _, c := range s.constraints {
		switch {
		case c.region != nil:
			longer := c.region.Longer
			if !external(longer) || longer == regions.Static {
				continue
			}
			for _, target := range externalsFrom(c.region.Shorter) {
				if target == longer {
					continue
				}
				add(regions.Obligation{Subject: regions.RegionSubject(longer), Target: target, Span: c.region.Span})
			}
		case c.ty != nil:
			param, ok := c.ty.Type.(regions.Param)
			if !ok {
				continue
			}
			for _, target := range externalsFrom(c.ty.Target) {
				add(regions.Obligation{Subject: regions.TypeSubject(param.Name), Target: target, Span: c.ty.Span})
			}
		}
	}

	return out
}
