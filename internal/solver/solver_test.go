package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/regionck/internal/regions"
)

const (
	a regions.RegionVid = 1
	b regions.RegionVid = 2
	c regions.RegionVid = 3
)

func typeOb(param string, target regions.RegionVid) regions.Obligation {
	return regions.Obligation{Subject: regions.TypeSubject(param), Target: target}
}

func regionOb(longer, shorter regions.RegionVid) regions.Obligation {
	return regions.Obligation{Subject: regions.RegionSubject(longer), Target: shorter}
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name     string
		declared []regions.Obligation
		ob       regions.Obligation
		want     regions.Status
	}{
		{"no where-clause", nil, typeOb("T", a), regions.Violated},
		{"declared directly", []regions.Obligation{typeOb("T", a)}, typeOb("T", a), regions.Satisfied},
		{"transitive", []regions.Obligation{typeOb("T", b), regionOb(b, a)}, typeOb("T", a), regions.Satisfied},
		{"two hops", []regions.Obligation{typeOb("T", c), regionOb(c, b), regionOb(b, a)}, typeOb("T", a), regions.Satisfied},
		{"wrong direction", []regions.Obligation{typeOb("T", a), regionOb(b, a)}, typeOb("T", b), regions.Violated},
		{"static type bound", []regions.Obligation{typeOb("T", regions.Static)}, typeOb("T", a), regions.Satisfied},
		{"other param", []regions.Obligation{typeOb("U", a)}, typeOb("T", a), regions.Violated},
		{"region reflexive", nil, regionOb(a, a), regions.Satisfied},
		{"static outlives all", nil, regionOb(regions.Static, a), regions.Satisfied},
		{"nothing outlives static", []regions.Obligation{regionOb(a, b)}, regionOb(a, regions.Static), regions.Violated},
		{"region declared", []regions.Obligation{regionOb(b, a)}, regionOb(b, a), regions.Satisfied},
		{"region cycle", []regions.Obligation{regionOb(a, b), regionOb(b, a)}, regionOb(a, c), regions.Violated},
		{"target not named", []regions.Obligation{typeOb("T", a), regionOb(a, b)}, typeOb("T", c), regions.Violated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := regions.NewWhereClauseSet(tt.declared, nil)
			assert.Equal(t, tt.want, Solve(tt.ob, w))
		})
	}
}

// Every declared predicate is satisfied by the set it was declared in, and
// every obligation on a region the set never names is violated.
func TestSolveProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	params := []string{"T", "U", "V"}

	for iter := 0; iter < 200; iter++ {
		var declared []regions.Obligation
		for n := rng.Intn(6); n > 0; n-- {
			target := regions.RegionVid(1 + rng.Intn(4))
			if rng.Intn(2) == 0 {
				declared = append(declared, typeOb(params[rng.Intn(len(params))], target))
			} else {
				declared = append(declared, regionOb(regions.RegionVid(1+rng.Intn(4)), target))
			}
		}
		w := regions.NewWhereClauseSet(declared, nil)

		for _, d := range declared {
			require.Equal(t, regions.Satisfied, Solve(d, w), "declared %+v must hold", d)
		}

		absent := regions.RegionVid(10)
		for _, p := range params {
			require.Equal(t, regions.Violated, Solve(typeOb(p, absent), w))
		}
	}
}

func TestSolveAll(t *testing.T) {
	ctx := regions.NewContext()
	ctx.Universal("'a")
	ctx.Seal()

	check := &regions.FnCheck{
		Name:  "f",
		Ctx:   ctx,
		Where: regions.NewWhereClauseSet([]regions.Obligation{typeOb("T", a)}, nil),
		Judgements: []*regions.Judgement{
			regions.NewJudgement(typeOb("T", a)),
			regions.NewJudgement(typeOb("U", a)),
		},
	}

	n, err := SolveAll(check)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, regions.Satisfied, check.Judgements[0].Status())
	assert.Equal(t, regions.Violated, check.Judgements[1].Status())

	violations := check.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "U does not outlive 'a", check.Violation(violations[0], false).Error())

	_, err = SolveAll(check)
	assert.ErrorIs(t, err, regions.ErrAlreadyJudged)
}
