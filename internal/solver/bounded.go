package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"energy-dispatch/internal/lp"
)

const (
	// pivotTol is the smallest tableau entry accepted as a pivot.
	pivotTol = 1e-9
	// ratioTol widens the ratio test so near ties pick the larger pivot.
	ratioTol = 1e-10
	// blandAfter is the run of degenerate pivots after which Bland's rule
	// replaces the steepest reduced cost.
	blandAfter = 50
	// dropTol is the smallest entry used to pivot an artificial column out.
	dropTol = 1e-7
)

// lpBounded is the bounded-variable LP routine. It can be overridden in
// tests.
var lpBounded = (*stdForm).bounded

// tableau is a dense simplex tableau for min cᵀz s.t. Tz = beta,
// 0 <= z <= upper. Nonbasic columns always sit at zero: a column that
// reaches its upper bound is complemented (z' = upper - z) instead.
type tableau struct {
	t       [][]float64
	beta    []float64
	basis   []int
	rowOf   []int
	upper   []float64
	flipped []bool
}

// bounded solves sf with a two-phase bounded-variable simplex. Upper bounds
// are handled by the ratio test instead of extra rows, and the starting
// basis is the identity formed by slack and artificial columns, so no basis
// has to be factorized.
func (sf *stdForm) bounded(ctx context.Context, opts Options) ([]float64, error) {
	nFree, m := len(sf.cost), len(sf.rows)

	// rows are scaled to a largest coefficient of one and a nonnegative
	// right-hand side; a row whose slack ends up with coefficient -1, and
	// every equality, gets an artificial column.
	scale := make([]float64, m)
	nSlack, nArt := 0, 0
	for i, r := range sf.rows {
		s := floats.Norm(r.a, math.Inf(1))
		if s == 0 {
			s = 1
		}
		if r.rhs < 0 {
			s = -s
		}
		scale[i] = 1 / s
		switch {
		case r.sense == lp.Equal:
			nArt++
		case (r.sense == lp.LessEq) != (s > 0):
			nSlack++
			nArt++
		default:
			nSlack++
		}
	}
	firstArt := nFree + nSlack
	n := firstArt + nArt

	tb := &tableau{
		t:       make([][]float64, m),
		beta:    make([]float64, m),
		basis:   make([]int, m),
		rowOf:   make([]int, n),
		upper:   make([]float64, n),
		flipped: make([]bool, n),
	}
	copy(tb.upper, sf.upper)
	for j := nFree; j < n; j++ {
		tb.upper[j] = math.Inf(1)
	}
	for j := range tb.rowOf {
		tb.rowOf[j] = -1
	}

	slack, art := nFree, firstArt
	bmax := 0.0
	for i, r := range sf.rows {
		ti := make([]float64, n)
		floats.AddScaled(ti[:nFree], scale[i], r.a)
		tb.beta[i] = r.rhs * scale[i]
		bmax = math.Max(bmax, tb.beta[i])
		basic := -1
		if r.sense != lp.Equal {
			coef := 1.0
			if r.sense == lp.GreaterEq {
				coef = -1
			}
			if scale[i] < 0 {
				coef = -coef
			}
			ti[slack] = coef
			if coef > 0 {
				basic = slack
			}
			slack++
		}
		if basic < 0 {
			ti[art] = 1
			basic = art
			art++
		}
		tb.t[i] = ti
		tb.basis[i] = basic
		tb.rowOf[basic] = i
	}

	if nArt > 0 {
		c1 := make([]float64, n)
		for j := firstArt; j < n; j++ {
			c1[j] = 1
		}
		d := tb.price(c1)
		if err := tb.iterate(ctx, d, n, opts.Tolerance); err != nil {
			if errors.Is(err, errUnbounded) {
				return nil, fmt.Errorf("%w: phase one reported an unbounded ray", errNumerical)
			}
			return nil, err
		}
		sum := 0.0
		for i, j := range tb.basis {
			if j >= firstArt {
				sum += tb.beta[i]
			}
		}
		if sum > opts.FeasibilityTolerance*math.Max(1, bmax) {
			return nil, fmt.Errorf("%w: constraints are violated by at least %g", errInfeasible, sum)
		}
		tb.dropArtificials(firstArt, d)
	}

	c2 := make([]float64, n)
	copy(c2, sf.cost)
	if err := tb.iterate(ctx, tb.price(c2), firstArt, opts.Tolerance); err != nil {
		return nil, err
	}
	return tb.values(nFree), nil
}

// price returns the reduced costs c - c_Bᵀ T for the current basis.
func (tb *tableau) price(cost []float64) []float64 {
	d := make([]float64, len(cost))
	for j, c := range cost {
		if tb.flipped[j] {
			c = -c
		}
		d[j] = c
	}
	for i, j := range tb.basis {
		cb := cost[j]
		if tb.flipped[j] {
			cb = -cb
		}
		if cb != 0 {
			floats.AddScaled(d, -cb, tb.t[i])
		}
	}
	for _, j := range tb.basis {
		d[j] = 0
	}
	return d
}

// iterate pivots until no column below enterable has a negative reduced
// cost. d is updated in place.
func (tb *tableau) iterate(ctx context.Context, d []float64, enterable int, tol float64) error {
	maxIter := 50*(len(tb.basis)+len(d)) + 1000
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if iter > maxIter {
			return fmt.Errorf("%w: no convergence after %d pivots", errNumerical, iter)
		}

		bland := degenerate >= blandAfter
		enter, best := -1, -tol
		for j := 0; j < enterable; j++ {
			if tb.rowOf[j] >= 0 || d[j] >= best {
				continue
			}
			enter = j
			if bland {
				break
			}
			best = d[j]
		}
		if enter < 0 {
			return nil
		}

		leave, theta, atUpper := tb.ratio(enter, bland)
		if leave < 0 {
			if math.IsInf(theta, 1) {
				return fmt.Errorf("%w: column %d can grow without limit", errUnbounded, enter)
			}
			tb.flip(enter, d)
			degenerate = 0
			continue
		}
		if atUpper {
			tb.complement(leave)
		}
		tb.pivot(leave, enter, d)
		if theta <= pivotTol {
			degenerate++
		} else {
			degenerate = 0
		}
	}
}

// ratio finds how far column enter can grow. It returns the blocking row,
// or -1 when the column's own upper bound (possibly +Inf) blocks first, and
// whether the basic variable of that row leaves at its upper bound.
func (tb *tableau) ratio(enter int, bland bool) (int, float64, bool) {
	leave, theta, atUpper, pivot := -1, tb.upper[enter], false, 0.0
	for i, row := range tb.t {
		a := row[enter]
		var r float64
		up := false
		switch b := tb.basis[i]; {
		case a > pivotTol:
			r = tb.beta[i] / a
		case a < -pivotTol && !math.IsInf(tb.upper[b], 1):
			r = (tb.upper[b] - tb.beta[i]) / -a
			up = true
		default:
			continue
		}
		r = math.Max(r, 0)
		switch {
		case r < theta-ratioTol:
		case r <= theta+ratioTol && leave >= 0:
			if bland && tb.basis[i] > tb.basis[leave] {
				continue
			}
			if !bland && math.Abs(a) <= pivot {
				continue
			}
		default:
			continue
		}
		leave, theta, atUpper, pivot = i, r, up, math.Abs(a)
	}
	return leave, theta, atUpper
}

// flip moves nonbasic column j from zero to its upper bound and
// complements it.
func (tb *tableau) flip(j int, d []float64) {
	u := tb.upper[j]
	for i, row := range tb.t {
		tb.beta[i] -= row[j] * u
		row[j] = -row[j]
	}
	d[j] = -d[j]
	tb.flipped[j] = !tb.flipped[j]
}

// complement replaces the basic variable of row r by its distance to its
// upper bound. Reduced costs are unchanged.
func (tb *tableau) complement(r int) {
	b := tb.basis[r]
	row := tb.t[r]
	floats.Scale(-1, row)
	row[b] = 1
	tb.beta[r] = tb.upper[b] - tb.beta[r]
	tb.flipped[b] = !tb.flipped[b]
}

func (tb *tableau) pivot(r, j int, d []float64) {
	prow := tb.t[r]
	p := prow[j]
	floats.Scale(1/p, prow)
	prow[j] = 1
	tb.beta[r] /= p
	for i, row := range tb.t {
		if i == r {
			continue
		}
		if f := row[j]; f != 0 {
			floats.AddScaled(row, -f, prow)
			row[j] = 0
			tb.beta[i] -= f * tb.beta[r]
		}
	}
	if f := d[j]; f != 0 {
		floats.AddScaled(d, -f, prow)
	}
	d[j] = 0
	tb.rowOf[tb.basis[r]] = -1
	tb.basis[r] = j
	tb.rowOf[j] = r
}

// dropArtificials pivots zero-valued artificial columns out of the basis
// after phase one. A row with no other usable entry is redundant and is
// removed together with its artificial.
func (tb *tableau) dropArtificials(firstArt int, d []float64) {
	for r, b := range tb.basis {
		if b < firstArt {
			continue
		}
		enter, best := -1, dropTol
		for j := 0; j < firstArt; j++ {
			if v := math.Abs(tb.t[r][j]); tb.rowOf[j] < 0 && v > best {
				enter, best = j, v
			}
		}
		if enter >= 0 {
			tb.pivot(r, enter, d)
		}
	}

	keep := 0
	for r, b := range tb.basis {
		if b >= firstArt {
			tb.rowOf[b] = -1
			continue
		}
		tb.t[keep], tb.beta[keep], tb.basis[keep] = tb.t[r], tb.beta[r], b
		tb.rowOf[b] = keep
		keep++
	}
	tb.t, tb.beta, tb.basis = tb.t[:keep], tb.beta[:keep], tb.basis[:keep]
}

// values reads the first n columns back in the uncomplemented space.
func (tb *tableau) values(n int) []float64 {
	y := make([]float64, n)
	for j := range y {
		z := 0.0
		if r := tb.rowOf[j]; r >= 0 {
			z = tb.beta[r]
		}
		if tb.flipped[j] {
			z = tb.upper[j] - z
		}
		y[j] = z
	}
	return y
}
