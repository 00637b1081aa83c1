package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"energy-dispatch/internal/lp"
)

// fixTol is the bound width below which a variable is substituted out.
const fixTol = 1e-10

// row is Σ terms (sense) rhs.
type row struct {
	name  string
	terms []lp.Term
	sense lp.Sense
	rhs   float64
}

// linearProblem is min cost·x + offset over rows with per-variable bounds.
// Bounds are passed separately to solveLinear so branch-and-bound can reuse
// one problem for every node.
type linearProblem struct {
	name   string
	lower  []float64
	upper  []float64
	cost   []float64
	offset float64
	rows   []row
}

func fromLinearModel(m *lp.Model) (*linearProblem, error) {
	n := len(m.Vars)
	p := &linearProblem{
		name:  m.Name,
		lower: make([]float64, n),
		upper: make([]float64, n),
		cost:  make([]float64, n),
	}
	for j, v := range m.Vars {
		p.lower[j] = v.Lower
		p.upper[j] = v.Upper
	}
	obj := m.Objective.Normalize()
	if !obj.IsLinear() {
		return nil, fmt.Errorf("%w: objective has bilinear terms", errUnsupported)
	}
	for _, t := range obj.Terms {
		p.cost[t.Var] += t.Coef
	}
	p.offset = obj.Constant
	for _, c := range m.Constraints {
		if c.Trivial {
			continue
		}
		e := c.Expr.Normalize()
		if !e.IsLinear() {
			return nil, fmt.Errorf("%w: constraint %s has bilinear terms", errUnsupported, c.Name)
		}
		p.rows = append(p.rows, row{name: c.Name, terms: e.Terms, sense: c.Sense, rhs: -e.Constant})
	}
	return p, nil
}

func (p *linearProblem) objective(x []float64) float64 {
	sum := p.offset
	for j, c := range p.cost {
		sum += c * x[j]
	}
	return sum
}

// lpSimplex is gonum's LP routine. It can be overridden in tests.
var lpSimplex = gonumlp.Simplex

// lpMethod names an LP routine solveLinear can run.
type lpMethod int

const (
	gonumMethod lpMethod = iota
	boundedMethod
)

// stdRow is a row over the free columns, bounds already shifted out.
type stdRow struct {
	name  string
	a     []float64
	sense lp.Sense
	rhs   float64
}

// stdForm is min costᵀy s.t. rows, 0 <= y <= upper over the free columns,
// with x = lo + y for the original variables.
type stdForm struct {
	lo, hi []float64
	col    []int
	cost   []float64
	upper  []float64
	rows   []stdRow
}

// solveLinear solves p under the given bounds. It returns errInfeasible,
// errUnbounded, errNumerical, errUnsupported or a context error.
//
// methods are tried in order; the next one only runs when the previous one
// hit a numerical failure. Without methods gonum runs first.
func solveLinear(ctx context.Context, p *linearProblem, lower, upper []float64, opts Options, methods ...lpMethod) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sf, err := standardize(p, lower, upper, opts.FeasibilityTolerance)
	if err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		methods = []lpMethod{gonumMethod, boundedMethod}
	}
	for _, method := range methods {
		var y []float64
		switch method {
		case boundedMethod:
			y, err = lpBounded(sf, ctx, opts)
		default:
			y, err = sf.gonum(ctx, opts.Tolerance)
		}
		if err == nil {
			x := sf.expand(y)
			if err = checkRows(p.rows, x, opts.FeasibilityTolerance); err == nil {
				return x, nil
			}
		}
		if !errors.Is(err, errNumerical) {
			return nil, err
		}
	}
	return nil, err
}

// standardize turns singleton rows into bounds, substitutes fixed variables,
// shifts lower bounds to zero and drops linearly dependent equalities.
func standardize(p *linearProblem, lower, upper []float64, feas float64) (*stdForm, error) {
	n := len(lower)
	lo := append([]float64(nil), lower...)
	hi := append([]float64(nil), upper...)
	for j := 0; j < n; j++ {
		if math.IsNaN(lo[j]) || math.IsInf(lo[j], -1) {
			return nil, fmt.Errorf("%w: variable %d has no finite lower bound", errUnsupported, j)
		}
		if lo[j] > hi[j]+feas {
			return nil, fmt.Errorf("%w: bounds of variable %d cross", errInfeasible, j)
		}
		if hi[j]-lo[j] <= fixTol {
			hi[j] = lo[j]
		}
	}

	active, err := presolve(p.rows, lo, hi, feas)
	if err != nil {
		return nil, err
	}

	col := make([]int, n)
	nFree := 0
	for j := range col {
		if hi[j] == lo[j] {
			col[j] = -1
			continue
		}
		col[j] = nFree
		nFree++
	}

	var eqs, ineqs []stdRow
	for i, r := range p.rows {
		if !active[i] {
			continue
		}
		sr := stdRow{name: r.name, a: make([]float64, nFree), sense: r.sense, rhs: r.rhs}
		for _, t := range r.terms {
			sr.rhs -= t.Coef * lo[t.Var]
			if c := col[t.Var]; c >= 0 {
				sr.a[c] += t.Coef
			}
		}
		if r.sense == lp.Equal {
			eqs = append(eqs, sr)
		} else {
			ineqs = append(ineqs, sr)
		}
	}
	eqs, err = independentRows(eqs, feas)
	if err != nil {
		return nil, err
	}

	sf := &stdForm{
		lo:    lo,
		hi:    hi,
		col:   col,
		cost:  make([]float64, nFree),
		upper: make([]float64, nFree),
		rows:  append(eqs, ineqs...),
	}
	for j, c := range col {
		if c >= 0 {
			sf.cost[c] = p.cost[j]
			sf.upper[c] = hi[j] - lo[j]
		}
	}
	return sf, nil
}

// expand maps free column values back to the original variables.
func (sf *stdForm) expand(y []float64) []float64 {
	x := append([]float64(nil), sf.lo...)
	for j, c := range sf.col {
		if c < 0 {
			continue
		}
		x[j] = math.Min(math.Max(sf.lo[j]+y[c], sf.lo[j]), sf.hi[j])
	}
	return x
}

// gonum brings sf to the form gonum's Simplex expects (minimize cᵀx s.t.
// Ax = b, x >= 0, A of full row rank): finite upper bounds and inequalities
// get slack columns and every row is scaled so its largest coefficient is
// one.
func (sf *stdForm) gonum(ctx context.Context, tol float64) ([]float64, error) {
	nFree := len(sf.cost)
	rows := append([]stdRow(nil), sf.rows...)
	for c, u := range sf.upper {
		if math.IsInf(u, 1) {
			continue
		}
		sr := stdRow{name: fmt.Sprintf("bound[%d]", c), a: make([]float64, nFree), sense: lp.LessEq, rhs: u}
		sr.a[c] = 1
		rows = append(rows, sr)
	}

	used := make([]bool, nFree)
	nSlack := 0
	for _, sr := range rows {
		if sr.sense != lp.Equal {
			nSlack++
		}
		for c, v := range sr.a {
			if v != 0 {
				used[c] = true
			}
		}
	}
	// A column in no row only moves the objective; it is unbounded below
	// if its cost is negative and sits at zero otherwise.
	idx := make([]int, nFree)
	nUsed := 0
	for c := range idx {
		if !used[c] {
			if sf.cost[c] < 0 {
				return nil, fmt.Errorf("%w: column %d has negative cost and no upper bound", errUnbounded, c)
			}
			idx[c] = -1
			continue
		}
		idx[c] = nUsed
		nUsed++
	}

	y := make([]float64, nFree)
	if len(rows) == 0 {
		return y, nil
	}

	cols := nUsed + nSlack
	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	c := make([]float64, cols)
	for k, v := range sf.cost {
		if idx[k] >= 0 {
			c[idx[k]] = v
		}
	}
	slack := nUsed
	for i, sr := range rows {
		scale := 0.0
		for k, v := range sr.a {
			if v != 0 {
				a.Set(i, idx[k], v)
				scale = math.Max(scale, math.Abs(v))
			}
		}
		switch sr.sense {
		case lp.LessEq:
			a.Set(i, slack, 1)
			slack++
		case lp.GreaterEq:
			a.Set(i, slack, -1)
			slack++
		}
		if scale == 0 {
			scale = 1
		}
		if sr.rhs < 0 {
			scale = -scale
		}
		floats.Scale(1/scale, a.RawRowView(i))
		b[i] = sr.rhs / scale
	}

	xs, err := simplex(ctx, c, a, b, tol)
	if err != nil {
		return nil, err
	}
	for k := range y {
		if idx[k] >= 0 {
			y[k] = xs[idx[k]]
		}
	}
	return y, nil
}

// presolve turns rows with at most one non-fixed variable into bounds until
// nothing changes. lo and hi are tightened in place; the returned slice marks
// the rows that still need the simplex.
func presolve(rows []row, lo, hi []float64, feas float64) ([]bool, error) {
	active := make([]bool, len(rows))
	for i := range active {
		active[i] = true
	}
	for changed := true; changed; {
		changed = false
		for i, r := range rows {
			if !active[i] {
				continue
			}
			rhs := r.rhs
			var free []lp.Term
			for _, t := range r.terms {
				if hi[t.Var] == lo[t.Var] {
					rhs -= t.Coef * lo[t.Var]
					continue
				}
				free = append(free, t)
			}
			switch len(free) {
			case 0:
				tol := feas * math.Max(1, math.Abs(r.rhs))
				if (r.sense == lp.Equal && math.Abs(rhs) > tol) ||
					(r.sense == lp.LessEq && rhs < -tol) ||
					(r.sense == lp.GreaterEq && rhs > tol) {
					return nil, fmt.Errorf("%w: constraint %s cannot hold", errInfeasible, r.name)
				}
			case 1:
				if err := tighten(r.name, free[0], r.sense, rhs, lo, hi, feas); err != nil {
					return nil, err
				}
			default:
				continue
			}
			active[i] = false
			changed = true
		}
	}
	return active, nil
}

func tighten(name string, t lp.Term, sense lp.Sense, rhs float64, lo, hi []float64, feas float64) error {
	j := t.Var
	v := rhs / t.Coef
	if t.Coef < 0 {
		switch sense {
		case lp.LessEq:
			sense = lp.GreaterEq
		case lp.GreaterEq:
			sense = lp.LessEq
		}
	}
	tol := feas * math.Max(1, math.Abs(v))
	switch sense {
	case lp.Equal:
		if v < lo[j]-tol || v > hi[j]+tol {
			return fmt.Errorf("%w: constraint %s is outside variable bounds", errInfeasible, name)
		}
		v = math.Min(math.Max(v, lo[j]), hi[j])
		lo[j], hi[j] = v, v
	case lp.LessEq:
		if v < lo[j]-tol {
			return fmt.Errorf("%w: constraint %s is below variable bounds", errInfeasible, name)
		}
		if v < hi[j] {
			hi[j] = math.Max(v, lo[j])
		}
	case lp.GreaterEq:
		if v > hi[j]+tol {
			return fmt.Errorf("%w: constraint %s is above variable bounds", errInfeasible, name)
		}
		if v > lo[j] {
			lo[j] = math.Min(v, hi[j])
		}
	}
	if hi[j]-lo[j] <= fixTol {
		hi[j] = lo[j]
	}
	return nil
}

// independentRows drops equality rows that are linear combinations of the
// rows before them. A dependent row whose right-hand side disagrees makes the
// system inconsistent.
func independentRows(rows []stdRow, feas float64) ([]stdRow, error) {
	type pivotRow struct {
		a     []float64
		rhs   float64
		pivot int
	}
	var (
		basis []pivotRow
		keep  []stdRow
	)
	for _, r := range rows {
		a := append([]float64(nil), r.a...)
		rhs := r.rhs
		scale := 1.0
		for _, v := range a {
			scale = math.Max(scale, math.Abs(v))
		}
		for _, pr := range basis {
			f := a[pr.pivot]
			if f == 0 {
				continue
			}
			for k, v := range pr.a {
				if v != 0 {
					a[k] -= f * v
				}
			}
			rhs -= f * pr.rhs
		}
		piv, best := -1, 0.0
		for k, v := range a {
			if math.Abs(v) > best {
				piv, best = k, math.Abs(v)
			}
		}
		if best <= 1e-9*scale {
			if math.Abs(rhs) > feas*math.Max(1, math.Abs(r.rhs)) {
				return nil, fmt.Errorf("%w: constraint %s contradicts the others", errInfeasible, r.name)
			}
			continue
		}
		pv := a[piv]
		for k := range a {
			a[k] /= pv
		}
		basis = append(basis, pivotRow{a: a, rhs: rhs / pv, pivot: piv})
		keep = append(keep, r)
	}
	return keep, nil
}

// simplex runs gonum's solver. The call cannot be interrupted, so it runs in
// its own goroutine and the caller stops waiting when ctx is done; the
// goroutine itself runs on until gonum returns.
func simplex(ctx context.Context, c []float64, a *mat.Dense, b []float64, tol float64) ([]float64, error) {
	type result struct {
		x   []float64
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", errNumerical, r)}
			}
		}()
		_, x, err := lpSimplex(c, a, b, tol, nil)
		done <- result{x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		switch {
		case r.err == nil:
			return r.x, nil
		case errors.Is(r.err, gonumlp.ErrInfeasible):
			return nil, fmt.Errorf("%w: no point satisfies every constraint", errInfeasible)
		case errors.Is(r.err, gonumlp.ErrUnbounded):
			return nil, errUnbounded
		default:
			return nil, fmt.Errorf("%w: %v", errNumerical, r.err)
		}
	}
}

// checkRows rejects a point that violates a row beyond tolerance.
func checkRows(rows []row, x []float64, feas float64) error {
	for _, r := range rows {
		lhs, scale := 0.0, 1+math.Abs(r.rhs)
		for _, t := range r.terms {
			v := t.Coef * x[t.Var]
			lhs += v
			scale += math.Abs(v)
		}
		var viol float64
		switch r.sense {
		case lp.LessEq:
			viol = lhs - r.rhs
		case lp.GreaterEq:
			viol = r.rhs - lhs
		default:
			viol = math.Abs(lhs - r.rhs)
		}
		if viol > feas*scale {
			return fmt.Errorf("%w: constraint %s violated by %g", errNumerical, r.name, viol)
		}
	}
	return nil
}
