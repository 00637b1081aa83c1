package solver

import (
	"fmt"
	"math"

	"energy-dispatch/internal/lp"
)

// linearize rewrites every product of a binary z with a bounded variable x
// as an auxiliary w = z·x under the McCormick envelope
//
//	lx·z <= w <= ux·z
//	x - ux·(1-z) <= w <= x - lx·(1-z)
//
// which is exact whenever z is 0 or 1. Auxiliaries are appended after the
// model's own variables; the returned slice lists the binary variables.
func linearize(m *lp.Model) (*linearProblem, []int, error) {
	n := len(m.Vars)
	p := &linearProblem{
		name:  m.Name,
		lower: make([]float64, n),
		upper: make([]float64, n),
		cost:  make([]float64, n),
	}
	var ints []int
	for j, v := range m.Vars {
		p.lower[j] = v.Lower
		p.upper[j] = v.Upper
		if v.Kind == lp.Binary {
			p.lower[j] = math.Max(v.Lower, 0)
			p.upper[j] = math.Min(v.Upper, 1)
			ints = append(ints, j)
		}
	}

	aux := map[[2]lp.Var]lp.Var{}
	auxFor := func(pr lp.Product) (lp.Var, error) {
		key := [2]lp.Var{pr.A, pr.B}
		if w, ok := aux[key]; ok {
			return w, nil
		}
		z, x := pr.A, pr.B
		if m.Vars[z].Kind != lp.Binary {
			z, x = x, z
		}
		if m.Vars[z].Kind != lp.Binary {
			return 0, fmt.Errorf("%w: product of continuous variables %s and %s",
				errUnsupported, m.Vars[pr.A].Name, m.Vars[pr.B].Name)
		}
		lx, ux := p.lower[x], p.upper[x]
		if math.IsInf(lx, 0) || math.IsInf(ux, 0) {
			return 0, fmt.Errorf("%w: %s multiplies unbounded variable %s",
				errUnsupported, m.Vars[z].Name, m.Vars[x].Name)
		}
		w := lp.Var(len(p.lower))
		p.lower = append(p.lower, math.Min(0, lx))
		p.upper = append(p.upper, math.Max(0, ux))
		p.cost = append(p.cost, 0)

		name := fmt.Sprintf("%s*%s", m.Vars[z].Name, m.Vars[x].Name)
		p.rows = append(p.rows,
			envelope(name+"/lo", lp.GreaterEq, 0, lp.Term{Coef: 1, Var: w}, lp.Term{Coef: -lx, Var: z}),
			envelope(name+"/hi", lp.LessEq, 0, lp.Term{Coef: 1, Var: w}, lp.Term{Coef: -ux, Var: z}),
			envelope(name+"/x-hi", lp.LessEq, -lx, lp.Term{Coef: 1, Var: w}, lp.Term{Coef: -1, Var: x}, lp.Term{Coef: -lx, Var: z}),
			envelope(name+"/x-lo", lp.GreaterEq, -ux, lp.Term{Coef: 1, Var: w}, lp.Term{Coef: -1, Var: x}, lp.Term{Coef: -ux, Var: z}),
		)
		aux[key] = w
		return w, nil
	}

	flatten := func(e lp.Expr) ([]lp.Term, error) {
		e = e.Normalize()
		terms := append([]lp.Term(nil), e.Terms...)
		for _, pr := range e.Products {
			if pr.A == pr.B && m.Vars[pr.A].Kind == lp.Binary {
				terms = append(terms, lp.Term{Coef: pr.Coef, Var: pr.A})
				continue
			}
			w, err := auxFor(pr)
			if err != nil {
				return nil, err
			}
			terms = append(terms, lp.Term{Coef: pr.Coef, Var: w})
		}
		return lp.Expr{Terms: terms}.Normalize().Terms, nil
	}

	obj, err := flatten(m.Objective)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range m.Constraints {
		if c.Trivial {
			continue
		}
		terms, err := flatten(c.Expr)
		if err != nil {
			return nil, nil, err
		}
		p.rows = append(p.rows, row{name: c.Name, terms: terms, sense: c.Sense, rhs: -c.Expr.Constant})
	}
	for _, t := range obj {
		p.cost[t.Var] += t.Coef
	}
	p.offset = m.Objective.Constant
	return p, ints, nil
}

func envelope(name string, sense lp.Sense, rhs float64, terms ...lp.Term) row {
	r := row{name: name, sense: sense, rhs: rhs}
	for _, t := range terms {
		if t.Coef != 0 {
			r.terms = append(r.terms, t)
		}
	}
	return r
}
