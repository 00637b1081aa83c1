package lp

import "sort"

// Term is Coef·Var.
type Term struct {
	Coef float64
	Var  Var
}

// Product is Coef·A·B, a bilinear term between two variables.
type Product struct {
	Coef float64
	A    Var
	B    Var
}

// Expr is a sum of linear terms, bilinear products and a constant.
// Expressions are values: every operation returns a new Expr.
type Expr struct {
	Terms    []Term
	Products []Product
	Constant float64
}

// V is the expression 1·v.
func V(v Var) Expr {
	return Expr{Terms: []Term{{Coef: 1, Var: v}}}
}

// Mul is the expression c·v.
func Mul(c float64, v Var) Expr {
	return Expr{Terms: []Term{{Coef: c, Var: v}}}
}

// C is a constant expression.
func C(c float64) Expr {
	return Expr{Constant: c}
}

// Prod is the bilinear expression c·a·b.
func Prod(c float64, a, b Var) Expr {
	return Expr{Products: []Product{{Coef: c, A: a, B: b}}}
}

// Sum adds expressions together.
func Sum(es ...Expr) Expr {
	var out Expr
	for _, e := range es {
		out = out.Plus(e)
	}
	return out
}

func (e Expr) Plus(o Expr) Expr {
	out := Expr{
		Terms:    make([]Term, 0, len(e.Terms)+len(o.Terms)),
		Products: make([]Product, 0, len(e.Products)+len(o.Products)),
		Constant: e.Constant + o.Constant,
	}
	out.Terms = append(append(out.Terms, e.Terms...), o.Terms...)
	out.Products = append(append(out.Products, e.Products...), o.Products...)
	return out
}

func (e Expr) Minus(o Expr) Expr {
	return e.Plus(o.Scale(-1))
}

func (e Expr) Scale(k float64) Expr {
	out := Expr{
		Terms:    make([]Term, len(e.Terms)),
		Products: make([]Product, len(e.Products)),
		Constant: e.Constant * k,
	}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Coef: t.Coef * k, Var: t.Var}
	}
	for i, p := range e.Products {
		out.Products[i] = Product{Coef: p.Coef * k, A: p.A, B: p.B}
	}
	return out
}

// IsLinear reports whether the expression has no bilinear products.
func (e Expr) IsLinear() bool {
	return len(e.Products) == 0
}

// Normalize merges repeated variables and products and drops zero coefficients.
// Terms are ordered by variable index.
func (e Expr) Normalize() Expr {
	coefs := map[Var]float64{}
	for _, t := range e.Terms {
		coefs[t.Var] += t.Coef
	}
	type pair struct{ a, b Var }
	prods := map[pair]float64{}
	for _, p := range e.Products {
		a, b := p.A, p.B
		if b < a {
			a, b = b, a
		}
		prods[pair{a, b}] += p.Coef
	}

	out := Expr{Constant: e.Constant}
	for v, c := range coefs {
		if c != 0 {
			out.Terms = append(out.Terms, Term{Coef: c, Var: v})
		}
	}
	sort.Slice(out.Terms, func(i, j int) bool { return out.Terms[i].Var < out.Terms[j].Var })
	for k, c := range prods {
		if c != 0 {
			out.Products = append(out.Products, Product{Coef: c, A: k.a, B: k.b})
		}
	}
	sort.Slice(out.Products, func(i, j int) bool {
		if out.Products[i].A != out.Products[j].A {
			return out.Products[i].A < out.Products[j].A
		}
		return out.Products[i].B < out.Products[j].B
	})
	return out
}

// Eval computes the expression for the given variable values.
func (e Expr) Eval(values []float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var]
	}
	for _, p := range e.Products {
		sum += p.Coef * values[p.A] * values[p.B]
	}
	return sum
}
