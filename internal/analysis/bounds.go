package analysis

import (
	"mcore/internal/iir"
)

// BoundsInfo is, for every Param expression used as a read or write and
// every dimension of its index list, whether a lower-bound and an
// upper-bound check are required (spec §4.4). Both start true; a check
// is cleared only when it is provably unnecessary.
type BoundsInfo struct {
	Lower map[boundsKey]bool
	Upper map[boundsKey]bool
}

type boundsKey struct {
	Param *iir.ParamExpr
	Dim   int
}

func newBoundsInfo() *BoundsInfo {
	return &BoundsInfo{Lower: map[boundsKey]bool{}, Upper: map[boundsKey]bool{}}
}

func (b *BoundsInfo) NeedsLower(p *iir.ParamExpr, dim int) bool {
	v, ok := b.Lower[boundsKey{p, dim}]
	return !ok || v
}

func (b *BoundsInfo) NeedsUpper(p *iir.ParamExpr, dim int) bool {
	v, ok := b.Upper[boundsKey{p, dim}]
	return !ok || v
}

// BoundsCheckPass computes BoundsInfo for fn's body, consulting the
// TypeInfo already computed for the same (function, body, arg-type-string)
// key via mgr — the bounds analysis is defined purely in terms of
// type-inference facts (spec §4.4: "provably a positive integer scalar
// not exceeding that dimension's size for every possible inferred shape"),
// so it is itself implemented as a second manager-memoized pass rather
// than folding its transfer function into type inference.
func BoundsCheckPass(mgr *Manager, inf *Inferer) PassFunc {
	return func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		info := newBoundsInfo()
		if returnBottom {
			return info, nil
		}
		tiResult, err := mgr.Request("typeinfer", inf.TypeInferPass(), fn, body, argTypeString)
		if err != nil {
			return info, err
		}
		ti := tiResult.(*TypeInfo)
		bcWalkSeq(info, ti, body)
		return info, nil
	}
}

func bcWalkSeq(info *BoundsInfo, ti *TypeInfo, seq *iir.Seq) {
	for _, st := range seq.Stmts {
		switch s := st.(type) {
		case *iir.AssignStmt:
			for _, l := range s.Left {
				if p, ok := l.(*iir.ParamExpr); ok {
					bcCheckParam(info, ti, s, p)
				}
			}
			bcWalkExpr(info, ti, s, s.Right)
		case *iir.ExprStmt:
			bcWalkExpr(info, ti, s, s.E)
		case *iir.IfElseStmt:
			bcWalkExpr(info, ti, s, s.Cond)
			bcWalkSeq(info, ti, s.Then)
			if s.Else != nil {
				bcWalkSeq(info, ti, s.Else)
			}
		case *iir.LoopStmt:
			bcWalkSeq(info, ti, s.Init)
			bcWalkSeq(info, ti, s.Test)
			bcWalkSeq(info, ti, s.Body)
			bcWalkSeq(info, ti, s.Incr)
		}
	}
}

func bcWalkExpr(info *BoundsInfo, ti *TypeInfo, owner iir.Stmt, e iir.Expr) {
	if p, ok := e.(*iir.ParamExpr); ok {
		bcCheckParam(info, ti, owner, p)
		return
	}
	for _, sub := range e.SubExprs() {
		bcWalkExpr(info, ti, owner, sub)
	}
}

func allIntScalar(ts TypeSet) bool {
	for _, d := range ts {
		if !d.IsScalar || !d.IsInteger {
			return false
		}
	}
	return len(ts) > 0
}

func allSizeKnownAt(ts TypeSet, dim int) bool {
	for _, d := range ts {
		if !d.SizeKnown || dim >= len(d.SizeVector) {
			return false
		}
	}
	return true
}

// bcCheckParam clears the lower/upper bound-check flags for each
// argument position of p whose index is provably a positive integer
// scalar within the head matrix's known size, for every descriptor in
// the head's type set (spec §4.4: "for every possible inferred matrix
// shape").
func bcCheckParam(info *BoundsInfo, ti *TypeInfo, owner iir.Stmt, p *iir.ParamExpr) {
	entry := ti.Entry[owner]
	headTs, hasHead := entry[p.Sym]

	for dim, arg := range p.Args {
		key := boundsKey{p, dim}
		argTs, ok := ti.Expr[arg]
		isIntScalar := ok && len(argTs) > 0 && allIntScalar(argTs[0])

		// Lower-bound elimination requires a provable positive-integer
		// index; this core's descriptor does not carry a sign/range
		// field, so only a literal IntConst >= 1 is recognized.
		lit, isLit := arg.(*iir.IntConstExpr)
		if isLit && lit.Value >= 1 {
			info.Lower[key] = false
		}

		// Upper-bound elimination needs the index value too, so it is
		// likewise limited to a literal, compared against the head's
		// size at dim in every descriptor of its type set.
		if isLit && isIntScalar && hasHead && allSizeKnownAt(headTs, dim) {
			fits := true
			for _, d := range headTs {
				if lit.Value > int64(d.SizeVector[dim]) {
					fits = false
				}
			}
			if fits {
				info.Upper[key] = false
			}
		}
	}
}
