package iir

import (
	"fmt"
	"strings"

	"mcore/internal/symtab"
)

// Surface-only statement kinds: Switch/For/While never survive lowering
// (spec §3 invariant) so they carry no Annotations/suppress-output state
// beyond what the lowering passes need to read once.

const (
	KindSwitch StmtKind = 100 + iota
	KindFor
	KindWhile
)

// SwitchCase is one `case value; body` arm of a SwitchStmt.
type SwitchCase struct {
	Value Expr
	Body  *Seq
}

// SwitchStmt is the surface switch/case/otherwise construct; the switch
// elimination pass rewrites it into a chain of IfElseStmt comparing
// Value against each case with BinEQ, the default arm becoming the final
// else.
type SwitchStmt struct {
	baseStmt
	Value   Expr
	Cases   []SwitchCase
	Default *Seq // nil if no otherwise/default arm
}

func (s *SwitchStmt) Kind() StmtKind { return KindSwitch }
func (s *SwitchStmt) DeepCopy() Stmt {
	cases := make([]SwitchCase, len(s.Cases))
	for i, c := range s.Cases {
		cases[i] = SwitchCase{Value: c.Value.DeepCopy(), Body: c.Body.DeepCopy()}
	}
	out := &SwitchStmt{baseStmt: s.baseStmt, Value: s.Value.DeepCopy(), Cases: cases}
	if s.Default != nil {
		out.Default = s.Default.DeepCopy()
	}
	return out
}
func (s *SwitchStmt) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switch %s\n", s.Value)
	for _, c := range s.Cases {
		fmt.Fprintf(&sb, "case %s\n%s\n", c.Value, indent(c.Body.String()))
	}
	if s.Default != nil {
		fmt.Fprintf(&sb, "otherwise\n%s\n", indent(s.Default.String()))
	}
	sb.WriteString("end")
	return sb.String()
}
func (s *SwitchStmt) SymbolUses() symtab.Set {
	u := s.Value.SymbolUses()
	for _, c := range s.Cases {
		u = u.Union(c.Value.SymbolUses()).Union(c.Body.SymbolUses())
	}
	if s.Default != nil {
		u = u.Union(s.Default.SymbolUses())
	}
	return u
}
func (s *SwitchStmt) SymbolDefs() symtab.Set {
	d := symtab.Set{}
	for _, c := range s.Cases {
		d = d.Union(c.Body.SymbolDefs())
	}
	if s.Default != nil {
		d = d.Union(s.Default.SymbolDefs())
	}
	return d
}

// ForStmt is the surface for-loop: `for Var = Iter; Body; end`. Iter is
// typically a Range or Matrix expression whose columns are iterated.
type ForStmt struct {
	baseStmt
	Var  *symtab.Symbol
	Iter Expr
	Body *Seq
}

func (s *ForStmt) Kind() StmtKind { return KindFor }
func (s *ForStmt) DeepCopy() Stmt {
	return &ForStmt{baseStmt: s.baseStmt, Var: s.Var, Iter: s.Iter.DeepCopy(), Body: s.Body.DeepCopy()}
}
func (s *ForStmt) String() string {
	return fmt.Sprintf("for %s = %s\n%s\nend", s.Var.Name, s.Iter, indent(s.Body.String()))
}
func (s *ForStmt) SymbolUses() symtab.Set {
	return s.Iter.SymbolUses().Union(s.Body.SymbolUses())
}
func (s *ForStmt) SymbolDefs() symtab.Set {
	return s.Body.SymbolDefs().Union(symtab.NewSet(s.Var))
}

// WhileStmt is the surface while-loop.
type WhileStmt struct {
	baseStmt
	Cond Expr
	Body *Seq
}

func (s *WhileStmt) Kind() StmtKind { return KindWhile }
func (s *WhileStmt) DeepCopy() Stmt {
	return &WhileStmt{baseStmt: s.baseStmt, Cond: s.Cond.DeepCopy(), Body: s.Body.DeepCopy()}
}
func (s *WhileStmt) String() string {
	return fmt.Sprintf("while %s\n%s\nend", s.Cond, indent(s.Body.String()))
}
func (s *WhileStmt) SymbolUses() symtab.Set {
	return s.Cond.SymbolUses().Union(s.Body.SymbolUses())
}
func (s *WhileStmt) SymbolDefs() symtab.Set { return s.Body.SymbolDefs() }
