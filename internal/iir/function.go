package iir

import "mcore/internal/symtab"

// Function is the sum type for callables: a ProgFunction defined in
// source, or a LibFunction backed by a native entry point (the runtime
// primitives of spec §6).
type Function interface {
	FuncName() string
	isFunction()
}

// ProgFunction is a function or script parsed from source. OrigBody is
// retained after lowering replaces CurBody, so analyses can still report
// source locations and the function can be re-lowered under different
// options.
type ProgFunction struct {
	Name       string
	InParams   []*symtab.Symbol
	OutParams  []*symtab.Symbol
	Children   []*ProgFunction // nested function definitions
	OrigBody   *Seq
	CurBody    *Seq
	IsScript   bool
	IsClosure  bool
	Parent     *ProgFunction

	tempCounter int
}

func (f *ProgFunction) FuncName() string { return f.Name }
func (*ProgFunction) isFunction()        {}

// NewTemp mints a fresh temporary symbol unique within this function,
// following the `$t<k>` naming the split-form pass uses.
func (f *ProgFunction) NewTemp(tab *symtab.Table) *symtab.Symbol {
	f.tempCounter++
	return tab.Intern(tempName(f.tempCounter))
}

func tempName(k int) string {
	const digits = "0123456789"
	if k == 0 {
		return "$t0"
	}
	buf := []byte{}
	for k > 0 {
		buf = append([]byte{digits[k%10]}, buf...)
		k /= 10
	}
	return "$t" + string(buf)
}

// TypeMapFunc maps an argument type-set string to a return type-set
// string for a library function, per spec §3.
type TypeMapFunc func(argTypeString string) string

// NativeEntry is the native function pointer backing a LibFunction: it
// receives and returns runtime Array values (the heterogeneous
// argument/multiple-return container of spec §3). The concrete Array type
// lives in internal/runtime to avoid an import cycle.
type NativeEntry func(args interface{}) (interface{}, error)

// LibFunction is a function implemented outside the IIR (the runtime
// primitives of spec §6): BLAS-backed matrix ops, elementary functions,
// and similar natives.
type LibFunction struct {
	Name     string
	Native   NativeEntry
	TypeMap  TypeMapFunc // optional; nil means Unknown return type
}

func (f *LibFunction) FuncName() string { return f.Name }
func (*LibFunction) isFunction()        {}
