package frontend

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"mcore/internal/iir"
	"mcore/internal/symtab"
)

// node is a generic XML element used to walk the parser's IIR schema
// (spec §6: "Parsed XML schema (consumed shape)") without a
// struct-per-tag decoder — the grammar has one element type per IIR
// node kind, each carrying its children as further elements and its
// scalars as attributes, which a generic walk handles uniformly.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n node) mustAttr(name string) string {
	v, _ := n.attr(name)
	return v
}

// Decode parses a raw XML reply from the parser subprocess into the
// functions and scripts of one compilation unit, per spec §6's
// `<CompilationUnits>` root schema.
func Decode(xmlText string, symbols *symtab.Table) ([]*iir.ProgFunction, error) {
	var root node
	if err := xml.Unmarshal([]byte(xmlText), &root); err != nil {
		return nil, fmt.Errorf("frontend: decoding parser reply: %w", err)
	}
	if root.XMLName.Local != "CompilationUnits" {
		return nil, fmt.Errorf("frontend: expected <CompilationUnits>, got <%s>", root.XMLName.Local)
	}

	d := &decoder{symbols: symbols}
	var out []*iir.ProgFunction
	for _, child := range root.Nodes {
		switch child.XMLName.Local {
		case "FunctionList":
			for _, fnNode := range child.Nodes {
				if fnNode.XMLName.Local == "Function" {
					out = append(out, d.decodeFunction(fnNode, nil))
				}
			}
		case "Script":
			out = append(out, d.decodeScript(child))
		}
	}
	return out, nil
}

type decoder struct {
	symbols *symtab.Table
}

func (d *decoder) sym(name string) *symtab.Symbol { return d.symbols.Intern(name) }

func (d *decoder) decodeFunction(n node, parent *iir.ProgFunction) *iir.ProgFunction {
	fn := &iir.ProgFunction{Name: n.mustAttr("name"), Parent: parent}
	for _, child := range n.Nodes {
		switch child.XMLName.Local {
		case "InputParamList":
			fn.InParams = d.decodeSymbolList(child)
		case "OutputParamList":
			fn.OutParams = d.decodeSymbolList(child)
		case "NestedFunctionList":
			for _, nested := range child.Nodes {
				if nested.XMLName.Local == "Function" {
					fn.Children = append(fn.Children, d.decodeFunction(nested, fn))
				}
			}
		case "StmtList":
			fn.OrigBody = d.decodeStmtList(child)
		}
	}
	if fn.OrigBody == nil {
		fn.OrigBody = iir.NewSeq()
	}
	fn.CurBody = fn.OrigBody
	return fn
}

func (d *decoder) decodeScript(n node) *iir.ProgFunction {
	fn := &iir.ProgFunction{Name: n.mustAttr("name"), IsScript: true}
	if fn.Name == "" {
		fn.Name = "script"
	}
	for _, child := range n.Nodes {
		if child.XMLName.Local == "StmtList" {
			fn.OrigBody = d.decodeStmtList(child)
		}
	}
	if fn.OrigBody == nil {
		fn.OrigBody = iir.NewSeq()
	}
	fn.CurBody = fn.OrigBody
	return fn
}

func (d *decoder) decodeSymbolList(n node) []*symtab.Symbol {
	var out []*symtab.Symbol
	for _, child := range n.Nodes {
		if name, ok := child.attr("nameId"); ok {
			out = append(out, d.sym(name))
		} else if child.Text != "" {
			out = append(out, d.sym(child.Text))
		}
	}
	return out
}

func (d *decoder) decodeStmtList(n node) *iir.Seq {
	seq := iir.NewSeq()
	for _, child := range n.Nodes {
		if child.XMLName.Local == "StmtList" {
			seq.Stmts = append(seq.Stmts, d.decodeStmtList(child).Stmts...)
			continue
		}
		seq.Stmts = append(seq.Stmts, d.decodeStmt(child))
	}
	return seq
}

func boolAttr(n node, name string) bool {
	v, ok := n.attr(name)
	return ok && (v == "true" || v == "1")
}

func (d *decoder) decodeStmt(n node) iir.Stmt {
	suppress := boolAttr(n, "suppress")
	switch n.XMLName.Local {
	case "Assign":
		var left []iir.Expr
		var right iir.Expr
		for _, child := range n.Nodes {
			if child.XMLName.Local == "LeftList" {
				for _, l := range child.Nodes {
					left = append(left, d.decodeExpr(l))
				}
			} else if right == nil {
				right = d.decodeExpr(child)
			}
		}
		return iir.NewAssign(left, right, suppress)
	case "Expr":
		var e iir.Expr
		if len(n.Nodes) > 0 {
			e = d.decodeExpr(n.Nodes[0])
		}
		return iir.NewExprStmt(e, suppress)
	case "If":
		var cond iir.Expr
		var then, els *iir.Seq
		for _, child := range n.Nodes {
			switch child.XMLName.Local {
			case "Cond":
				if len(child.Nodes) > 0 {
					cond = d.decodeExpr(child.Nodes[0])
				}
			case "Then":
				then = d.decodeStmtList(child)
			case "Else":
				els = d.decodeStmtList(child)
			}
		}
		if then == nil {
			then = iir.NewSeq()
		}
		return iir.NewIfElse(cond, then, els)
	case "Switch":
		return d.decodeSwitch(n)
	case "For":
		var iter iir.Expr
		var body *iir.Seq
		varSym := d.sym(n.mustAttr("nameId"))
		for _, child := range n.Nodes {
			switch child.XMLName.Local {
			case "Iter":
				if len(child.Nodes) > 0 {
					iter = d.decodeExpr(child.Nodes[0])
				}
			case "Body":
				body = d.decodeStmtList(child)
			}
		}
		if body == nil {
			body = iir.NewSeq()
		}
		return &iir.ForStmt{Var: varSym, Iter: iter, Body: body}
	case "While":
		var cond iir.Expr
		var body *iir.Seq
		for _, child := range n.Nodes {
			switch child.XMLName.Local {
			case "Cond":
				if len(child.Nodes) > 0 {
					cond = d.decodeExpr(child.Nodes[0])
				}
			case "Body":
				body = d.decodeStmtList(child)
			}
		}
		if body == nil {
			body = iir.NewSeq()
		}
		return &iir.WhileStmt{Cond: cond, Body: body}
	case "Return":
		return iir.NewReturn()
	case "Break":
		return iir.NewBreak()
	case "Continue":
		return iir.NewContinue()
	default:
		return iir.NewExprStmt(&iir.IntConstExpr{Value: 0}, true)
	}
}

func (d *decoder) decodeSwitch(n node) *iir.SwitchStmt {
	sw := &iir.SwitchStmt{}
	for _, child := range n.Nodes {
		switch child.XMLName.Local {
		case "Value":
			if len(child.Nodes) > 0 {
				sw.Value = d.decodeExpr(child.Nodes[0])
			}
		case "Case":
			var val iir.Expr
			var body *iir.Seq
			for _, c := range child.Nodes {
				switch c.XMLName.Local {
				case "Value":
					if len(c.Nodes) > 0 {
						val = d.decodeExpr(c.Nodes[0])
					}
				case "Body":
					body = d.decodeStmtList(c)
				}
			}
			if body == nil {
				body = iir.NewSeq()
			}
			sw.Cases = append(sw.Cases, iir.SwitchCase{Value: val, Body: body})
		case "Otherwise":
			sw.Default = d.decodeStmtList(child)
		}
	}
	return sw
}

func (d *decoder) decodeExprList(n node) []iir.Expr {
	var out []iir.Expr
	for _, child := range n.Nodes {
		out = append(out, d.decodeExpr(child))
	}
	return out
}

var unaryTags = map[string]iir.UnaryOp{
	"UMinus":         iir.UnaryMinus,
	"Not":            iir.UnaryNot,
	"ArrayTranspose": iir.UnaryTransposeArray,
	"MTranspose":     iir.UnaryTransposeMatrix,
}

var binaryTags = map[string]iir.BinaryOp{
	"Plus": iir.BinPlus, "Minus": iir.BinMinus, "MTimes": iir.BinMTimes, "ETimes": iir.BinETimes,
	"MDiv": iir.BinMDiv, "EDiv": iir.BinEDiv, "MLDiv": iir.BinMLDiv, "MPow": iir.BinMPow, "EPow": iir.BinEPow,
	"EQ": iir.BinEQ, "NE": iir.BinNE, "LT": iir.BinLT, "LE": iir.BinLE, "GT": iir.BinGT, "GE": iir.BinGE,
	"AndAnd": iir.BinAndAnd, "OrOr": iir.BinOrOr, "And": iir.BinAndElem, "Or": iir.BinOrElem,
}

func (d *decoder) decodeExpr(n node) iir.Expr {
	if op, ok := unaryTags[n.XMLName.Local]; ok {
		return &iir.UnaryOpExpr{Op: op, Operand: d.decodeExpr(n.Nodes[0])}
	}
	if op, ok := binaryTags[n.XMLName.Local]; ok {
		return &iir.BinaryOpExpr{Op: op, Left: d.decodeExpr(n.Nodes[0]), Right: d.decodeExpr(n.Nodes[1])}
	}
	switch n.XMLName.Local {
	case "Name":
		return &iir.SymbolExpr{Sym: d.sym(n.mustAttr("nameId"))}
	case "IntLiteral":
		v, _ := strconv.ParseInt(n.mustAttr("value"), 10, 64)
		return &iir.IntConstExpr{Value: v}
	case "FPLiteral":
		v, _ := strconv.ParseFloat(n.mustAttr("value"), 64)
		return &iir.FPConstExpr{Value: v}
	case "StringLiteral":
		return &iir.StringConstExpr{Value: n.mustAttr("value")}
	case "Colon":
		return &iir.SymbolExpr{Sym: d.sym(":")}
	case "Range":
		r := &iir.RangeExpr{}
		for _, c := range n.Nodes {
			switch c.XMLName.Local {
			case "Start":
				r.Start = d.decodeExpr(c.Nodes[0])
			case "Step":
				r.Step = d.decodeExpr(c.Nodes[0])
			case "End":
				r.End = d.decodeExpr(c.Nodes[0])
			}
		}
		return r
	case "End":
		return &iir.EndExpr{}
	case "Parameterized":
		return &iir.ParamExpr{Sym: d.sym(n.mustAttr("nameId")), Args: d.decodeExprList(n)}
	case "CellIndex":
		return &iir.CellIndexExpr{Sym: d.sym(n.mustAttr("nameId")), Args: d.decodeExprList(n)}
	case "Matrix":
		return &iir.MatrixExpr{Rows: d.decodeRows(n)}
	case "CellArray":
		return &iir.CellArrayExpr{Rows: d.decodeRows(n)}
	case "FunctionHandle":
		return &iir.FnHandleExpr{Sym: d.sym(n.mustAttr("nameId"))}
	case "Lambda":
		var params []*symtab.Symbol
		var body iir.Expr
		for _, c := range n.Nodes {
			switch c.XMLName.Local {
			case "InputParamList":
				params = d.decodeSymbolList(c)
			case "Body":
				if len(c.Nodes) > 0 {
					body = d.decodeExpr(c.Nodes[0])
				}
			}
		}
		return &iir.LambdaExpr{InParams: params, Body: body}
	default:
		return &iir.IntConstExpr{Value: 0}
	}
}

func (d *decoder) decodeRows(n node) [][]iir.Expr {
	var rows [][]iir.Expr
	for _, rowNode := range n.Nodes {
		if rowNode.XMLName.Local != "Row" {
			continue
		}
		rows = append(rows, d.decodeExprList(rowNode))
	}
	return rows
}
