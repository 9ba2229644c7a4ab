package frontend

import (
	"testing"

	"mcore/internal/iir"
	"mcore/internal/symtab"
)

func decodeOne(t *testing.T, xmlText string) *iir.ProgFunction {
	t.Helper()
	tab := symtab.NewTable()
	fns, err := Decode(xmlText, tab)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(fns) != 1 {
		t.Fatalf("Decode returned %d functions, want 1", len(fns))
	}
	return fns[0]
}

func TestDecodeRejectsWrongRoot(t *testing.T) {
	tab := symtab.NewTable()
	if _, err := Decode(`<NotTheRoot></NotTheRoot>`, tab); err == nil {
		t.Fatalf("Decode should reject a document whose root is not <CompilationUnits>")
	}
}

func TestDecodeFunctionParamsAndAssign(t *testing.T) {
	xmlText := `<CompilationUnits>
		<FunctionList>
			<Function name="f">
				<InputParamList><Name nameId="a"/></InputParamList>
				<OutputParamList><Name nameId="b"/></OutputParamList>
				<StmtList>
					<Assign>
						<LeftList><Name nameId="b"/></LeftList>
						<IntLiteral value="3"/>
					</Assign>
				</StmtList>
			</Function>
		</FunctionList>
	</CompilationUnits>`
	fn := decodeOne(t, xmlText)
	if fn.Name != "f" {
		t.Fatalf("Name = %q, want %q", fn.Name, "f")
	}
	if len(fn.InParams) != 1 || fn.InParams[0].Name != "a" {
		t.Fatalf("InParams = %v, want [a]", fn.InParams)
	}
	if len(fn.OutParams) != 1 || fn.OutParams[0].Name != "b" {
		t.Fatalf("OutParams = %v, want [b]", fn.OutParams)
	}
	if len(fn.OrigBody.Stmts) != 1 {
		t.Fatalf("OrigBody has %d statements, want 1", len(fn.OrigBody.Stmts))
	}
	assign, ok := fn.OrigBody.Stmts[0].(*iir.AssignStmt)
	if !ok {
		t.Fatalf("statement is %T, want *iir.AssignStmt", fn.OrigBody.Stmts[0])
	}
	lit, ok := assign.Right.(*iir.IntConstExpr)
	if !ok || lit.Value != 3 {
		t.Fatalf("assign.Right = %v, want IntConstExpr(3)", assign.Right)
	}
	if fn.CurBody != fn.OrigBody {
		t.Fatalf("a freshly decoded function's CurBody should alias OrigBody until lowered")
	}
}

func TestDecodeScriptDefaultsName(t *testing.T) {
	xmlText := `<CompilationUnits><Script name=""><StmtList></StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	if !fn.IsScript {
		t.Fatalf("decoded node should have IsScript = true")
	}
	if fn.Name != "script" {
		t.Fatalf("Name = %q, want the default %q", fn.Name, "script")
	}
}

func TestDecodeIfElse(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<If>
			<Cond><IntLiteral value="1"/></Cond>
			<Then><StmtList><Break/></StmtList></Then>
			<Else><StmtList><Continue/></StmtList></Else>
		</If>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	ifStmt, ok := fn.OrigBody.Stmts[0].(*iir.IfElseStmt)
	if !ok {
		t.Fatalf("statement is %T, want *iir.IfElseStmt", fn.OrigBody.Stmts[0])
	}
	if _, ok := ifStmt.Then.Stmts[0].(*iir.BreakStmt); !ok {
		t.Fatalf("Then branch's statement is %T, want *iir.BreakStmt", ifStmt.Then.Stmts[0])
	}
	if ifStmt.Else == nil {
		t.Fatalf("Else branch should be decoded")
	}
	if _, ok := ifStmt.Else.Stmts[0].(*iir.ContinueStmt); !ok {
		t.Fatalf("Else branch's statement is %T, want *iir.ContinueStmt", ifStmt.Else.Stmts[0])
	}
}

func TestDecodeForAndWhileAreSurfaceForms(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<For nameId="i">
			<Iter><Range><Start><IntLiteral value="1"/></Start><End><IntLiteral value="3"/></End></Range></Iter>
			<Body><StmtList><Return/></StmtList></Body>
		</For>
		<While>
			<Cond><IntLiteral value="1"/></Cond>
			<Body><StmtList></StmtList></Body>
		</While>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	if len(fn.OrigBody.Stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(fn.OrigBody.Stmts))
	}
	forStmt, ok := fn.OrigBody.Stmts[0].(*iir.ForStmt)
	if !ok {
		t.Fatalf("first statement is %T, want *iir.ForStmt", fn.OrigBody.Stmts[0])
	}
	if forStmt.Var.Name != "i" {
		t.Fatalf("For var = %q, want %q", forStmt.Var.Name, "i")
	}
	rangeExpr, ok := forStmt.Iter.(*iir.RangeExpr)
	if !ok {
		t.Fatalf("Iter is %T, want *iir.RangeExpr", forStmt.Iter)
	}
	if rangeExpr.Start.(*iir.IntConstExpr).Value != 1 || rangeExpr.End.(*iir.IntConstExpr).Value != 3 {
		t.Fatalf("Range bounds decoded incorrectly: %+v", rangeExpr)
	}
	if _, ok := fn.OrigBody.Stmts[1].(*iir.WhileStmt); !ok {
		t.Fatalf("second statement is %T, want *iir.WhileStmt", fn.OrigBody.Stmts[1])
	}
}

func TestDecodeSwitchCasesAndOtherwise(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<Switch>
			<Value><Name nameId="x"/></Value>
			<Case><Value><IntLiteral value="1"/></Value><Body><StmtList><Break/></StmtList></Body></Case>
			<Otherwise><StmtList><Continue/></StmtList></Otherwise>
		</Switch>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	sw, ok := fn.OrigBody.Stmts[0].(*iir.SwitchStmt)
	if !ok {
		t.Fatalf("statement is %T, want *iir.SwitchStmt", fn.OrigBody.Stmts[0])
	}
	if _, ok := sw.Value.(*iir.SymbolExpr); !ok {
		t.Fatalf("Switch value is %T, want *iir.SymbolExpr", sw.Value)
	}
	if len(sw.Cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(sw.Cases))
	}
	if sw.Cases[0].Value.(*iir.IntConstExpr).Value != 1 {
		t.Fatalf("case value decoded incorrectly: %+v", sw.Cases[0].Value)
	}
	if sw.Default == nil || len(sw.Default.Stmts) != 1 {
		t.Fatalf("Otherwise not decoded: %+v", sw.Default)
	}
}

func TestDecodeExpressionKinds(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<Assign>
			<LeftList><Name nameId="out"/></LeftList>
			<Plus>
				<Parameterized nameId="m"><IntLiteral value="1"/></Parameterized>
				<CellIndex nameId="c"><IntLiteral value="2"/></CellIndex>
			</Plus>
		</Assign>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	assign := fn.OrigBody.Stmts[0].(*iir.AssignStmt)
	bin, ok := assign.Right.(*iir.BinaryOpExpr)
	if !ok || bin.Op != iir.BinPlus {
		t.Fatalf("Right = %v, want a Plus binary op", assign.Right)
	}
	param, ok := bin.Left.(*iir.ParamExpr)
	if !ok || param.Sym.Name != "m" {
		t.Fatalf("Left = %v, want ParamExpr(m)", bin.Left)
	}
	cellIdx, ok := bin.Right.(*iir.CellIndexExpr)
	if !ok || cellIdx.Sym.Name != "c" {
		t.Fatalf("Right = %v, want CellIndexExpr(c)", bin.Right)
	}
}

func TestDecodeMatrixAndCellArrayLiterals(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<Assign>
			<LeftList><Name nameId="m"/></LeftList>
			<Matrix>
				<Row><IntLiteral value="1"/><IntLiteral value="2"/></Row>
				<Row><IntLiteral value="3"/><IntLiteral value="4"/></Row>
			</Matrix>
		</Assign>
		<Assign>
			<LeftList><Name nameId="c"/></LeftList>
			<CellArray><Row><StringLiteral value="hi"/></Row></CellArray>
		</Assign>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	matAssign := fn.OrigBody.Stmts[0].(*iir.AssignStmt)
	mat, ok := matAssign.Right.(*iir.MatrixExpr)
	if !ok {
		t.Fatalf("Right = %T, want *iir.MatrixExpr", matAssign.Right)
	}
	if len(mat.Rows) != 2 || len(mat.Rows[0]) != 2 {
		t.Fatalf("Matrix shape = %dx%d, want 2x2", len(mat.Rows), len(mat.Rows[0]))
	}

	cellAssign := fn.OrigBody.Stmts[1].(*iir.AssignStmt)
	cell, ok := cellAssign.Right.(*iir.CellArrayExpr)
	if !ok {
		t.Fatalf("Right = %T, want *iir.CellArrayExpr", cellAssign.Right)
	}
	strLit, ok := cell.Rows[0][0].(*iir.StringConstExpr)
	if !ok || strLit.Value != "hi" {
		t.Fatalf("cell element = %v, want StringConstExpr(\"hi\")", cell.Rows[0][0])
	}
}

func TestDecodeFunctionHandleAndLambda(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<Assign>
			<LeftList><Name nameId="h"/></LeftList>
			<FunctionHandle nameId="helper"/>
		</Assign>
		<Assign>
			<LeftList><Name nameId="g"/></LeftList>
			<Lambda>
				<InputParamList><Name nameId="x"/></InputParamList>
				<Body><Name nameId="x"/></Body>
			</Lambda>
		</Assign>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	hAssign := fn.OrigBody.Stmts[0].(*iir.AssignStmt)
	handle, ok := hAssign.Right.(*iir.FnHandleExpr)
	if !ok || handle.Sym.Name != "helper" {
		t.Fatalf("Right = %v, want FnHandleExpr(helper)", hAssign.Right)
	}

	gAssign := fn.OrigBody.Stmts[1].(*iir.AssignStmt)
	lambda, ok := gAssign.Right.(*iir.LambdaExpr)
	if !ok {
		t.Fatalf("Right = %T, want *iir.LambdaExpr", gAssign.Right)
	}
	if len(lambda.InParams) != 1 || lambda.InParams[0].Name != "x" {
		t.Fatalf("Lambda params = %v, want [x]", lambda.InParams)
	}
	if sym, ok := lambda.Body.(*iir.SymbolExpr); !ok || sym.Sym.Name != "x" {
		t.Fatalf("Lambda body = %v, want SymbolExpr(x)", lambda.Body)
	}
}

func TestDecodeColonBindsToColonSymbol(t *testing.T) {
	xmlText := `<CompilationUnits><Script name="s"><StmtList>
		<Assign><LeftList><Name nameId="x"/></LeftList><Colon/></Assign>
	</StmtList></Script></CompilationUnits>`
	fn := decodeOne(t, xmlText)
	assign := fn.OrigBody.Stmts[0].(*iir.AssignStmt)
	sym, ok := assign.Right.(*iir.SymbolExpr)
	if !ok || sym.Sym.Name != ":" {
		t.Fatalf("Right = %v, want SymbolExpr(\":\")", assign.Right)
	}
}
