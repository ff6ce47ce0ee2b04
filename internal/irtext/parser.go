package irtext

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/taylorlloyd/llvmMRIS/internal/errors"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// ============================================================================
// Parser - 文本 IR 语法分析器
// ============================================================================
//
// 模块由三种顶层声明组成：
//
//	global @g : i32 const
//	declare @f(i32, ptr) -> i32 readonly
//	func @main(%n: i32) -> i32 {
//	entry:
//	  %x = add i32 %n, 1
//	  ret i32 %x
//	}
//
// 值与块都允许前向引用，在函数结束时统一解析。
// 一条指令出错后跳到下一行继续，以便一次报告多个错误。
//
// ============================================================================

// Parser 语法分析器
type Parser struct {
	filename string
	tokens   []Token
	pos      int
	errors   []*errors.CompileError

	mod *ir.Module

	// 当前函数状态
	fn       *ir.Func
	curBlock ir.BlockID
	params   map[string]int
	locals   map[string]ir.InstrID
	blocks   map[string]ir.BlockID
	fixups   []fixup
	pending  []fixup
	fnErrors int
}

// fixup 待解析的前向引用
type fixup struct {
	in    *ir.Instr
	idx   int
	name  string
	tok   Token
	block bool // true 时修补 Targets[idx]，否则修补 Operands[idx]
}

// bailout 用于从出错的指令中退出
type bailout struct{}

// NewParser 创建语法分析器
func NewParser(source, filename string) *Parser {
	lx := NewLexer(source, filename)
	p := &Parser{
		filename: filename,
		tokens:   lx.ScanTokens(),
	}
	p.errors = append(p.errors, lx.Errors()...)
	return p
}

// Parse 解析文本 IR 模块
func Parse(filename, source string) (*ir.Module, error) {
	return NewParser(source, filename).ParseModule()
}

// ParseFile 读取并解析文件
func ParseFile(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, string(data))
}

// MustParse 解析失败时 panic，用于测试夹具
func MustParse(source string) *ir.Module {
	m, err := Parse("<test>", source)
	if err != nil {
		panic(err)
	}
	return m
}

// Errors 返回收集到的错误
func (p *Parser) Errors() []*errors.CompileError { return p.errors }

// ParseModule 解析整个模块
func (p *Parser) ParseModule() (*ir.Module, error) {
	name := strings.TrimSuffix(filepath.Base(p.filename), ".mir")
	p.mod = ir.NewModule(name)

	for !p.at(EOF) {
		p.parseTopLevel()
	}

	if len(p.errors) == 0 {
		return p.mod, nil
	}
	var err error
	for _, e := range p.errors {
		err = multierr.Append(err, e)
	}
	return p.mod, err
}

func (p *Parser) parseTopLevel() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.syncTopLevel()
		}
	}()

	tok := p.cur()
	if tok.Type != IDENT {
		p.fail(tok, errors.E0007, "unexpected %s at top level", tok)
	}
	switch tok.Literal {
	case "global":
		p.parseGlobal()
	case "declare":
		p.parseDeclare()
	case "func":
		p.parseFunc()
	default:
		p.fail(tok, errors.E0007, "unexpected %s at top level", tok)
	}
}

// ============================================================================
// 顶层声明
// ============================================================================

// global @name : type [const]
func (p *Parser) parseGlobal() {
	p.next()
	nameTok := p.expect(GLOBAL)
	if _, dup := p.mod.GlobalIndex(nameTok.Literal); dup {
		p.fail(nameTok, errors.E0101, "global @%s redefined", nameTok.Literal)
	}
	p.expect(COLON)
	g := &ir.Global{Name: nameTok.Literal, Type: p.parseType()}
	if p.atIdent("const") {
		p.next()
		g.Const = true
	}
	p.mod.AddGlobal(g)
}

// declare @name(types) [-> type] [readnone|readonly]
func (p *Parser) parseDeclare() {
	p.next()
	nameTok := p.expect(GLOBAL)
	d := &ir.Decl{Name: nameTok.Literal, Ret: ir.Void}
	p.expect(LPAREN)
	for !p.at(RPAREN) {
		d.Params = append(d.Params, p.parseType())
		if !p.at(RPAREN) {
			p.expect(COMMA)
		}
	}
	p.expect(RPAREN)
	if p.at(ARROW) {
		p.next()
		d.Ret = p.parseType()
	}
	for {
		switch {
		case p.atIdent("readnone"):
			d.ReadNone = true
		case p.atIdent("readonly"):
			d.ReadOnly = true
		default:
			p.mod.AddDecl(d)
			return
		}
		p.next()
	}
}

// func @name(%p: type, ...) [-> type] { body }
func (p *Parser) parseFunc() {
	funcTok := p.next()
	nameTok := p.expect(GLOBAL)
	if _, dup := p.mod.Func(nameTok.Literal); dup {
		p.fail(nameTok, errors.E0105, "function @%s redefined", nameTok.Literal)
	}

	var params []*ir.Param
	p.params = make(map[string]int)
	p.expect(LPAREN)
	for !p.at(RPAREN) {
		pt := p.expect(LOCAL)
		if _, dup := p.params[pt.Literal]; dup {
			p.fail(pt, errors.E0101, "parameter %%%s redefined", pt.Literal)
		}
		p.expect(COLON)
		p.params[pt.Literal] = len(params)
		params = append(params, &ir.Param{Name: pt.Literal, Type: p.parseType()})
		if !p.at(RPAREN) {
			p.expect(COMMA)
		}
	}
	p.expect(RPAREN)
	ret := ir.Void
	if p.at(ARROW) {
		p.next()
		ret = p.parseType()
	}
	p.expect(LBRACE)

	p.fn = ir.NewFunc(nameTok.Literal, params, ret)
	p.fn.File = p.filename
	p.mod.AddFunc(p.fn)
	p.curBlock = ir.NoBlock
	p.locals = make(map[string]ir.InstrID)
	p.blocks = make(map[string]ir.BlockID)
	p.fixups = p.fixups[:0]
	p.fnErrors = len(p.errors)

	for !p.at(RBRACE) && !p.at(EOF) {
		if p.at(IDENT) && p.peek(1).Type == COLON {
			p.parseLabel()
			continue
		}
		p.parseInstrSafe()
	}
	p.expect(RBRACE)

	p.finishFunc(funcTok)
}

func (p *Parser) parseLabel() {
	tok := p.next()
	p.next()
	if _, dup := p.blocks[tok.Literal]; dup {
		p.errorAt(tok, errors.E0103, "block %s redefined", tok.Literal)
	}
	id := p.fn.AddBlock(tok.Literal)
	p.blocks[tok.Literal] = id
	p.curBlock = id
}

// finishFunc 解析前向引用、重建边并校验结构
func (p *Parser) finishFunc(funcTok Token) {
	for _, fx := range p.fixups {
		if fx.block {
			b, ok := p.blocks[fx.name]
			if !ok {
				p.errorAt(fx.tok, errors.E0102, "undefined block %s", fx.name)
				continue
			}
			fx.in.Targets[fx.idx] = b
			continue
		}
		id, ok := p.locals[fx.name]
		if !ok {
			p.errorAt(fx.tok, errors.E0100, "undefined value %%%s", fx.name)
			continue
		}
		fx.in.Operands[fx.idx] = ir.InstrValue(id)
	}
	if len(p.errors) > p.fnErrors {
		return
	}
	if p.fn.NumBlocks() == 0 {
		p.errorAt(funcTok, errors.E0300, "function @%s has no blocks", p.fn.Name)
		return
	}
	p.fn.RebuildEdges()
	for _, e := range multierr.Errors(p.fn.Verify()) {
		p.errorAt(funcTok, errors.E0300, "%v", e)
	}
}

// ============================================================================
// 指令
// ============================================================================

func (p *Parser) parseInstrSafe() {
	start := p.pos
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			if p.pos == start {
				p.next()
			}
			p.syncLine()
		}
	}()
	p.parseInstr()
}

func (p *Parser) parseInstr() {
	start := p.cur()
	p.pending = p.pending[:0]

	name := ""
	if p.at(LOCAL) && p.peek(1).Type == ASSIGN {
		name = p.next().Literal
		p.next()
	}
	opTok := p.expect(IDENT)
	op, ok := ir.LookupOp(opTok.Literal)
	if !ok {
		p.fail(opTok, errors.E0201, "unknown instruction %q", opTok.Literal)
	}
	if p.curBlock == ir.NoBlock {
		p.fail(start, errors.E0006, "instruction outside of a block, expected a label")
	}

	in := &ir.Instr{Name: name, Op: op, Pos: ir.Pos{Line: start.Line, Column: start.Column}}
	p.parseFlags(in)

	switch {
	case op == ir.OpFNeg:
		t := p.parseType()
		in.Type = t
		p.addOperand(in, t)
	case op.IsBinary():
		t := p.parseType()
		in.Type = t
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, t)
	case op.IsCast():
		src := p.parseType()
		p.addOperand(in, src)
		p.expectIdent("to")
		in.Type = p.parseType()
	case op.IsCompare():
		predTok := p.expect(IDENT)
		in.Pred = ir.Pred(predTok.Literal)
		if op == ir.OpICmp && !ir.ValidICmpPred(in.Pred) {
			p.fail(predTok, errors.E0203, "invalid icmp predicate %q", predTok.Literal)
		}
		t := p.parseType()
		in.Type = ir.I1
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, t)
	default:
		p.parseOther(in)
	}

	p.parseMeta(in)

	if name != "" {
		if in.Type.IsVoid() {
			p.fail(start, errors.E0007, "%s does not produce a value", op)
		}
		_, isLocal := p.locals[name]
		_, isParam := p.params[name]
		if isLocal || isParam {
			p.fail(start, errors.E0101, "value %%%s redefined", name)
		}
	}

	id := p.fn.Append(p.curBlock, in)
	if name != "" {
		p.locals[name] = id
	}
	p.fixups = append(p.fixups, p.pending...)
}

func (p *Parser) parseOther(in *ir.Instr) {
	switch in.Op {
	case ir.OpSelect:
		t := p.parseType()
		in.Type = t
		p.addOperand(in, ir.I1)
		p.expect(COMMA)
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, t)

	case ir.OpGEP:
		in.ElemType = p.parseType()
		in.Type = ir.Ptr
		p.expect(COMMA)
		p.addOperand(in, ir.Ptr)
		for p.at(COMMA) {
			p.next()
			p.addTypedOperand(in, ir.I64)
		}

	case ir.OpExtractElement:
		t := p.parseVectorType()
		in.Type = t.Elem
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, ir.I32)

	case ir.OpInsertElement:
		t := p.parseVectorType()
		in.Type = t
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, t.Elem)
		p.expect(COMMA)
		p.addOperand(in, ir.I32)

	case ir.OpShuffleVector:
		t := p.parseVectorType()
		in.Type = t
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addTypedOperand(in, ir.I32)

	case ir.OpExtractValue:
		t := p.parseType()
		p.addOperand(in, t)
		in.Type = p.parseIndices(in, t)

	case ir.OpInsertValue:
		t := p.parseType()
		in.Type = t
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addTypedOperand(in, nil)
		field := p.parseIndices(in, t)
		if v := &in.Operands[1]; v.IsConst() && v.Type == nil {
			*v = retype(*v, field)
		}

	case ir.OpAlloca:
		in.ElemType = p.parseType()
		in.Type = ir.Ptr
		if p.at(COMMA) {
			p.next()
			p.addOperand(in, ir.I64)
		}

	case ir.OpLoad:
		t := p.parseType()
		in.Type = t
		in.ElemType = t
		p.expect(COMMA)
		p.addOperand(in, ir.Ptr)

	case ir.OpStore:
		t := p.parseType()
		in.ElemType = t
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, ir.Ptr)

	case ir.OpAtomicRMW:
		in.RMW = p.expect(IDENT).Literal
		in.Ordering = p.parseOrdering()
		t := p.parseType()
		in.Type = t
		in.ElemType = t
		p.addOperand(in, ir.Ptr)
		p.expect(COMMA)
		p.addOperand(in, t)

	case ir.OpCmpXchg:
		in.Ordering = p.parseOrdering()
		t := p.parseType()
		in.Type = t
		in.ElemType = t
		p.addOperand(in, ir.Ptr)
		p.expect(COMMA)
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addOperand(in, t)

	case ir.OpFence:
		in.Ordering = p.parseOrdering()

	case ir.OpCall:
		p.parseCall(in)

	case ir.OpPhi:
		t := p.parseType()
		in.Type = t
		for {
			p.expect(LBRACKET)
			p.addOperand(in, t)
			p.expect(COMMA)
			p.addTarget(in)
			p.expect(RBRACKET)
			if !p.at(COMMA) {
				break
			}
			p.next()
		}

	case ir.OpBr:
		p.addTarget(in)

	case ir.OpCondBr:
		p.addOperand(in, ir.I1)
		p.expect(COMMA)
		p.addTarget(in)
		p.expect(COMMA)
		p.addTarget(in)

	case ir.OpSwitch:
		t := p.parseType()
		p.addOperand(in, t)
		p.expect(COMMA)
		p.addTarget(in)
		p.expect(LBRACKET)
		for !p.at(RBRACKET) {
			p.addOperand(in, t)
			p.expect(COLON)
			p.addTarget(in)
			if p.at(COMMA) {
				p.next()
			}
		}
		p.expect(RBRACKET)

	case ir.OpRet:
		if !p.fn.Ret.IsVoid() {
			t := p.parseType()
			p.addOperand(in, t)
		}

	case ir.OpUnreachable:

	default:
		p.fail(p.cur(), errors.E0201, "unsupported instruction %s", in.Op)
	}
}

// call T @f(args) / call T %fp(args)
func (p *Parser) parseCall(in *ir.Instr) {
	in.Type = p.parseType()
	var decl *ir.Decl
	switch tok := p.cur(); tok.Type {
	case GLOBAL:
		p.next()
		in.Callee = tok.Literal
		decl, _ = p.mod.Decl(tok.Literal)
	case LOCAL:
		p.addOperand(in, ir.Ptr)
	default:
		p.fail(tok, errors.E0006, "expected callee, found %s", tok)
	}
	p.expect(LPAREN)
	for i := 0; !p.at(RPAREN); i++ {
		ctx := ir.I64
		if decl != nil && i < len(decl.Params) {
			ctx = decl.Params[i]
		}
		p.addTypedOperand(in, ctx)
		if !p.at(RPAREN) {
			p.expect(COMMA)
		}
	}
	p.expect(RPAREN)
}

// parseIndices 解析聚合下标，返回被访问字段的类型
func (p *Parser) parseIndices(in *ir.Instr, agg *ir.Type) *ir.Type {
	t := agg
	for p.at(COMMA) {
		p.next()
		tok := p.expect(INT)
		idx, _ := strconv.Atoi(tok.Literal)
		in.Operands = append(in.Operands, ir.ConstIntValue(ir.I32, int64(idx)))
		switch {
		case t.Kind == ir.TypeStruct && idx >= 0 && idx < len(t.Fields):
			t = t.Fields[idx]
		case t.Kind == ir.TypeArray && idx >= 0 && idx < t.Len:
			t = t.Elem
		default:
			p.fail(tok, errors.E0200, "index %d out of range for %s", idx, t)
		}
	}
	return t
}

func (p *Parser) parseFlags(in *ir.Instr) {
	for {
		switch {
		case p.atIdent("volatile"):
			p.next()
			in.Volatile = true
		case p.atIdent("checked"):
			p.next()
			in.Checked = true
		case p.atIdent("atomic"):
			p.next()
			in.Ordering = p.parseOrdering()
		default:
			return
		}
	}
}

func (p *Parser) parseOrdering() ir.Ordering {
	tok := p.expect(IDENT)
	o, ok := ir.LookupOrdering(tok.Literal)
	if !ok {
		p.fail(tok, errors.E0204, "invalid atomic ordering %q", tok.Literal)
	}
	return o
}

func (p *Parser) parseMeta(in *ir.Instr) {
	for p.at(META) {
		tok := p.next()
		switch tok.Literal {
		case "tbaa":
			in.Meta.TBAA = p.expect(STRING).Literal
		case "scope":
			in.Meta.Scope = p.expect(STRING).Literal
		case "noalias":
			for _, s := range strings.Split(p.expect(STRING).Literal, ",") {
				if s = strings.TrimSpace(s); s != "" {
					in.Meta.NoAlias = append(in.Meta.NoAlias, s)
				}
			}
		case "invariant":
			in.Meta.Invariant = true
		default:
			p.fail(tok, errors.E0007, "unknown metadata %s", tok)
		}
	}
}

// ============================================================================
// 操作数
// ============================================================================

func (p *Parser) addOperand(in *ir.Instr, ctx *ir.Type) {
	in.Operands = append(in.Operands, p.parseValue(in, len(in.Operands), ctx))
}

// addTypedOperand 操作数前允许显式类型
func (p *Parser) addTypedOperand(in *ir.Instr, ctx *ir.Type) {
	if p.atTypeStart() {
		ctx = p.parseType()
	}
	p.addOperand(in, ctx)
}

func (p *Parser) addTarget(in *ir.Instr) {
	tok := p.expect(IDENT)
	idx := len(in.Targets)
	if b, ok := p.blocks[tok.Literal]; ok {
		in.Targets = append(in.Targets, b)
		return
	}
	in.Targets = append(in.Targets, ir.NoBlock)
	p.pending = append(p.pending, fixup{in: in, idx: idx, name: tok.Literal, tok: tok, block: true})
}

func (p *Parser) parseValue(in *ir.Instr, idx int, ctx *ir.Type) ir.Value {
	tok := p.next()
	switch tok.Type {
	case LOCAL:
		if i, ok := p.params[tok.Literal]; ok {
			return ir.ArgValue(i)
		}
		if id, ok := p.locals[tok.Literal]; ok {
			return ir.InstrValue(id)
		}
		p.pending = append(p.pending, fixup{in: in, idx: idx, name: tok.Literal, tok: tok})
		return ir.InstrValue(ir.NoInstr)
	case GLOBAL:
		i, ok := p.mod.GlobalIndex(tok.Literal)
		if !ok {
			p.fail(tok, errors.E0104, "undefined global @%s", tok.Literal)
		}
		return ir.GlobalValue(i)
	case INT:
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			u, _ := strconv.ParseUint(tok.Literal, 10, 64)
			v = int64(u)
		}
		if ctx != nil && ctx.Kind == ir.TypeFloat {
			return ir.ConstFloatValue(ctx, float64(v))
		}
		if ctx == nil {
			return ir.Value{Kind: ir.ValueConst, Const: ir.ConstInt, Int: v}
		}
		return ir.ConstIntValue(ctx, v)
	case FLOAT:
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		if ctx == nil || ctx.Kind != ir.TypeFloat {
			ctx = ir.F64
		}
		return ir.ConstFloatValue(ctx, v)
	case STRING:
		return ir.ConstStringValue(tok.Literal)
	case IDENT:
		switch tok.Literal {
		case "true":
			return ir.ConstIntValue(ir.I1, 1)
		case "false":
			return ir.ConstIntValue(ir.I1, 0)
		case "null":
			return ir.NullValue()
		case "undef":
			if ctx == nil {
				ctx = ir.I64
			}
			return ir.UndefValue(ctx)
		}
	}
	p.fail(tok, errors.E0007, "expected value, found %s", tok)
	return ir.Value{}
}

// retype 为无类型整数常量补上类型
func retype(v ir.Value, t *ir.Type) ir.Value {
	if t != nil && t.Kind == ir.TypeFloat {
		return ir.ConstFloatValue(t, float64(v.Int))
	}
	if t == nil {
		t = ir.I64
	}
	v.Type = t
	return v
}

// ============================================================================
// 类型
// ============================================================================

func (p *Parser) parseType() *ir.Type {
	tok := p.next()
	switch tok.Type {
	case IDENT:
		if t, ok := namedType(tok.Literal); ok {
			return t
		}
	case LT, LBRACKET:
		n := p.expect(INT)
		count, _ := strconv.Atoi(n.Literal)
		p.expectIdent("x")
		elem := p.parseType()
		if tok.Type == LT {
			p.expect(GT)
			return ir.VectorType(count, elem)
		}
		p.expect(RBRACKET)
		return ir.ArrayType(count, elem)
	case LBRACE:
		var fields []*ir.Type
		for !p.at(RBRACE) {
			fields = append(fields, p.parseType())
			if !p.at(RBRACE) {
				p.expect(COMMA)
			}
		}
		p.expect(RBRACE)
		return ir.StructType(fields...)
	}
	p.fail(tok, errors.E0200, "unknown type %s", tok)
	return nil
}

func (p *Parser) parseVectorType() *ir.Type {
	tok := p.cur()
	t := p.parseType()
	if t.Kind != ir.TypeVector {
		p.fail(tok, errors.E0200, "expected vector type, found %s", t)
	}
	return t
}

func namedType(name string) (*ir.Type, bool) {
	switch name {
	case "void":
		return ir.Void, true
	case "ptr":
		return ir.Ptr, true
	case "label":
		return ir.Label, true
	case "f32":
		return ir.F32, true
	case "f64":
		return ir.F64, true
	}
	if len(name) > 1 && name[0] == 'i' {
		bits, err := strconv.Atoi(name[1:])
		if err == nil && bits > 0 && bits <= 256 {
			return ir.IntType(bits), true
		}
	}
	return nil, false
}

func (p *Parser) atTypeStart() bool {
	tok := p.cur()
	switch tok.Type {
	case LT, LBRACE, LBRACKET:
		return true
	case IDENT:
		_, ok := namedType(tok.Literal)
		return ok
	}
	return false
}

// ============================================================================
// token 工具
// ============================================================================

func (p *Parser) cur() Token { return p.tokens[p.pos] }

func (p *Parser) peek(n int) Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) at(t TokenType) bool { return p.cur().Type == t }

func (p *Parser) atIdent(lit string) bool {
	tok := p.cur()
	return tok.Type == IDENT && tok.Literal == lit
}

func (p *Parser) expect(t TokenType) Token {
	tok := p.cur()
	if tok.Type != t {
		p.fail(tok, errors.E0006, "expected %s, found %s", t, tok)
	}
	return p.next()
}

func (p *Parser) expectIdent(lit string) Token {
	tok := p.cur()
	if !p.atIdent(lit) {
		p.fail(tok, errors.E0006, "expected %q, found %s", lit, tok)
	}
	return p.next()
}

func (p *Parser) errorAt(tok Token, code, format string, args ...interface{}) {
	p.errors = append(p.errors, errors.New(code, p.filename, tok.Line, tok.Column, format, args...))
}

func (p *Parser) fail(tok Token, code, format string, args ...interface{}) {
	p.errorAt(tok, code, format, args...)
	panic(bailout{})
}

// syncLine 跳过出错指令剩余的部分
func (p *Parser) syncLine() {
	line := p.tokens[p.pos].Line
	if p.pos > 0 {
		line = p.tokens[p.pos-1].Line
	}
	for !p.at(EOF) && p.cur().Line <= line {
		p.next()
	}
}

func (p *Parser) syncTopLevel() {
	for !p.at(EOF) {
		if p.atIdent("global") || p.atIdent("declare") || p.atIdent("func") {
			return
		}
		p.next()
	}
}
