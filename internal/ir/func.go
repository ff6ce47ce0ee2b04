// func.go - 函数 arena
//
// Func 是块与指令的唯一所有者。块、指令均以稳定整数索引寻址，
// 删除指令只会把它从所在块摘除并标记，索引永不复用。

package ir

import "fmt"

// Param 函数参数
type Param struct {
	Name string
	Type *Type
}

// Func IR 函数
type Func struct {
	Name   string
	Params []*Param
	Ret    *Type
	Blocks []*Block
	Instrs []*Instr
	Entry  BlockID
	Module *Module
	File   string // 源文件，Pos 相对于它
}

// NewFunc 创建函数
func NewFunc(name string, params []*Param, ret *Type) *Func {
	if ret == nil {
		ret = Void
	}
	return &Func{
		Name:   name,
		Params: params,
		Ret:    ret,
		Entry:  NoBlock,
	}
}

// Fatalf 报告违反 IR 结构约定的错误。调用方传入了不一致的图，
// 这不是可恢复的错误。
func (f *Func) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf("ir: %s: %s", f.Name, fmt.Sprintf(format, args...)))
}

// ============================================================================
// 基本块
// ============================================================================

// AddBlock 追加一个基本块，第一个块为入口
func (f *Func) AddBlock(name string) BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &Block{ID: id, Name: name})
	if f.Entry == NoBlock {
		f.Entry = id
	}
	return id
}

// NumBlocks 块数量
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// Block 按 ID 取块
func (f *Func) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(f.Blocks) {
		f.Fatalf("invalid block id %d", id)
	}
	return f.Blocks[id]
}

// BlockByName 按名称查找块
func (f *Func) BlockByName(name string) (BlockID, bool) {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b.ID, true
		}
	}
	return NoBlock, false
}

// Succs 后继块
func (f *Func) Succs(id BlockID) []BlockID { return f.Block(id).Succs }

// Preds 前驱块
func (f *Func) Preds(id BlockID) []BlockID { return f.Block(id).Preds }

// BlockName 块名，未命名时使用编号
func (f *Func) BlockName(id BlockID) string {
	b := f.Block(id)
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("bb%d", id)
}

// Terminator 返回块的终止指令，没有时返回 nil
func (f *Func) Terminator(id BlockID) *Instr {
	b := f.Block(id)
	if len(b.Instrs) == 0 {
		return nil
	}
	last := f.Instr(b.Instrs[len(b.Instrs)-1])
	if !last.Op.IsTerminator() {
		return nil
	}
	return last
}

// FirstNonPhi 返回块中第一条非 phi 指令的下标
func (f *Func) FirstNonPhi(id BlockID) int {
	b := f.Block(id)
	for i, iid := range b.Instrs {
		if f.Instrs[iid].Op != OpPhi {
			return i
		}
	}
	return len(b.Instrs)
}

// RebuildEdges 根据终止指令重建后继/前驱边
func (f *Func) RebuildEdges() {
	for _, b := range f.Blocks {
		b.Succs = b.Succs[:0]
		b.Preds = b.Preds[:0]
	}
	for _, b := range f.Blocks {
		term := f.Terminator(b.ID)
		if term == nil {
			continue
		}
		for _, t := range term.Targets {
			b.Succs = append(b.Succs, t)
			f.Block(t).Preds = append(f.Block(t).Preds, b.ID)
		}
	}
}

// ============================================================================
// 指令
// ============================================================================

// Instr 按 ID 取指令
func (f *Func) Instr(id InstrID) *Instr {
	if id < 0 || int(id) >= len(f.Instrs) {
		f.Fatalf("invalid instruction id %d", id)
	}
	return f.Instrs[id]
}

// Live 指令是否存在且未被删除
func (f *Func) Live(id InstrID) bool {
	return id >= 0 && int(id) < len(f.Instrs) && !f.Instrs[id].Erased()
}

func (f *Func) register(b BlockID, in *Instr) InstrID {
	id := InstrID(len(f.Instrs))
	in.ID = id
	in.Block = b
	if in.Type == nil {
		in.Type = Void
	}
	f.Instrs = append(f.Instrs, in)
	return id
}

// Append 在块尾追加指令
func (f *Func) Append(b BlockID, in *Instr) InstrID {
	blk := f.Block(b)
	id := f.register(b, in)
	blk.Instrs = append(blk.Instrs, id)
	return id
}

// InsertAt 在块的第 idx 个位置插入指令
func (f *Func) InsertAt(b BlockID, idx int, in *Instr) InstrID {
	blk := f.Block(b)
	if idx < 0 || idx > len(blk.Instrs) {
		f.Fatalf("insert position %d out of range in %s", idx, f.BlockName(b))
	}
	id := f.register(b, in)
	blk.Instrs = append(blk.Instrs, NoInstr)
	copy(blk.Instrs[idx+1:], blk.Instrs[idx:])
	blk.Instrs[idx] = id
	return id
}

// InsertBefore 在 pos 之前插入指令
func (f *Func) InsertBefore(pos InstrID, in *Instr) InstrID {
	b := f.Instr(pos).Block
	return f.InsertAt(b, f.IndexOf(pos), in)
}

// InsertAfter 在 pos 之后插入指令
func (f *Func) InsertAfter(pos InstrID, in *Instr) InstrID {
	b := f.Instr(pos).Block
	return f.InsertAt(b, f.IndexOf(pos)+1, in)
}

// IndexOf 指令在所在块中的下标
func (f *Func) IndexOf(id InstrID) int {
	in := f.Instr(id)
	if in.Erased() {
		f.Fatalf("instruction %d was erased", id)
	}
	for i, x := range f.Block(in.Block).Instrs {
		if x == id {
			return i
		}
	}
	f.Fatalf("instruction %d not found in %s", id, f.BlockName(in.Block))
	return -1
}

// Erase 删除指令。调用方负责确保它已没有使用者。
func (f *Func) Erase(id InstrID) {
	idx := f.IndexOf(id)
	in := f.Instrs[id]
	blk := f.Block(in.Block)
	blk.Instrs = append(blk.Instrs[:idx], blk.Instrs[idx+1:]...)
	in.Block = NoBlock
}

// ReplaceAllUses 将所有对 old 的引用替换为 v
func (f *Func) ReplaceAllUses(old InstrID, v Value) {
	for _, in := range f.Instrs {
		if in.Erased() {
			continue
		}
		for i, op := range in.Operands {
			if op.IsInstr() && op.InstrID() == old {
				in.Operands[i] = v
			}
		}
	}
}

// Users 返回引用 id 的指令（按 ID 升序）
func (f *Func) Users(id InstrID) []InstrID {
	var users []InstrID
	for _, in := range f.Instrs {
		if in.Erased() {
			continue
		}
		for _, op := range in.Operands {
			if op.IsInstr() && op.InstrID() == id {
				users = append(users, in.ID)
				break
			}
		}
	}
	return users
}

// UserMap 一次性计算所有指令的使用者
func (f *Func) UserMap() [][]InstrID {
	users := make([][]InstrID, len(f.Instrs))
	for _, in := range f.Instrs {
		if in.Erased() {
			continue
		}
		for _, op := range in.Operands {
			if !op.IsInstr() {
				continue
			}
			def := op.InstrID()
			if !f.Live(def) {
				f.Fatalf("%s uses unknown instruction %d", f.InstrName(in.ID), def)
			}
			u := users[def]
			if len(u) > 0 && u[len(u)-1] == in.ID {
				continue
			}
			users[def] = append(u, in.ID)
		}
	}
	return users
}

// TypeOf 操作数类型
func (f *Func) TypeOf(v Value) *Type {
	switch v.Kind {
	case ValueInstr:
		return f.Instr(v.InstrID()).Type
	case ValueArg:
		if int(v.Index) < len(f.Params) {
			return f.Params[v.Index].Type
		}
		f.Fatalf("invalid argument index %d", v.Index)
	case ValueGlobal:
		return Ptr
	}
	return v.Type
}

// InstrName 指令的显示名
func (f *Func) InstrName(id InstrID) string {
	in := f.Instr(id)
	if in.Name != "" {
		return "%" + in.Name
	}
	return fmt.Sprintf("%%%d", id)
}

// UniqueName 返回函数内尚未使用的名字：base、base1、base2……
func (f *Func) UniqueName(base string) string {
	used := make(map[string]bool, len(f.Instrs)+len(f.Params))
	for _, p := range f.Params {
		used[p.Name] = true
	}
	for _, in := range f.Instrs {
		if !in.Erased() && in.Name != "" {
			used[in.Name] = true
		}
	}
	if !used[base] {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		if !used[name] {
			return name
		}
	}
}

// ValueName 操作数的显示名
func (f *Func) ValueName(v Value) string {
	switch v.Kind {
	case ValueInstr:
		return f.InstrName(v.InstrID())
	case ValueArg:
		if int(v.Index) < len(f.Params) && f.Params[v.Index].Name != "" {
			return "%" + f.Params[v.Index].Name
		}
		return fmt.Sprintf("%%arg%d", v.Index)
	case ValueGlobal:
		if f.Module != nil && int(v.Index) < len(f.Module.Globals) {
			return "@" + f.Module.Globals[v.Index].Name
		}
		return fmt.Sprintf("@g%d", v.Index)
	}
	return v.constString()
}

// Global 解析全局操作数
func (f *Func) Global(v Value) (*Global, bool) {
	if v.Kind != ValueGlobal || f.Module == nil || int(v.Index) >= len(f.Module.Globals) {
		return nil, false
	}
	return f.Module.Globals[v.Index], true
}

// ForEachInstr 按块顺序遍历存活指令
func (f *Func) ForEachInstr(fn func(in *Instr)) {
	for _, b := range f.Blocks {
		for _, id := range b.Instrs {
			fn(f.Instrs[id])
		}
	}
}
