package codemotion

import (
	"sort"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Candidate 一条可移动的指令
type Candidate struct {
	Instr  ir.InstrID
	Reason Reason
	Round  int // 第几轮扫描时被接纳（从 1 开始）
}

// Candidates 一个链接上的可移动指令集合，按 src 中的程序顺序排列
type Candidates struct {
	Src   ir.BlockID
	Dst   ir.BlockID
	Items []Candidate
	set   map[ir.InstrID]bool
}

// Len 候选数量
func (c *Candidates) Len() int { return len(c.Items) }

// Contains 指令是否被接纳
func (c *Candidates) Contains(id ir.InstrID) bool { return c.set[id] }

// IDs 按程序顺序返回候选指令
func (c *Candidates) IDs() []ir.InstrID {
	ids := make([]ir.InstrID, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.Instr
	}
	return ids
}

// Collect 收集 src 中可以移到 dst 的指令
//
// 反复完整扫描 src，直到某一轮没有新指令被接纳。指令被接纳当且仅当
// 它本身可移动，且每个操作数要么已被接纳，要么不是指令，要么定义在
// 支配 dst 的块中（包括 dst 自身）。
func Collect(f *ir.Func, d DomOracle, src, dst ir.BlockID, scope Scope, log *zap.Logger) *Candidates {
	return collect(f, d, src, dst, scope, f.Block(src).Instrs, log)
}

// collect 按给定顺序扫描；结果与扫描顺序无关
func collect(f *ir.Func, d DomOracle, src, dst ir.BlockID, scope Scope, order []ir.InstrID, log *zap.Logger) *Candidates {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Candidates{Src: src, Dst: dst, set: make(map[ir.InstrID]bool)}

	// 判定只依赖指令本身与作用域，每条指令只算一次
	verdicts := make(map[ir.InstrID]Verdict, len(order))
	for _, id := range order {
		in := f.Instr(id)
		v := Classify(f, in, scope)
		verdicts[id] = v
		if !v.Movable {
			log.Debug("instruction cannot be moved",
				zap.String("instr", f.InstrName(id)),
				zap.Stringer("reason", v.Reason),
			)
		}
	}

	for round := 1; ; round++ {
		admitted := false
		for _, id := range order {
			v := verdicts[id]
			if !v.Movable || c.set[id] {
				continue
			}
			if !c.operandsAvailable(f, d, f.Instr(id)) {
				continue
			}
			c.set[id] = true
			c.Items = append(c.Items, Candidate{Instr: id, Reason: v.Reason, Round: round})
			admitted = true
			log.Debug("candidate admitted",
				zap.String("instr", f.InstrName(id)),
				zap.String("from", f.BlockName(src)),
				zap.String("to", f.BlockName(dst)),
				zap.Int("round", round),
			)
		}
		if !admitted {
			break
		}
	}

	pos := make(map[ir.InstrID]int, len(c.Items))
	for i, id := range f.Block(src).Instrs {
		pos[id] = i
	}
	sort.SliceStable(c.Items, func(i, j int) bool {
		return pos[c.Items[i].Instr] < pos[c.Items[j].Instr]
	})
	return c
}

// operandsAvailable 移到 dst 后每个操作数是否仍然可用
func (c *Candidates) operandsAvailable(f *ir.Func, d DomOracle, in *ir.Instr) bool {
	for _, op := range in.Operands {
		if !op.IsInstr() {
			continue
		}
		id := op.InstrID()
		if c.set[id] {
			continue
		}
		def := f.Instr(id)
		if def.Erased() {
			f.Fatalf("%s uses erased instruction %d", f.InstrName(in.ID), id)
		}
		if def.Block == c.Dst || d.Dominates(def.Block, c.Dst) {
			continue
		}
		return false
	}
	return true
}
