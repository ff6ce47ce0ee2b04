// Package liveness 跨块活跃变量报告
//
// 只关心在定义块之外还有使用者的指令。phi 的使用算在对应来源块的出口处。
package liveness

import (
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Kind 值在块中的活跃方式
type Kind uint8

const (
	In   Kind = iota // 只在入口活跃
	Out              // 只在出口活跃
	Thru             // 入口和出口都活跃
)

func (k Kind) String() string {
	switch k {
	case In:
		return "IN"
	case Out:
		return "OUT"
	}
	return "THRU"
}

// Entry 一个值在某块中的活跃情况
type Entry struct {
	Value ir.InstrID
	Def   ir.BlockID
	Kind  Kind
}

// Result 函数的活跃信息
type Result struct {
	fn      *ir.Func
	liveIn  []map[ir.InstrID]bool
	liveOut []map[ir.InstrID]bool
}

// Analyze 计算函数中每个跨块值的活跃块
func Analyze(f *ir.Func, log *zap.Logger) *Result {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Result{
		fn:      f,
		liveIn:  make([]map[ir.InstrID]bool, f.NumBlocks()),
		liveOut: make([]map[ir.InstrID]bool, f.NumBlocks()),
	}
	for i := range r.liveIn {
		r.liveIn[i] = make(map[ir.InstrID]bool)
		r.liveOut[i] = make(map[ir.InstrID]bool)
	}

	users := f.UserMap()
	f.ForEachInstr(func(in *ir.Instr) {
		if !in.HasResult() {
			return
		}
		n := r.markValue(in, users[in.ID])
		if n > 0 {
			log.Debug("value live across blocks",
				zap.String("func", f.Name),
				zap.String("value", f.InstrName(in.ID)),
				zap.Int("blocks", n),
			)
		}
	})
	return r
}

// markValue 从每个使用点逆向传播，直到定义块为止；返回新增的标记数
func (r *Result) markValue(def *ir.Instr, users []ir.InstrID) int {
	f := r.fn
	id, home := def.ID, def.Block
	var stack []ir.BlockID
	touched := 0

	// liveInAt 标记 b 入口活跃，其前驱稍后出栈处理
	liveInAt := func(b ir.BlockID) {
		if b == home || r.liveIn[b][id] {
			return
		}
		r.liveIn[b][id] = true
		touched++
		stack = append(stack, b)
	}
	liveOutAt := func(b ir.BlockID) {
		if r.liveOut[b][id] {
			return
		}
		r.liveOut[b][id] = true
		touched++
		liveInAt(b)
	}

	for _, u := range users {
		user := f.Instr(u)
		if user.Op == ir.OpPhi {
			for i, v := range user.Operands {
				if v.IsInstr() && v.InstrID() == id {
					liveOutAt(user.Targets[i])
				}
			}
			continue
		}
		if user.Block != home {
			liveInAt(user.Block)
		}
	}

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range f.Preds(b) {
			liveOutAt(p)
		}
	}
	return touched
}

// LiveIn 值在块入口是否活跃
func (r *Result) LiveIn(b ir.BlockID, id ir.InstrID) bool { return r.liveIn[b][id] }

// LiveOut 值在块出口是否活跃
func (r *Result) LiveOut(b ir.BlockID, id ir.InstrID) bool { return r.liveOut[b][id] }

// Entries 块中活跃的值，先 IN 再 OUT 再 THRU，同类按指令 ID 排序
func (r *Result) Entries(b ir.BlockID) []Entry {
	var out []Entry
	add := func(ids map[ir.InstrID]bool, kind Kind, keep func(ir.InstrID) bool) {
		var sorted []ir.InstrID
		for id := range ids {
			if keep(id) {
				sorted = append(sorted, id)
			}
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, id := range sorted {
			out = append(out, Entry{Value: id, Def: r.fn.Instr(id).Block, Kind: kind})
		}
	}
	in, outs := r.liveIn[b], r.liveOut[b]
	add(in, In, func(id ir.InstrID) bool { return !outs[id] })
	add(outs, Out, func(id ir.InstrID) bool { return !in[id] })
	add(in, Thru, func(id ir.InstrID) bool { return outs[id] })
	return out
}

// Pressure 块边界上同时活跃的跨块值数量的最大值
func (r *Result) Pressure(b ir.BlockID) int {
	if n := len(r.liveOut[b]); n > len(r.liveIn[b]) {
		return n
	}
	return len(r.liveIn[b])
}

// Fprint 输出每个块的跨块压力与 IN / OUT / THRU 列表
func (r *Result) Fprint(w io.Writer) error {
	f := r.fn
	for _, b := range f.Blocks {
		if _, err := fmt.Fprintf(w, "\n\nBasic Block: %s (pressure %d)\n", f.BlockName(b.ID), r.Pressure(b.ID)); err != nil {
			return err
		}
		for _, e := range r.Entries(b.ID) {
			var err error
			switch e.Kind {
			case Out:
				_, err = fmt.Fprintf(w, " %-4s %s\n", e.Kind, f.InstrName(e.Value))
			default:
				_, err = fmt.Fprintf(w, " %-4s %s from %s\n", e.Kind, f.InstrName(e.Value), f.BlockName(e.Def))
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
