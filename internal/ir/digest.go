package ir

import (
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Snapshot 函数结构的摘要，用于确认只读分析没有改动图
type Snapshot [blake2b.Size256]byte

// String 十六进制表示
func (s Snapshot) String() string { return hex.EncodeToString(s[:]) }

// Digest 计算函数当前结构的摘要
func Digest(f *Func) Snapshot {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(h, "func %s %d\n", f.Name, f.Entry)
	for _, b := range f.Blocks {
		fmt.Fprintf(h, "b%d %v %v %v\n", b.ID, b.Instrs, b.Succs, b.Preds)
	}
	for _, in := range f.Instrs {
		writeInstr(h, in)
	}
	var s Snapshot
	copy(s[:], h.Sum(nil))
	return s
}

func writeInstr(w io.Writer, in *Instr) {
	fmt.Fprintf(w, "i%d b%d %s %s %s %v %s %s %s %t %d %t %+v\n",
		in.ID, in.Block, in.Op, in.Type, in.Name, in.Targets, in.Pred, in.RMW,
		in.Callee, in.Volatile, in.Ordering, in.Checked, in.Meta)
	fmt.Fprintf(w, "  elem %s\n", in.ElemType)
	for _, op := range in.Operands {
		fmt.Fprintf(w, "  %d %d %d %d %v %q %s\n", op.Kind, op.Index, op.Const, op.Int, op.Float, op.Str, op.Type)
	}
}
