package ir

import (
	"fmt"

	"go.uber.org/multierr"
)

// Verify 检查函数结构的一致性，返回所有发现的问题
func (f *Func) Verify() error {
	var err error
	fail := func(format string, args ...interface{}) {
		err = multierr.Append(err, fmt.Errorf("%s: %s", f.Name, fmt.Sprintf(format, args...)))
	}

	if len(f.Blocks) == 0 {
		fail("function has no blocks")
		return err
	}
	if f.Entry < 0 || int(f.Entry) >= len(f.Blocks) {
		fail("invalid entry block %d", f.Entry)
		return err
	}
	if len(f.Blocks[f.Entry].Preds) > 0 {
		fail("entry block %s has predecessors", f.BlockName(f.Entry))
	}

	seen := make([]bool, len(f.Instrs))
	for _, b := range f.Blocks {
		name := f.BlockName(b.ID)
		if len(b.Instrs) == 0 {
			fail("block %s is empty", name)
			continue
		}
		phis := true
		for i, id := range b.Instrs {
			if id < 0 || int(id) >= len(f.Instrs) {
				fail("block %s references unknown instruction %d", name, id)
				continue
			}
			in := f.Instrs[id]
			if seen[id] {
				fail("instruction %s appears twice", f.InstrName(id))
			}
			seen[id] = true
			if in.Block != b.ID {
				fail("instruction %s records block %d but lives in %s", f.InstrName(id), in.Block, name)
			}
			if in.Op == OpPhi {
				if !phis {
					fail("phi %s is not at the start of %s", f.InstrName(id), name)
				}
			} else {
				phis = false
			}
			last := i == len(b.Instrs)-1
			if in.Op.IsTerminator() != last {
				if last {
					fail("block %s does not end with a terminator", name)
				} else {
					fail("terminator %s in the middle of %s", f.InstrName(id), name)
				}
			}
			err = multierr.Append(err, f.verifyOperands(in))
		}
		err = multierr.Append(err, f.verifyEdges(b))
	}
	return err
}

func (f *Func) verifyOperands(in *Instr) error {
	var err error
	for _, op := range in.Operands {
		switch op.Kind {
		case ValueInstr:
			if !f.Live(op.InstrID()) {
				err = multierr.Append(err, fmt.Errorf("%s: %s uses unknown instruction %d",
					f.Name, f.InstrName(in.ID), op.Index))
			}
		case ValueArg:
			if int(op.Index) >= len(f.Params) {
				err = multierr.Append(err, fmt.Errorf("%s: %s uses unknown argument %d",
					f.Name, f.InstrName(in.ID), op.Index))
			}
		case ValueGlobal:
			if _, ok := f.Global(op); !ok {
				err = multierr.Append(err, fmt.Errorf("%s: %s uses unknown global %d",
					f.Name, f.InstrName(in.ID), op.Index))
			}
		}
	}
	for _, t := range in.Targets {
		if t < 0 || int(t) >= len(f.Blocks) {
			err = multierr.Append(err, fmt.Errorf("%s: %s targets unknown block %d",
				f.Name, f.InstrName(in.ID), t))
		}
	}
	if in.Op == OpPhi && len(in.Targets) != len(in.Operands) {
		err = multierr.Append(err, fmt.Errorf("%s: phi %s has %d values for %d blocks",
			f.Name, f.InstrName(in.ID), len(in.Operands), len(in.Targets)))
	}
	return err
}

func (f *Func) verifyEdges(b *Block) error {
	var err error
	for _, s := range b.Succs {
		if s < 0 || int(s) >= len(f.Blocks) {
			err = multierr.Append(err, fmt.Errorf("%s: %s has unknown successor %d", f.Name, f.BlockName(b.ID), s))
			continue
		}
		if !f.Blocks[s].HasPred(b.ID) {
			err = multierr.Append(err, fmt.Errorf("%s: edge %s -> %s missing from predecessor list",
				f.Name, f.BlockName(b.ID), f.BlockName(s)))
		}
	}
	for _, p := range b.Preds {
		if p < 0 || int(p) >= len(f.Blocks) {
			err = multierr.Append(err, fmt.Errorf("%s: %s has unknown predecessor %d", f.Name, f.BlockName(b.ID), p))
			continue
		}
		if !f.Blocks[p].HasSucc(b.ID) {
			err = multierr.Append(err, fmt.Errorf("%s: edge %s -> %s missing from successor list",
				f.Name, f.BlockName(p), f.BlockName(b.ID)))
		}
	}
	for _, id := range b.Instrs {
		if int(id) >= len(f.Instrs) || id < 0 {
			continue
		}
		in := f.Instrs[id]
		if in.Op != OpPhi {
			continue
		}
		for _, t := range in.Targets {
			if !b.HasPred(t) {
				err = multierr.Append(err, fmt.Errorf("%s: phi %s names %s which is not a predecessor",
					f.Name, f.InstrName(id), f.BlockName(t)))
			}
		}
	}
	return err
}

// Verify 检查模块内所有函数
func (m *Module) Verify() error {
	var err error
	for _, f := range m.Funcs {
		err = multierr.Append(err, f.Verify())
	}
	return err
}
