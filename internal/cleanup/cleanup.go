// Package cleanup 修正外部前端生成的非法符号名
//
// 名字以 '$' 开头的全局符号、以及名字中含 '$' 的指令，去掉所有 '$'。
// 去掉后与已有名字冲突时追加数字后缀。
package cleanup

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Rename 一次改名
type Rename struct {
	Func string // 全局符号改名时为空
	Old  string
	New  string
}

func (r Rename) String() string {
	if r.Func == "" {
		return fmt.Sprintf("Global rename: %s -> %s", r.Old, r.New)
	}
	return fmt.Sprintf("Rename in %s: %%%s -> %%%s", r.Func, r.Old, r.New)
}

// Run 清理模块中的符号名，返回是否有修改以及改名记录
func Run(m *ir.Module, log *zap.Logger) (bool, []Rename) {
	if log == nil {
		log = zap.NewNop()
	}
	var renames []Rename

	taken := make(map[string]bool, len(m.Globals))
	for _, g := range m.Globals {
		taken[g.Name] = true
	}
	for _, g := range m.Globals {
		if !strings.HasPrefix(g.Name, "$") {
			continue
		}
		name := unique(strip(g.Name), taken)
		renames = append(renames, Rename{Old: g.Name, New: name})
		log.Debug("global rename", zap.String("old", g.Name), zap.String("new", name))
		delete(taken, g.Name)
		taken[name] = true
		g.Name = name
	}

	for _, f := range m.Funcs {
		renames = append(renames, Func(f, log)...)
	}
	return len(renames) > 0, renames
}

// Func 清理单个函数中的指令名
func Func(f *ir.Func, log *zap.Logger) []Rename {
	if log == nil {
		log = zap.NewNop()
	}
	var renames []Rename

	taken := make(map[string]bool)
	for _, p := range f.Params {
		taken[p.Name] = true
	}
	for _, b := range f.Blocks {
		for _, id := range b.Instrs {
			if n := f.Instr(id).Name; n != "" {
				taken[n] = true
			}
		}
	}

	f.ForEachInstr(func(in *ir.Instr) {
		if !strings.Contains(in.Name, "$") {
			return
		}
		name := unique(strip(in.Name), taken)
		renames = append(renames, Rename{Func: f.Name, Old: in.Name, New: name})
		log.Debug("instruction rename",
			zap.String("func", f.Name),
			zap.String("old", in.Name),
			zap.String("new", name),
		)
		delete(taken, in.Name)
		taken[name] = true
		in.Name = name
	})
	return renames
}

func strip(name string) string {
	return strings.ReplaceAll(name, "$", "")
}

// unique 名字为空或已被占用时追加数字后缀
func unique(name string, taken map[string]bool) string {
	base := name
	if base == "" {
		base = "v"
	}
	if name != "" && !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s.%d", base, i)
		if !taken[cand] {
			return cand
		}
	}
}
