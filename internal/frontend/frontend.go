// Package frontend 把 Go 源码经 SSA 降低为 IR 模块
//
// 包由 go/packages 加载，go/ssa 构建 SSA 形式后逐函数转换。没有直接
// IR 对应物的 Go 操作（接口、通道、映射、字符串运算等）降低为对
// go.* 外部函数的调用，代码移动分析会把它们当作不透明操作。
package frontend

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/taylorlloyd/llvmMRIS/internal/errors"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// loadMode 构建 SSA 所需的加载信息
const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
	packages.NeedTypesSizes | packages.NeedSyntax | packages.NeedTypesInfo

// Options 加载选项
type Options struct {
	Dir   string // go list 的工作目录
	Tests bool   // 同时加载测试包
	Log   *zap.Logger
}

// Load 加载匹配 patterns 的包，每个包降低为一个模块
func Load(opts Options, patterns ...string) ([]*ir.Module, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &packages.Config{Mode: loadMode, Dir: opts.Dir, Tests: opts.Tests}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var loadErr error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			loadErr = multierr.Append(loadErr, e)
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}

	prog, ssaPkgs := ssautil.Packages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	var (
		mods []*ir.Module
		errs error
	)
	for i, sp := range ssaPkgs {
		if sp == nil {
			continue
		}
		log.Debug("lowering package", zap.String("pkg", pkgs[i].PkgPath))
		m, err := lowerPackage(prog.Fset, sp, log)
		errs = multierr.Append(errs, err)
		mods = append(mods, m)
	}
	return mods, errs
}

// FromSource 把单个 Go 源文件降低为模块，只使用标准库导入
func FromSource(filename, src string, log *zap.Logger) (*ir.Module, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	pkg := types.NewPackage(file.Name.Name, file.Name.Name)
	conf := &types.Config{Importer: importer.Default()}
	sp, _, err := ssautil.BuildPackage(conf, fset, pkg, []*ast.File{file}, ssa.InstantiateGenerics)
	if err != nil {
		return nil, err
	}
	return lowerPackage(fset, sp, log)
}

// ============================================================================
// 包级降低
// ============================================================================

// moduleBuilder 维护模块级符号：全局变量、函数地址与外部声明
type moduleBuilder struct {
	m       *ir.Module
	pkg     *types.Package
	fset    *token.FileSet
	log     *zap.Logger
	callees map[string]*ir.Decl
	order   []string
}

func lowerPackage(fset *token.FileSet, sp *ssa.Package, log *zap.Logger) (*ir.Module, error) {
	mb := &moduleBuilder{
		m:       ir.NewModule(sp.Pkg.Path()),
		pkg:     sp.Pkg,
		fset:    fset,
		log:     log,
		callees: make(map[string]*ir.Decl),
	}

	var errs error
	for _, fn := range packageFuncs(sp) {
		f, err := newLowerer(mb, fn).lower()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		mb.m.AddFunc(f)
	}

	// 模块内没有定义的被调用者才需要声明
	for _, name := range mb.order {
		if _, ok := mb.m.Func(name); ok {
			continue
		}
		mb.m.AddDecl(mb.callees[name])
	}
	return mb.m, errs
}

// packageFuncs 包内所有有函数体的非泛型函数，按源码位置排序
//
// AllFunctions 只包含可达的函数，未被引用的非导出类型的方法要从
// 包成员的方法集中补上。
func packageFuncs(sp *ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	seen := make(map[*ssa.Function]bool)
	var add func(fn *ssa.Function)
	add = func(fn *ssa.Function) {
		if fn == nil || seen[fn] {
			return
		}
		seen[fn] = true
		if fn.Pkg != sp || len(fn.Blocks) == 0 || fn.Synthetic != "" {
			return
		}
		if fn.TypeParams().Len() > 0 && len(fn.TypeArgs()) == 0 {
			return
		}
		fns = append(fns, fn)
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
	}

	for fn := range ssautil.AllFunctions(sp.Prog) {
		add(fn)
	}
	prog := sp.Prog
	for _, mem := range sp.Members {
		switch mem := mem.(type) {
		case *ssa.Function:
			add(mem)
		case *ssa.Type:
			t := mem.Type()
			for _, recv := range []types.Type{t, types.NewPointer(t)} {
				mset := prog.MethodSets.MethodSet(recv)
				for i := 0; i < mset.Len(); i++ {
					add(prog.MethodValue(mset.At(i)))
				}
			}
		}
	}

	sort.Slice(fns, func(i, j int) bool {
		if fns[i].Pos() != fns[j].Pos() {
			return fns[i].Pos() < fns[j].Pos()
		}
		return fns[i].String() < fns[j].String()
	})
	return fns
}

// global 按名字取得（必要时创建）全局符号
func (mb *moduleBuilder) global(name string, t *ir.Type, isConst bool) ir.Value {
	if i, ok := mb.m.GlobalIndex(name); ok {
		return ir.GlobalValue(i)
	}
	return mb.m.AddGlobal(&ir.Global{Name: name, Type: t, Const: isConst})
}

// callee 记录一个被调用者的签名，第一次出现时决定声明内容
func (mb *moduleBuilder) callee(name string, params []*ir.Type, ret *ir.Type, readNone bool) {
	if _, ok := mb.callees[name]; ok {
		return
	}
	mb.callees[name] = &ir.Decl{Name: name, Params: params, Ret: ret, ReadNone: readNone}
	mb.order = append(mb.order, name)
}

// unsupported 前端无法降低的构造
func (mb *moduleBuilder) unsupported(pos token.Pos, format string, args ...interface{}) error {
	p := mb.fset.Position(pos)
	return errors.New(errors.E0301, p.Filename, p.Line, p.Column, format, args...)
}
