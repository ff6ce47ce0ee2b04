package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/errors"
	"github.com/taylorlloyd/llvmMRIS/internal/frontend"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
	"github.com/taylorlloyd/llvmMRIS/internal/pass"
	"github.com/taylorlloyd/llvmMRIS/internal/report"
	"github.com/taylorlloyd/llvmMRIS/internal/viz"
)

// errUsage 参数错误，flag 包已经输出了说明
var errUsage = stderrors.New("usage")

// input 一个待处理的模块
type input struct {
	file string // .mir 文件或 Go 包路径
	mod  *ir.Module
}

// newFlagSet 创建子命令参数集，错误输出到 stderr
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "%s minreg %s [options] <input>...\n\n", Msg().HelpUsage, name)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// loadInputs 解析 .mir 文件，或在 goMode 下加载 Go 包
func (a *app) loadInputs(args []string, goMode bool) ([]input, error) {
	if len(args) == 0 {
		return nil, stderrors.New(i18n.T(i18n.MsgNoInput))
	}
	if goMode {
		mods, err := frontend.Load(frontend.Options{Log: a.log}, args...)
		if err = a.reportSkipped(err); err != nil {
			return nil, err
		}
		ins := make([]input, len(mods))
		for i, m := range mods {
			ins[i] = input{file: m.Name, mod: m}
		}
		return ins, nil
	}

	var (
		ins  []input
		errs error
	)
	for _, path := range args {
		m, err := irtext.ParseFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		ins = append(ins, input{file: path, mod: m})
	}
	return ins, errs
}

// reportSkipped 把无法降低的函数作为警告输出，返回其余错误
func (a *app) reportSkipped(err error) error {
	r := errors.NewReporter(a.stderr)
	var rest error
	for _, e := range multierr.Errors(err) {
		if ce, ok := e.(*errors.CompileError); ok && ce.Code == errors.E0301 {
			r.ReportWarning(ce)
			continue
		}
		rest = multierr.Append(rest, e)
	}
	if n := r.WarningCount(); n > 0 {
		fmt.Fprintln(a.stderr, i18n.T(i18n.MsgFuncsSkipped, n))
	}
	return rest
}

// splitList 拆分逗号分隔的列表，忽略空项
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// newManager 创建只包含指定 pass 的管理器
func (a *app) newManager(workers int, names ...string) (*pass.Manager, error) {
	pm := pass.NewManager(workers, a.log)
	if err := pm.AddByName(pass.Options{Log: a.log, Config: a.cfg}, names...); err != nil {
		return nil, err
	}
	return pm, nil
}

// fileOf 报告所属的源文件；Go 函数按各自的文件归类
func fileOf(in input, r *codemotion.Report) string {
	if r.Func != nil && r.Func.File != "" {
		return r.Func.File
	}
	return in.file
}

// writeReports 按源文件分组输出代码移动报告
func writeReports(ctx context.Context, w io.Writer, format string, in input, res *pass.Result) error {
	groups := make(map[string][]*codemotion.Report)
	var files []string
	for _, out := range res.Outputs {
		if out.Report == nil {
			continue
		}
		file := fileOf(in, out.Report)
		if _, ok := groups[file]; !ok {
			files = append(files, file)
		}
		groups[file] = append(groups[file], out.Report)
	}
	for _, file := range files {
		if err := report.Write(ctx, w, format, file, groups[file]); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// advise
// ============================================================================

func (a *app) cmdAdvise(ctx context.Context, args []string) error {
	m := Msg()
	fs := a.newFlagSet("advise")
	goMode := fs.Bool("go", false, m.OptGo)
	format := fs.String("format", a.cfg.Report.Format, m.OptFormat)
	output := fs.String("o", a.cfg.Report.Output, m.OptOutput)
	dotDir := fs.String("dot", "", m.OptDotDir)
	view := fs.Bool("view", a.cfg.Viz.Enabled, m.OptView)
	workers := fs.Int("workers", a.cfg.Analysis.Workers, m.OptWorkers)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ins, err := a.loadInputs(fs.Args(), *goMode)
	if err != nil {
		return err
	}
	pm, err := a.newManager(*workers, pass.MinReg)
	if err != nil {
		return err
	}
	w, done, err := a.createOutput(*output)
	if err != nil {
		return err
	}

	viewer := viz.New(a.cfg.Viz, a.log)
	viewer.Enabled = *view
	advised := false
	for _, in := range ins {
		res, err := pm.Run(ctx, in.mod)
		if err != nil {
			return multierr.Append(err, done())
		}
		advised = advised || res.Advised
		if err := writeReports(ctx, w, *format, in, res); err != nil {
			return multierr.Append(err, done())
		}
		for _, out := range res.Outputs {
			if err := a.showReport(out.Report, *dotDir, viewer); err != nil {
				return multierr.Append(err, done())
			}
		}
	}
	if err := done(); err != nil {
		return err
	}

	a.log.Debug("advise finished", zap.Bool("advised", advised), zap.Stringer("stats", pm.Stats()))
	fmt.Fprintf(a.stdout, "advised=%t\n", advised)
	return nil
}

// showReport 按需写出 DOT 文件并打开查看器
func (a *app) showReport(r *codemotion.Report, dotDir string, viewer *viz.Viewer) error {
	if r == nil {
		return nil
	}
	if dotDir != "" {
		files := viz.New(config.VizConfig{Enabled: true, Dir: dotDir}, a.log)
		path, err := files.WriteFile(r.Func, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stderr, i18n.T(i18n.MsgWroteFile, path))
	}
	if r.Advised() {
		if _, err := viewer.Show(r.Func, r); err != nil {
			// 查看器失败不影响分析结果
			fmt.Fprintln(a.stderr, i18n.T(i18n.MsgViewerFailed, err))
		}
	}
	return nil
}

// ============================================================================
// plive / pwidth：文本输出的分析
// ============================================================================

func (a *app) cmdPrint(ctx context.Context, command, passName string, args []string) error {
	m := Msg()
	fs := a.newFlagSet(command)
	goMode := fs.Bool("go", false, m.OptGo)
	output := fs.String("o", "", m.OptOutput)
	only := fs.String("func", "", m.OptFunc)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ins, err := a.loadInputs(fs.Args(), *goMode)
	if err != nil {
		return err
	}
	pm, err := a.newManager(a.cfg.Analysis.Workers, passName)
	if err != nil {
		return err
	}
	w, done, err := a.createOutput(*output)
	if err != nil {
		return err
	}
	for _, in := range ins {
		res, err := pm.Run(ctx, in.mod)
		if err != nil {
			return multierr.Append(err, done())
		}
		for _, out := range res.Outputs {
			if *only != "" && out.Func != *only {
				continue
			}
			fmt.Fprintln(w, i18n.T(i18n.MsgFuncHeader, "@"+out.Func))
			fmt.Fprint(w, out.Text)
			fmt.Fprintln(w)
		}
	}
	return done()
}

// ============================================================================
// cleanup / assume / redwidth：改写模块
// ============================================================================

func (a *app) cmdRewrite(ctx context.Context, command, passName string, args []string) error {
	m := Msg()
	fs := a.newFlagSet(command)
	goMode := fs.Bool("go", false, m.OptGo)
	output := fs.String("o", "", m.OptOutput)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ins, err := a.loadInputs(fs.Args(), *goMode)
	if err != nil {
		return err
	}
	pm, err := a.newManager(a.cfg.Analysis.Workers, passName)
	if err != nil {
		return err
	}
	w, done, err := a.createOutput(*output)
	if err != nil {
		return err
	}
	for _, in := range ins {
		res, err := pm.Run(ctx, in.mod)
		if err != nil {
			return multierr.Append(err, done())
		}
		for _, out := range res.Outputs {
			// 重命名记录等附加信息输出到 stderr，stdout 只有模块文本
			fmt.Fprint(a.stderr, out.Text)
		}
		if err := irtext.Fprint(w, in.mod); err != nil {
			return multierr.Append(err, done())
		}
	}
	fmt.Fprintln(a.stderr, pm.Stats())
	return done()
}

// ============================================================================
// run：配置的流水线
// ============================================================================

func (a *app) cmdRun(ctx context.Context, args []string) error {
	m := Msg()
	fs := a.newFlagSet("run")
	goMode := fs.Bool("go", false, m.OptGo)
	passes := fs.String("passes", strings.Join(a.cfg.Analysis.Passes, ","), m.OptPasses)
	format := fs.String("format", a.cfg.Report.Format, m.OptFormat)
	output := fs.String("o", a.cfg.Report.Output, m.OptOutput)
	emit := fs.String("emit", "", m.OptEmit)
	workers := fs.Int("workers", a.cfg.Analysis.Workers, m.OptWorkers)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ins, err := a.loadInputs(fs.Args(), *goMode)
	if err != nil {
		return err
	}
	pm, err := a.newManager(*workers, splitList(*passes)...)
	if err != nil {
		return err
	}

	w, done, err := a.createOutput(*output)
	if err != nil {
		return err
	}
	viewer := viz.New(a.cfg.Viz, a.log)
	for _, in := range ins {
		res, err := pm.Run(ctx, in.mod)
		for _, out := range res.Outputs {
			if out.Text != "" {
				fmt.Fprintf(w, "; %s %s\n%s\n", out.Pass, out.Func, out.Text)
			}
		}
		if werr := writeReports(ctx, w, *format, in, res); werr != nil {
			err = multierr.Append(err, werr)
		}
		if err != nil {
			return multierr.Append(err, done())
		}
		for _, out := range res.Outputs {
			if err := a.showReport(out.Report, "", viewer); err != nil {
				return multierr.Append(err, done())
			}
		}
	}
	if err := done(); err != nil {
		return err
	}

	if *emit != "" {
		ew, edone, err := a.createOutput(*emit)
		if err != nil {
			return err
		}
		for _, in := range ins {
			if err := irtext.Fprint(ew, in.mod); err != nil {
				return multierr.Append(err, edone())
			}
		}
		if err := edone(); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.stderr, pm.Stats())
	return nil
}

// ============================================================================
// dot / verify
// ============================================================================

func (a *app) cmdDot(ctx context.Context, args []string) error {
	m := Msg()
	fs := a.newFlagSet("dot")
	goMode := fs.Bool("go", false, m.OptGo)
	only := fs.String("func", "", m.OptFunc)
	dir := fs.String("dir", "", m.OptDotDir)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ins, err := a.loadInputs(fs.Args(), *goMode)
	if err != nil {
		return err
	}
	pm, err := a.newManager(a.cfg.Analysis.Workers, pass.MinReg)
	if err != nil {
		return err
	}
	for _, in := range ins {
		res, err := pm.Run(ctx, in.mod)
		if err != nil {
			return err
		}
		for _, out := range res.Outputs {
			r := out.Report
			if r == nil || *only != "" && out.Func != *only {
				continue
			}
			if *dir == "" {
				if err := report.WriteDot(a.stdout, r.Func, r); err != nil {
					return err
				}
				continue
			}
			if err := a.showReport(r, *dir, viz.New(config.VizConfig{}, a.log)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) cmdVerify(ctx context.Context, args []string) error {
	fs := a.newFlagSet("verify")
	goMode := fs.Bool("go", false, Msg().OptGo)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	ins, err := a.loadInputs(fs.Args(), *goMode)
	for _, in := range ins {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if verr := in.mod.Verify(); verr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", in.file, verr))
			continue
		}
		fmt.Fprintln(a.stdout, i18n.T(i18n.MsgVerifyOK, in.file, len(in.mod.Funcs)))
	}
	return err
}
