// minreg - 降低寄存器压力的代码移动建议工具
//
// 用法:
//   minreg advise [options] file.mir...    # 报告可移动的指令
//   minreg advise -go ./...                # 分析 Go 包
//   minreg run file.mir                    # 运行 minreg.toml 中的流水线
//   minreg init                            # 生成 minreg.toml

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/errors"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
	"github.com/taylorlloyd/llvmMRIS/internal/logging"
	"github.com/taylorlloyd/llvmMRIS/internal/pass"
)

// 版本信息
const (
	Version = "0.1.0"
	Name    = "minreg"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// app 一次命令行调用的状态
type app struct {
	stdout io.Writer
	stderr io.Writer

	// 全局参数
	lang       string
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, log: zap.NewNop()}
}

// run 执行命令，返回进程退出码
func (a *app) run(ctx context.Context, args []string) int {
	args = a.preprocessArgs(args)
	if err := a.setup(); err != nil {
		a.reportError(err)
		return 1
	}
	defer func() { _ = a.log.Sync() }()

	if len(args) < 1 {
		a.printUsage(a.stdout)
		return 0
	}

	command, rest := args[0], args[1:]
	a.log.Debug("command", zap.String("name", command), zap.Strings("args", rest))

	var err error
	switch command {
	case "advise":
		err = a.cmdAdvise(ctx, rest)
	case "plive":
		err = a.cmdPrint(ctx, command, pass.PLive, rest)
	case "pwidth":
		err = a.cmdPrint(ctx, command, pass.PWidth, rest)
	case "cleanup":
		err = a.cmdRewrite(ctx, command, pass.XLCleanup, rest)
	case "assume":
		err = a.cmdRewrite(ctx, command, pass.NVAssume, rest)
	case "redwidth":
		err = a.cmdRewrite(ctx, command, pass.RedWidth, rest)
	case "run":
		err = a.cmdRun(ctx, rest)
	case "dot":
		err = a.cmdDot(ctx, rest)
	case "verify":
		err = a.cmdVerify(ctx, rest)
	case "init":
		err = a.cmdInit(rest)
	case "version", "-v", "--version":
		fmt.Fprintf(a.stdout, "%s version %s\n", Name, Version)
	case "help", "-h", "--help":
		a.printUsage(a.stdout)
	default:
		fmt.Fprintln(a.stderr, i18n.T(i18n.MsgUnknownCommand, command))
		fmt.Fprintln(a.stderr)
		a.printUsage(a.stderr)
		return 1
	}

	if err != nil {
		if err == errUsage {
			return 2
		}
		a.reportError(err)
		return 1
	}
	return 0
}

// preprocessArgs 提取全局参数 --lang、--config 与 --verbose
func (a *app) preprocessArgs(args []string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") {
			// 第一个非选项参数是命令，之后的参数原样交给子命令
			return append(result, args[i:]...)
		}
		switch name {
		case "lang", "config":
			if !hasValue {
				if i+1 >= len(args) {
					result = append(result, arg)
					continue
				}
				i++
				value = args[i]
			}
			if name == "lang" {
				a.lang = value
			} else {
				a.configPath = value
			}
		case "verbose":
			a.verbose = true
		default:
			result = append(result, arg)
		}
	}
	return result
}

// setup 加载配置，确定语言并创建日志记录器
func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(wd)
		}
	}

	lang := a.lang
	if path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
		if lang == "" {
			lang = cfg.Report.Lang
		}
	} else {
		a.cfg = config.Default()
	}

	if lang != "" {
		i18n.SetLanguageFromString(strings.ToLower(lang))
	} else {
		i18n.SetLanguage(detectLanguage())
	}
	a.cfg.Report.Lang = string(i18n.GetLanguage())

	// 错误输出不是终端时不着色
	if f, ok := a.stderr.(*os.File); !ok || f != os.Stderr {
		errors.SetColorsEnabled(false)
	}

	log, err := logging.New(logging.Options{
		Level:   a.cfg.Log.Level,
		File:    a.cfg.Log.File,
		Verbose: a.verbose,
	})
	if err != nil {
		return err
	}
	a.log = log
	if path != "" {
		a.log.Debug("configuration loaded", zap.String("file", path))
	}
	return nil
}

// reportError 输出错误；输入诊断带源码上下文
func (a *app) reportError(err error) {
	errors.NewReporter(a.stderr).Report(err)
}

func (a *app) printUsage(w io.Writer) {
	m := Msg()
	fmt.Fprintf(w, m.Title+"\n\n", Version)
	fmt.Fprintln(w, m.HelpUsage)
	fmt.Fprintln(w, "  minreg [--lang en|zh] [--config file] [--verbose] <command> [options] [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.HelpCommands)
	fmt.Fprintf(w, "  advise <input>    %s\n", m.CmdAdvise)
	fmt.Fprintf(w, "  plive <input>     %s\n", m.CmdPLive)
	fmt.Fprintf(w, "  cleanup <input>   %s\n", m.CmdCleanup)
	fmt.Fprintf(w, "  assume <input>    %s\n", m.CmdAssume)
	fmt.Fprintf(w, "  redwidth <input>  %s\n", m.CmdRedWidth)
	fmt.Fprintf(w, "  pwidth <input>    %s\n", m.CmdPWidth)
	fmt.Fprintf(w, "  run <input>       %s\n", m.CmdRun)
	fmt.Fprintf(w, "  dot <input>       %s\n", m.CmdDot)
	fmt.Fprintf(w, "  verify <input>    %s\n", m.CmdVerify)
	fmt.Fprintf(w, "  init              %s\n", m.CmdInit)
	fmt.Fprintf(w, "  version           %s\n", m.CmdVersion)
	fmt.Fprintf(w, "  help              %s\n", m.CmdHelp)
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.HelpOptions)
	fmt.Fprintf(w, "  --lang <en|zh>    %s\n", m.OptLang)
	fmt.Fprintf(w, "  --config <file>   %s\n", m.OptConfig)
	fmt.Fprintf(w, "  --verbose         %s\n", m.OptVerbose)
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.HelpExamples)
	fmt.Fprintln(w, "  minreg advise kernel.mir")
	fmt.Fprintln(w, "  minreg advise -format json -o advice.json kernel.mir")
	fmt.Fprintln(w, "  minreg advise -go ./...")
	fmt.Fprintln(w, "  minreg redwidth -o narrow.mir kernel.mir")
	fmt.Fprintln(w, "  minreg --lang zh run kernel.mir")
}

// createOutput 打开输出文件；路径为空或 "-" 时使用标准输出
func (a *app) createOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(a.stderr, i18n.T(i18n.MsgWroteFile, path))
		return nil
	}, nil
}
