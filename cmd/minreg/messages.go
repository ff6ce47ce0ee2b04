package main

import (
	"os"
	"strings"

	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
)

// Messages 命令行帮助文本
type Messages struct {
	// 帮助信息
	Title        string
	HelpUsage    string
	HelpCommands string
	HelpOptions  string
	HelpExamples string

	// 命令描述
	CmdAdvise   string
	CmdPLive    string
	CmdCleanup  string
	CmdAssume   string
	CmdRedWidth string
	CmdPWidth   string
	CmdRun      string
	CmdDot      string
	CmdVerify   string
	CmdInit     string
	CmdVersion  string
	CmdHelp     string

	// 全局选项
	OptLang    string
	OptConfig  string
	OptVerbose string

	// 子命令选项
	OptGo      string
	OptFormat  string
	OptOutput  string
	OptDotDir  string
	OptView    string
	OptPasses  string
	OptEmit    string
	OptFunc    string
	OptForce   string
	OptWorkers string
	OptDir     string
}

var messagesEN = Messages{
	Title:        "minreg %s - code motion advisor for register pressure",
	HelpUsage:    "Usage:",
	HelpCommands: "Commands:",
	HelpOptions:  "Global options:",
	HelpExamples: "Examples:",

	CmdAdvise:   "report instructions that can move along single-entry chains",
	CmdPLive:    "print values live across block boundaries",
	CmdCleanup:  "remove '$' from symbol names",
	CmdAssume:   "add range assumptions after special-register reads",
	CmdRedWidth: "narrow integer arithmetic using value ranges",
	CmdPWidth:   "print the minimal width of every integer value",
	CmdRun:      "run the pass pipeline from minreg.toml",
	CmdDot:      "write control flow graphs as Graphviz DOT",
	CmdVerify:   "check the structure of the input",
	CmdInit:     "create a default minreg.toml",
	CmdVersion:  "show version",
	CmdHelp:     "show this help",

	OptLang:    "message language (en, zh)",
	OptConfig:  "configuration file (default: search upward for minreg.toml)",
	OptVerbose: "debug logging to stderr",

	OptGo:      "arguments are Go package patterns instead of .mir files",
	OptFormat:  "report format: text, json, lsp",
	OptOutput:  "write output to this file instead of stdout",
	OptDotDir:  "also write one DOT file per function into this directory",
	OptView:    "open the CFG of every advised function in the viewer",
	OptPasses:  "comma separated pass list (overrides the configuration)",
	OptEmit:    "write the transformed module to this file",
	OptFunc:    "only this function",
	OptForce:   "overwrite an existing file",
	OptWorkers: "number of worker goroutines (0 = number of CPUs)",
	OptDir:     "directory for minreg.toml (default: current directory)",
}

var messagesZH = Messages{
	Title:        "minreg %s - 降低寄存器压力的代码移动建议工具",
	HelpUsage:    "用法:",
	HelpCommands: "命令:",
	HelpOptions:  "全局选项:",
	HelpExamples: "示例:",

	CmdAdvise:   "报告可以沿单入口链移动的指令",
	CmdPLive:    "打印跨越基本块边界的活跃值",
	CmdCleanup:  "去掉符号名中的 '$'",
	CmdAssume:   "在特殊寄存器读取之后插入值域假设",
	CmdRedWidth: "依据值区间收窄整数运算",
	CmdPWidth:   "打印每个整数值的最小位宽",
	CmdRun:      "运行 minreg.toml 中配置的 pass 流水线",
	CmdDot:      "以 Graphviz DOT 格式输出控制流图",
	CmdVerify:   "检查输入的结构",
	CmdInit:     "创建默认的 minreg.toml",
	CmdVersion:  "显示版本",
	CmdHelp:     "显示帮助",

	OptLang:    "消息语言 (en, zh)",
	OptConfig:  "配置文件（默认向上查找 minreg.toml）",
	OptVerbose: "向标准错误输出调试日志",

	OptGo:      "参数是 Go 包模式而不是 .mir 文件",
	OptFormat:  "报告格式: text, json, lsp",
	OptOutput:  "输出到文件而不是标准输出",
	OptDotDir:  "同时把每个函数的 DOT 文件写入该目录",
	OptView:    "用查看器打开每个有建议的函数的控制流图",
	OptPasses:  "逗号分隔的 pass 列表（覆盖配置）",
	OptEmit:    "把变换后的模块写入该文件",
	OptFunc:    "只处理该函数",
	OptForce:   "覆盖已存在的文件",
	OptWorkers: "工作协程数（0 表示 CPU 核心数）",
	OptDir:     "minreg.toml 所在目录（默认当前目录）",
}

// Msg 当前语言的帮助文本
func Msg() *Messages {
	if i18n.GetLanguage() == i18n.LangChinese {
		return &messagesZH
	}
	return &messagesEN
}

// detectLanguage 由环境变量或操作系统界面语言推断默认语言
func detectLanguage() i18n.Language {
	for _, v := range []string{"LC_ALL", "LC_MESSAGES", "LANGUAGE", "LANG"} {
		if val := strings.ToLower(os.Getenv(v)); val != "" {
			if strings.HasPrefix(val, "zh") || strings.Contains(val, "chinese") {
				return i18n.LangChinese
			}
			return i18n.LangEnglish
		}
	}
	if systemChinese() {
		return i18n.LangChinese
	}
	return i18n.LangEnglish
}
