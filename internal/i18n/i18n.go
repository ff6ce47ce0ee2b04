// Package i18n 报告与命令行输出的多语言消息
package i18n

import (
	"fmt"
	"sync"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// 全局语言设置
var (
	currentLang Language = LangEnglish
	mu          sync.RWMutex
)

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	currentLang = lang
}

// SetLanguageFromString 从字符串设置语言
func SetLanguageFromString(lang string) {
	switch lang {
	case "zh", "zh-cn", "zh-tw", "zh-hk", "chinese":
		SetLanguage(LangChinese)
	default:
		SetLanguage(LangEnglish)
	}
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// T 按当前语言翻译消息（支持格式化参数）
func T(msgID string, args ...interface{}) string {
	return TL(GetLanguage(), msgID, args...)
}

// TL 按指定语言翻译消息
func TL(lang Language, msgID string, args ...interface{}) string {
	var messages map[string]string
	switch lang {
	case LangChinese:
		messages = messagesZH
	default:
		messages = messagesEN
	}

	msg, ok := messages[msgID]
	if !ok {
		// 回退到英文
		if msg, ok = messagesEN[msgID]; !ok {
			// 找不到翻译则返回原始 ID
			return msgID
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// ============================================================================
// 消息 ID
// ============================================================================

const (
	// 报告
	MsgFuncHeader       = "report.func_header"
	MsgChainHeader      = "report.chain_header"
	MsgCandidatesHeader = "report.candidates_header"
	MsgThrough          = "report.through"
	MsgSummary          = "report.summary"
	MsgNoAdvice         = "report.no_advice"
	MsgDiagCandidate    = "report.diag_candidate"
	MsgDiagReason       = "report.diag_reason"

	// 流水线
	MsgPassStats   = "pass.stats"
	MsgUnknownPass = "pass.unknown"
	MsgPassFailed  = "pass.failed"

	// 命令行
	MsgUnknownCommand = "cli.unknown_command"
	MsgNoInput        = "cli.no_input"
	MsgWroteFile      = "cli.wrote_file"
	MsgConfigExists   = "cli.config_exists"
	MsgConfigCreated  = "cli.config_created"
	MsgVerifyOK       = "cli.verify_ok"
	MsgViewerFailed   = "cli.viewer_failed"
	MsgFuncsSkipped   = "cli.funcs_skipped"
)
