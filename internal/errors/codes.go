// Package errors 提供 IR 输入诊断：错误码、级别与带源码上下文的格式化输出
package errors

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ============================================================================
// 输入错误码 (E 开头)
// ============================================================================

const (
	// E0001-E0099: 词法/语法错误
	E0001 = "E0001" // 语法错误
	E0002 = "E0002" // 意外的字符
	E0003 = "E0003" // 未闭合的字符串
	E0005 = "E0005" // 无效的数字
	E0006 = "E0006" // 期望的 token
	E0007 = "E0007" // 意外的 token

	// E0100-E0199: 名称错误
	E0100 = "E0100" // 未定义的值
	E0101 = "E0101" // 值重复定义
	E0102 = "E0102" // 未定义的块
	E0103 = "E0103" // 块重复定义
	E0104 = "E0104" // 未定义的全局符号
	E0105 = "E0105" // 函数重复定义

	// E0200-E0299: 类型与指令错误
	E0200 = "E0200" // 未知类型
	E0201 = "E0201" // 未知操作码
	E0202 = "E0202" // 操作数数量错误
	E0203 = "E0203" // 无效的比较谓词
	E0204 = "E0204" // 无效的原子序

	// E0300-E0399: 结构错误
	E0300 = "E0300" // 控制流图结构不一致
	E0301 = "E0301" // 前端不支持的构造
)

// ============================================================================
// 错误码信息
// ============================================================================

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	Category  string // 错误分类
}

var inputErrors = map[string]ErrorInfo{
	E0001: {E0001, LevelError, "error.syntax", "syntax"},
	E0002: {E0002, LevelError, "lexer.unexpected_char", "syntax"},
	E0003: {E0003, LevelError, "lexer.unterminated_string", "syntax"},
	E0005: {E0005, LevelError, "lexer.invalid_number", "syntax"},
	E0006: {E0006, LevelError, "parser.expected_token", "syntax"},
	E0007: {E0007, LevelError, "parser.unexpected_token", "syntax"},

	E0100: {E0100, LevelError, "parser.undefined_value", "name"},
	E0101: {E0101, LevelError, "parser.value_redefined", "name"},
	E0102: {E0102, LevelError, "parser.undefined_block", "name"},
	E0103: {E0103, LevelError, "parser.block_redefined", "name"},
	E0104: {E0104, LevelError, "parser.undefined_global", "name"},
	E0105: {E0105, LevelError, "parser.func_redefined", "name"},

	E0200: {E0200, LevelError, "parser.unknown_type", "instr"},
	E0201: {E0201, LevelError, "parser.unknown_opcode", "instr"},
	E0202: {E0202, LevelError, "parser.operand_count", "instr"},
	E0203: {E0203, LevelError, "parser.invalid_predicate", "instr"},
	E0204: {E0204, LevelError, "parser.invalid_ordering", "instr"},

	E0300: {E0300, LevelError, "verify.malformed_cfg", "structure"},
	E0301: {E0301, LevelError, "frontend.unsupported", "structure"},
}

// GetErrorInfo 获取错误码信息
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := inputErrors[code]
	return info, ok
}

// hints 常见错误的修复建议
var hints = map[string][]string{
	E0100: {"values must be defined before use, except phi operands"},
	E0102: {"every branch target needs a matching `label:` line"},
	E0201: {"run `minreg help` for the list of supported instructions"},
	E0300: {"run the input through `minreg verify` to list every structural problem"},
}

// GetSuggestions 返回错误码对应的修复建议
func GetSuggestions(code string) []string {
	return hints[code]
}
