package errors

import (
	"fmt"
	"strings"
)

// ============================================================================
// 错误标签
// ============================================================================

// Label 代码标签（用于标注错误位置）
type Label struct {
	Line    int    // 行号（1-based）
	Column  int    // 列号（1-based）
	Length  int    // 标注长度
	Message string // 标签消息
	Primary bool   // 是否为主要标签
}

// ============================================================================
// 输入错误
// ============================================================================

// CompileError 输入文件中的错误
type CompileError struct {
	Code      string   // 错误码 (E0100)
	Level     Level    // 错误级别
	Message   string   // 主消息
	File      string   // 文件路径
	Line      int      // 行号
	Column    int      // 列号
	EndColumn int      // 结束列
	Labels    []Label  // 代码标签
	Hints     []string // 修复建议
	Notes     []string // 附加说明
}

// Error 实现 error 接口
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// New 创建指定错误码的错误
func New(code, file string, line, col int, format string, args ...interface{}) *CompileError {
	level := LevelError
	if info, ok := GetErrorInfo(code); ok {
		level = info.Level
	}
	return &CompileError{
		Code:    code,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
		Column:  col,
	}
}

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 错误格式化器
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	ShowHints  bool // 是否显示修复建议
	MaxContext int  // 上下文行数
	TabWidth   int  // Tab 宽度
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     true,
		ShowSource: true,
		ShowHints:  true,
		MaxContext: 2,
		TabWidth:   4,
	}
}

// FormatCompileError 格式化单个错误
func (f *Formatter) FormatCompileError(err *CompileError, sourceLines []string) string {
	var sb strings.Builder

	// 错误头: error[E0100]: undefined value %x
	levelStr := f.colorize(err.Level.String(), f.levelColor(err.Level))
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), f.levelColor(err.Level))
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, err.Message))

	// 位置: --> file.mir:5:12
	arrow := f.colorize("-->", ColorCyan)
	location := f.colorize(fmt.Sprintf("%s:%d:%d", err.File, err.Line, err.Column), ColorCyan)
	sb.WriteString(fmt.Sprintf(" %s %s\n", arrow, location))

	if f.ShowSource && len(sourceLines) > 0 && err.Line > 0 && err.Line <= len(sourceLines) {
		sb.WriteString(f.formatSourceContext(sourceLines, err.Line, err.Column, err.EndColumn, err.Labels))
	}

	if f.ShowHints {
		for _, hint := range err.Hints {
			sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = help:", ColorCyan), hint))
		}
	}
	for _, note := range err.Notes {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = note:", ColorCyan), note))
	}

	return sb.String()
}

// formatSourceContext 格式化源代码上下文
func (f *Formatter) formatSourceContext(lines []string, errorLine, startCol, endCol int, labels []Label) string {
	var sb strings.Builder

	maxLine := errorLine + f.MaxContext
	if maxLine > len(lines) {
		maxLine = len(lines)
	}
	lineNumWidth := len(fmt.Sprintf("%d", maxLine))

	separator := f.colorize(strings.Repeat(" ", lineNumWidth)+" |", ColorBlue)
	sb.WriteString(separator + "\n")

	line := lines[errorLine-1]
	lineNum := f.colorize(fmt.Sprintf("%*d", lineNumWidth, errorLine), ColorBlue)
	pipe := f.colorize(" |", ColorBlue)
	sb.WriteString(fmt.Sprintf("%s%s %s\n", lineNum, pipe, f.expandTabs(line)))

	if endCol == 0 {
		endCol = startCol + 1
	}
	length := endCol - startCol
	if length < 1 {
		length = 1
	}
	actualCol := f.calculateActualColumn(line, startCol)
	underline := strings.Repeat(" ", lineNumWidth+3+actualCol-1) +
		f.colorize(strings.Repeat("^", length), ColorRed)
	sb.WriteString(underline + "\n")

	// 额外的标签
	for _, label := range labels {
		if label.Line == errorLine || label.Line <= 0 || label.Line > len(lines) {
			continue
		}
		line := lines[label.Line-1]
		lineNum := f.colorize(fmt.Sprintf("%*d", lineNumWidth, label.Line), ColorBlue)
		sb.WriteString(fmt.Sprintf("%s%s %s\n", lineNum, pipe, f.expandTabs(line)))
		if label.Message != "" {
			actualCol := f.calculateActualColumn(line, label.Column)
			msgLine := strings.Repeat(" ", lineNumWidth+3+actualCol-1) +
				f.colorize(strings.Repeat("^", label.Length)+" "+label.Message, f.labelColor(label.Primary))
			sb.WriteString(msgLine + "\n")
		}
	}

	return sb.String()
}

// expandTabs 展开 Tab 为空格
func (f *Formatter) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", f.TabWidth))
}

// calculateActualColumn 计算实际列位置（考虑 Tab）
func (f *Formatter) calculateActualColumn(line string, col int) int {
	if col <= 0 {
		return 1
	}
	actual := 1
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			actual += f.TabWidth
		} else {
			actual++
		}
	}
	return actual
}

// levelColor 获取错误级别对应的颜色
func (f *Formatter) levelColor(level Level) Color {
	switch level {
	case LevelError:
		return ColorRed
	case LevelWarning:
		return ColorYellow
	case LevelNote:
		return ColorCyan
	case LevelHelp:
		return ColorGreen
	default:
		return ColorWhite
	}
}

// labelColor 获取标签颜色
func (f *Formatter) labelColor(primary bool) Color {
	if primary {
		return ColorRed
	}
	return ColorYellow
}

// colorize 着色字符串
func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Colorize(s, color)
}

// FormatCompileErrors 格式化多个错误，末尾附错误计数
func (f *Formatter) FormatCompileErrors(errs []*CompileError, sourceCache map[string][]string) string {
	var sb strings.Builder
	for i, err := range errs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.FormatCompileError(err, sourceCache[err.File]))
	}
	if len(errs) > 0 {
		countMsg := fmt.Sprintf("error: found %d errors", len(errs))
		if len(errs) == 1 {
			countMsg = "error: found 1 error"
		}
		sb.WriteString("\n" + f.colorize(countMsg, ColorRed) + "\n")
	}
	return sb.String()
}
