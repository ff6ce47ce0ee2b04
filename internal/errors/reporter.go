package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// ============================================================================
// 错误报告器
// ============================================================================

// Reporter 收集并输出输入错误
type Reporter struct {
	out         io.Writer
	formatter   *Formatter
	sourceCache map[string][]string
	errors      []*CompileError
	warnings    []*CompileError
}

// NewReporter 创建错误报告器
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stderr
	}
	return &Reporter{
		out:         out,
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
	}
}

// SetFormatter 设置格式化器
func (r *Reporter) SetFormatter(f *Formatter) { r.formatter = f }

// LoadSource 加载源文件
func (r *Reporter) LoadSource(filename string) error {
	if _, ok := r.sourceCache[filename]; ok {
		return nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	r.SetSource(filename, string(data))
	return nil
}

// SetSource 设置源代码（用于测试或内存中的源代码）
func (r *Reporter) SetSource(filename string, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// GetSourceLines 获取源代码行数组
func (r *Reporter) GetSourceLines(filename string) []string {
	return r.sourceCache[filename]
}

// prepare 补全源码缓存与修复建议
func (r *Reporter) prepare(err *CompileError) {
	_ = r.LoadSource(err.File)
	if len(err.Hints) == 0 {
		err.Hints = GetSuggestions(err.Code)
	}
}

// ReportWarning 报告警告
func (r *Reporter) ReportWarning(err *CompileError) {
	r.prepare(err)
	err.Level = LevelWarning
	r.warnings = append(r.warnings, err)
	fmt.Fprint(r.out, r.formatter.FormatCompileError(err, r.GetSourceLines(err.File)))
}

// Report 报告任意错误：展开 multierr 聚合，其他错误先输出，
// 输入错误随后带源码上下文输出并附错误计数
func (r *Reporter) Report(err error) {
	var ces []*CompileError
	for _, e := range multierr.Errors(err) {
		if ce, ok := e.(*CompileError); ok {
			r.prepare(ce)
			ces = append(ces, ce)
			continue
		}
		fmt.Fprintf(r.out, "%s: %v\n", r.formatter.colorize("error", ColorRed), e)
	}
	if len(ces) == 0 {
		return
	}
	r.errors = append(r.errors, ces...)
	fmt.Fprint(r.out, r.formatter.FormatCompileErrors(ces, r.sourceCache))
}

// ErrorCount 错误数量
func (r *Reporter) ErrorCount() int { return len(r.errors) }

// WarningCount 警告数量
func (r *Reporter) WarningCount() int { return len(r.warnings) }
