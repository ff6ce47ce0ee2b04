// Package config 读写 minreg.toml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// 常量定义
const (
	ConfigFileName = "minreg.toml" // 配置文件名
)

// Config 工具配置
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Report   ReportConfig   `toml:"report"`
	Log      LogConfig      `toml:"log"`
	Viz      VizConfig      `toml:"viz"`
	Assume   AssumeConfig   `toml:"assume"`
	Narrow   NarrowConfig   `toml:"narrow"`
}

// AnalysisConfig 流水线配置
type AnalysisConfig struct {
	// Passes 按顺序运行的 pass 名称
	Passes []string `toml:"passes"`

	// Workers 并行处理函数的工作协程数（0 表示 CPU 核心数）
	Workers int `toml:"workers"`
}

// ReportConfig 报告输出配置
type ReportConfig struct {
	// Format 输出格式：text、json、lsp
	Format string `toml:"format"`

	// Output 输出文件；空表示标准输出
	Output string `toml:"output"`

	// Lang 文本报告语言：en、zh
	Lang string `toml:"lang"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别；空表示关闭
	Level string `toml:"level"`

	// File 日志文件；空表示标准错误
	File string `toml:"file"`
}

// VizConfig 控制流图查看器配置
type VizConfig struct {
	Enabled bool   `toml:"enabled"`
	Viewer  string `toml:"viewer"`
	Dir     string `toml:"dir"`
}

// AssumeConfig 额外的内建函数值域
type AssumeConfig struct {
	Ranges []AssumeRange `toml:"range"`
}

// AssumeRange 一个调用目标的返回值区间
type AssumeRange struct {
	Name string `toml:"name"`
	Min  int64  `toml:"min"`
	Max  int64  `toml:"max"`
}

// NarrowConfig 位宽收窄配置
type NarrowConfig struct {
	// Widths 依次尝试的目标位宽
	Widths []int `toml:"widths"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{Passes: []string{"minreg"}},
		Report:   ReportConfig{Format: "text", Lang: "en"},
		Viz:      VizConfig{Viewer: "xdot"},
		Narrow:   NarrowConfig{Widths: []int{16, 32}},
	}
}

// LoadConfig 从文件加载配置，未出现的字段保持默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.Report.Format {
	case "text", "json", "lsp":
	default:
		return fmt.Errorf("unknown report format %q", c.Report.Format)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative")
	}
	for _, w := range c.Narrow.Widths {
		if w <= 0 || w >= 64 {
			return fmt.Errorf("narrow width %d out of range", w)
		}
	}
	for _, r := range c.Assume.Ranges {
		if r.Name == "" {
			return fmt.Errorf("assume range without name")
		}
		if r.Min > r.Max {
			return fmt.Errorf("assume range %s: min %d > max %d", r.Name, r.Min, r.Max)
		}
	}
	return nil
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	// 生成带注释的配置文件内容
	content := generateConfigWithComments(c)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[analysis]\n")
	sb.WriteString("# 按顺序运行的 pass: minreg, plive, xlcleanup, nvassume, redwidth, pwidth\n")
	sb.WriteString(fmt.Sprintf("passes = %s\n", stringList(c.Analysis.Passes)))
	sb.WriteString("# 并行工作协程数（0 表示 CPU 核心数）\n")
	sb.WriteString(fmt.Sprintf("workers = %d\n\n", c.Analysis.Workers))

	sb.WriteString("[report]\n")
	sb.WriteString("# 输出格式: text, json, lsp\n")
	sb.WriteString(fmt.Sprintf("format = %q\n", c.Report.Format))
	sb.WriteString("# 输出文件（空表示标准输出）\n")
	sb.WriteString(fmt.Sprintf("output = %q\n", c.Report.Output))
	sb.WriteString("# 报告语言: en, zh\n")
	sb.WriteString(fmt.Sprintf("lang = %q\n\n", c.Report.Lang))

	sb.WriteString("[log]\n")
	sb.WriteString("# 日志级别: debug, info, warn, error（空表示关闭）\n")
	sb.WriteString(fmt.Sprintf("level = %q\n", c.Log.Level))
	sb.WriteString(fmt.Sprintf("file = %q\n\n", c.Log.File))

	sb.WriteString("[viz]\n")
	sb.WriteString("# 生成 DOT 后是否启动外部查看器\n")
	sb.WriteString(fmt.Sprintf("enabled = %t\n", c.Viz.Enabled))
	sb.WriteString(fmt.Sprintf("viewer = %q\n", c.Viz.Viewer))
	sb.WriteString(fmt.Sprintf("dir = %q\n\n", c.Viz.Dir))

	sb.WriteString("[narrow]\n")
	sb.WriteString("# 依次尝试的目标位宽\n")
	sb.WriteString(fmt.Sprintf("widths = %s\n", intList(c.Narrow.Widths)))

	sb.WriteString("\n# 额外的内建函数返回值区间，例如:\n")
	sb.WriteString("# [[assume.range]]\n# name = \"my.lane.id\"\n# min = 0\n# max = 31\n")
	for _, r := range c.Assume.Ranges {
		sb.WriteString("\n[[assume.range]]\n")
		sb.WriteString(fmt.Sprintf("name = %q\n", r.Name))
		sb.WriteString(fmt.Sprintf("min = %d\n", r.Min))
		sb.WriteString(fmt.Sprintf("max = %d\n", r.Max))
	}

	return sb.String()
}

func stringList(xs []string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%q", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func intList(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// GenerateDefault 生成默认配置；dir 下的 viz 输出目录为 dir/.minreg
func GenerateDefault(dir string) *Config {
	c := Default()
	if dir != "" && dir != "." {
		c.Viz.Dir = filepath.Join(dir, ".minreg")
	}
	return c
}

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	// 如果是文件，从其所在目录开始
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	var dir string
	if info.IsDir() {
		dir = startPath
	} else {
		dir = filepath.Dir(startPath)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	// 向上查找
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// 已到达根目录
			return ""
		}
		dir = parent
	}
}
