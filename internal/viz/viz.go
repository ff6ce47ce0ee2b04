// Package viz 把控制流图写成 DOT 文件并按需启动外部查看器
package viz

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/report"
)

// Viewer DOT 查看器
type Viewer struct {
	Enabled bool
	Command string // 查看器程序，DOT 文件路径作为唯一参数
	Dir     string // DOT 文件目录；空表示系统临时目录

	log *zap.Logger
}

// New 由配置创建查看器
func New(cfg config.VizConfig, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Viewer{Enabled: cfg.Enabled, Command: cfg.Viewer, Dir: cfg.Dir, log: log}
}

// Show 写出函数的 DOT 文件并启动查看器，不等待其退出
//
// 未启用时什么也不做，返回空路径。
func (v *Viewer) Show(f *ir.Func, r *codemotion.Report) (string, error) {
	if !v.Enabled {
		return "", nil
	}
	path, err := v.WriteFile(f, r)
	if err != nil {
		return "", err
	}
	if v.Command == "" {
		return path, nil
	}

	cmd := exec.Command(v.Command, path)
	if err := cmd.Start(); err != nil {
		return path, fmt.Errorf("start %s: %w", v.Command, err)
	}
	v.log.Debug("viewer started",
		zap.String("viewer", v.Command),
		zap.String("file", path),
		zap.Int("pid", cmd.Process.Pid),
	)
	// 回收子进程，避免留下僵尸进程
	go func() { _ = cmd.Wait() }()
	return path, nil
}

// WriteFile 把函数的 DOT 写入 Dir/<函数名>.dot
func (v *Viewer) WriteFile(f *ir.Func, r *codemotion.Report) (string, error) {
	dir := v.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName(f.Name)+".dot")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := report.WriteDot(out, f, r); err != nil {
		out.Close()
		return "", err
	}
	return path, out.Close()
}

// fileName 把函数名中不适合做文件名的字符替换为 _
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
