package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
)

// cmdInit 在目录中生成默认的 minreg.toml
func (a *app) cmdInit(args []string) error {
	m := Msg()
	fs := a.newFlagSet("init")
	dir := fs.String("dir", "", m.OptDir)
	force := fs.Bool("force", false, m.OptForce)
	passes := fs.String("passes", "", m.OptPasses)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	// 默认使用当前目录
	if *dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		*dir = wd
	}

	// 检查是否已存在配置文件
	configPath := filepath.Join(*dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !*force {
		return fmt.Errorf("%s", i18n.T(i18n.MsgConfigExists, config.ConfigFileName))
	}

	cfg := config.GenerateDefault(*dir)
	if *passes != "" {
		cfg.Analysis.Passes = splitList(*passes)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, i18n.T(i18n.MsgConfigCreated, configPath))
	return nil
}
