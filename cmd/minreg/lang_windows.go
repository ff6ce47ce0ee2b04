//go:build windows

package main

import (
	"strings"

	"golang.org/x/sys/windows"
)

// systemChinese 用户界面首选语言是否为中文
func systemChinese() bool {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err != nil || len(langs) == 0 {
		return false
	}
	return strings.HasPrefix(strings.ToLower(langs[0]), "zh")
}
