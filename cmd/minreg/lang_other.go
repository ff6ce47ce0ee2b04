//go:build !windows

package main

// systemChinese 非 Windows 平台只看环境变量
func systemChinese() bool { return false }
