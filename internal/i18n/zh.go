package i18n

var messagesZH = map[string]string{
	// ========== 报告 ==========
	MsgFuncHeader:       "函数 %s",
	MsgChainHeader:      "链 (%d 个块)",
	MsgCandidatesHeader: "从 %s 到 %s 的候选指令:",
	MsgThrough:          "(途经 %s)",
	MsgSummary:          "%d 条链, %d 条记录, %d 条候选指令",
	MsgNoAdvice:         "没有可移动的指令",
	MsgDiagCandidate:    "%s 可以从块 %s 移动到块 %s",
	MsgDiagReason:       "可移动: %s",

	// ========== 流水线 ==========
	MsgPassStats:   "运行了 %d 个 pass, %d 处修改",
	MsgUnknownPass: "未知的 pass %q",
	MsgPassFailed:  "pass %s 处理 %s 失败: %v",

	// ========== 命令行 ==========
	MsgUnknownCommand: "未知命令: %s",
	MsgNoInput:        "没有输入文件",
	MsgWroteFile:      "已写入 %s",
	MsgConfigExists:   "%s 已存在",
	MsgConfigCreated:  "已创建 %s",
	MsgVerifyOK:       "%s: 正常 (%d 个函数)",
	MsgViewerFailed:   "无法启动查看器: %v",
	MsgFuncsSkipped:   "跳过了 %d 个无法降低的函数",
}
