package i18n

var messagesEN = map[string]string{
	// ========== 报告 ==========
	MsgFuncHeader:       "Function %s",
	MsgChainHeader:      "Chain (%d blocks)",
	MsgCandidatesHeader: "Candidates from %s to %s:",
	MsgThrough:          "(Through %s)",
	MsgSummary:          "%d chain(s), %d record(s), %d candidate(s)",
	MsgNoAdvice:         "no code motion opportunities",
	MsgDiagCandidate:    "%s can move from block %s to block %s",
	MsgDiagReason:       "movable: %s",

	// ========== 流水线 ==========
	MsgPassStats:   "%d pass run(s), %d change(s)",
	MsgUnknownPass: "unknown pass %q",
	MsgPassFailed:  "pass %s failed on %s: %v",

	// ========== 命令行 ==========
	MsgUnknownCommand: "unknown command: %s",
	MsgNoInput:        "no input files",
	MsgWroteFile:      "wrote %s",
	MsgConfigExists:   "%s already exists",
	MsgConfigCreated:  "Created %s",
	MsgVerifyOK:       "%s: ok (%d function(s))",
	MsgViewerFailed:   "cannot start viewer: %v",
	MsgFuncsSkipped:   "skipped %d function(s) that could not be lowered",
}
