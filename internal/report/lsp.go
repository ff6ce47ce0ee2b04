package report

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

// DiagnosticSource 诊断来源名
const DiagnosticSource = "minreg"

// DocumentURI 文件路径对应的文档 URI
func DocumentURI(file string) protocol.DocumentURI {
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	return protocol.DocumentURI(uri.File(file))
}

// Diagnostics 把每条候选指令转换为一条提示级诊断
//
// 位置取指令的源位置（LSP 行列从 0 开始），相关信息指向目标块的终结指令。
func Diagnostics(file string, r *codemotion.Report) []protocol.Diagnostic {
	f := r.Func
	if f.File != "" {
		file = f.File
	}
	docURI := DocumentURI(file)

	diagnostics := []protocol.Diagnostic{}
	for _, rec := range r.Records {
		for _, c := range rec.Candidates {
			in := f.Instr(c.Instr)
			diag := protocol.Diagnostic{
				Range:    instrRange(f, in),
				Severity: protocol.DiagnosticSeverityHint,
				Code:     c.Reason.String(),
				Source:   DiagnosticSource,
				Message: i18n.T(i18n.MsgDiagCandidate,
					f.InstrName(in.ID), f.BlockName(rec.Src), f.BlockName(rec.Dst)),
			}
			if term := f.Terminator(rec.Dst); term != nil {
				diag.RelatedInformation = []protocol.DiagnosticRelatedInformation{{
					Location: protocol.Location{URI: docURI, Range: instrRange(f, term)},
					Message:  i18n.T(i18n.MsgDiagReason, c.Reason),
				}}
			}
			diagnostics = append(diagnostics, diag)
		}
	}
	return diagnostics
}

// instrRange 指令所在的整行范围
func instrRange(f *ir.Func, in *ir.Instr) protocol.Range {
	line, col := in.Pos.Line-1, in.Pos.Column-1
	if line < 0 {
		line = 0
	}
	if col < 0 {
		col = 0
	}
	width := len(irtext.InstrString(f, in.ID))
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(col + width)},
	}
}

// PublishParams 一个文件的 publishDiagnostics 参数
func PublishParams(file string, reps []*codemotion.Report) protocol.PublishDiagnosticsParams {
	params := protocol.PublishDiagnosticsParams{
		URI:         DocumentURI(file),
		Diagnostics: []protocol.Diagnostic{},
	}
	for _, r := range reps {
		params.Diagnostics = append(params.Diagnostics, Diagnostics(file, r)...)
	}
	return params
}

// WriteLSP 以带 Content-Length 头的 JSON-RPC 通知输出诊断
func WriteLSP(ctx context.Context, w io.Writer, file string, reps []*codemotion.Report) error {
	n, err := jsonrpc2.NewNotification(protocol.MethodTextDocumentPublishDiagnostics, PublishParams(file, reps))
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}
	stream := jsonrpc2.NewStream(writeOnly{w})
	if _, err := stream.Write(ctx, n); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

// writeOnly 把 io.Writer 包装成只写的连接
type writeOnly struct{ io.Writer }

func (writeOnly) Read([]byte) (int, error) { return 0, io.EOF }

func (writeOnly) Close() error { return nil }
