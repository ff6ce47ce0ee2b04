// Package report 把代码移动建议渲染为文本、JSON、LSP 诊断或 DOT 图
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatLSP  = "lsp"
)

// ============================================================================
// 文档模型
// ============================================================================

// Document 一个输入文件的全部建议
type Document struct {
	File    string       `json:"file"`
	Advised bool         `json:"advised"`
	Funcs   []FuncReport `json:"funcs"`
}

// FuncReport 一个函数的链与建议
type FuncReport struct {
	Name    string        `json:"name"`
	Chains  []ChainReport `json:"chains"`
	Records []Record      `json:"records"`
}

// ChainReport 一条非平凡链
type ChainReport struct {
	Blocks  []string   `json:"blocks"`
	Between [][]string `json:"between"`
}

// Record 一个链接上的候选指令
type Record struct {
	Src        string      `json:"src"`
	Dst        string      `json:"dst"`
	Between    []string    `json:"between"`
	Candidates []Candidate `json:"candidates"`
}

// Candidate 一条可移动的指令
type Candidate struct {
	Instr  string `json:"instr"`
	Reason string `json:"reason"`
	Round  int    `json:"round"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewDocument 由各函数的分析结果构造文档
func NewDocument(file string, reps []*codemotion.Report) *Document {
	doc := &Document{File: file, Funcs: make([]FuncReport, 0, len(reps))}
	for _, r := range reps {
		if r.Advised() {
			doc.Advised = true
		}
		doc.Funcs = append(doc.Funcs, funcReport(r))
	}
	return doc
}

func funcReport(r *codemotion.Report) FuncReport {
	f := r.Func
	fr := FuncReport{
		Name:    f.Name,
		Chains:  make([]ChainReport, 0, len(r.Chains)),
		Records: make([]Record, 0, len(r.Records)),
	}
	for _, c := range r.Chains {
		cr := ChainReport{Blocks: blockNames(r, c.Blocks)}
		for _, between := range c.Between {
			cr.Between = append(cr.Between, blockNames(r, between))
		}
		fr.Chains = append(fr.Chains, cr)
	}
	for _, rec := range r.Records {
		out := Record{
			Src:     f.BlockName(rec.Src),
			Dst:     f.BlockName(rec.Dst),
			Between: blockNames(r, rec.Between),
		}
		for _, c := range rec.Candidates {
			in := f.Instr(c.Instr)
			out.Candidates = append(out.Candidates, Candidate{
				Instr:  irtext.InstrString(f, c.Instr),
				Reason: c.Reason.String(),
				Round:  c.Round,
				Line:   in.Pos.Line,
				Column: in.Pos.Column,
			})
		}
		fr.Records = append(fr.Records, out)
	}
	return fr
}

// blockNames 块名列表；空列表编码为 []
func blockNames(r *codemotion.Report, ids []ir.BlockID) []string {
	names := make([]string, len(ids))
	for i, b := range ids {
		names[i] = r.Func.BlockName(b)
	}
	return names
}

// ============================================================================
// 输出
// ============================================================================

// Write 按格式输出一个文件的分析结果
func Write(ctx context.Context, w io.Writer, format, file string, reps []*codemotion.Report) error {
	switch format {
	case FormatText, "":
		return WriteText(w, reps, i18n.GetLanguage())
	case FormatJSON:
		return WriteJSON(w, NewDocument(file, reps))
	case FormatLSP:
		return WriteLSP(ctx, w, file, reps)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteJSON 以缩进 JSON 输出文档
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
