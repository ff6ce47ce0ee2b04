package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

// WriteText 以纯文本输出：每个函数先列出链及各链接的中间块，再列出各链接的候选指令
func WriteText(w io.Writer, reps []*codemotion.Report, lang i18n.Language) error {
	var sb strings.Builder
	chains, records, cands := 0, 0, 0
	for _, r := range reps {
		f := r.Func
		sb.WriteString(i18n.TL(lang, i18n.MsgFuncHeader, "@"+f.Name))
		sb.WriteByte('\n')
		for _, c := range r.Chains {
			sb.WriteString(i18n.TL(lang, i18n.MsgChainHeader, c.Len()))
			sb.WriteByte('\n')
			for i, b := range c.Blocks {
				if i > 0 {
					fmt.Fprintf(&sb, "  %s\n", i18n.TL(lang, i18n.MsgThrough, codemotion.BlockList(f, c.Between[i-1])))
				}
				fmt.Fprintf(&sb, "- %s\n", f.BlockName(b))
			}
		}
		for _, rec := range r.Records {
			sb.WriteString(i18n.TL(lang, i18n.MsgCandidatesHeader, f.BlockName(rec.Src), f.BlockName(rec.Dst)))
			sb.WriteByte('\n')
			sb.WriteString(i18n.TL(lang, i18n.MsgThrough, codemotion.BlockList(f, rec.Between)))
			sb.WriteByte('\n')
			for _, c := range rec.Candidates {
				fmt.Fprintf(&sb, "  %s\n", irtext.InstrString(f, c.Instr))
			}
		}
		chains += len(r.Chains)
		records += len(r.Records)
		cands += r.NumCandidates()
	}

	if records == 0 {
		sb.WriteString(i18n.TL(lang, i18n.MsgNoAdvice))
	} else {
		sb.WriteString(i18n.TL(lang, i18n.MsgSummary, chains, records, cands))
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}
