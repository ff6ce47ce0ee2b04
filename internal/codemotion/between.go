package codemotion

import "github.com/taylorlloyd/llvmMRIS/internal/ir"

// Between 位于 prev 到 next 的某条路径上的块（不含两端），按块 ID 排序
//
// 前向集合：从 prev 出发、不经过任何进入 next 的边所能到达的块；
// 后向集合：从 next 逆向、不越过 prev 所能到达的块。结果是二者的交集。
func Between(g Graph, prev, next ir.BlockID) []ir.BlockID {
	n := g.NumBlocks()

	forward := make([]bool, n)
	stack := []ir.BlockID{prev}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.Succs(b) {
			if s == next || forward[s] {
				continue
			}
			forward[s] = true
			stack = append(stack, s)
		}
	}

	backward := make([]bool, n)
	stack = append(stack[:0], next)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Preds(b) {
			if p == prev || backward[p] {
				continue
			}
			backward[p] = true
			stack = append(stack, p)
		}
	}

	var out []ir.BlockID
	for b := 0; b < n; b++ {
		id := ir.BlockID(b)
		if id == prev || id == next {
			continue
		}
		if forward[b] && backward[b] {
			out = append(out, id)
		}
	}
	return out
}
