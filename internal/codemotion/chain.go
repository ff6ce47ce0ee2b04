// Package codemotion 基于支配关系的全局代码移动建议
//
// 函数的 CFG 被划分为若干条链：链上相邻两块 prev、next 满足
// prev 支配 next 且 next 后支配 prev，即二者总是成对执行。
// 对链上的每个链接，找出 next 中可以移到 prev 而不改变语义的指令。
// 本包只做分析，从不修改函数。
package codemotion

import (
	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Graph CFG 的只读视图
type Graph interface {
	NumBlocks() int
	Succs(b ir.BlockID) []ir.BlockID
	Preds(b ir.BlockID) []ir.BlockID
}

// DomOracle 支配与后支配查询
type DomOracle interface {
	Dominates(a, b ir.BlockID) bool
	PostDominates(a, b ir.BlockID) bool
}

// ============================================================================
// 链
// ============================================================================

// Chain 一条链。Between[i] 是链接 Blocks[i] → Blocks[i+1] 的中间块集合
type Chain struct {
	Blocks  []ir.BlockID
	Between [][]ir.BlockID
}

// Len 链上块的数量
func (c *Chain) Len() int { return len(c.Blocks) }

// Trivial 只有一个块的链
func (c *Chain) Trivial() bool { return len(c.Blocks) <= 1 }

// Contains 链是否包含块 b
func (c *Chain) Contains(b ir.BlockID) bool {
	for _, x := range c.Blocks {
		if x == b {
			return true
		}
	}
	return false
}

// Link 第 i 个链接的两端
func (c *Chain) Link(i int) (prev, next ir.BlockID) {
	return c.Blocks[i], c.Blocks[i+1]
}

func (c *Chain) tail() ir.BlockID { return c.Blocks[len(c.Blocks)-1] }

// append 延长链并缓存新链接的中间块
func (c *Chain) append(g Graph, next ir.BlockID) {
	c.Between = append(c.Between, Between(g, c.tail(), next))
	c.Blocks = append(c.Blocks, next)
}

// BuildChains 从 root 开始划分链
//
// 对当前链尾 B 按后继顺序扫描：第一个尚未被认领、且与 B 满足链条件的后继
// 延长当前链，扫描随后从它继续；其余未认领的后继各自开始一条新链。
// 块在成为链头或链成员的那一刻即被认领，因此环与自环都会终止。
// 不可达块不会被访问。
func BuildChains(g Graph, d DomOracle, root ir.BlockID, log *zap.Logger) []Chain {
	if log == nil {
		log = zap.NewNop()
	}
	n := g.NumBlocks()
	if root < 0 || int(root) >= n {
		return nil
	}

	claimed := make([]bool, n)
	claimed[root] = true
	stack := []ir.BlockID{root}
	var chains []Chain

	for len(stack) > 0 {
		start := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		log.Debug("starting chain", zap.Int32("block", int32(start)))
		c := Chain{Blocks: []ir.BlockID{start}}
		var roots []ir.BlockID

		for {
			tail := c.tail()
			next := ir.NoBlock
			for _, s := range g.Succs(tail) {
				if claimed[s] {
					continue
				}
				claimed[s] = true
				if next == ir.NoBlock && d.Dominates(tail, s) && d.PostDominates(s, tail) {
					next = s
					continue
				}
				roots = append(roots, s)
			}
			if next == ir.NoBlock {
				break
			}
			log.Debug("appending block to chain",
				zap.Int32("block", int32(next)),
				zap.Int32("tail", int32(tail)),
			)
			c.append(g, next)
		}
		chains = append(chains, c)

		// 逆序压栈，先发现的新链先处理
		for i := len(roots) - 1; i >= 0; i-- {
			stack = append(stack, roots[i])
		}
	}
	return chains
}

// NonTrivial 去掉只有一个块的链
func NonTrivial(chains []Chain) []Chain {
	out := chains[:0:0]
	for _, c := range chains {
		if !c.Trivial() {
			out = append(out, c)
		}
	}
	return out
}
