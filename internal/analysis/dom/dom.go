// Package dom 计算支配树与后支配树
//
// 两棵树共用同一套 Cooper-Harvey-Kennedy 迭代算法，区别只在遍历方向。
// 后支配树在反向图上计算，所有没有后继的块都连到一个虚拟出口；
// 无法到达任何返回块的块（无限循环）也连到虚拟出口，
// 因此循环外的块不会因为绕开了循环而被误判为后支配者。
package dom

import "github.com/taylorlloyd/llvmMRIS/internal/ir"

// Graph 控制流图视图
type Graph interface {
	NumBlocks() int
	Succs(b ir.BlockID) []ir.BlockID
	Preds(b ir.BlockID) []ir.BlockID
}

// ============================================================================
// 支配树
// ============================================================================

// Tree 支配树（或后支配树）
type Tree struct {
	root     ir.BlockID
	idom     []ir.BlockID // 直接支配者；根指向自己，不可达为 NoBlock
	order    []ir.BlockID // 逆后序
	children [][]ir.BlockID
	pre      []int32 // 支配树上的先序编号
	post     []int32 // 支配树上的后序编号
}

// edges 遍历方向
type edges struct {
	n    int
	succ func(ir.BlockID) []ir.BlockID
	pred func(ir.BlockID) []ir.BlockID
}

// Dominators 计算以入口块为根的支配树
func Dominators(g Graph, entry ir.BlockID) *Tree {
	return build(edges{n: g.NumBlocks(), succ: g.Succs, pred: g.Preds}, entry)
}

// PostDominators 计算以虚拟出口为根的后支配树
func PostDominators(g Graph) *Tree {
	n := g.NumBlocks()
	exit := ir.BlockID(n)

	// 先找出能到达某个返回块的块，其余的（无限循环）也直接连到虚拟出口
	canExit := make([]bool, n)
	var work []ir.BlockID
	for b := 0; b < n; b++ {
		if len(g.Succs(ir.BlockID(b))) == 0 {
			canExit[b] = true
			work = append(work, ir.BlockID(b))
		}
	}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, p := range g.Preds(b) {
			if !canExit[p] {
				canExit[p] = true
				work = append(work, p)
			}
		}
	}

	var exits []ir.BlockID
	toExit := make(map[ir.BlockID][]ir.BlockID)
	for b := 0; b < n; b++ {
		id := ir.BlockID(b)
		succs := g.Succs(id)
		if len(succs) == 0 || !canExit[b] {
			exits = append(exits, id)
			toExit[id] = append(append([]ir.BlockID(nil), succs...), exit)
		}
	}

	rev := edges{
		n: n + 1,
		succ: func(b ir.BlockID) []ir.BlockID {
			if b == exit {
				return exits
			}
			return g.Preds(b)
		},
		pred: func(b ir.BlockID) []ir.BlockID {
			if b == exit {
				return nil
			}
			if s, ok := toExit[b]; ok {
				return s
			}
			return g.Succs(b)
		},
	}
	return build(rev, exit)
}

func build(e edges, root ir.BlockID) *Tree {
	t := &Tree{
		root: root,
		idom: make([]ir.BlockID, e.n),
	}
	for i := range t.idom {
		t.idom[i] = ir.NoBlock
	}
	t.order = reversePostorder(e, root)

	// 逆后序编号，用于 intersect 中比较深浅
	rpo := make([]int32, e.n)
	for i := range rpo {
		rpo[i] = -1
	}
	for i, b := range t.order {
		rpo[b] = int32(i)
	}

	t.idom[root] = root
	changed := true
	for changed {
		changed = false
		for _, b := range t.order[1:] {
			newIdom := ir.NoBlock
			for _, p := range e.pred(b) {
				if t.idom[p] == ir.NoBlock {
					continue
				}
				if newIdom == ir.NoBlock {
					newIdom = p
				} else {
					newIdom = t.intersect(rpo, p, newIdom)
				}
			}
			if newIdom != ir.NoBlock && t.idom[b] != newIdom {
				t.idom[b] = newIdom
				changed = true
			}
		}
	}

	t.children = make([][]ir.BlockID, e.n)
	for _, b := range t.order[1:] {
		if d := t.idom[b]; d != ir.NoBlock {
			t.children[d] = append(t.children[d], b)
		}
	}
	t.number()
	return t
}

// intersect 计算两个块的最近公共支配者
func (t *Tree) intersect(rpo []int32, b1, b2 ir.BlockID) ir.BlockID {
	f1, f2 := b1, b2
	for f1 != f2 {
		for rpo[f1] > rpo[f2] {
			f1 = t.idom[f1]
		}
		for rpo[f2] > rpo[f1] {
			f2 = t.idom[f2]
		}
	}
	return f1
}

// reversePostorder 用显式栈做深度优先遍历，返回可达块的逆后序
func reversePostorder(e edges, root ir.BlockID) []ir.BlockID {
	type frame struct {
		b    ir.BlockID
		next int
	}
	visited := make([]bool, e.n)
	post := make([]ir.BlockID, 0, e.n)
	stack := []frame{{b: root}}
	visited[root] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := e.succ(top.b)
		if top.next < len(succs) {
			s := succs[top.next]
			top.next++
			if !visited[s] {
				visited[s] = true
				stack = append(stack, frame{b: s})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// number 在支配树上做先序/后序编号，使 Dominates 为 O(1)
func (t *Tree) number() {
	t.pre = make([]int32, len(t.idom))
	t.post = make([]int32, len(t.idom))
	type frame struct {
		b    ir.BlockID
		next int
	}
	var pre, post int32
	stack := []frame{{b: t.root}}
	t.pre[t.root] = pre
	pre++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := t.children[top.b]
		if top.next < len(kids) {
			c := kids[top.next]
			top.next++
			t.pre[c] = pre
			pre++
			stack = append(stack, frame{b: c})
			continue
		}
		t.post[top.b] = post
		post++
		stack = stack[:len(stack)-1]
	}
}

// ============================================================================
// 查询
// ============================================================================

// Root 树根（后支配树为虚拟出口）
func (t *Tree) Root() ir.BlockID { return t.root }

// Reachable 块是否在树中（从根可达）
func (t *Tree) Reachable(b ir.BlockID) bool {
	return b >= 0 && int(b) < len(t.idom) && t.idom[b] != ir.NoBlock
}

// IDom 直接支配者；根和不可达块返回 false
func (t *Tree) IDom(b ir.BlockID) (ir.BlockID, bool) {
	if !t.Reachable(b) || b == t.root {
		return ir.NoBlock, false
	}
	return t.idom[b], true
}

// Dominates a 是否支配 b（自反）。不可达块既不支配也不被支配。
func (t *Tree) Dominates(a, b ir.BlockID) bool {
	if !t.Reachable(a) || !t.Reachable(b) {
		return false
	}
	return t.pre[a] <= t.pre[b] && t.post[b] <= t.post[a]
}

// StrictlyDominates a 是否严格支配 b
func (t *Tree) StrictlyDominates(a, b ir.BlockID) bool {
	return a != b && t.Dominates(a, b)
}

// Children 支配树上的子节点
func (t *Tree) Children(b ir.BlockID) []ir.BlockID { return t.children[b] }

// Order 可达块的逆后序（后支配树中包含虚拟出口）
func (t *Tree) Order() []ir.BlockID { return t.order }
