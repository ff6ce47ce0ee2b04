package ir

// BlockID 基本块在函数 arena 中的稳定索引
type BlockID int32

// NoBlock 无效块 ID
const NoBlock BlockID = -1

// Block 基本块
//
// 指令和边都以索引保存，节点生命周期由 Func 统一管理。
type Block struct {
	ID     BlockID
	Name   string
	Instrs []InstrID
	Succs  []BlockID
	Preds  []BlockID
}

// HasSucc 是否存在到 s 的边
func (b *Block) HasSucc(s BlockID) bool {
	for _, x := range b.Succs {
		if x == s {
			return true
		}
	}
	return false
}

// HasPred 是否存在来自 p 的边
func (b *Block) HasPred(p BlockID) bool {
	for _, x := range b.Preds {
		if x == p {
			return true
		}
	}
	return false
}
