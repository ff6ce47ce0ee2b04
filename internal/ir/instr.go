package ir

// InstrID 指令在函数 arena 中的稳定索引
type InstrID int32

// NoInstr 无效指令 ID
const NoInstr InstrID = -1

// Pos 源位置（1-based，0 表示未知）
type Pos struct {
	Line   int
	Column int
}

// AccessMeta 内存访问元数据
type AccessMeta struct {
	TBAA      string   // 类型别名标签，空表示未知
	Scope     string   // 别名作用域
	NoAlias   []string // 与之不别名的作用域
	Invariant bool     // 读取期间内存不变（invariant.load）
}

// Empty 是否没有任何元数据
func (m AccessMeta) Empty() bool {
	return m.TBAA == "" && m.Scope == "" && len(m.NoAlias) == 0 && !m.Invariant
}

// Instr IR 指令
type Instr struct {
	ID       InstrID
	Block    BlockID // 所属基本块；被删除后为 NoBlock
	Name     string
	Op       Op
	Type     *Type // 结果类型
	Operands []Value
	Targets  []BlockID // 跳转目标 / phi 的来源块

	Pred     Pred     // icmp/fcmp 谓词
	RMW      string   // atomicrmw 子操作
	Callee   string   // 直接调用的目标名；空表示间接调用（Operands[0] 为目标）
	ElemType *Type    // gep 元素类型 / alloca 分配类型 / 访存类型
	Volatile bool     // volatile 访存
	Ordering Ordering // 原子序
	Checked  bool     // 可能触发异常（越界、空指针、除零）
	Meta     AccessMeta
	Pos      Pos
}

// Erased 指令是否已被删除
func (in *Instr) Erased() bool { return in.Block == NoBlock }

// HasResult 指令是否产生值
func (in *Instr) HasResult() bool { return !in.Type.IsVoid() }

// IsUnordered 非 volatile 且至多 unordered 的访存
func (in *Instr) IsUnordered() bool {
	return !in.Volatile && in.Ordering <= Unordered
}

// Address 返回访存指令的地址操作数
func (in *Instr) Address() (Value, bool) {
	switch in.Op {
	case OpLoad, OpAtomicRMW, OpCmpXchg:
		if len(in.Operands) > 0 {
			return in.Operands[0], true
		}
	case OpStore:
		if len(in.Operands) > 1 {
			return in.Operands[1], true
		}
	}
	return Value{}, false
}

// AccessSize 访存字节数；无法确定时返回 0
func (in *Instr) AccessSize() uint64 {
	t := in.ElemType
	if t == nil && in.Op == OpLoad {
		t = in.Type
	}
	size, ok := t.StoreSize()
	if !ok {
		return 0
	}
	return size
}

// CallArgs 返回调用实参（去掉间接调用的目标操作数）
func (in *Instr) CallArgs() []Value {
	if in.Op != OpCall {
		return nil
	}
	if in.Callee == "" && len(in.Operands) > 0 {
		return in.Operands[1:]
	}
	return in.Operands
}
