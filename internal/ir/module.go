package ir

// Global 全局符号
type Global struct {
	Name  string
	Type  *Type // 符号所指向存储的类型
	Const bool  // 只读存储
}

// Decl 外部函数声明
type Decl struct {
	Name     string
	Params   []*Type
	Ret      *Type
	ReadNone bool // 不读写内存
	ReadOnly bool // 只读内存
}

// Module 编译单元
type Module struct {
	Name    string
	Globals []*Global
	Decls   []*Decl
	Funcs   []*Func
}

// NewModule 创建模块
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddGlobal 添加全局符号，返回引用它的操作数
func (m *Module) AddGlobal(g *Global) Value {
	m.Globals = append(m.Globals, g)
	return GlobalValue(len(m.Globals) - 1)
}

// GlobalIndex 按名称查找全局符号
func (m *Module) GlobalIndex(name string) (int, bool) {
	for i, g := range m.Globals {
		if g.Name == name {
			return i, true
		}
	}
	return -1, false
}

// AddDecl 添加外部声明
func (m *Module) AddDecl(d *Decl) {
	m.Decls = append(m.Decls, d)
}

// Decl 按名称查找外部声明
func (m *Module) Decl(name string) (*Decl, bool) {
	for _, d := range m.Decls {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// AddFunc 添加函数
func (m *Module) AddFunc(f *Func) {
	f.Module = m
	m.Funcs = append(m.Funcs, f)
}

// Func 按名称查找函数
func (m *Module) Func(name string) (*Func, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
