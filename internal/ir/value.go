package ir

import (
	"fmt"
	"strconv"
)

// ValueKind 操作数种类
type ValueKind uint8

const (
	ValueConst  ValueKind = iota // 常量
	ValueArg                     // 函数参数
	ValueGlobal                  // 全局符号地址
	ValueInstr                   // 指令结果
)

// ConstKind 常量种类
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstNull
	ConstUndef
	ConstString
)

// Value 指令操作数
//
// Value 是值类型，只保存索引，不持有任何节点。
type Value struct {
	Kind  ValueKind
	Index int32 // 参数序号 / 全局序号 / InstrID
	Type  *Type // 常量类型；其余种类可为空，通过 Func.TypeOf 解析

	Const ConstKind
	Int   int64
	Float float64
	Str   string
}

// ConstIntValue 创建整数常量
func ConstIntValue(t *Type, v int64) Value {
	return Value{Kind: ValueConst, Type: t, Const: ConstInt, Int: v}
}

// ConstFloatValue 创建浮点常量
func ConstFloatValue(t *Type, v float64) Value {
	return Value{Kind: ValueConst, Type: t, Const: ConstFloat, Float: v}
}

// NullValue 创建空指针常量
func NullValue() Value {
	return Value{Kind: ValueConst, Type: Ptr, Const: ConstNull}
}

// UndefValue 创建 undef 常量
func UndefValue(t *Type) Value {
	return Value{Kind: ValueConst, Type: t, Const: ConstUndef}
}

// ConstStringValue 创建字符串常量
func ConstStringValue(s string) Value {
	return Value{Kind: ValueConst, Type: Ptr, Const: ConstString, Str: s}
}

// ArgValue 引用第 i 个参数
func ArgValue(i int) Value {
	return Value{Kind: ValueArg, Index: int32(i)}
}

// GlobalValue 引用模块中第 i 个全局符号
func GlobalValue(i int) Value {
	return Value{Kind: ValueGlobal, Index: int32(i)}
}

// InstrValue 引用指令结果
func InstrValue(id InstrID) Value {
	return Value{Kind: ValueInstr, Index: int32(id)}
}

// IsInstr 是否引用指令
func (v Value) IsInstr() bool { return v.Kind == ValueInstr }

// IsConst 是否为常量
func (v Value) IsConst() bool { return v.Kind == ValueConst }

// InstrID 返回引用的指令 ID（仅当 IsInstr）
func (v Value) InstrID() InstrID { return InstrID(v.Index) }

// IntConst 返回整数常量值
func (v Value) IntConst() (int64, bool) {
	if v.Kind == ValueConst && v.Const == ConstInt {
		return v.Int, true
	}
	return 0, false
}

// SameAs 两个操作数是否引用同一个值
func (v Value) SameAs(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind != ValueConst {
		return v.Index == o.Index
	}
	return v.Const == o.Const && v.Int == o.Int && v.Float == o.Float &&
		v.Str == o.Str && v.Type.Equal(o.Type)
}

// constString 常量的文本表示
func (v Value) constString() string {
	switch v.Const {
	case ConstInt:
		if v.Type != nil && v.Type.Bits == 1 {
			if v.Int != 0 {
				return "true"
			}
			return "false"
		}
		return strconv.FormatInt(v.Int, 10)
	case ConstFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			s += ".0"
		}
		return s
	case ConstNull:
		return "null"
	case ConstUndef:
		return "undef"
	case ConstString:
		return strconv.Quote(v.Str)
	}
	return fmt.Sprintf("const(%d)", v.Const)
}
