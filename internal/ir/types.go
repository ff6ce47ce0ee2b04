// types.go - IR 类型系统
//
// 类型只描述两件事：值的位宽（供位宽收窄使用）与内存访问的存储大小
// （供别名查询使用）。无法确定大小的类型返回 0，调用方据此走保守路径。

package ir

import (
	"fmt"
	"strings"
)

// TypeKind 类型种类
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeInt
	TypeFloat
	TypePtr
	TypeVector
	TypeArray
	TypeStruct
	TypeLabel
)

// Type IR 类型
type Type struct {
	Kind   TypeKind
	Bits   int     // Int/Float 位宽
	Len    int     // Vector/Array 元素个数
	Elem   *Type   // Vector/Array 元素类型
	Fields []*Type // Struct 字段
}

// 预定义类型
var (
	Void  = &Type{Kind: TypeVoid}
	I1    = &Type{Kind: TypeInt, Bits: 1}
	I8    = &Type{Kind: TypeInt, Bits: 8}
	I16   = &Type{Kind: TypeInt, Bits: 16}
	I32   = &Type{Kind: TypeInt, Bits: 32}
	I64   = &Type{Kind: TypeInt, Bits: 64}
	F32   = &Type{Kind: TypeFloat, Bits: 32}
	F64   = &Type{Kind: TypeFloat, Bits: 64}
	Ptr   = &Type{Kind: TypePtr}
	Label = &Type{Kind: TypeLabel}
)

// IntType 返回指定位宽的整数类型
func IntType(bits int) *Type {
	switch bits {
	case 1:
		return I1
	case 8:
		return I8
	case 16:
		return I16
	case 32:
		return I32
	case 64:
		return I64
	}
	return &Type{Kind: TypeInt, Bits: bits}
}

// VectorType 创建向量类型
func VectorType(n int, elem *Type) *Type {
	return &Type{Kind: TypeVector, Len: n, Elem: elem}
}

// ArrayType 创建数组类型
func ArrayType(n int, elem *Type) *Type {
	return &Type{Kind: TypeArray, Len: n, Elem: elem}
}

// StructType 创建结构体类型
func StructType(fields ...*Type) *Type {
	return &Type{Kind: TypeStruct, Fields: fields}
}

// IsInt 是否为整数类型
func (t *Type) IsInt() bool { return t != nil && t.Kind == TypeInt }

// IsVoid 是否为 void
func (t *Type) IsVoid() bool { return t == nil || t.Kind == TypeVoid }

// Equal 结构相等
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeInt, TypeFloat:
		return t.Bits == o.Bits
	case TypeVector, TypeArray:
		return t.Len == o.Len && t.Elem.Equal(o.Elem)
	case TypeStruct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(o.Fields[i]) {
				return false
			}
		}
	}
	return true
}

// StoreSize 返回类型的存储字节数；未定大小的类型返回 (0, false)
func (t *Type) StoreSize() (uint64, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case TypeInt:
		return uint64(t.Bits+7) / 8, true
	case TypeFloat:
		return uint64(t.Bits) / 8, true
	case TypePtr:
		return 8, true
	case TypeVector, TypeArray:
		es, ok := t.Elem.StoreSize()
		if !ok {
			return 0, false
		}
		return es * uint64(t.Len), true
	case TypeStruct:
		var off uint64
		maxAlign := uint64(1)
		for _, f := range t.Fields {
			size, ok := f.StoreSize()
			if !ok {
				return 0, false
			}
			align := f.align()
			if align > maxAlign {
				maxAlign = align
			}
			off = alignUp(off, align) + size
		}
		return alignUp(off, maxAlign), true
	}
	return 0, false
}

// FieldOffset 结构体第 i 个字段的字节偏移
func (t *Type) FieldOffset(i int) (uint64, bool) {
	if t == nil || t.Kind != TypeStruct || i < 0 || i >= len(t.Fields) {
		return 0, false
	}
	var off uint64
	for j, f := range t.Fields {
		size, ok := f.StoreSize()
		if !ok {
			return 0, false
		}
		off = alignUp(off, f.align())
		if j == i {
			return off, true
		}
		off += size
	}
	return 0, false
}

// align 自然对齐（最大 8 字节）
func (t *Type) align() uint64 {
	switch t.Kind {
	case TypeVector, TypeArray:
		return t.Elem.align()
	case TypeStruct:
		a := uint64(1)
		for _, f := range t.Fields {
			if fa := f.align(); fa > a {
				a = fa
			}
		}
		return a
	}
	size, ok := t.StoreSize()
	if !ok || size == 0 {
		return 1
	}
	if size > 8 {
		return 8
	}
	for a := uint64(8); a > 1; a >>= 1 {
		if size >= a {
			return a
		}
	}
	return 1
}

func alignUp(n, a uint64) uint64 {
	return (n + a - 1) / a * a
}

// String 返回类型的文本表示
func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return fmt.Sprintf("i%d", t.Bits)
	case TypeFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case TypePtr:
		return "ptr"
	case TypeLabel:
		return "label"
	case TypeVector:
		return fmt.Sprintf("<%d x %s>", t.Len, t.Elem)
	case TypeArray:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case TypeStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("type(%d)", t.Kind)
	}
}
