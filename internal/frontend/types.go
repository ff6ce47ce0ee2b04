package frontend

import (
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// irType 把 Go 类型映射到 IR 类型
//
// 整数与浮点按位宽映射，bool 为 i1，结构体与数组逐字段映射；
// 指针、切片、字符串、接口、映射、通道与函数值都视为不透明的 ptr。
func irType(t types.Type) *ir.Type {
	switch t := t.(type) {
	case *types.Tuple:
		switch t.Len() {
		case 0:
			return ir.Void
		case 1:
			return irType(t.At(0).Type())
		}
		fields := make([]*ir.Type, t.Len())
		for i := range fields {
			fields[i] = irType(t.At(i).Type())
		}
		return ir.StructType(fields...)
	case *types.Named, *types.Alias:
		return irType(t.Underlying())
	case *types.Basic:
		return basicType(t)
	case *types.Struct:
		fields := make([]*ir.Type, t.NumFields())
		for i := range fields {
			fields[i] = irType(t.Field(i).Type())
		}
		return ir.StructType(fields...)
	case *types.Array:
		return ir.ArrayType(int(t.Len()), irType(t.Elem()))
	}
	return ir.Ptr
}

func basicType(t *types.Basic) *ir.Type {
	switch t.Kind() {
	case types.Bool, types.UntypedBool:
		return ir.I1
	case types.Int8, types.Uint8:
		return ir.I8
	case types.Int16, types.Uint16:
		return ir.I16
	case types.Int32, types.Uint32, types.UntypedRune:
		return ir.I32
	case types.Int, types.Int64, types.Uint, types.Uint64, types.Uintptr, types.UntypedInt:
		return ir.I64
	case types.Float32:
		return ir.F32
	case types.Float64, types.UntypedFloat:
		return ir.F64
	case types.UnsafePointer:
		return ir.Ptr
	}
	// string 与复数都按指针传递
	return ir.Ptr
}

// basicOf 类型的底层基本类型
func basicOf(t types.Type) (*types.Basic, bool) {
	b, ok := t.Underlying().(*types.Basic)
	return b, ok
}

func isInteger(t types.Type) bool {
	b, ok := basicOf(t)
	return ok && b.Info()&types.IsInteger != 0
}

func isUnsigned(t types.Type) bool {
	b, ok := basicOf(t)
	return ok && b.Info()&types.IsUnsigned != 0
}

func isFloat(t types.Type) bool {
	b, ok := basicOf(t)
	return ok && b.Info()&types.IsFloat != 0
}

func isBoolean(t types.Type) bool {
	b, ok := basicOf(t)
	return ok && b.Info()&types.IsBoolean != 0
}

// isScalar 能直接用 IR 整数、浮点或指针比较的类型
func isScalar(t types.Type) bool {
	if isInteger(t) || isFloat(t) || isBoolean(t) {
		return true
	}
	switch t.Underlying().(type) {
	case *types.Chan, *types.Map:
		return true
	}
	return isPointer(t)
}

// isPointer *T 或 unsafe.Pointer
func isPointer(t types.Type) bool {
	if _, ok := t.Underlying().(*types.Pointer); ok {
		return true
	}
	b, ok := basicOf(t)
	return ok && b.Kind() == types.UnsafePointer
}

// elemOf 指针指向的类型
func elemOf(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// tbaaTag 访问 t 类型内存时使用的类型标签
//
// 标签按 "go.<基本类型>" 命名，同一基本类型的不同命名类型共用一个标签；
// 非基本类型统一为 go.ptr 或 go.agg。
func tbaaTag(t types.Type) string {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch u.Kind() {
		case types.String:
			return "go.string"
		case types.UnsafePointer:
			return "go.ptr"
		}
		return "go." + u.Name()
	case *types.Struct, *types.Array:
		return "go.agg"
	}
	return "go.ptr"
}

// ============================================================================
// 符号命名
// ============================================================================

var symbolReplacer = strings.NewReplacer(
	"(*", "",
	"(", "",
	")", "",
	"*", "",
	"/", ".",
	"[", "$",
	"]", "",
	",", "$",
	" ", "",
	"{", "",
	"}", "",
)

// symbolName 函数在 IR 中的名字
//
// 本包函数使用包内相对名（方法为 T.m），其他包的函数带上导入路径，
// 路径分隔符换成 '.'。
func symbolName(fn *ssa.Function, pkg *types.Package) string {
	return sanitize(fn.RelString(pkg))
}

// sanitize 去掉 IR 名字中不允许出现的字符
func sanitize(s string) string {
	s = symbolReplacer.Replace(s)
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || r == '.' || r == '$',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
