// Package vrange 整数值的有符号区间分析
//
// 区间端点以 256 位补码保存，任何 64 位以内的运算都不会在中间步骤溢出；
// 结果超出类型位宽时退化为该位宽的完整区间。
package vrange

import (
	"fmt"

	"github.com/holiman/uint256"
)

// maxBits 参与区间运算的最大位宽，更宽的类型直接视为完整区间
const maxBits = 64

// Range 有符号闭区间 [Lo, Hi]
type Range struct {
	Bits int
	Lo   uint256.Int
	Hi   uint256.Int
}

// Full 位宽 bits 的完整区间
func Full(bits int) Range {
	return Range{Bits: bits, Lo: smin(bits), Hi: smax(bits)}
}

// Const 单点区间
func Const(bits int, v int64) Range {
	x := fromInt64(v)
	return Range{Bits: bits, Lo: x, Hi: x}
}

// NewRange 由 int64 端点构造区间，超出位宽时返回完整区间
func NewRange(bits int, lo, hi int64) Range {
	return clamp(bits, fromInt64(lo), fromInt64(hi))
}

func smin(bits int) uint256.Int {
	x := uint256.NewInt(1)
	x.Lsh(x, uint(bits-1))
	x.Neg(x)
	return *x
}

func smax(bits int) uint256.Int {
	x := uint256.NewInt(1)
	x.Lsh(x, uint(bits-1))
	x.Sub(x, uint256.NewInt(1))
	return *x
}

func fromInt64(v int64) uint256.Int {
	if v >= 0 {
		return *uint256.NewInt(uint64(v))
	}
	x := uint256.NewInt(uint64(-(v+1)) + 1)
	x.Neg(x)
	return *x
}

func toInt64(x *uint256.Int) (int64, bool) {
	if x.Sign() >= 0 {
		if !x.IsUint64() || x.Uint64() > 1<<63-1 {
			return 0, false
		}
		return int64(x.Uint64()), true
	}
	m := new(uint256.Int).Neg(x)
	if !m.IsUint64() || m.Uint64() > 1<<63 {
		return 0, false
	}
	return int64(-m.Uint64()), true
}

// clamp 端点超出位宽或顺序颠倒时返回完整区间
func clamp(bits int, lo, hi uint256.Int) Range {
	min, max := smin(bits), smax(bits)
	if lo.Slt(&min) || hi.Sgt(&max) || hi.Slt(&lo) {
		return Full(bits)
	}
	return Range{Bits: bits, Lo: lo, Hi: hi}
}

func sminOf(a, b *uint256.Int) uint256.Int {
	if a.Slt(b) {
		return *a
	}
	return *b
}

func smaxOf(a, b *uint256.Int) uint256.Int {
	if a.Sgt(b) {
		return *a
	}
	return *b
}

// ============================================================================
// 查询
// ============================================================================

// IsFull 是否为完整区间
func (r Range) IsFull() bool {
	min, max := smin(r.Bits), smax(r.Bits)
	return r.Lo.Eq(&min) && r.Hi.Eq(&max)
}

// NonNegative 区间是否全部非负
func (r Range) NonNegative() bool { return r.Lo.Sign() >= 0 }

// Contains 区间是否包含 v
func (r Range) Contains(v int64) bool {
	x := fromInt64(v)
	return !x.Slt(&r.Lo) && !x.Sgt(&r.Hi)
}

// Int64 端点的 int64 形式
func (r Range) Int64() (lo, hi int64, ok bool) {
	lo, ok1 := toInt64(&r.Lo)
	hi, ok2 := toInt64(&r.Hi)
	return lo, hi, ok1 && ok2
}

// MinSignedBits 容纳区间内所有值所需的最小有符号位宽
func (r Range) MinSignedBits() int {
	n := signedBits(&r.Lo)
	if m := signedBits(&r.Hi); m > n {
		n = m
	}
	return n
}

func signedBits(x *uint256.Int) int {
	if x.Sign() < 0 {
		return new(uint256.Int).Not(x).BitLen() + 1
	}
	return x.BitLen() + 1
}

// MinWidth 容纳区间所需的最小位宽：非负区间按无符号计算，完整区间取类型位宽
func (r Range) MinWidth() int {
	if r.IsFull() {
		return r.Bits
	}
	if r.NonNegative() {
		if n := r.Hi.BitLen(); n > 0 {
			return n
		}
		return 1
	}
	return r.MinSignedBits()
}

// FitsIn 区间能否用 bits 位有符号整数表示
func (r Range) FitsIn(bits int) bool { return r.MinSignedBits() <= bits }

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", signedString(&r.Lo), signedString(&r.Hi))
}

func signedString(x *uint256.Int) string {
	if x.Sign() < 0 {
		return "-" + new(uint256.Int).Neg(x).Dec()
	}
	return x.Dec()
}

// ============================================================================
// 区间运算
// ============================================================================

// Union 最小包含两个区间的区间
func (r Range) Union(o Range) Range {
	return Range{Bits: r.Bits, Lo: sminOf(&r.Lo, &o.Lo), Hi: smaxOf(&r.Hi, &o.Hi)}
}

// Intersect 两个区间的交集；为空时返回 false
func (r Range) Intersect(o Range) (Range, bool) {
	lo, hi := smaxOf(&r.Lo, &o.Lo), sminOf(&r.Hi, &o.Hi)
	if hi.Slt(&lo) {
		return r, false
	}
	return Range{Bits: r.Bits, Lo: lo, Hi: hi}, true
}

// Add 加法
func (r Range) Add(o Range) Range {
	if r.Bits > maxBits {
		return Full(r.Bits)
	}
	lo := new(uint256.Int).Add(&r.Lo, &o.Lo)
	hi := new(uint256.Int).Add(&r.Hi, &o.Hi)
	return clamp(r.Bits, *lo, *hi)
}

// Sub 减法
func (r Range) Sub(o Range) Range {
	if r.Bits > maxBits {
		return Full(r.Bits)
	}
	lo := new(uint256.Int).Sub(&r.Lo, &o.Hi)
	hi := new(uint256.Int).Sub(&r.Hi, &o.Lo)
	return clamp(r.Bits, *lo, *hi)
}

// Mul 乘法
func (r Range) Mul(o Range) Range {
	if r.Bits > maxBits {
		return Full(r.Bits)
	}
	products := [4]uint256.Int{}
	products[0].Mul(&r.Lo, &o.Lo)
	products[1].Mul(&r.Lo, &o.Hi)
	products[2].Mul(&r.Hi, &o.Lo)
	products[3].Mul(&r.Hi, &o.Hi)
	lo, hi := products[0], products[0]
	for i := 1; i < 4; i++ {
		lo = sminOf(&lo, &products[i])
		hi = smaxOf(&hi, &products[i])
	}
	return clamp(r.Bits, lo, hi)
}

// SDiv 除以正常数（向零截断）
func (r Range) SDiv(o Range) Range {
	c, ok := o.constant()
	if !ok || c <= 0 || r.Bits > maxBits {
		return Full(r.Bits)
	}
	d := fromInt64(c)
	lo := new(uint256.Int).SDiv(&r.Lo, &d)
	hi := new(uint256.Int).SDiv(&r.Hi, &d)
	return clamp(r.Bits, *lo, *hi)
}

// UDiv 非负被除数除以正常数
func (r Range) UDiv(o Range) Range {
	if !r.NonNegative() {
		return Full(r.Bits)
	}
	return r.SDiv(o)
}

// SRem 有符号取余
func (r Range) SRem(o Range) Range {
	c, ok := o.constant()
	if !ok || c == 0 || c == -1<<63 {
		return Full(r.Bits)
	}
	if c < 0 {
		c = -c
	}
	m := c - 1
	switch {
	case r.NonNegative():
		hi := fromInt64(m)
		return Range{Bits: r.Bits, Lo: *uint256.NewInt(0), Hi: sminOf(&hi, &r.Hi)}
	case r.Hi.Sign() <= 0:
		lo := fromInt64(-m)
		return Range{Bits: r.Bits, Lo: smaxOf(&lo, &r.Lo), Hi: *uint256.NewInt(0)}
	}
	return NewRange(r.Bits, -m, m)
}

// URem 无符号取余（除数为正常数）
func (r Range) URem(o Range) Range {
	c, ok := o.constant()
	if !ok || c <= 0 {
		return Full(r.Bits)
	}
	hi := fromInt64(c - 1)
	if r.NonNegative() {
		hi = sminOf(&hi, &r.Hi)
	}
	return clamp(r.Bits, *uint256.NewInt(0), hi)
}

// And 按位与
func (r Range) And(o Range) Range {
	switch {
	case r.NonNegative() && o.NonNegative():
		return Range{Bits: r.Bits, Lo: *uint256.NewInt(0), Hi: sminOf(&r.Hi, &o.Hi)}
	case r.NonNegative():
		return Range{Bits: r.Bits, Lo: *uint256.NewInt(0), Hi: r.Hi}
	case o.NonNegative():
		return Range{Bits: r.Bits, Lo: *uint256.NewInt(0), Hi: o.Hi}
	}
	return Full(r.Bits)
}

// Or 按位或 / 异或：两边都非负时结果不超过较大者的位数
func (r Range) Or(o Range) Range {
	if !r.NonNegative() || !o.NonNegative() {
		return Full(r.Bits)
	}
	hi := smaxOf(&r.Hi, &o.Hi)
	mask := uint256.NewInt(1)
	mask.Lsh(mask, uint(hi.BitLen()))
	mask.Sub(mask, uint256.NewInt(1))
	return clamp(r.Bits, *uint256.NewInt(0), *mask)
}

// Shl 左移常数位
func (r Range) Shl(o Range) Range {
	c, ok := o.constant()
	if !ok || c < 0 || c >= int64(r.Bits) {
		return Full(r.Bits)
	}
	p := uint256.NewInt(1)
	p.Lsh(p, uint(c))
	return r.Mul(Range{Bits: r.Bits, Lo: *p, Hi: *p})
}

// AShr 算术右移常数位
func (r Range) AShr(o Range) Range {
	c, ok := o.constant()
	if !ok || c < 0 || c >= int64(r.Bits) {
		return Full(r.Bits)
	}
	lo := new(uint256.Int).SRsh(&r.Lo, uint(c))
	hi := new(uint256.Int).SRsh(&r.Hi, uint(c))
	return Range{Bits: r.Bits, Lo: *lo, Hi: *hi}
}

// LShr 逻辑右移常数位
func (r Range) LShr(o Range) Range {
	c, ok := o.constant()
	if !ok || c < 0 || c >= int64(r.Bits) {
		return Full(r.Bits)
	}
	if r.NonNegative() {
		return r.AShr(o)
	}
	if c == 0 {
		return Full(r.Bits)
	}
	// 负数右移后是一个很大的非负数
	hi := uint256.NewInt(1)
	hi.Lsh(hi, uint(r.Bits-int(c)))
	hi.Sub(hi, uint256.NewInt(1))
	return Range{Bits: r.Bits, Lo: *uint256.NewInt(0), Hi: *hi}
}

// Trunc 截断到更窄的位宽
func (r Range) Trunc(bits int) Range {
	if r.FitsIn(bits) {
		return Range{Bits: bits, Lo: r.Lo, Hi: r.Hi}
	}
	return Full(bits)
}

// SExt 符号扩展
func (r Range) SExt(bits int) Range {
	return Range{Bits: bits, Lo: r.Lo, Hi: r.Hi}
}

// ZExt 零扩展
func (r Range) ZExt(bits int) Range {
	if r.NonNegative() {
		return Range{Bits: bits, Lo: r.Lo, Hi: r.Hi}
	}
	hi := uint256.NewInt(1)
	hi.Lsh(hi, uint(r.Bits))
	hi.Sub(hi, uint256.NewInt(1))
	return clamp(bits, *uint256.NewInt(0), *hi)
}

// constant 单点区间的值
func (r Range) constant() (int64, bool) {
	if !r.Lo.Eq(&r.Hi) {
		return 0, false
	}
	return toInt64(&r.Lo)
}
