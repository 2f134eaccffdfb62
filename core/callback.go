package core

import "reflect"

// Callback 订阅记录（不可变值）
//
// 相等性按三元组判定: 函数代码指针、目标线程、userData。
// 同一函数字面量产生的不同闭包代码指针相同，需用 userData 区分。
type Callback struct {
	fn       any
	thread   Thread
	userData any
}

// NewCallback 创建订阅记录
func NewCallback(fn any, thread Thread, userData any) Callback {
	return Callback{fn: fn, thread: thread, userData: userData}
}

// Func 订阅函数（调用方按注册时的签名断言）
func (c Callback) Func() any { return c.fn }

// Thread 目标线程
func (c Callback) Thread() Thread { return c.thread }

// UserData 用户数据
func (c Callback) UserData() any { return c.userData }

// IsZero 是否为空记录（已被消息释放）
func (c Callback) IsZero() bool {
	return c.fn == nil && c.thread == nil && c.userData == nil
}

// Equal 三元组相等
func (c Callback) Equal(o Callback) bool {
	return funcPtr(c.fn) == funcPtr(o.fn) &&
		sameValue(c.thread, o.thread) &&
		sameValue(c.userData, o.userData)
}

// funcPtr 函数代码指针（非函数返回 0）
func funcPtr(fn any) uintptr {
	if fn == nil {
		return 0
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return 0
	}
	return v.Pointer()
}

// sameValue 身份比较：引用类型比指针，可比较类型比值，其余视为不等。
// 不可比较的动态值走 == 会 panic，这里统一走 reflect。
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
