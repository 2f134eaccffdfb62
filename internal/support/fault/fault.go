// Package fault 提供框架契约断言
//
// 契约违例（缺失必填字段、不可达分支、资源创建失败）属于编程错误，
// 直接 panic(*Error) 终止，框架内部从不 recover。
package fault

import "fmt"

// Error 契约违例
type Error struct {
	Op  string // 出错操作，如 "worker.Dispatch"
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay: %s: %s", e.Op, e.Msg)
}

// Assert cond 为 false 时 panic
func Assert(cond bool, op, msg string) {
	if !cond {
		panic(&Error{Op: op, Msg: msg})
	}
}

// Fail 无条件 panic（不可达分支）
func Fail(op, msg string) {
	panic(&Error{Op: op, Msg: msg})
}

// Failf 带格式化的 Fail
func Failf(op, format string, args ...any) {
	panic(&Error{Op: op, Msg: fmt.Sprintf(format, args...)})
}
