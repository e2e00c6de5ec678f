package cart

import (
	"errors"
	"fmt"
)

// ErrPending 同一行已有在途操作，调用方可直接忽略
var ErrPending = errors.New("cart operation pending")

// ValidationError 本地输入不合法，未发起网络请求
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation 判断是否为本地校验错误
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
