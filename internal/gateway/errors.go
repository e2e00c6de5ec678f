package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 远端调用失败分类
type Kind string

const (
	KindNetworkFailure Kind = "network_failure"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindServerError    Kind = "server_error"
)

// Error 远端调用错误
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 提取错误分类，非网关错误返回空
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

// IsKind 判断错误分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Classify 按 HTTP 状态码分类
func Classify(status int) (Kind, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status >= 300 && status < 400:
		// 重定向已由 http.Client 跟随，剩下的 3xx（如 304）没有可用的响应体
		return KindServerError, true
	case status == http.StatusUnauthorized:
		return KindUnauthorized, true
	case status == http.StatusForbidden:
		return KindForbidden, true
	case status == http.StatusNotFound:
		return KindNotFound, true
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindConflict, true
	default:
		return KindServerError, true
	}
}

// UserMessage 面向用户的提示文案
func UserMessage(err error) string {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	switch gwErr.Kind {
	case KindNetworkFailure:
		return "Network error. Please check your connection and try again."
	case KindUnauthorized:
		return "Please log in to continue."
	case KindForbidden:
		return "You do not have permission to do that."
	case KindNotFound:
		if gwErr.Message != "" {
			return gwErr.Message
		}
		return "The requested item was not found."
	case KindConflict:
		if gwErr.Message != "" {
			return gwErr.Message
		}
		return "The request could not be completed."
	default:
		return "Something went wrong. Please try again later."
	}
}
