package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 表示调用方提交了缺失或空白的必填字段。
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable 表示底层存储无法完成请求。
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeError 为存储层错误附加操作名，同时保留原始错误链。
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
