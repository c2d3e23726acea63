package service

import "errors"

// 错误分类：校验失败与鉴权失败本地判定，返回类型化错误供上层渲染；
// 存储错误包装后上抛；缓存错误在 redis 仓储内吸收，永远不会出现在这里
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)
