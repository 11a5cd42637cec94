package errors

import "errors"

// ErrFinalizeConflict 并发定稿冲突：同一 (教师, 学期) 的最终版本已被其他请求修改，可重试
var ErrFinalizeConflict = errors.New("最终版本已被其他操作修改，请稍后重试")
