package service

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIntersection 共同片单为空，无法随机挑选
	ErrEmptyIntersection = errors.New("no common films")
	// ErrEmptyWatchlist 个人片单为空
	ErrEmptyWatchlist = errors.New("watchlist is empty")
	// ErrSnapshotUnavailable 快照不存在或无法解析
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// ArchiveDecodeError 压缩包无法打开或读取
type ArchiveDecodeError struct {
	Archive string
	Err     error
}

func (e *ArchiveDecodeError) Error() string {
	return fmt.Sprintf("解析压缩包 %s 失败: %v", e.Archive, e.Err)
}

func (e *ArchiveDecodeError) Unwrap() error {
	return e.Err
}
