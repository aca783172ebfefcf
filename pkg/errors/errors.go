package errors

import "errors"

// ErrLockNotAcquired 分布式锁已被其他实例持有
var ErrLockNotAcquired = errors.New("锁已被其他进程持有")

// ErrLockNotHeld 释放锁时发现锁已过期或已被他人持有
var ErrLockNotHeld = errors.New("锁不存在或已被其他进程持有")
