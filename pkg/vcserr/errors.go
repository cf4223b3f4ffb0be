// Package vcserr 定义了所有核心操作共享的错误分类。
//
// 每个错误都带有一个 Kind，CLI 层据此决定退出码与提示方式，
// 核心层永远不直接退出进程。
package vcserr

import (
	"errors"
	"fmt"
)

// Kind 是错误的大类 (tagged enum)
type Kind int

const (
	KindUnknown         Kind = iota
	KindUsage                // 参数个数/格式错误
	KindRepositoryState      // 仓库状态不满足操作前提
	KindObstruction          // 操作会覆盖未保存的工作
	KindPersistence          // 底层存储 I/O 失败
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindRepositoryState:
		return "repository-state"
	case KindObstruction:
		return "obstruction"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error 把一个底层错误和它的 Kind、发生的操作绑定在一起
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// sentinel 是带 Kind 的哨兵错误，errors.Is 按指针比较
type sentinel struct {
	kind Kind
	msg  string
}

func (s *sentinel) Error() string { return s.msg }

func newSentinel(kind Kind, msg string) error {
	return &sentinel{kind: kind, msg: msg}
}

var (
	// --- 仓库状态 ---
	ErrNotInitialized       = newSentinel(KindRepositoryState, "not in an initialized gitvault directory")
	ErrAlreadyInitialized   = newSentinel(KindRepositoryState, "a gitvault version-control system already exists in the current directory")
	ErrUnknownCommit        = newSentinel(KindRepositoryState, "no commit with that id exists")
	ErrAmbiguousID          = newSentinel(KindRepositoryState, "commit id not unique")
	ErrBranchExists         = newSentinel(KindRepositoryState, "a branch with that name already exists")
	ErrBranchNotFound       = newSentinel(KindRepositoryState, "a branch with that name does not exist")
	ErrCannotDeleteCurrent  = newSentinel(KindRepositoryState, "cannot remove the current branch")
	ErrAlreadyOnBranch      = newSentinel(KindRepositoryState, "no need to checkout the current branch")
	ErrFileNotFound         = newSentinel(KindRepositoryState, "file does not exist")
	ErrFileNotInCommit      = newSentinel(KindRepositoryState, "file does not exist in that commit")
	ErrNothingToRemove      = newSentinel(KindRepositoryState, "no reason to remove the file")
	ErrEmptyCommit          = newSentinel(KindRepositoryState, "no changes added to the commit")
	ErrMergeSelf            = newSentinel(KindRepositoryState, "cannot merge a branch with itself")
	ErrNonFastForward       = newSentinel(KindRepositoryState, "please pull down remote changes before pushing")
	ErrRemoteExists         = newSentinel(KindRepositoryState, "a remote with that name already exists")
	ErrRemoteNotFound       = newSentinel(KindRepositoryState, "a remote with that name does not exist")
	ErrRemoteDirNotFound    = newSentinel(KindRepositoryState, "remote directory not found")
	ErrRemoteBranchNotFound = newSentinel(KindRepositoryState, "that remote does not have that branch")
	ErrNoCommitWithMessage  = newSentinel(KindRepositoryState, "found no commit with that message")

	// --- 用法 ---
	ErrEmptyMessage = newSentinel(KindUsage, "please enter a commit message")

	// --- 阻塞 (会丢数据) ---
	ErrUntrackedObstruction = newSentinel(KindObstruction, "there is an untracked file in the way; delete it, or add and commit it first")
	ErrUncommittedChanges   = newSentinel(KindObstruction, "you have uncommitted changes")

	// --- 持久化 ---
	ErrLocked = newSentinel(KindPersistence, "repository is locked by another process")
)

// KindOf 沿着错误链寻找第一个带 Kind 的错误
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Kind
	}
	var s *sentinel
	if errors.As(err, &s) {
		return s.kind
	}
	return KindUnknown
}

// Wrap 给错误加上操作名和 Kind；err 为 nil 时返回 nil
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Persistence 是 I/O 错误最常用的包装
func Persistence(op string, err error) error {
	return Wrap(KindPersistence, op, err)
}

// Usagef 构造一个用法错误
func Usagef(format string, args ...any) error {
	return &Error{Kind: KindUsage, Err: fmt.Errorf(format, args...)}
}

// ExitCode 把 Kind 映射为进程退出码
func ExitCode(err error) int {
	switch KindOf(err) {
	case KindUsage:
		return 2
	default:
		return 1
	}
}
