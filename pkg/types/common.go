// pkg/types/common.go
package types

import "strings"

// Hash 代表对象的唯一标识符 (SHA256 Hex String)
// 这是一个“值对象”，应当是不可变的。
type Hash string

func (h Hash) String() string { return string(h) }

// 验证 Hash 合法性
func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 } // 简单的长度检查

// Short 返回用于展示的缩写 (git log 风格)
func (h Hash) Short(n int) string {
	if len(h) <= n {
		return string(h)
	}
	return string(h[:n])
}

// HashPrefix 是用户输入的缩写 Hash，需要经过 ExpandHash 才能使用
type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

// MinPrefixLen 是允许展开的最短前缀
const MinPrefixLen = 4

// IsFull 判断前缀是否已经是完整 Hash，无需展开
func (p HashPrefix) IsFull() bool { return Hash(p).IsValid() }

// IsHex 判断前缀是否只包含小写十六进制字符
func (p HashPrefix) IsHex() bool {
	for i := 0; i < len(p); i++ {
		c := p[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Matches 判断 h 是否以该前缀开头
func (p HashPrefix) Matches(h Hash) bool {
	return strings.HasPrefix(string(h), string(p))
}

// BranchName 是面向用户的分支名 (可能包含 "/"，例如 "origin/master")
type BranchName string

func (b BranchName) String() string { return string(b) }

// RemoteTracking 构造远程跟踪分支名: {remote}/{branch}
func RemoteTracking(remote string, branch BranchName) BranchName {
	return BranchName(remote + "/" + string(branch))
}
