package refs

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gitvault/pkg/storage/disk"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
)

const (
	headFile  = "HEAD"
	headsDir  = "refs/heads"
	refPrefix = headsDir + "/"
)

// ErrNoHead 表示仓库状态损坏，而不是 I/O 失败
var ErrNoHead = vcserr.Wrap(vcserr.KindRepositoryState, "", errors.New("HEAD not found"))

// EncodeBranch 把分支名转为文件系统安全的 ref 文件名 ("origin/master" -> "origin%2Fmaster")
func EncodeBranch(name types.BranchName) string {
	return url.PathEscape(string(name))
}

// DecodeBranch 是 EncodeBranch 的逆操作
func DecodeBranch(escaped string) (types.BranchName, error) {
	s, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("invalid ref name %q: %w", escaped, err)
	}
	return types.BranchName(s), nil
}

// ValidateBranch 拒绝空名字和以 "." 开头的名字
func ValidateBranch(name types.BranchName) error {
	if name == "" || strings.HasPrefix(string(name), ".") {
		return vcserr.Usagef("invalid branch name %q", name)
	}
	return nil
}

// Manager 管理 HEAD 与 refs/heads 下的分支指针。
// 每个写操作都是对单个文件的整体覆盖 (last-writer-wins)，不保留历史。
type Manager struct {
	rootPath string // .gv 目录
}

func NewManager(rootPath string) *Manager {
	return &Manager{rootPath: rootPath}
}

func (m *Manager) headPath() string {
	return filepath.Join(m.rootPath, headFile)
}

func (m *Manager) branchPath(name types.BranchName) string {
	return filepath.Join(m.rootPath, headsDir, EncodeBranch(name))
}

// Init 创建第一个分支并让 HEAD 指向它
func (m *Manager) Init(branch types.BranchName, id types.Hash) error {
	if err := os.MkdirAll(filepath.Join(m.rootPath, headsDir), 0755); err != nil {
		return vcserr.Persistence("init refs", err)
	}
	if err := m.SetBranch(branch, id); err != nil {
		return err
	}
	return m.SwitchBranch(branch)
}

// CurrentBranch 解析 HEAD 得到当前分支名
func (m *Manager) CurrentBranch() (types.BranchName, error) {
	data, err := os.ReadFile(m.headPath())
	if os.IsNotExist(err) {
		return "", ErrNoHead
	}
	if err != nil {
		return "", vcserr.Persistence("read HEAD", err)
	}

	// 清理换行符 (手工编辑时可能会带 \n)
	ref := strings.TrimSpace(string(data))
	escaped, ok := strings.CutPrefix(ref, refPrefix)
	if !ok {
		return "", vcserr.Wrap(vcserr.KindRepositoryState, "read HEAD",
			fmt.Errorf("HEAD does not point to a branch: %q", ref))
	}
	return DecodeBranch(escaped)
}

// HeadCommit 返回当前分支指向的提交
func (m *Manager) HeadCommit() (types.Hash, error) {
	branch, err := m.CurrentBranch()
	if err != nil {
		return "", err
	}
	return m.ResolveBranch(branch)
}

// SetHead 把当前分支移动到 id
func (m *Manager) SetHead(id types.Hash) error {
	branch, err := m.CurrentBranch()
	if err != nil {
		return err
	}
	return m.SetBranch(branch, id)
}

// SwitchBranch 让 HEAD 指向另一个已存在的分支
func (m *Manager) SwitchBranch(name types.BranchName) error {
	ok, err := m.HasBranch(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", name, vcserr.ErrBranchNotFound)
	}
	ref := refPrefix + EncodeBranch(name)
	if err := disk.WriteFileAtomic(m.headPath(), []byte(ref), 0644); err != nil {
		return vcserr.Persistence("write HEAD", err)
	}
	return nil
}

func (m *Manager) HasBranch(name types.BranchName) (bool, error) {
	_, err := os.Stat(m.branchPath(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, vcserr.Persistence("stat branch", err)
}

// ResolveBranch 读取分支指向的提交
func (m *Manager) ResolveBranch(name types.BranchName) (types.Hash, error) {
	data, err := os.ReadFile(m.branchPath(name))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", name, vcserr.ErrBranchNotFound)
	}
	if err != nil {
		return "", vcserr.Persistence("read branch", err)
	}
	return types.Hash(strings.TrimSpace(string(data))), nil
}

// SetBranch 创建或覆盖分支
func (m *Manager) SetBranch(name types.BranchName, id types.Hash) error {
	if err := ValidateBranch(name); err != nil {
		return err
	}
	if err := disk.WriteFileAtomic(m.branchPath(name), []byte(id), 0644); err != nil {
		return vcserr.Persistence("write branch", err)
	}
	return nil
}

// CreateBranch 新建分支，已存在时返回 ErrBranchExists
func (m *Manager) CreateBranch(name types.BranchName, id types.Hash) error {
	if err := ValidateBranch(name); err != nil {
		return err
	}
	ok, err := m.HasBranch(name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%s: %w", name, vcserr.ErrBranchExists)
	}
	return m.SetBranch(name, id)
}

// DeleteBranch 只删除指针，提交本身保留
func (m *Manager) DeleteBranch(name types.BranchName) error {
	ok, err := m.HasBranch(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", name, vcserr.ErrBranchNotFound)
	}

	current, err := m.CurrentBranch()
	if err != nil {
		return err
	}
	if current == name {
		return fmt.Errorf("%s: %w", name, vcserr.ErrCannotDeleteCurrent)
	}

	if err := os.Remove(m.branchPath(name)); err != nil {
		return vcserr.Persistence("delete branch", err)
	}
	return nil
}

// ListBranches 返回排好序的分支名 (已解码)
func (m *Manager) ListBranches() ([]types.BranchName, error) {
	entries, err := os.ReadDir(filepath.Join(m.rootPath, headsDir))
	if err != nil {
		return nil, vcserr.Persistence("list branches", err)
	}

	var out []types.BranchName
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name, err := DecodeBranch(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}
