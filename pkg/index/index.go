// pkg/index/index.go
package index

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gitvault/pkg/core"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"
)

// AddResult 描述一次 Stage 对暂存区的净效果
type AddResult int

const (
	AddUnchanged AddResult = iota // 内容与 baseline 一致，无净变化
	AddNew                        // 新文件，进入 added
	AddModified                   // baseline 里已有，进入 modified
)

// RemoveResult 描述一次 Unstage 的动作，调用方据此决定是否删除工作区文件
type RemoveResult int

const (
	RemoveDroppedAdd RemoveResult = iota // 只是撤销了 added
	RemoveStaged                         // 进入 removed，需要删除工作区文件
	RemoveAlready                        // 已经在 removed 里
)

// Index 是相对 baseline 提交的待提交差异。
// added / modified / removed 三个 map 两两不相交。
type Index struct {
	path string // 物理文件路径 (.gv/index.json)
	mu   sync.RWMutex

	Baseline types.Hash    `json:"baseline"`
	Tracked  core.Snapshot `json:"tracked"` // baseline 提交的快照

	Added    map[string]types.Hash `json:"added"`
	Modified map[string]types.Hash `json:"modified"`
	Removed  map[string]types.Hash `json:"removed"` // 值是 baseline 中的 blob id
}

// Fresh 创建一个以 baseline 为基准的空暂存区
func Fresh(indexPath string, baseline *core.Commit) *Index {
	return &Index{
		path:     indexPath,
		Baseline: baseline.ID(),
		Tracked:  baseline.Snapshot(),
		Added:    make(map[string]types.Hash),
		Modified: make(map[string]types.Hash),
		Removed:  make(map[string]types.Hash),
	}
}

// Load 从磁盘读取暂存区
func Load(indexPath string) (*Index, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	idx := &Index{path: indexPath}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("corrupted index file: %w", err)
	}
	if idx.Tracked == nil {
		idx.Tracked = core.Snapshot{}
	}
	for _, m := range []*map[string]types.Hash{&idx.Added, &idx.Modified, &idx.Removed} {
		if *m == nil {
			*m = make(map[string]types.Hash)
		}
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("corrupted index file: %w", err)
	}
	return idx, nil
}

// Save 将暂存区持久化到磁盘
func (i *Index) Save() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return err
	}
	return disk.WriteFileAtomic(i.path, data, 0644)
}

// Path 返回持久化位置
func (i *Index) Path() string { return i.path }

// Stage 记录 path 的当前内容 (blob 由调用方写入对象库)
func (i *Index) Stage(path string, blob types.Hash) AddResult {
	key := CleanPath(path)
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.Removed, key)

	base, tracked := i.Tracked[key]
	switch {
	case tracked && base == blob:
		// 改回了 baseline 的内容
		delete(i.Modified, key)
		return AddUnchanged
	case tracked:
		i.Modified[key] = blob
		return AddModified
	default:
		i.Added[key] = blob
		return AddNew
	}
}

// Unstage 把 path 标记为删除或撤销它的 add
func (i *Index) Unstage(path string) (RemoveResult, error) {
	key := CleanPath(path)
	i.mu.Lock()
	defer i.mu.Unlock()

	if base, tracked := i.Tracked[key]; tracked {
		if _, already := i.Removed[key]; already {
			return RemoveAlready, nil
		}
		delete(i.Modified, key)
		i.Removed[key] = base
		return RemoveStaged, nil
	}

	if _, ok := i.Added[key]; ok {
		delete(i.Added, key)
		return RemoveDroppedAdd, nil
	}
	return 0, fmt.Errorf("%s: %w", key, vcserr.ErrNothingToRemove)
}

// HasPendingChanges 当且仅当 added ∪ modified ∪ removed 非空
func (i *Index) HasPendingChanges() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.Added)+len(i.Modified)+len(i.Removed) > 0
}

// NextSnapshot = (baseline - removed) ∪ modified ∪ added
func (i *Index) NextSnapshot() core.Snapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()

	next := i.Tracked.Clone()
	for p := range i.Removed {
		delete(next, p)
	}
	maps.Copy(next, i.Modified)
	maps.Copy(next, i.Added)
	return next
}

// StagedBlob 返回 added 或 modified 中的 blob
func (i *Index) StagedBlob(path string) (types.Hash, bool) {
	key := CleanPath(path)
	i.mu.RLock()
	defer i.mu.RUnlock()
	if h, ok := i.Added[key]; ok {
		return h, true
	}
	h, ok := i.Modified[key]
	return h, ok
}

func (i *Index) BaselineBlob(path string) (types.Hash, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	h, ok := i.Tracked[CleanPath(path)]
	return h, ok
}

func (i *Index) IsRemoved(path string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.Removed[CleanPath(path)]
	return ok
}

func (i *Index) AddedPaths() []string    { return i.sortedKeys(i.Added) }
func (i *Index) ModifiedPaths() []string { return i.sortedKeys(i.Modified) }
func (i *Index) RemovedPaths() []string  { return i.sortedKeys(i.Removed) }

func (i *Index) sortedKeys(m map[string]types.Hash) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Sorted(maps.Keys(m))
}

// Validate 检查三个 map 的不相交性以及它们与 baseline 的关系
func (i *Index) Validate() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for p := range i.Added {
		if _, ok := i.Tracked[p]; ok {
			return fmt.Errorf("added path %q is tracked by baseline", p)
		}
		if _, ok := i.Removed[p]; ok {
			return fmt.Errorf("path %q is both added and removed", p)
		}
	}
	for p := range i.Modified {
		if _, ok := i.Tracked[p]; !ok {
			return fmt.Errorf("modified path %q is not tracked by baseline", p)
		}
		if _, ok := i.Removed[p]; ok {
			return fmt.Errorf("path %q is both modified and removed", p)
		}
	}
	for p := range i.Removed {
		if _, ok := i.Tracked[p]; !ok {
			return fmt.Errorf("removed path %q is not tracked by baseline", p)
		}
	}
	return nil
}

// CleanPath 统一成 forward-slash 的相对路径
func CleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
