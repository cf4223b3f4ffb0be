// Package status 把工作区文件划分为 staged / modified-not-staged /
// deleted-not-staged / untracked 四类。每个路径至多属于一类。
package status

import (
	"slices"

	"gitvault/pkg/index"
	"gitvault/pkg/types"

	mapset "github.com/deckarep/golang-set/v2"
)

type Result struct {
	Staged            mapset.Set[string]
	ModifiedNotStaged mapset.Set[string]
	DeletedNotStaged  mapset.Set[string]
	Untracked         mapset.Set[string]

	// EditedAfterStage 是 Staged 的子集：工作区内容与暂存的版本不同。
	// 不单独展示，只参与 Endangered 判断。
	EditedAfterStage mapset.Set[string]
}

// Classify 是 (暂存区, 工作区快照) 的纯函数，live 为 path -> 当前内容的 blob id
func Classify(idx *index.Index, live map[string]types.Hash) *Result {
	r := &Result{
		Staged:            mapset.NewThreadUnsafeSet[string](),
		ModifiedNotStaged: mapset.NewThreadUnsafeSet[string](),
		DeletedNotStaged:  mapset.NewThreadUnsafeSet[string](),
		Untracked:         mapset.NewThreadUnsafeSet[string](),
		EditedAfterStage:  mapset.NewThreadUnsafeSet[string](),
	}

	// 1. 暂存的路径优先，无论工作区里是否还在
	for _, path := range append(idx.AddedPaths(), idx.ModifiedPaths()...) {
		r.Staged.Add(path)
		if id, ok := live[path]; ok {
			if staged, _ := idx.StagedBlob(path); staged != id {
				r.EditedAfterStage.Add(path)
			}
		}
	}

	// 2. 工作区里其余的文件
	for path, id := range live {
		if r.Staged.Contains(path) {
			continue
		}
		base, tracked := idx.BaselineBlob(path)
		switch {
		case !tracked || idx.IsRemoved(path):
			r.Untracked.Add(path)
		case base != id:
			r.ModifiedNotStaged.Add(path)
		}
	}

	// 3. baseline 中未标记删除却已从工作区消失的文件
	for path := range idx.Tracked {
		if _, ok := live[path]; ok || idx.IsRemoved(path) || r.Staged.Contains(path) {
			continue
		}
		r.DeletedNotStaged.Add(path)
	}
	return r
}

// Endangered 判断覆盖或删除 path 是否会丢失未保存的工作
func (r *Result) Endangered(path string) bool {
	return r.Untracked.Contains(path) || r.ModifiedNotStaged.Contains(path) ||
		r.EditedAfterStage.Contains(path)
}

// Clean 表示四类都为空
func (r *Result) Clean() bool {
	return r.Staged.IsEmpty() && r.ModifiedNotStaged.IsEmpty() &&
		r.DeletedNotStaged.IsEmpty() && r.Untracked.IsEmpty()
}

// Sorted 把集合转为有序切片，供展示使用
func Sorted(s mapset.Set[string]) []string {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
