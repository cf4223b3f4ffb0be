// Package merge 实现三路合并：求 split point、生成逐文件计划、渲染冲突。
// 计划是纯数据，先完整计算并校验，再由调用方一次性应用。
package merge

import (
	"bytes"
	"context"
	"maps"
	"slices"

	"gitvault/pkg/core"
	"gitvault/pkg/graph"
	"gitvault/pkg/status"
	"gitvault/pkg/types"
)

// ActionKind 是单个路径的合并动作
type ActionKind int

const (
	Keep     ActionKind = iota // 保持当前分支的状态
	Checkout                   // 取 given 版本并暂存
	Remove                     // 暂存删除
	Conflict                   // 写入冲突标记并暂存
)

func (k ActionKind) String() string {
	switch k {
	case Keep:
		return "keep"
	case Checkout:
		return "checkout"
	case Remove:
		return "remove"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

type Action struct {
	Kind ActionKind
	Path string

	// Checkout 时 Given 是要取出的 blob；
	// Conflict 时 Current / Given 是两侧的 blob，缺失的一侧为空
	Current types.Hash
	Given   types.Hash
}

// Changes 表示该动作会改写工作区
func (a Action) Changes() bool { return a.Kind != Keep }

// SplitPoint 求 current 与 given 的公共祖先：
// 沿 given 的 first-parent 链找到第一个也在 current 链上的提交，找不到时退回 given 的根
func SplitPoint(ctx context.Context, g *graph.Graph, current, given types.Hash) (types.Hash, error) {
	ancestors, err := g.AncestorsViaFirstParent(ctx, current)
	if err != nil {
		return "", err
	}
	chain, err := g.FirstParentChain(ctx, given)
	if err != nil {
		return "", err
	}
	for _, c := range chain {
		if ancestors.Contains(c.ID()) {
			return c.ID(), nil
		}
	}
	return chain[len(chain)-1].ID(), nil
}

// BuildPlan 按路径排好序返回每个路径的动作
func BuildPlan(split, current, given core.Snapshot) []Action {
	paths := make(map[string]struct{}, len(split)+len(current)+len(given))
	for _, s := range []core.Snapshot{split, current, given} {
		for p := range s {
			paths[p] = struct{}{}
		}
	}

	actions := make([]Action, 0, len(paths))
	for _, p := range slices.Sorted(maps.Keys(paths)) {
		actions = append(actions, resolve(p, split, current, given))
	}
	return actions
}

func resolve(path string, split, current, given core.Snapshot) Action {
	s, inSplit := split[path]
	c, inCurr := current[path]
	g, inGiven := given[path]

	keep := Action{Kind: Keep, Path: path}
	conflict := Action{Kind: Conflict, Path: path, Current: c, Given: g}

	// 1. 两侧结果一致 (包括都删除)
	if inCurr == inGiven && c == g {
		return keep
	}

	if inSplit {
		switch {
		case inCurr && c == s:
			// 只有 given 动过
			if !inGiven {
				return Action{Kind: Remove, Path: path, Current: c}
			}
			return Action{Kind: Checkout, Path: path, Given: g}
		case !inCurr && (!inGiven || g == s):
			// current 删除，given 未动或同样删除
			return keep
		default:
			// current 修改过，given 缺失或与 current 不同 (包括 given 未动)；
			// 或 current 删除而 given 修改
			return conflict
		}
	}

	// 2. split 中不存在的新路径
	switch {
	case inCurr && !inGiven:
		return keep
	case !inCurr && inGiven:
		return Action{Kind: Checkout, Path: path, Given: g}
	default:
		return conflict
	}
}

// Obstructions 返回会被计划覆盖或删除、且带有未保存工作的路径
func Obstructions(actions []Action, st *status.Result) []string {
	var out []string
	for _, a := range actions {
		if a.Changes() && st.Endangered(a.Path) {
			out = append(out, a.Path)
		}
	}
	return out
}

// ConflictPaths 返回计划中的冲突路径
func ConflictPaths(actions []Action) []string {
	var out []string
	for _, a := range actions {
		if a.Kind == Conflict {
			out = append(out, a.Path)
		}
	}
	return out
}

// RenderConflict 生成冲突文件内容，缺失的一侧传 nil。
// 标记总是独占一行：内容不以换行结尾时补一个。
func RenderConflict(current, given []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< HEAD\n")
	writeSide(&buf, current)
	buf.WriteString("=======\n")
	writeSide(&buf, given)
	buf.WriteString(">>>>>>>\n")
	return buf.Bytes()
}

func writeSide(buf *bytes.Buffer, content []byte) {
	buf.Write(content)
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		buf.WriteByte('\n')
	}
}
