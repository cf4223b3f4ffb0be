package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName 是用户自定义忽略规则的文件名 (位于工作区根目录)
const FileName = ".gvignore"

// 强制生效的规则，用户文件不能取消
var defaultRules = []string{
	".gv",  // 仓库元数据目录，扫描它会把对象库当成工作文件
	".git", // 与 Git 并存时

	".DS_Store",
	"Thumbs.db",
}

// Matcher 判断一个工作区路径是否应被忽略
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 合并三类规则：用户 .gvignore、配置中的 extra、默认规则
func NewMatcher(rootPath string, extra ...string) (*Matcher, error) {
	lines := make([]string, 0, len(extra)+len(defaultRules))
	lines = append(lines, extra...)
	lines = append(lines, defaultRules...)

	ignoreFilePath := filepath.Join(rootPath, FileName)
	if _, err := os.Stat(ignoreFilePath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		return &Matcher{ignorer: gitignore.CompileIgnoreLines(lines...)}, nil
	}

	ignorer, err := gitignore.CompileIgnoreFileAndLines(ignoreFilePath, lines...)
	if err != nil {
		return nil, err
	}
	return &Matcher{ignorer: ignorer}, nil
}

// Matches 检查相对仓库根目录的路径 (例如 "data/model.bin") 是否被忽略
func (m *Matcher) Matches(path string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	return m.ignorer.MatchesPath(filepath.ToSlash(path))
}
