// Package remote 管理远程仓库描述 (name -> 目录)，并在两个仓库的对象库之间搬运提交。
package remote

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"gitvault/pkg/storage/disk"
	"gitvault/pkg/vcserr"
)

// Registry 持久化在 .gv/remotes.json
type Registry struct {
	path    string
	Remotes map[string]string `json:"remotes"`
}

// LoadRegistry 读取远程列表，文件不存在时返回空表
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, Remotes: map[string]string{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, vcserr.Persistence("read remotes", err)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("corrupted remotes file: %w", err)
	}
	if r.Remotes == nil {
		r.Remotes = map[string]string{}
	}
	return r, nil
}

func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := disk.WriteFileAtomic(r.path, data, 0644); err != nil {
		return vcserr.Persistence("write remotes", err)
	}
	return nil
}

func (r *Registry) Add(name, dir string) error {
	if name == "" || dir == "" {
		return vcserr.Usagef("remote name and directory are required")
	}
	if _, ok := r.Remotes[name]; ok {
		return fmt.Errorf("%s: %w", name, vcserr.ErrRemoteExists)
	}
	r.Remotes[name] = dir
	return nil
}

func (r *Registry) Remove(name string) error {
	if _, ok := r.Remotes[name]; !ok {
		return fmt.Errorf("%s: %w", name, vcserr.ErrRemoteNotFound)
	}
	delete(r.Remotes, name)
	return nil
}

func (r *Registry) Get(name string) (string, error) {
	dir, ok := r.Remotes[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, vcserr.ErrRemoteNotFound)
	}
	return dir, nil
}

// Names 返回排好序的远程名
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.Remotes))
}
