package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gitvault/pkg/core"
	"gitvault/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCommitNotFound = errors.New("commit not found in metadata")

// Repository 封装所有对 SQL 数据库的操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// IndexCommit 将 core.Commit 投影到 SQL 数据库中，重复写入同一个提交是 no-op
func (r *Repository) IndexCommit(ctx context.Context, c *core.Commit) error {
	// 1. Parents -> JSON
	parents := []types.Hash{}
	if !c.ParentID().IsZero() {
		parents = append(parents, c.ParentID())
	}
	if !c.SecondParentID().IsZero() {
		parents = append(parents, c.SecondParentID())
	}
	parentsJSON, err := json.Marshal(parents)
	if err != nil {
		return fmt.Errorf("failed to marshal parents: %w", err)
	}

	// 2. 构造 Model
	model := CommitModel{
		Hash:      string(c.ID()),
		Message:   c.Message,
		Timestamp: c.Timestamp,
		Parents:   datatypes.JSON(parentsJSON),
	}

	// 3. 幂等写入
	err = r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to index commit: %w", err)
	}
	return nil
}

func (r *Repository) GetCommit(ctx context.Context, hash types.Hash) (*CommitModel, error) {
	var commit CommitModel
	err := r.db.GetConn().WithContext(ctx).
		Where("hash = ?", string(hash)).
		First(&commit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &commit, nil
}

// ListCommits 返回所有提交 ID，最新的在前
func (r *Repository) ListCommits(ctx context.Context) ([]types.Hash, error) {
	var hashes []string
	err := r.db.GetConn().WithContext(ctx).
		Model(&CommitModel{}).
		Order("timestamp DESC").
		Order("indexed_at DESC").
		Pluck("hash", &hashes).Error
	if err != nil {
		return nil, err
	}
	return toHashes(hashes), nil
}

// FindCommitsByMessage 精确匹配 message，最新的在前
func (r *Repository) FindCommitsByMessage(ctx context.Context, msg string) ([]types.Hash, error) {
	var hashes []string
	err := r.db.GetConn().WithContext(ctx).
		Model(&CommitModel{}).
		Where("message = ?", msg).
		Order("timestamp DESC").
		Order("indexed_at DESC").
		Pluck("hash", &hashes).Error
	if err != nil {
		return nil, err
	}
	return toHashes(hashes), nil
}

// ParentIDs 解析 Parents 列
func (m *CommitModel) ParentIDs() ([]types.Hash, error) {
	var out []types.Hash
	if len(m.Parents) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(m.Parents, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toHashes(in []string) []types.Hash {
	out := make([]types.Hash, len(in))
	for i, h := range in {
		out[i] = types.Hash(h)
	}
	return out
}
