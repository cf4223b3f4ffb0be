package meta

import (
	"gorm.io/datatypes"
)

// CommitModel 是 core.Commit 在关系型数据库中的投影 (索引)
// 对象库只能按 ID 取提交；global-log 与 find 需要“所有提交”和按 message 查找
type CommitModel struct {
	Hash string `gorm:"primaryKey;type:char(64)"`

	Message   string `gorm:"index;type:text"`
	Timestamp int64  `gorm:"index"` // 毫秒

	// Parents: ["p1"] 或 ["p1", "p2"]，根提交为 []
	Parents datatypes.JSON

	// 写入顺序，同一毫秒内的提交按它排序
	IndexedAt int64 `gorm:"autoCreateTime:nano"`
}

func (CommitModel) TableName() string {
	return "commits"
}
