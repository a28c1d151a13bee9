package model

import (
	"time"
)

// WhitelistEntryModel 显式白名单条目
type WhitelistEntryModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"uniqueIndex;not null"`
	Note    string `json:"note"` // 备注，如添加来源
}

// TableName 自定义表名
func (WhitelistEntryModel) TableName() string {
	return "whitelist_entry"
}
