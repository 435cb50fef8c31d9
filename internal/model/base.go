package model

import (
	"time"
)

// BaseModel 内容数据采用物理删除，级联由仓储层在事务内显式完成
// swagger:model
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
