package database

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var memSeq atomic.Int64

// OpenInMemory 打开一个独立的内存 sqlite 库并完成迁移，供测试使用
func OpenInMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testria_mem_%d?mode=memory&cache=shared&_foreign_keys=on", memSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
