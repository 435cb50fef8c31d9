package model

// All 需要自动迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Folder{},
		&Set{},
		&Block{},
		&Question{},
		&Answer{},
		&TestSession{},
		&UserTestAnswer{},
	}
}
