package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeImage = "image/"
	// MaxAnswerSlots 出题表单中的选项槽位数量
	MaxAnswerSlots = 4
	// MinFilledAnswers 一道题至少需要填写的选项数
	MinFilledAnswers = 2
)

var (
	AllowedImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
)
