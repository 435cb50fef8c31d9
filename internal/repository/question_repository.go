package repository

import (
	"testria_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// CreateGraph 在同一事务中写入题目、选项及各自的内容块，任一步失败全部回滚
func (r *QuestionRepository) CreateGraph(q *model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&q.Content).Error; err != nil {
			return err
		}
		q.ContentID = q.Content.ID
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}

		for i := range q.Answers {
			a := &q.Answers[i]
			if err := tx.Create(&a.Content).Error; err != nil {
				return err
			}
			a.ContentID = a.Content.ID
			a.QuestionID = q.ID
			if err := tx.Omit(clause.Associations).Create(a).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuestionRepository) withGraph() *gorm.DB {
	return r.DB.Preload("Content").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answers.id ASC") }).
		Preload("Answers.Content")
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.withGraph().First(&q, id).Error
	return &q, err
}

// ListBySet 按插入顺序返回合集中的题目
func (r *QuestionRepository) ListBySet(setID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.withGraph().Where("set_id = ?", setID).Order("questions.id ASC").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) CountBySet(setID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("set_id = ?", setID).Count(&count).Error
	return count, err
}

// FindByOrdinal 合集中第 n 道题（从 0 开始）
func (r *QuestionRepository) FindByOrdinal(setID uint, n int) (*model.Question, error) {
	var q model.Question
	err := r.withGraph().
		Where("set_id = ?", setID).
		Order("questions.id ASC").
		Offset(n).
		Limit(1).
		First(&q).Error
	return &q, err
}

func (r *QuestionRepository) CorrectAnswer(questionID uint) (*model.Answer, error) {
	var a model.Answer
	err := r.DB.Where("question_id = ? AND is_correct = ?", questionID, true).
		Order("id ASC").
		First(&a).Error
	return &a, err
}

// Delete 显式级联删除，返回需要从存储中移除的图片
func (r *QuestionRepository) Delete(id uint) ([]string, error) {
	var images []string
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		images, err = deleteQuestions(tx, []uint{id})
		return err
	})
	return images, err
}
