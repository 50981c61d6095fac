package implementation

import (
	"context"

	"ai-shopping-assistant-be/internal/model"
	"ai-shopping-assistant-be/internal/repository/contract"
	"ai-shopping-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type QueryLogRepositoryImpl struct {
	db *gorm.DB
}

func NewQueryLogRepository(db *gorm.DB) contract.QueryLogRepository {
	return &QueryLogRepositoryImpl{db: db}
}

func (r *QueryLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueryLogRepositoryImpl) Create(ctx context.Context, log *model.QueryLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *QueryLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.QueryLog, error) {
	var logs []*model.QueryLog
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *QueryLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QueryLog{}), specs...)
	err := query.Count(&count).Error
	return count, err
}
