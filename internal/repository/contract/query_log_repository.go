package contract

import (
	"context"

	"ai-shopping-assistant-be/internal/model"
	"ai-shopping-assistant-be/internal/repository/specification"
)

type QueryLogRepository interface {
	Create(ctx context.Context, log *model.QueryLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.QueryLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
