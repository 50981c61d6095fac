package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QueryLog records one answered question. Written asynchronously from the
// QUERY_ANSWERED event.
type QueryLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string         `gorm:"type:varchar(64);index"`
	Question  string         `gorm:"type:text"`
	Answer    string         `gorm:"type:text"`
	Intents   datatypes.JSON `gorm:"type:jsonb"`
	Branch    string         `gorm:"type:varchar(16)"`
	ASIN      string         `gorm:"column:asin;type:varchar(16)"`
	HasImage  bool           `gorm:"default:false"`
	LatencyMs int64
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}
