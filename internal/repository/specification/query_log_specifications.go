package specification

import "gorm.io/gorm"

type BySession struct {
	SessionID string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ByBranch keeps rows answered through one aggregation branch.
type ByBranch struct {
	Branch string
}

func (s ByBranch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("branch = ?", s.Branch)
}

// Latest orders newest first and caps the result.
func Latest(limit int) []Specification {
	return []Specification{OrderBy{Field: "created_at", Desc: true}, Pagination{Limit: limit}}
}
