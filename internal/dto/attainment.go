package dto

// RecomputeProgramRequest selects the semester of a program-level recompute.
type RecomputeProgramRequest struct {
	SemesterID string `json:"semester_id" binding:"required"`
}

// ScoringConfigHistoryQuery pages through scoring config versions.
type ScoringConfigHistoryQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}
