package models

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ScoringConfig is an immutable, versioned attainment scoring policy.
// Weightages are fractions (0..1); targets and thresholds are percentages.
type ScoringConfig struct {
	ID                   string    `db:"id" json:"id"`
	Version              int       `db:"version" json:"version"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	COTargetMarksPercent float64   `db:"co_target_marks_percent" json:"co_target_marks_percent"`
	COTargetPercent      float64   `db:"co_target_percent" json:"co_target_percent"`
	IA1Weightage         float64   `db:"ia1_weightage" json:"ia1_weightage"`
	IA2Weightage         float64   `db:"ia2_weightage" json:"ia2_weightage"`
	EndSemWeightage      float64   `db:"end_sem_weightage" json:"end_sem_weightage"`
	DirectWeightage      float64   `db:"direct_weightage" json:"direct_weightage"`
	IndirectWeightage    float64   `db:"indirect_weightage" json:"indirect_weightage"`
	POTargetLevel        float64   `db:"po_target_level" json:"po_target_level"`
	Level3Threshold      float64   `db:"level3_threshold" json:"level3_threshold"`
	Level2Threshold      float64   `db:"level2_threshold" json:"level2_threshold"`
	Level1Threshold      float64   `db:"level1_threshold" json:"level1_threshold"`
	CreatedBy            *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// AssessmentWeightage returns the configured weightage for an assessment type.
func (c ScoringConfig) AssessmentWeightage(t AssessmentType) float64 {
	switch t {
	case AssessmentIA1:
		return c.IA1Weightage
	case AssessmentIA2:
		return c.IA2Weightage
	case AssessmentEndSem:
		return c.EndSemWeightage
	default:
		return 0
	}
}

// Fingerprint hashes the policy values, ignoring identity and audit columns, so two
// versions carrying the same numbers share a fingerprint.
func (c ScoringConfig) Fingerprint() string {
	values := []float64{
		c.COTargetMarksPercent, c.COTargetPercent,
		c.IA1Weightage, c.IA2Weightage, c.EndSemWeightage,
		c.DirectWeightage, c.IndirectWeightage, c.POTargetLevel,
		c.Level3Threshold, c.Level2Threshold, c.Level1Threshold,
	}
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:16])
}

// ScoringConfigFilter scopes history listing.
type ScoringConfigFilter struct {
	Page     int
	PageSize int
}
