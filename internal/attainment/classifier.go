package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// epsilon absorbs float noise when a value lands exactly on a threshold.
const epsilon = 1e-9

// CohortLevel is the classified result of one assessment for one course outcome.
type CohortLevel struct {
	Level    int     `json:"level"`
	PassRate float64 `json:"pass_rate"`
	Cohort   int     `json:"cohort"`
	Passed   int     `json:"passed"`
}

// ClassifyCohort turns achieved percentages into a 0..3 level from the share of students
// reaching COTargetMarksPercent. ok is false for an empty cohort.
func ClassifyCohort(achieved map[string]float64, cfg models.ScoringConfig) (CohortLevel, bool) {
	if len(achieved) == 0 {
		return CohortLevel{}, false
	}
	passed := 0
	for _, pct := range achieved {
		if pct+epsilon >= cfg.COTargetMarksPercent {
			passed++
		}
	}
	passRate := float64(passed) * 100 / float64(len(achieved))
	return CohortLevel{
		Level:    LevelForPercent(passRate, cfg),
		PassRate: passRate,
		Cohort:   len(achieved),
		Passed:   passed,
	}, true
}

// LevelForPercent applies the descending level thresholds. Lower bounds are inclusive.
func LevelForPercent(pct float64, cfg models.ScoringConfig) int {
	switch {
	case pct+epsilon >= cfg.Level3Threshold:
		return 3
	case pct+epsilon >= cfg.Level2Threshold:
		return 2
	case pct+epsilon >= cfg.Level1Threshold:
		return 1
	default:
		return 0
	}
}

// LevelForScore re-expresses a 0..3 score as a percentage of the scale and applies the
// same threshold bands as the cohort classifier.
func LevelForScore(score float64, cfg models.ScoringConfig) int {
	return LevelForPercent(score*100/3, cfg)
}

// AssessmentLevel runs rollup and classification for one course outcome and assessment.
// A nil level means the assessment is not applicable (no questions or no students).
func AssessmentLevel(questions []models.AssessmentQuestion, marks []models.StudentMark, cfg models.ScoringConfig) *int {
	achieved, ok := RollupMarks(questions, marks)
	if !ok {
		return nil
	}
	cohort, ok := ClassifyCohort(achieved, cfg)
	if !ok {
		return nil
	}
	return intPtr(cohort.Level)
}
