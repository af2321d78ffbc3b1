package attainment

import (
	"fmt"
	"strings"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// CourseOutcomeEvidence is everything needed to finalize one course outcome.
type CourseOutcomeEvidence struct {
	Outcome models.CourseOutcome
	// Questions may span the whole course; they are filtered per outcome and assessment.
	Questions []models.AssessmentQuestion
	// Marks holds the active upload of each assessment.
	Marks  map[models.AssessmentType][]models.StudentMark
	Survey *models.SurveyAggregate
}

// EvaluateCourseOutcome runs rollup, classification, direct/indirect scoring and
// finalization for a single course outcome. The returned record carries the config
// identity but no ID or timestamp; persistence stamps those.
func EvaluateCourseOutcome(ev CourseOutcomeEvidence, cfg models.ScoringConfig) (models.COAttainment, *models.AttainmentFailure) {
	var levels AssessmentLevels
	for _, t := range models.AssessmentTypes {
		questions := QuestionsFor(ev.Questions, ev.Outcome.ID, t)
		levels.Set(t, AssessmentLevel(questions, ev.Marks[t], cfg))
	}

	var direct *float64
	if score, ok := CombineDirect(levels, cfg); ok {
		direct = floatPtr(score)
	}

	var indirect *float64
	score, ok, err := MapIndirect(ev.Survey)
	if err != nil {
		return models.COAttainment{}, &models.AttainmentFailure{
			EntityID:   ev.Outcome.ID,
			EntityCode: ev.Outcome.Code,
			Reason:     models.FailureInvalidSurvey,
			Message:    err.Error(),
		}
	}
	if ok {
		indirect = floatPtr(score)
	}

	blend, ok := BlendScores(direct, indirect, cfg)
	if !ok {
		return models.COAttainment{}, &models.AttainmentFailure{
			EntityID:   ev.Outcome.ID,
			EntityCode: ev.Outcome.Code,
			Reason:     models.FailureInsufficientEvidence,
			Message:    missingEvidenceMessage(levels),
		}
	}

	return models.COAttainment{
		CourseOutcomeID:   ev.Outcome.ID,
		CourseOutcomeCode: ev.Outcome.Code,
		CourseID:          ev.Outcome.CourseID,
		IA1Level:          levels.IA1,
		IA2Level:          levels.IA2,
		EndSemLevel:       levels.EndSem,
		DirectScore:       blend.Direct,
		IndirectScore:     blend.Indirect,
		FinalScore:        blend.Final,
		Level:             models.LevelOf(blend.Level),
		Achieved:          blend.Achieved,
		ScoringConfigID:   cfg.ID,
		ConfigVersion:     cfg.Version,
		ConfigFingerprint: cfg.Fingerprint(),
	}, nil
}

func missingEvidenceMessage(levels AssessmentLevels) string {
	missing := make([]string, 0, len(models.AssessmentTypes))
	for _, t := range models.AssessmentTypes {
		if levels.Get(t) == nil {
			missing = append(missing, string(t))
		}
	}
	if len(missing) == len(models.AssessmentTypes) {
		return "no assessment data and no survey responses yet"
	}
	// Levels exist but carry no weight under the active config.
	if len(missing) == 0 {
		return "assessment levels carry zero weightage and no survey responses yet"
	}
	return fmt.Sprintf("assessment levels carry zero weightage (missing: %s) and no survey responses yet", strings.Join(missing, ", "))
}
