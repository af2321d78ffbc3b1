package attainment

import (
	"fmt"
	"sort"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const reasonNotFinalized = "no finalized attainment"

// MappedOutcome is a course outcome together with its mapping strength to one program
// outcome and its finalized attainment, if any.
type MappedOutcome struct {
	Outcome    models.CourseOutcome
	Value      int
	Attainment *models.COAttainment
}

// ProjectCourseLevelPO computes Σ(finalScore × value) / Σ value over the mapped course
// outcomes that have a finalized attainment. Mapped outcomes without one are reported in
// Excluded instead of being scored 0; zero-strength mappings contribute nothing. When
// configID is set, attainments finalized under any other scoring config are excluded too.
func ProjectCourseLevelPO(programOutcomeID, courseID, configID string, mapped []MappedOutcome) models.CourseLevelPO {
	result := models.CourseLevelPO{
		ProgramOutcomeID: programOutcomeID,
		CourseID:         courseID,
		Contributions:    []models.COContribution{},
	}

	sorted := make([]MappedOutcome, len(mapped))
	copy(sorted, mapped)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Outcome.Code < sorted[j].Outcome.Code })

	inputs := make([]Input, 0, len(sorted))
	for _, m := range sorted {
		if m.Value <= 0 {
			continue
		}
		if m.Attainment == nil {
			result.Excluded = append(result.Excluded, models.ExcludedOutcome{
				CourseOutcomeID:   m.Outcome.ID,
				CourseOutcomeCode: m.Outcome.Code,
				MappingValue:      m.Value,
				Reason:            reasonNotFinalized,
			})
			continue
		}
		if configID != "" && m.Attainment.ScoringConfigID != configID {
			result.Excluded = append(result.Excluded, models.ExcludedOutcome{
				CourseOutcomeID:   m.Outcome.ID,
				CourseOutcomeCode: m.Outcome.Code,
				MappingValue:      m.Value,
				Reason:            fmt.Sprintf("finalized under config v%d; recompute course", m.Attainment.ConfigVersion),
			})
			continue
		}
		result.Contributions = append(result.Contributions, models.COContribution{
			CourseOutcomeID:   m.Outcome.ID,
			CourseOutcomeCode: m.Outcome.Code,
			MappingValue:      m.Value,
			FinalScore:        m.Attainment.FinalScore,
		})
		inputs = append(inputs, Term(m.Attainment.FinalScore, float64(m.Value)))
	}

	if value, ok := WeightedAverage(inputs...); ok {
		result.Value = floatPtr(value)
	}
	return result
}

// CourseAggregator folds course-level PO values into a program-level direct score.
type CourseAggregator func(values []float64) (float64, bool)

// MeanOfCourses is the unweighted mean across contributing courses.
func MeanOfCourses(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	inputs := make([]Input, len(values))
	for i, v := range values {
		inputs[i] = Term(v, 1)
	}
	return WeightedAverage(inputs...)
}

// AggregateProgramPO combines course-level values and the program-level survey into a
// PO attainment. A nil aggregate falls back to MeanOfCourses.
func AggregateProgramPO(po models.ProgramOutcome, courseLevels []models.CourseLevelPO, survey *models.SurveyAggregate, cfg models.ScoringConfig, aggregate CourseAggregator) (models.POAttainment, *models.AttainmentFailure) {
	if aggregate == nil {
		aggregate = MeanOfCourses
	}

	values := make([]float64, 0, len(courseLevels))
	for _, cl := range courseLevels {
		if cl.ProgramOutcomeID != po.ID || cl.Value == nil {
			continue
		}
		values = append(values, *cl.Value)
	}

	var direct *float64
	if score, ok := aggregate(values); ok {
		direct = floatPtr(score)
	}

	var indirect *float64
	score, ok, err := MapIndirect(survey)
	if err != nil {
		return models.POAttainment{}, &models.AttainmentFailure{
			EntityID:   po.ID,
			EntityCode: po.Code,
			Reason:     models.FailureInvalidSurvey,
			Message:    err.Error(),
		}
	}
	if ok {
		indirect = floatPtr(score)
	}

	blend, ok := BlendScores(direct, indirect, cfg)
	if !ok {
		return models.POAttainment{}, &models.AttainmentFailure{
			EntityID:   po.ID,
			EntityCode: po.Code,
			Reason:     models.FailureNoContributingCourses,
			Message:    fmt.Sprintf("no course in scope has a finalized mapped CO for %s and no survey responses yet", po.Code),
		}
	}

	return models.POAttainment{
		ProgramOutcomeID:    po.ID,
		ProgramOutcomeCode:  po.Code,
		ProgramID:           po.ProgramID,
		DirectScore:         blend.Direct,
		IndirectScore:       blend.Indirect,
		FinalScore:          blend.Final,
		Level:               models.LevelOf(blend.Level),
		Achieved:            blend.Achieved,
		ContributingCourses: len(values),
		ScoringConfigID:     cfg.ID,
		ConfigVersion:       cfg.Version,
		ConfigFingerprint:   cfg.Fingerprint(),
	}, nil
}
