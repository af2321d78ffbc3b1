package attainment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// weightTolerance is the allowed drift when weightages are checked to sum to 1.
const weightTolerance = 0.001

// ConfigError lists every problem found in a scoring config.
type ConfigError struct {
	Problems []string
	// Weights is set when at least one problem concerns weightage sums.
	Weights bool
}

func (e *ConfigError) Error() string {
	return "invalid scoring config: " + strings.Join(e.Problems, "; ")
}

// ValidateConfig checks a scoring config before it is stored as a new version.
func ValidateConfig(cfg models.ScoringConfig) error {
	errs := &ConfigError{}
	add := func(format string, args ...interface{}) {
		errs.Problems = append(errs.Problems, fmt.Sprintf(format, args...))
	}

	for name, v := range map[string]float64{
		"ia1_weightage":      cfg.IA1Weightage,
		"ia2_weightage":      cfg.IA2Weightage,
		"end_sem_weightage":  cfg.EndSemWeightage,
		"direct_weightage":   cfg.DirectWeightage,
		"indirect_weightage": cfg.IndirectWeightage,
	} {
		if v < 0 || v > 1 {
			add("%s must be within 0..1", name)
		}
	}
	if sum := cfg.IA1Weightage + cfg.IA2Weightage + cfg.EndSemWeightage; math.Abs(sum-1) > weightTolerance {
		add("assessment weightages sum to %.4f, must sum to 1", sum)
		errs.Weights = true
	}
	if sum := cfg.DirectWeightage + cfg.IndirectWeightage; math.Abs(sum-1) > weightTolerance {
		add("direct and indirect weightages sum to %.4f, must sum to 1", sum)
		errs.Weights = true
	}

	for name, v := range map[string]float64{
		"co_target_marks_percent": cfg.COTargetMarksPercent,
		"co_target_percent":       cfg.COTargetPercent,
		"level3_threshold":        cfg.Level3Threshold,
		"level2_threshold":        cfg.Level2Threshold,
		"level1_threshold":        cfg.Level1Threshold,
	} {
		if v < 0 || v > 100 {
			add("%s must be within 0..100", name)
		}
	}
	if !(cfg.Level3Threshold > cfg.Level2Threshold && cfg.Level2Threshold > cfg.Level1Threshold) {
		add("level thresholds must be strictly descending (level3 > level2 > level1)")
	}
	if cfg.POTargetLevel < 0 || cfg.POTargetLevel > MaxScore {
		add("po_target_level must be within 0..3")
	}

	if len(errs.Problems) == 0 {
		return nil
	}
	// Map iteration order varies; keep messages stable.
	sort.Strings(errs.Problems)
	return errs
}

// MappingError describes a CO→PO mapping that cannot be used for calculation.
type MappingError struct {
	Mapping models.CoPoMapping
	Reason  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping %s→%s: %s", e.Mapping.CourseOutcomeID, e.Mapping.ProgramOutcomeID, e.Reason)
}

// ValidateMappings rejects mapping values outside 0..3 and mappings whose program
// outcome belongs to a different program than the course.
func ValidateMappings(programID string, mappings []models.CoPoMapping) error {
	for _, m := range mappings {
		if m.Value < 0 || m.Value > models.MaxMappingValue {
			return &MappingError{Mapping: m, Reason: fmt.Sprintf("value %d outside 0..%d", m.Value, models.MaxMappingValue)}
		}
		if m.ProgramID != programID {
			return &MappingError{Mapping: m, Reason: fmt.Sprintf("program outcome belongs to program %s, not %s", m.ProgramID, programID)}
		}
	}
	return nil
}

// AggregateSurvey folds per-option answer counts into an aggregate on the 0..3 scale.
func AggregateSurvey(entityID string, tallies []models.SurveyTally) (models.SurveyAggregate, error) {
	agg := models.SurveyAggregate{EntityID: entityID}
	var sum float64
	for _, t := range tallies {
		if t.Count <= 0 {
			continue
		}
		score, ok := t.Answer.Score()
		if !ok {
			return models.SurveyAggregate{}, fmt.Errorf("%w: unknown likert option %q", ErrInvalidSurvey, t.Answer)
		}
		sum += score * float64(t.Count)
		agg.Responses += t.Count
	}
	if agg.Responses > 0 {
		agg.AverageScore = sum / float64(agg.Responses)
	}
	return agg, nil
}
