package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// QuestionsFor filters questions down to one course outcome within one assessment type.
func QuestionsFor(questions []models.AssessmentQuestion, courseOutcomeID string, assessment models.AssessmentType) []models.AssessmentQuestion {
	var out []models.AssessmentQuestion
	for _, q := range questions {
		if q.CourseOutcomeID == courseOutcomeID && q.AssessmentType == assessment {
			out = append(out, q)
		}
	}
	return out
}

// RollupMarks returns each student's achieved percentage over the given questions:
// Σ marks / Σ max marks × 100. Students without any mark on these questions are left
// out rather than scored 0. ok is false when there is nothing to assess against.
func RollupMarks(questions []models.AssessmentQuestion, marks []models.StudentMark) (achieved map[string]float64, ok bool) {
	if len(questions) == 0 {
		return nil, false
	}
	inScope := make(map[string]struct{}, len(questions))
	var totalMax float64
	for _, q := range questions {
		inScope[q.ID] = struct{}{}
		totalMax += q.MaxMarks
	}
	if totalMax <= 0 {
		return nil, false
	}

	scored := make(map[string]float64)
	for _, m := range marks {
		if _, ok := inScope[m.QuestionID]; !ok {
			continue
		}
		scored[m.RollNo] += m.Marks
	}

	achieved = make(map[string]float64, len(scored))
	for rollNo, sum := range scored {
		achieved[rollNo] = sum * 100 / totalMax
	}
	return achieved, true
}
