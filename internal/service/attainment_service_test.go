package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/lock"
)

type fakeOutcomes struct {
	courses   map[string]*models.Course
	semesters map[string]*models.Semester
	programs  map[string]bool
	outcomes  map[string][]models.CourseOutcome
	pos       []models.ProgramOutcome
}

func (f *fakeOutcomes) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOutcomes) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := f.semesters[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOutcomes) ProgramExists(ctx context.Context, id string) (bool, error) {
	return f.programs[id], nil
}

func (f *fakeOutcomes) ListCoursesByProgramSemester(ctx context.Context, programID, semesterID string) ([]models.Course, error) {
	var out []models.Course
	for _, id := range []string{"c1", "c2", "c3"} {
		if c, ok := f.courses[id]; ok && c.ProgramID == programID && c.SemesterID == semesterID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeOutcomes) ListCourseOutcomes(ctx context.Context, courseID string) ([]models.CourseOutcome, error) {
	return f.outcomes[courseID], nil
}

func (f *fakeOutcomes) FindProgramOutcome(ctx context.Context, id string) (*models.ProgramOutcome, error) {
	for i := range f.pos {
		if f.pos[i].ID == id {
			po := f.pos[i]
			return &po, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOutcomes) ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error) {
	var out []models.ProgramOutcome
	for _, po := range f.pos {
		if po.ProgramID == programID {
			out = append(out, po)
		}
	}
	return out, nil
}

type fakeMappings struct {
	mappings []models.CoPoMapping
}

func (f *fakeMappings) ListByProgramSemester(ctx context.Context, programID, semesterID string) ([]models.CoPoMapping, error) {
	return f.mappings, nil
}

func (f *fakeMappings) ListByCourseAndProgramOutcome(ctx context.Context, courseID, programOutcomeID string) ([]models.CoPoMapping, error) {
	var out []models.CoPoMapping
	for _, m := range f.mappings {
		if m.CourseID == courseID && m.ProgramOutcomeID == programOutcomeID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeAssessments struct {
	questions map[string][]models.AssessmentQuestion
	marks     map[string]map[models.AssessmentType][]models.StudentMark
}

func (f *fakeAssessments) ListQuestionsByCourse(ctx context.Context, courseID string) ([]models.AssessmentQuestion, error) {
	return f.questions[courseID], nil
}

func (f *fakeAssessments) ListActiveMarks(ctx context.Context, courseID string) (map[models.AssessmentType][]models.StudentMark, error) {
	return f.marks[courseID], nil
}

type fakeSurveys struct {
	course  map[string][]models.SurveyTally
	program []models.SurveyTally
}

func (f *fakeSurveys) CourseOutcomeTallies(ctx context.Context, courseID string) ([]models.SurveyTally, error) {
	return f.course[courseID], nil
}

func (f *fakeSurveys) ProgramOutcomeTallies(ctx context.Context, programID, semesterID string) ([]models.SurveyTally, error) {
	return f.program, nil
}

type fakeStore struct {
	mu            sync.Mutex
	co            map[string][]models.COAttainment
	po            map[string][]models.POAttainment
	courseWrites  int
	programWrites int
	inFlight      int32
	maxInFlight   int32
	writeDelay    time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{co: map[string][]models.COAttainment{}, po: map[string][]models.POAttainment{}}
}

func (f *fakeStore) ReplaceCourseAttainments(ctx context.Context, courseID string, rows []models.COAttainment) error {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxInFlight)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxInFlight, seen, current) {
			break
		}
	}
	if f.writeDelay > 0 {
		time.Sleep(f.writeDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courseWrites++
	f.co[courseID] = append([]models.COAttainment(nil), rows...)
	return nil
}

func (f *fakeStore) ListCourseAttainments(ctx context.Context, courseID string) ([]models.COAttainment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.COAttainment(nil), f.co[courseID]...), nil
}

func (f *fakeStore) ListCourseAttainmentsByCourses(ctx context.Context, courseIDs []string) ([]models.COAttainment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.COAttainment
	for _, id := range courseIDs {
		out = append(out, f.co[id]...)
	}
	return out, nil
}

func (f *fakeStore) ReplaceProgramAttainments(ctx context.Context, programID, semesterID string, rows []models.POAttainment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.programWrites++
	f.po[programID+":"+semesterID] = append([]models.POAttainment(nil), rows...)
	return nil
}

func (f *fakeStore) ListProgramAttainments(ctx context.Context, programID, semesterID string) ([]models.POAttainment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.po[programID+":"+semesterID], nil
}

type fakeConfigs struct {
	cfg *models.ScoringConfig
}

func (f *fakeConfigs) Active(ctx context.Context) (*models.ScoringConfig, error) {
	if f.cfg == nil {
		return nil, appErrors.ErrConfigurationAbsent
	}
	copied := *f.cfg
	return &copied, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	return nil, context.DeadlineExceeded
}

func serviceConfig() *models.ScoringConfig {
	return &models.ScoringConfig{
		ID: "cfg-1", Version: 4, IsActive: true,
		COTargetMarksPercent: 60, COTargetPercent: 60,
		IA1Weightage: 0.3, IA2Weightage: 0.3, EndSemWeightage: 0.4,
		DirectWeightage: 0.8, IndirectWeightage: 0.2,
		POTargetLevel:   2,
		Level3Threshold: 70, Level2Threshold: 60, Level1Threshold: 50,
	}
}

func cohort(questionID string, maxMarks float64, passing, total int) []models.StudentMark {
	marks := make([]models.StudentMark, 0, total)
	for i := 0; i < total; i++ {
		value := 0.0
		if i < passing {
			value = maxMarks
		}
		marks = append(marks, models.StudentMark{RollNo: fmt.Sprintf("R%02d", i+1), QuestionID: questionID, Marks: value})
	}
	return marks
}

type fixture struct {
	outcomes    *fakeOutcomes
	mappings    *fakeMappings
	assessments *fakeAssessments
	surveys     *fakeSurveys
	store       *fakeStore
	configs     *fakeConfigs
	now         time.Time
}

func newFixture() *fixture {
	return &fixture{
		outcomes: &fakeOutcomes{
			courses: map[string]*models.Course{
				"c1": {ID: "c1", Code: "CS101", ProgramID: "p1", SemesterID: "s1"},
				"c2": {ID: "c2", Code: "CS102", ProgramID: "p1", SemesterID: "s1"},
			},
			semesters: map[string]*models.Semester{"s1": {ID: "s1", Name: "Odd 2026"}},
			programs:  map[string]bool{"p1": true},
			outcomes: map[string][]models.CourseOutcome{
				"c1": {{ID: "co1", Code: "CO1", CourseID: "c1"}, {ID: "co2", Code: "CO2", CourseID: "c1"}},
				"c2": {{ID: "co3", Code: "CO1", CourseID: "c2"}, {ID: "co4", Code: "CO2", CourseID: "c2"}},
			},
			pos: []models.ProgramOutcome{
				{ID: "po1", Code: "PO1", ProgramID: "p1"},
				{ID: "po2", Code: "PO2", ProgramID: "p1"},
			},
		},
		mappings: &fakeMappings{},
		assessments: &fakeAssessments{
			questions: map[string][]models.AssessmentQuestion{
				"c1": {
					{ID: "q1", AssessmentType: models.AssessmentIA1, CourseOutcomeID: "co1", MaxMarks: 10},
					{ID: "q2", AssessmentType: models.AssessmentIA2, CourseOutcomeID: "co1", MaxMarks: 10},
					{ID: "q3", AssessmentType: models.AssessmentEndSem, CourseOutcomeID: "co1", MaxMarks: 20},
				},
			},
			marks: map[string]map[models.AssessmentType][]models.StudentMark{
				"c1": {
					models.AssessmentIA1:    cohort("q1", 10, 7, 10),
					models.AssessmentIA2:    cohort("q2", 10, 6, 10),
					models.AssessmentEndSem: cohort("q3", 20, 6, 10),
				},
			},
		},
		surveys: &fakeSurveys{
			course: map[string][]models.SurveyTally{
				"c1": {
					{EntityID: "co1", Answer: models.LikertStronglyAgree, Count: 15},
					{EntityID: "co1", Answer: models.LikertAgree, Count: 15},
				},
			},
		},
		store:   newFakeStore(),
		configs: &fakeConfigs{cfg: serviceConfig()},
		now:     time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) service(locker lock.Locker) *AttainmentService {
	return NewAttainmentService(AttainmentDeps{
		Outcomes:    f.outcomes,
		Mappings:    f.mappings,
		Assessments: f.assessments,
		Surveys:     f.surveys,
		Store:       f.store,
		Configs:     f.configs,
		Locker:      locker,
		Metrics:     NewMetricsService(),
	}, AttainmentOptions{MaxParallel: 2, Now: func() time.Time { return f.now }}, nil, zap.NewNop())
}

func TestComputeCourseOutcomeAttainment(t *testing.T) {
	f := newFixture()
	svc := f.service(nil)

	run, err := svc.ComputeCourseOutcomeAttainment(context.Background(), "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 4, run.ConfigVersion)

	require.Len(t, run.Results, 1)
	co1 := run.Results[0]
	assert.Equal(t, "co1", co1.CourseOutcomeID)
	assert.InDelta(t, 2.3, *co1.DirectScore, 1e-12)
	assert.InDelta(t, 2.5, *co1.IndirectScore, 1e-12)
	assert.InDelta(t, 2.34, co1.FinalScore, 1e-12)
	assert.True(t, co1.Achieved)
	assert.Equal(t, f.now, co1.CalculatedAt)

	require.Len(t, run.Failures, 1)
	assert.Equal(t, "CO2", run.Failures[0].EntityCode)
	assert.Equal(t, models.FailureInsufficientEvidence, run.Failures[0].Reason)

	assert.Equal(t, 1, f.store.courseWrites)
	assert.Len(t, f.store.co["c1"], 1)
}

func TestComputeCourseOutcomeAttainmentIdempotent(t *testing.T) {
	f := newFixture()
	svc := f.service(nil)

	first, err := svc.ComputeCourseOutcomeAttainment(context.Background(), "c1")
	require.NoError(t, err)
	second, err := svc.ComputeCourseOutcomeAttainment(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Failures, second.Failures)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestComputeCourseOutcomeAttainmentLockedSemester(t *testing.T) {
	f := newFixture()
	f.outcomes.semesters["s1"].IsLocked = true
	f.store.co["c1"] = []models.COAttainment{{CourseOutcomeID: "co1", FinalScore: 1.1}}
	svc := f.service(nil)

	_, err := svc.ComputeCourseOutcomeAttainment(context.Background(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrScopeLocked)
	assert.Equal(t, 0, f.store.courseWrites)
	assert.Equal(t, 1.1, f.store.co["c1"][0].FinalScore)
}

func TestComputeCourseOutcomeAttainmentConfigurationAbsent(t *testing.T) {
	f := newFixture()
	f.configs.cfg = nil
	svc := f.service(nil)

	_, err := svc.ComputeCourseOutcomeAttainment(context.Background(), "c1")
	assert.ErrorIs(t, err, appErrors.ErrConfigurationAbsent)
	assert.Equal(t, 0, f.store.courseWrites)
}

func TestComputeCourseOutcomeAttainmentUnknownCourse(t *testing.T) {
	f := newFixture()
	_, err := f.service(nil).ComputeCourseOutcomeAttainment(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestComputeCourseOutcomeAttainmentBusyScope(t *testing.T) {
	f := newFixture()
	_, err := f.service(busyLocker{}).ComputeCourseOutcomeAttainment(context.Background(), "c1")
	assert.ErrorIs(t, err, appErrors.ErrRecomputeBusy)
	assert.Equal(t, 0, f.store.courseWrites)
}

func TestComputeCourseOutcomeAttainmentSerializesSameCourse(t *testing.T) {
	f := newFixture()
	f.store.writeDelay = 20 * time.Millisecond
	svc := f.service(lock.NewKeyedMutex())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ComputeCourseOutcomeAttainment(context.Background(), "c1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.store.maxInFlight))
	assert.Equal(t, 4, f.store.courseWrites)
}

func TestComputeCourseOutcomeAttainmentInvalidSurvey(t *testing.T) {
	f := newFixture()
	f.surveys.course["c1"] = append(f.surveys.course["c1"], models.SurveyTally{EntityID: "co1", Answer: "SOMEWHAT", Count: 1})

	run, err := f.service(nil).ComputeCourseOutcomeAttainment(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	require.Len(t, run.Failures, 2)
	assert.Equal(t, models.FailureInvalidSurvey, run.Failures[0].Reason)
}

func programFixture() *fixture {
	f := newFixture()
	f.store.co["c1"] = []models.COAttainment{{CourseOutcomeID: "co1", CourseOutcomeCode: "CO1", CourseID: "c1", FinalScore: 2.0, ScoringConfigID: "cfg-1", ConfigVersion: 4}}
	f.store.co["c2"] = []models.COAttainment{{CourseOutcomeID: "co3", CourseOutcomeCode: "CO1", CourseID: "c2", FinalScore: 2.6, ScoringConfigID: "cfg-1", ConfigVersion: 4}}
	f.mappings.mappings = []models.CoPoMapping{
		{CourseOutcomeID: "co1", ProgramOutcomeID: "po1", Value: 3, ProgramID: "p1", CourseID: "c1"},
		{CourseOutcomeID: "co3", ProgramOutcomeID: "po1", Value: 2, ProgramID: "p1", CourseID: "c2"},
		{CourseOutcomeID: "co4", ProgramOutcomeID: "po1", Value: 1, ProgramID: "p1", CourseID: "c2"},
	}
	f.surveys.program = []models.SurveyTally{{EntityID: "po1", Answer: models.LikertAgree, Count: 40}}
	return f
}

func TestComputeProgramOutcomeAttainment(t *testing.T) {
	f := programFixture()
	run, err := f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p1", "s1")
	require.NoError(t, err)

	require.Len(t, run.Results, 1)
	po1 := run.Results[0]
	assert.Equal(t, "po1", po1.ProgramOutcomeID)
	assert.Equal(t, "s1", po1.SemesterID)
	assert.InDelta(t, 2.3, *po1.DirectScore, 1e-12)
	assert.InDelta(t, 2.0, *po1.IndirectScore, 1e-12)
	assert.InDelta(t, 2.24, po1.FinalScore, 1e-12)
	assert.Equal(t, 2, po1.ContributingCourses)

	require.Len(t, run.CourseLevels, 2)
	assert.Equal(t, "c2", run.CourseLevels[1].CourseID)
	assert.True(t, run.CourseLevels[1].Incomplete())
	assert.Equal(t, "co4", run.CourseLevels[1].Excluded[0].CourseOutcomeID)

	require.Len(t, run.Failures, 1)
	assert.Equal(t, "PO2", run.Failures[0].EntityCode)
	assert.Equal(t, models.FailureNoContributingCourses, run.Failures[0].Reason)
	assert.Equal(t, 1, f.store.programWrites)
}

func TestComputeProgramOutcomeAttainmentExcludesStaleConfigRows(t *testing.T) {
	f := programFixture()
	f.store.co["c1"][0].ScoringConfigID = "cfg-old"
	f.store.co["c1"][0].ConfigVersion = 1

	run, err := f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p1", "s1")
	require.NoError(t, err)

	require.Len(t, run.CourseLevels, 2)
	c1 := run.CourseLevels[0]
	assert.Equal(t, "c1", c1.CourseID)
	assert.Nil(t, c1.Value)
	assert.True(t, c1.Incomplete())
	require.Len(t, c1.Excluded, 1)
	assert.Equal(t, "finalized under config v1; recompute course", c1.Excluded[0].Reason)

	require.Len(t, run.Results, 1)
	po1 := run.Results[0]
	assert.Equal(t, 4, po1.ConfigVersion)
	assert.Equal(t, 1, po1.ContributingCourses)
	assert.InDelta(t, 2.6, *po1.DirectScore, 1e-12)
}

func TestComputeProgramOutcomeAttainmentAllRowsStale(t *testing.T) {
	f := programFixture()
	for _, id := range []string{"c1", "c2"} {
		f.store.co[id][0].ScoringConfigID = "cfg-old"
	}
	f.surveys.program = nil

	run, err := f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p1", "s1")
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	for _, cl := range run.CourseLevels {
		assert.True(t, cl.Incomplete())
		assert.Empty(t, cl.Contributions)
	}
}

func TestComputeProgramOutcomeAttainmentRejectsForeignProgramOutcome(t *testing.T) {
	f := programFixture()
	f.mappings.mappings = append(f.mappings.mappings,
		models.CoPoMapping{CourseOutcomeID: "co2", ProgramOutcomeID: "po9", Value: 2, ProgramID: "p2", CourseID: "c1"})

	_, err := f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p1", "s1")
	assert.ErrorIs(t, err, appErrors.ErrInconsistentMapping)
	assert.Equal(t, 0, f.store.programWrites)
}

func TestComputeProgramOutcomeAttainmentLockedSemester(t *testing.T) {
	f := programFixture()
	f.outcomes.semesters["s1"].IsLocked = true

	_, err := f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p1", "s1")
	assert.ErrorIs(t, err, appErrors.ErrScopeLocked)
	assert.Equal(t, 0, f.store.programWrites)
}

func TestComputeProgramOutcomeAttainmentValidation(t *testing.T) {
	f := programFixture()
	_, err := f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p1", "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.service(nil).ComputeProgramOutcomeAttainment(context.Background(), "p9", "s1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestComputeCourseLevelPO(t *testing.T) {
	f := programFixture()
	svc := f.service(nil)

	level, err := svc.ComputeCourseLevelPO(context.Background(), "po1", "c2")
	require.NoError(t, err)
	require.NotNil(t, level.Value)
	assert.InDelta(t, 2.6, *level.Value, 1e-12)
	assert.Len(t, level.Excluded, 1)

	level, err = svc.ComputeCourseLevelPO(context.Background(), "po2", "c1")
	require.NoError(t, err)
	assert.Nil(t, level.Value)

	f.outcomes.pos = append(f.outcomes.pos, models.ProgramOutcome{ID: "po9", Code: "PO9", ProgramID: "p2"})
	_, err = svc.ComputeCourseLevelPO(context.Background(), "po9", "c1")
	assert.ErrorIs(t, err, appErrors.ErrInconsistentMapping)
}

func TestComputeCourseLevelPOExcludesStaleConfigRows(t *testing.T) {
	f := programFixture()
	f.configs.cfg.ID = "cfg-2"
	f.configs.cfg.Version = 5

	level, err := f.service(nil).ComputeCourseLevelPO(context.Background(), "po1", "c1")
	require.NoError(t, err)
	assert.Nil(t, level.Value)
	assert.NotNil(t, level.Contributions)
	require.Len(t, level.Excluded, 1)
	assert.Equal(t, "finalized under config v4; recompute course", level.Excluded[0].Reason)

	f.configs.cfg = nil
	_, err = f.service(nil).ComputeCourseLevelPO(context.Background(), "po1", "c1")
	assert.ErrorIs(t, err, appErrors.ErrConfigurationAbsent)
}

func TestCourseAttainmentReadsStoredRows(t *testing.T) {
	f := programFixture()
	rows, err := f.service(nil).CourseAttainment(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2.0, rows[0].FinalScore)

	rows2, err := f.service(nil).ProgramAttainment(context.Background(), "p1", "s1")
	require.NoError(t, err)
	assert.NotNil(t, rows2)
	assert.Empty(t, rows2)
}
