package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/lock"
)

type outcomeReader interface {
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
	ProgramExists(ctx context.Context, id string) (bool, error)
	ListCoursesByProgramSemester(ctx context.Context, programID, semesterID string) ([]models.Course, error)
	ListCourseOutcomes(ctx context.Context, courseID string) ([]models.CourseOutcome, error)
	FindProgramOutcome(ctx context.Context, id string) (*models.ProgramOutcome, error)
	ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error)
}

type mappingReader interface {
	ListByProgramSemester(ctx context.Context, programID, semesterID string) ([]models.CoPoMapping, error)
	ListByCourseAndProgramOutcome(ctx context.Context, courseID, programOutcomeID string) ([]models.CoPoMapping, error)
}

type assessmentReader interface {
	ListQuestionsByCourse(ctx context.Context, courseID string) ([]models.AssessmentQuestion, error)
	ListActiveMarks(ctx context.Context, courseID string) (map[models.AssessmentType][]models.StudentMark, error)
}

type surveyReader interface {
	CourseOutcomeTallies(ctx context.Context, courseID string) ([]models.SurveyTally, error)
	ProgramOutcomeTallies(ctx context.Context, programID, semesterID string) ([]models.SurveyTally, error)
}

type attainmentStore interface {
	ReplaceCourseAttainments(ctx context.Context, courseID string, rows []models.COAttainment) error
	ListCourseAttainments(ctx context.Context, courseID string) ([]models.COAttainment, error)
	ListCourseAttainmentsByCourses(ctx context.Context, courseIDs []string) ([]models.COAttainment, error)
	ReplaceProgramAttainments(ctx context.Context, programID, semesterID string, rows []models.POAttainment) error
	ListProgramAttainments(ctx context.Context, programID, semesterID string) ([]models.POAttainment, error)
}

type activeConfigProvider interface {
	Active(ctx context.Context) (*models.ScoringConfig, error)
}

// AttainmentDeps groups the collaborators of AttainmentService.
type AttainmentDeps struct {
	Outcomes    outcomeReader
	Mappings    mappingReader
	Assessments assessmentReader
	Surveys     surveyReader
	Store       attainmentStore
	Configs     activeConfigProvider
	Locker      lock.Locker
	Cache       *CacheService
	Metrics     *MetricsService
}

// AttainmentOptions tunes a service instance.
type AttainmentOptions struct {
	// MaxParallel bounds concurrent per-course reads during program runs.
	MaxParallel int
	CacheTTL    time.Duration
	// LockWait bounds how long a recompute waits for a running one on the same scope;
	// zero waits until the caller's context ends.
	LockWait time.Duration
	// Aggregator folds course-level PO values; nil means attainment.MeanOfCourses.
	Aggregator attainment.CourseAggregator
	Now        func() time.Time
}

// ProgramScope identifies one program-level recompute.
type ProgramScope struct {
	ProgramID  string `validate:"required,max=64"`
	SemesterID string `validate:"required,max=64"`
}

// AttainmentService runs CO and PO attainment recomputes and serves the stored results.
type AttainmentService struct {
	deps      AttainmentDeps
	opts      AttainmentOptions
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttainmentService constructs the service.
func NewAttainmentService(deps AttainmentDeps, opts AttainmentOptions, validate *validator.Validate, logger *zap.Logger) *AttainmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewKeyedMutex()
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	if opts.Aggregator == nil {
		opts.Aggregator = attainment.MeanOfCourses
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &AttainmentService{deps: deps, opts: opts, validator: validate, logger: logger}
}

// ComputeCourseOutcomeAttainment recomputes and overwrites the attainment of every CO of a
// course. COs lacking evidence are reported as failures without blocking their siblings.
func (s *AttainmentService) ComputeCourseOutcomeAttainment(ctx context.Context, courseID string) (*models.CourseAttainmentRun, error) {
	start := time.Now()
	if err := s.validator.Var(courseID, "required,max=64"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course id")
	}
	course, err := s.deps.Outcomes.FindCourse(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}

	release, err := s.acquire(ctx, ScopeCourse, "course:"+courseID)
	if err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeCourse, OutcomeRejected, time.Since(start))
		return nil, err
	}
	defer release()

	cfg, err := s.prepareRun(ctx, course.SemesterID)
	if err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeCourse, rejectionOutcome(err), time.Since(start))
		return nil, err
	}

	var (
		outcomes  []models.CourseOutcome
		questions []models.AssessmentQuestion
		marks     map[models.AssessmentType][]models.StudentMark
		tallies   []models.SurveyTally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		outcomes, err = s.deps.Outcomes.ListCourseOutcomes(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		questions, err = s.deps.Assessments.ListQuestionsByCourse(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		marks, err = s.deps.Assessments.ListActiveMarks(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		tallies, err = s.deps.Surveys.CourseOutcomeTallies(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeCourse, OutcomeError, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course evidence")
	}

	surveyByCO := groupTallies(tallies)
	now := s.opts.Now()
	run := &models.CourseAttainmentRun{
		RunID:         uuid.NewString(),
		CourseID:      courseID,
		ConfigVersion: cfg.Version,
		Results:       make([]models.COAttainment, 0, len(outcomes)),
		Failures:      []models.AttainmentFailure{},
		CalculatedAt:  now,
	}
	for _, co := range outcomes {
		survey, err := attainment.AggregateSurvey(co.ID, surveyByCO[co.ID])
		if err != nil {
			run.Failures = append(run.Failures, models.AttainmentFailure{
				EntityID: co.ID, EntityCode: co.Code, Reason: models.FailureInvalidSurvey, Message: err.Error(),
			})
			continue
		}
		result, failure := attainment.EvaluateCourseOutcome(attainment.CourseOutcomeEvidence{
			Outcome:   co,
			Questions: questions,
			Marks:     marks,
			Survey:    &survey,
		}, cfg)
		if failure != nil {
			run.Failures = append(run.Failures, *failure)
			continue
		}
		result.CalculatedAt = now
		run.Results = append(run.Results, result)
	}

	if err := s.deps.Store.ReplaceCourseAttainments(ctx, courseID, run.Results); err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeCourse, OutcomeError, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course attainment")
	}
	s.deps.Cache.Invalidate(ctx, coursePattern(courseID))

	s.finishRun(ScopeCourse, run.RunID, len(run.Results), run.Failures, cfg, start,
		zap.String("course_id", courseID))
	return run, nil
}

// ComputeProgramOutcomeAttainment recomputes the PO attainment of a program for a semester
// from the finalized CO attainments of its courses and the program exit survey.
func (s *AttainmentService) ComputeProgramOutcomeAttainment(ctx context.Context, programID, semesterID string) (*models.ProgramAttainmentRun, error) {
	start := time.Now()
	if err := s.validator.Struct(ProgramScope{ProgramID: programID, SemesterID: semesterID}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program scope")
	}
	exists, err := s.deps.Outcomes.ProgramExists(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}

	release, err := s.acquire(ctx, ScopeProgram, fmt.Sprintf("program:%s:%s", programID, semesterID))
	if err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeProgram, OutcomeRejected, time.Since(start))
		return nil, err
	}
	defer release()

	cfg, err := s.prepareRun(ctx, semesterID)
	if err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeProgram, rejectionOutcome(err), time.Since(start))
		return nil, err
	}

	var (
		courses  []models.Course
		pos      []models.ProgramOutcome
		mappings []models.CoPoMapping
		tallies  []models.SurveyTally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		courses, err = s.deps.Outcomes.ListCoursesByProgramSemester(gctx, programID, semesterID)
		return err
	})
	g.Go(func() (err error) {
		pos, err = s.deps.Outcomes.ListProgramOutcomes(gctx, programID)
		return err
	})
	g.Go(func() (err error) {
		mappings, err = s.deps.Mappings.ListByProgramSemester(gctx, programID, semesterID)
		return err
	})
	g.Go(func() (err error) {
		tallies, err = s.deps.Surveys.ProgramOutcomeTallies(gctx, programID, semesterID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeProgram, OutcomeError, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program evidence")
	}

	if err := attainment.ValidateMappings(programID, mappings); err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeProgram, OutcomeRejected, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInconsistentMapping.Code, appErrors.ErrInconsistentMapping.Status, err.Error())
	}

	courseLevels, err := s.projectCourses(ctx, cfg, courses, pos, mappings)
	if err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeProgram, OutcomeError, time.Since(start))
		return nil, err
	}

	surveyByPO := groupTallies(tallies)
	now := s.opts.Now()
	run := &models.ProgramAttainmentRun{
		RunID:         uuid.NewString(),
		ProgramID:     programID,
		SemesterID:    semesterID,
		ConfigVersion: cfg.Version,
		Results:       make([]models.POAttainment, 0, len(pos)),
		CourseLevels:  courseLevels,
		Failures:      []models.AttainmentFailure{},
		CalculatedAt:  now,
	}
	for _, po := range pos {
		survey, err := attainment.AggregateSurvey(po.ID, surveyByPO[po.ID])
		if err != nil {
			run.Failures = append(run.Failures, models.AttainmentFailure{
				EntityID: po.ID, EntityCode: po.Code, Reason: models.FailureInvalidSurvey, Message: err.Error(),
			})
			continue
		}
		result, failure := attainment.AggregateProgramPO(po, courseLevels, &survey, cfg, s.opts.Aggregator)
		if failure != nil {
			run.Failures = append(run.Failures, *failure)
			continue
		}
		result.SemesterID = semesterID
		result.CalculatedAt = now
		run.Results = append(run.Results, result)
	}

	if err := s.deps.Store.ReplaceProgramAttainments(ctx, programID, semesterID, run.Results); err != nil {
		s.deps.Metrics.ObserveRecompute(ScopeProgram, OutcomeError, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store program attainment")
	}
	s.deps.Cache.Invalidate(ctx, programAttainmentKey(programID, semesterID))

	s.finishRun(ScopeProgram, run.RunID, len(run.Results), run.Failures, cfg, start,
		zap.String("program_id", programID), zap.String("semester_id", semesterID), zap.Int("courses", len(courses)))
	return run, nil
}

// ComputeCourseLevelPO projects one course's finalized CO attainments onto one PO. It only
// reads stored attainment and is safe to call while recomputes run. CO rows finalized under
// a config other than the active one are excluded.
func (s *AttainmentService) ComputeCourseLevelPO(ctx context.Context, programOutcomeID, courseID string) (*models.CourseLevelPO, error) {
	po, err := s.deps.Outcomes.FindProgramOutcome(ctx, programOutcomeID)
	if err != nil {
		return nil, notFoundOr(err, "program outcome not found", "failed to load program outcome")
	}
	course, err := s.deps.Outcomes.FindCourse(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if po.ProgramID != course.ProgramID {
		return nil, appErrors.Clone(appErrors.ErrInconsistentMapping, fmt.Sprintf("program outcome %s does not belong to the program of course %s", po.Code, course.Code))
	}

	active, err := s.deps.Configs.Active(ctx)
	if err != nil {
		return nil, err
	}

	key := courseLevelPOKey(courseID, programOutcomeID, active.ID)
	var cached models.CourseLevelPO
	if s.deps.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	mappings, err := s.deps.Mappings.ListByCourseAndProgramOutcome(ctx, courseID, programOutcomeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load co-po mappings")
	}
	if err := attainment.ValidateMappings(course.ProgramID, mappings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInconsistentMapping.Code, appErrors.ErrInconsistentMapping.Status, err.Error())
	}
	outcomes, err := s.deps.Outcomes.ListCourseOutcomes(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course outcomes")
	}
	stored, err := s.deps.Store.ListCourseAttainments(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attainment")
	}

	result := attainment.ProjectCourseLevelPO(programOutcomeID, courseID, active.ID, mappedOutcomes(outcomes, mappings, indexAttainments(stored)))
	s.deps.Cache.Set(ctx, key, result, s.opts.CacheTTL)
	return &result, nil
}

// CourseAttainment returns the stored CO attainments of a course.
func (s *AttainmentService) CourseAttainment(ctx context.Context, courseID string) ([]models.COAttainment, error) {
	if _, err := s.deps.Outcomes.FindCourse(ctx, courseID); err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	key := courseAttainmentKey(courseID)
	var cached []models.COAttainment
	if s.deps.Cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.deps.Store.ListCourseAttainments(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attainment")
	}
	if rows == nil {
		rows = []models.COAttainment{}
	}
	s.deps.Cache.Set(ctx, key, rows, s.opts.CacheTTL)
	return rows, nil
}

// ProgramAttainment returns the stored PO attainments of a program for a semester.
func (s *AttainmentService) ProgramAttainment(ctx context.Context, programID, semesterID string) ([]models.POAttainment, error) {
	if err := s.validator.Struct(ProgramScope{ProgramID: programID, SemesterID: semesterID}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program scope")
	}
	key := programAttainmentKey(programID, semesterID)
	var cached []models.POAttainment
	if s.deps.Cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.deps.Store.ListProgramAttainments(ctx, programID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program attainment")
	}
	if rows == nil {
		rows = []models.POAttainment{}
	}
	s.deps.Cache.Set(ctx, key, rows, s.opts.CacheTTL)
	return rows, nil
}

func (s *AttainmentService) acquire(ctx context.Context, scope, key string) (lock.Release, error) {
	waitStart := time.Now()
	waitCtx := ctx
	if s.opts.LockWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.opts.LockWait)
		defer cancel()
	}
	release, err := s.deps.Locker.Acquire(waitCtx, key)
	s.deps.Metrics.ObserveLockWait(scope, time.Since(waitStart))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, appErrors.Wrap(err, appErrors.ErrRecomputeBusy.Code, appErrors.ErrRecomputeBusy.Status, "another recompute for this scope is still running")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire recompute lock")
	}
	return release, nil
}

// prepareRun refuses locked semesters and snapshots the active config. Nothing has been
// written when it returns an error.
func (s *AttainmentService) prepareRun(ctx context.Context, semesterID string) (models.ScoringConfig, error) {
	semester, err := s.deps.Outcomes.FindSemester(ctx, semesterID)
	if err != nil {
		return models.ScoringConfig{}, notFoundOr(err, "semester not found", "failed to load semester")
	}
	if semester.IsLocked {
		return models.ScoringConfig{}, appErrors.Clone(appErrors.ErrScopeLocked, fmt.Sprintf("semester %s is locked for edits", semester.Name))
	}
	active, err := s.deps.Configs.Active(ctx)
	if err != nil {
		return models.ScoringConfig{}, err
	}
	return *active, nil
}

// projectCourses computes course-level PO values for every (course, PO) pair that has at
// least one mapping, reading each course's outcomes concurrently. Only CO rows finalized
// under cfg contribute.
func (s *AttainmentService) projectCourses(ctx context.Context, cfg models.ScoringConfig, courses []models.Course, pos []models.ProgramOutcome, mappings []models.CoPoMapping) ([]models.CourseLevelPO, error) {
	if len(courses) == 0 {
		return []models.CourseLevelPO{}, nil
	}
	courseIDs := make([]string, len(courses))
	for i, c := range courses {
		courseIDs[i] = c.ID
	}
	stored, err := s.deps.Store.ListCourseAttainmentsByCourses(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attainment")
	}
	byCO := indexAttainments(stored)

	mappingsByCourse := make(map[string][]models.CoPoMapping, len(courses))
	for _, m := range mappings {
		mappingsByCourse[m.CourseID] = append(mappingsByCourse[m.CourseID], m)
	}

	perCourse := make([][]models.CourseLevelPO, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxParallel)
	for i, course := range courses {
		i, course := i, course
		courseMappings := mappingsByCourse[course.ID]
		if len(courseMappings) == 0 {
			continue
		}
		g.Go(func() error {
			outcomes, err := s.deps.Outcomes.ListCourseOutcomes(gctx, course.ID)
			if err != nil {
				return fmt.Errorf("course %s: %w", course.Code, err)
			}
			for _, po := range pos {
				poMappings := filterMappings(courseMappings, po.ID)
				if len(poMappings) == 0 {
					continue
				}
				perCourse[i] = append(perCourse[i], attainment.ProjectCourseLevelPO(po.ID, course.ID, cfg.ID, mappedOutcomes(outcomes, poMappings, byCO)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to project course-level program outcomes")
	}

	levels := []models.CourseLevelPO{}
	for _, cl := range perCourse {
		levels = append(levels, cl...)
	}
	return levels, nil
}

func (s *AttainmentService) finishRun(scope, runID string, results int, failures []models.AttainmentFailure, cfg models.ScoringConfig, start time.Time, fields ...zap.Field) {
	outcome := OutcomeSuccess
	if len(failures) > 0 {
		outcome = OutcomePartial
	}
	duration := time.Since(start)
	s.deps.Metrics.ObserveRecompute(scope, outcome, duration)
	s.deps.Metrics.RecordFailures(scope, failures)

	fields = append(fields,
		zap.String("run_id", runID),
		zap.String("scope", scope),
		zap.Int("results", results),
		zap.Int("failures", len(failures)),
		zap.Int("config_version", cfg.Version),
		zap.Duration("duration", duration),
	)
	s.logger.Info("attainment recomputed", fields...)
	for _, f := range failures {
		s.logger.Debug("attainment entity skipped",
			zap.String("run_id", runID),
			zap.String("entity", f.EntityCode),
			zap.String("reason", string(f.Reason)),
			zap.String("message", f.Message),
		)
	}
}

func rejectionOutcome(err error) string {
	if errors.Is(err, appErrors.ErrScopeLocked) || errors.Is(err, appErrors.ErrConfigurationAbsent) || errors.Is(err, appErrors.ErrNotFound) {
		return OutcomeRejected
	}
	return OutcomeError
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func groupTallies(tallies []models.SurveyTally) map[string][]models.SurveyTally {
	grouped := make(map[string][]models.SurveyTally)
	for _, t := range tallies {
		grouped[t.EntityID] = append(grouped[t.EntityID], t)
	}
	return grouped
}

func indexAttainments(rows []models.COAttainment) map[string]*models.COAttainment {
	indexed := make(map[string]*models.COAttainment, len(rows))
	for i := range rows {
		indexed[rows[i].CourseOutcomeID] = &rows[i]
	}
	return indexed
}

func filterMappings(mappings []models.CoPoMapping, programOutcomeID string) []models.CoPoMapping {
	var out []models.CoPoMapping
	for _, m := range mappings {
		if m.ProgramOutcomeID == programOutcomeID {
			out = append(out, m)
		}
	}
	return out
}

func mappedOutcomes(outcomes []models.CourseOutcome, mappings []models.CoPoMapping, byCO map[string]*models.COAttainment) []attainment.MappedOutcome {
	byID := make(map[string]models.CourseOutcome, len(outcomes))
	for _, co := range outcomes {
		byID[co.ID] = co
	}
	mapped := make([]attainment.MappedOutcome, 0, len(mappings))
	for _, m := range mappings {
		co, ok := byID[m.CourseOutcomeID]
		if !ok {
			co = models.CourseOutcome{ID: m.CourseOutcomeID, Code: m.CourseOutcomeID, CourseID: m.CourseID}
		}
		mapped = append(mapped, attainment.MappedOutcome{Outcome: co, Value: m.Value, Attainment: byCO[m.CourseOutcomeID]})
	}
	return mapped
}
