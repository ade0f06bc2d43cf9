package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/models"
)

var (
	// ErrDuplicateEmail indicates another user already owns the email address.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateCourse indicates the course code is taken.
	ErrDuplicateCourse = errors.New("course code already exists")
	// ErrInvalidAttendanceStatus indicates a status other than present/absent.
	ErrInvalidAttendanceStatus = errors.New("invalid attendance status")
	// ErrInvalidAssessmentType indicates an unknown assessment component.
	ErrInvalidAssessmentType = errors.New("invalid assessment type")
	// ErrUnknownUser indicates no stored user has the id.
	ErrUnknownUser = errors.New("unknown user")
)

// MalformedDataError reports a stored payload that does not match its expected shape.
// The repository logs it and substitutes the empty default.
type MalformedDataError struct {
	Key string
	Err error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Key, e.Err)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

//go:embed seed/*.json
var seedFiles embed.FS

// Snapshot is a full read of the store at one point in time.
type Snapshot struct {
	Users              []models.User             `json:"users"`
	Courses            []models.Course           `json:"courses"`
	Attendance         models.AttendanceBook     `json:"attendance"`
	Results            models.ResultBook         `json:"results"`
	AttendanceSettings models.AttendanceSettings `json:"attendanceSettings"`
	GradeSettings      models.GradeSettings      `json:"gradeSettings"`
}

// Thresholds returns the saved alert thresholds, falling back to the defaults
// for settings that were never saved.
func (s Snapshot) Thresholds() metrics.Thresholds {
	th := metrics.DefaultThresholds
	if s.AttendanceSettings.Threshold > 0 {
		th.Attendance = s.AttendanceSettings.Threshold
	}
	if s.GradeSettings.PassingGrade > 0 {
		th.PassingGrade = s.GradeSettings.PassingGrade
	}
	return th
}

// Backup is the downloadable copy of the whole store.
type Backup struct {
	Users      []models.User         `json:"users"`
	Courses    []models.Course       `json:"courses"`
	Attendance models.AttendanceBook `json:"attendance"`
	Results    models.ResultBook     `json:"results"`
	Settings   BackupSettings        `json:"settings"`
	Timestamp  time.Time             `json:"timestamp"`
}

// BackupSettings groups the saved settings in a backup.
type BackupSettings struct {
	Attendance models.AttendanceSettings `json:"attendance"`
	Grade      models.GradeSettings      `json:"grade"`
}

// Repository reads typed snapshots from a Store and performs the portal's
// single-key writes. Writes are serialised within the process only.
type Repository struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
	newID  func(role models.Role) string
	mu     sync.Mutex
}

// NewRepository wraps a Store.
func NewRepository(store Store, logger zerolog.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger.With().Str("component", "store_repository").Logger(),
		now:    time.Now,
		newID:  generateUserID,
	}
}

func generateUserID(role models.Role) string {
	return fmt.Sprintf("%s-%s", role, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Snapshot loads every key. Missing or malformed payloads become empty values.
func (r *Repository) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Users, err = r.Users(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Courses, err = r.Courses(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Attendance, err = r.Attendance(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Results, err = r.Results(ctx); err != nil {
		return Snapshot{}, err
	}
	if err = r.load(ctx, KeyAttendanceSettings, &snap.AttendanceSettings); err != nil {
		return Snapshot{}, err
	}
	if err = r.load(ctx, KeyGradeSettings, &snap.GradeSettings); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Users loads the user list.
func (r *Repository) Users(ctx context.Context) ([]models.User, error) {
	raw, ok, err := r.read(ctx, KeyUsers)
	if err != nil || !ok {
		return []models.User{}, err
	}
	users, err := decodeUsers(raw)
	if err != nil {
		r.absorb(&MalformedDataError{Key: KeyUsers, Err: err})
		return []models.User{}, nil
	}
	return users, nil
}

// Courses loads the course list.
func (r *Repository) Courses(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := r.load(ctx, KeyCourses, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Attendance loads the attendance book.
func (r *Repository) Attendance(ctx context.Context) (models.AttendanceBook, error) {
	book := models.AttendanceBook{}
	if err := r.load(ctx, KeyAttendance, &book); err != nil {
		return nil, err
	}
	return book, nil
}

// Results loads the result book.
func (r *Repository) Results(ctx context.Context) (models.ResultBook, error) {
	raw, ok, err := r.read(ctx, KeyResults)
	if err != nil || !ok {
		return models.ResultBook{}, err
	}
	book, err := decodeResults(raw)
	if err != nil {
		r.absorb(&MalformedDataError{Key: KeyResults, Err: err})
		return models.ResultBook{}, nil
	}
	return book, nil
}

// read fetches a payload and checks its shape. ok is false when the key is
// absent or the payload was rejected.
func (r *Repository) read(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found || strings.TrimSpace(value) == "" {
		return nil, false, nil
	}
	if err := checkShape(key, []byte(value)); err != nil {
		r.absorb(err)
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (r *Repository) load(ctx context.Context, key string, target interface{}) error {
	raw, ok, err := r.read(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		r.absorb(&MalformedDataError{Key: key, Err: err})
	}
	return nil
}

func (r *Repository) absorb(err error) {
	var malformed *MalformedDataError
	if errors.As(err, &malformed) {
		r.logger.Warn().Err(malformed.Err).Str("key", malformed.Key).Msg("malformed store payload replaced with empty default")
		return
	}
	r.logger.Warn().Err(err).Msg("store payload rejected")
}

// checkShape validates a raw payload against the schema for its key.
func checkShape(key string, raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &MalformedDataError{Key: key, Err: err}
	}
	schema, ok := payloadSchemas[key]
	if !ok {
		return nil
	}
	if err := schema.Validate(doc); err != nil {
		return &MalformedDataError{Key: key, Err: err}
	}
	return nil
}

func (r *Repository) write(ctx context.Context, key string, value interface{}) error {
	var payload []byte
	var err error
	if book, ok := value.(models.ResultBook); ok {
		payload, err = encodeResults(book)
	} else {
		payload, err = json.Marshal(value)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SaveAttendance records one session for a course. Any existing entry for the
// same date is replaced before the new one is appended.
func (r *Repository) SaveAttendance(ctx context.Context, courseCode, date string, statuses map[string]models.AttendanceStatus) error {
	for _, status := range statuses {
		if !status.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidAttendanceStatus, status)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.Attendance(ctx)
	if err != nil {
		return err
	}
	book = book.Clone()
	if book[courseCode] == nil {
		book[courseCode] = make(map[string][]models.AttendanceRecord)
	}

	for studentID, status := range statuses {
		existing := book[courseCode][studentID]
		kept := make([]models.AttendanceRecord, 0, len(existing)+1)
		for _, record := range existing {
			if record.Date != date {
				kept = append(kept, record)
			}
		}
		book[courseCode][studentID] = append(kept, models.AttendanceRecord{Date: date, Status: status})
	}

	return r.write(ctx, KeyAttendance, book)
}

// SaveMarks records one assessment for several students. Quiz and assignment
// marks are appended; midterm and final marks overwrite. Every mark is
// validated before anything is written.
func (r *Repository) SaveMarks(ctx context.Context, courseCode string, assessment models.AssessmentType, marks map[string]float64) error {
	if _, ok := models.ParseAssessmentType(string(assessment)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAssessmentType, assessment)
	}
	for _, mark := range marks {
		if err := metrics.ValidateScore(string(assessment), mark); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book, err := r.Results(ctx)
	if err != nil {
		return err
	}
	book = book.Clone()
	if book[courseCode] == nil {
		book[courseCode] = make(map[string]models.AssessmentScores)
	}

	for studentID, mark := range marks {
		scores := book[courseCode][studentID]
		switch assessment {
		case models.AssessmentQuiz:
			scores.Quiz = append(scores.Quiz, mark)
		case models.AssessmentAssignment:
			scores.Assignment = append(scores.Assignment, mark)
		case models.AssessmentMidterm:
			scores.Midterm = models.Float(mark)
		case models.AssessmentFinal:
			scores.Final = models.Float(mark)
		}
		book[courseCode][studentID] = scores
	}

	return r.write(ctx, KeyResults, book)
}

// SaveAttendanceSettings overwrites the attendance settings.
func (r *Repository) SaveAttendanceSettings(ctx context.Context, settings models.AttendanceSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, KeyAttendanceSettings, settings)
}

// SaveGradeSettings overwrites the grade settings.
func (r *Repository) SaveGradeSettings(ctx context.Context, settings models.GradeSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, KeyGradeSettings, settings)
}

// AddUser appends a user with a generated id. Students are then enrolled in
// every existing course; that is a second, independent write to the courses
// key, so a failure there leaves the user saved but not enrolled.
func (r *Repository) AddUser(ctx context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, ErrDuplicateEmail
		}
	}

	user.ID = r.newID(user.Role)
	if user.EnrollmentYear == 0 {
		user.EnrollmentYear = r.now().Year()
	}
	users = append(users, user)
	if err := r.write(ctx, KeyUsers, users); err != nil {
		return models.User{}, err
	}

	if user.Role != models.RoleStudent {
		return user, nil
	}

	courses, err := r.Courses(ctx)
	if err != nil {
		return user, err
	}
	for i := range courses {
		if !courses[i].HasStudent(user.ID) {
			courses[i].StudentIDs = append(courses[i].StudentIDs, user.ID)
		}
	}
	if err := r.write(ctx, KeyCourses, courses); err != nil {
		return user, fmt.Errorf("enrol new student: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user and drops the id from every course roster. A
// deleted student's attendance and results go too, so reports stop counting
// them. Each collection is a separate write; the user is removed first.
func (r *Repository) DeleteUser(ctx context.Context, userID string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	removed, ok := models.FindUser(users, userID)
	if !ok {
		return models.User{}, ErrUnknownUser
	}
	remaining := make([]models.User, 0, len(users)-1)
	for _, user := range users {
		if user.ID != userID {
			remaining = append(remaining, user)
		}
	}
	if err := r.write(ctx, KeyUsers, remaining); err != nil {
		return models.User{}, err
	}

	courses, err := r.Courses(ctx)
	if err != nil {
		return removed, err
	}
	unenrolled := false
	for i := range courses {
		if !courses[i].HasStudent(userID) {
			continue
		}
		kept := make([]string, 0, len(courses[i].StudentIDs))
		for _, id := range courses[i].StudentIDs {
			if id != userID {
				kept = append(kept, id)
			}
		}
		courses[i].StudentIDs = kept
		unenrolled = true
	}
	if unenrolled {
		if err := r.write(ctx, KeyCourses, courses); err != nil {
			return removed, fmt.Errorf("unenrol deleted user: %w", err)
		}
	}

	if err := r.dropStudentRecords(ctx, userID); err != nil {
		return removed, fmt.Errorf("drop records of deleted user: %w", err)
	}
	return removed, nil
}

func (r *Repository) dropStudentRecords(ctx context.Context, studentID string) error {
	attendance, err := r.Attendance(ctx)
	if err != nil {
		return err
	}
	attendance = attendance.Clone()
	touched := false
	for _, students := range attendance {
		if _, ok := students[studentID]; ok {
			delete(students, studentID)
			touched = true
		}
	}
	if touched {
		if err := r.write(ctx, KeyAttendance, attendance); err != nil {
			return err
		}
	}

	results, err := r.Results(ctx)
	if err != nil {
		return err
	}
	results = results.Clone()
	touched = false
	for _, students := range results {
		if _, ok := students[studentID]; ok {
			delete(students, studentID)
			touched = true
		}
	}
	if touched {
		return r.write(ctx, KeyResults, results)
	}
	return nil
}

// AddCourse appends a course with an upper-cased code and every current
// student enrolled.
func (r *Repository) AddCourse(ctx context.Context, course models.Course) (models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	course.Code = strings.ToUpper(strings.TrimSpace(course.Code))

	courses, err := r.Courses(ctx)
	if err != nil {
		return models.Course{}, err
	}
	if _, exists := models.FindCourse(courses, course.Code); exists {
		return models.Course{}, ErrDuplicateCourse
	}

	users, err := r.Users(ctx)
	if err != nil {
		return models.Course{}, err
	}
	course.StudentIDs = make([]string, 0)
	for _, student := range models.UsersWithRole(users, models.RoleStudent) {
		course.StudentIDs = append(course.StudentIDs, student.ID)
	}

	courses = append(courses, course)
	if err := r.write(ctx, KeyCourses, courses); err != nil {
		return models.Course{}, err
	}
	return course, nil
}

// Backup returns every collection and setting with a timestamp.
func (r *Repository) Backup(ctx context.Context) (Backup, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return Backup{}, err
	}
	return Backup{
		Users:      snap.Users,
		Courses:    snap.Courses,
		Attendance: snap.Attendance,
		Results:    snap.Results,
		Settings: BackupSettings{
			Attendance: snap.AttendanceSettings,
			Grade:      snap.GradeSettings,
		},
		Timestamp: r.now().UTC(),
	}, nil
}

// SeedDefaults writes the demo collections for every key that is still absent.
// It returns the keys that were written.
func (r *Repository) SeedDefaults(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seeded := make([]string, 0)
	for _, key := range []string{KeyUsers, KeyCourses, KeyAttendance, KeyResults} {
		_, found, err := r.store.Get(ctx, key)
		if err != nil {
			return seeded, fmt.Errorf("read %s: %w", key, err)
		}
		if found {
			continue
		}

		payload, err := seedFiles.ReadFile("seed/" + key + ".json")
		if err != nil {
			return seeded, fmt.Errorf("load seed %s: %w", key, err)
		}
		if err := r.store.Set(ctx, key, string(payload)); err != nil {
			return seeded, fmt.Errorf("write %s: %w", key, err)
		}
		seeded = append(seeded, key)
	}

	if len(seeded) > 0 {
		r.logger.Info().Strs("keys", seeded).Msg("store seeded with default data")
	}
	return seeded, nil
}
