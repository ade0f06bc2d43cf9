package service

import "errors"

var (
	// ErrUserNotFound indicates the session user or a named user is not in the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound indicates an unknown course code.
	ErrCourseNotFound = errors.New("course not found")
	// ErrCourseForbidden indicates the caller neither teaches nor attends the course.
	ErrCourseForbidden = errors.New("course not accessible")
	// ErrStudentNotEnrolled indicates a write names a student outside the roster.
	ErrStudentNotEnrolled = errors.New("student not enrolled in course")
	// ErrReportNotFound indicates an unknown report type.
	ErrReportNotFound = errors.New("unknown report type")
	// ErrEmailDomain indicates an email outside the institution domain.
	ErrEmailDomain = errors.New("email must use the institution domain")
	// ErrTeacherNotFound indicates a course assignment to a non-teacher.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrSelfDelete indicates an administrator tried to delete their own account.
	ErrSelfDelete = errors.New("cannot delete your own account")
)
