package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/session"
)

func TestCourseForAppliesRoleScope(t *testing.T) {
	snap, err := newSeededPortal(t).Snapshot(context.Background())
	require.NoError(t, err)

	course, err := courseFor(snap, " cs-101 ", session.Session{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, "CS-101", course.Code)

	_, err = courseFor(snap, "CS-201", teacherSession("teacher001"))
	require.NoError(t, err)

	_, err = courseFor(snap, "CS-101", studentSession("student-1"))
	require.NoError(t, err)

	_, err = courseFor(snap, "CS-101", teacherSession("teacher001"))
	require.ErrorIs(t, err, ErrCourseForbidden)

	_, err = courseFor(snap, "NOPE-1", session.Session{UserID: "admin", Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrCourseNotFound)
}
