package models

import "strings"

// Role identifies the portal area a user may access.
type Role string

const (
	// RoleStudent is a learner enrolled in courses.
	RoleStudent Role = "student"
	// RoleTeacher is the instructor assigned to courses.
	RoleTeacher Role = "teacher"
	// RoleAdmin manages users, courses and settings.
	RoleAdmin Role = "admin"
)

// ParseRole normalises a role string, returning false for unknown roles.
func ParseRole(value string) (Role, bool) {
	switch role := Role(strings.ToLower(strings.TrimSpace(value))); role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// User represents a portal account.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Program        string `json:"program,omitempty"`
	Semester       string `json:"semester,omitempty"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty"`
}

// FindUser looks up a user by id.
func FindUser(users []User, id string) (User, bool) {
	for _, user := range users {
		if user.ID == id {
			return user, true
		}
	}
	return User{}, false
}

// UsersWithRole filters users by role, preserving order.
func UsersWithRole(users []User, role Role) []User {
	result := make([]User, 0, len(users))
	for _, user := range users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	return result
}
