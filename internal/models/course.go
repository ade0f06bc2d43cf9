package models

import "sort"

// UnassignedTeacher is shown when a course's teacher reference does not resolve.
const UnassignedTeacher = "Unassigned"

// Course is an offering identified by its unique code.
type Course struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	TeacherID  string   `json:"teacher"`
	Credits    int      `json:"credits"`
	StudentIDs []string `json:"students"`
}

// HasStudent reports whether the student is on the course roster.
func (c Course) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// TeacherName resolves the teacher's display name.
func (c Course) TeacherName(users []User) string {
	teacher, ok := FindUser(users, c.TeacherID)
	if !ok || teacher.Role != RoleTeacher {
		return UnassignedTeacher
	}
	return teacher.Name
}

// FindCourse looks up a course by code.
func FindCourse(courses []Course, code string) (Course, bool) {
	for _, course := range courses {
		if course.Code == code {
			return course, true
		}
	}
	return Course{}, false
}

// CoursesForStudent returns the courses a student is enrolled in, ordered by code.
func CoursesForStudent(courses []Course, studentID string) []Course {
	result := make([]Course, 0)
	for _, course := range courses {
		if course.HasStudent(studentID) {
			result = append(result, course)
		}
	}
	SortCourses(result)
	return result
}

// CoursesForTeacher returns the courses taught by a teacher, ordered by code.
func CoursesForTeacher(courses []Course, teacherID string) []Course {
	result := make([]Course, 0)
	for _, course := range courses {
		if course.TeacherID == teacherID {
			result = append(result, course)
		}
	}
	SortCourses(result)
	return result
}

// SortCourses orders courses by code in place.
func SortCourses(courses []Course) {
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
}
