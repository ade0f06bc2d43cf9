package store

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const usersSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "role"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string"},
      "email": {"type": "string"},
      "role": {"enum": ["student", "teacher", "admin"]},
      "program": {"type": "string"},
      "semester": {"type": "string"},
      "enrollmentYear": {"type": ["integer", "string"]}
    }
  }
}`

const coursesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["code"],
    "properties": {
      "code": {"type": "string", "minLength": 1},
      "name": {"type": "string"},
      "teacher": {"type": "string"},
      "credits": {"type": "integer"},
      "students": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

const attendanceSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["date", "status"],
        "properties": {
          "date": {"type": "string"},
          "status": {"enum": ["present", "absent"]}
        }
      }
    }
  }
}`

const resultsSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {
      "type": "object",
      "properties": {
        "quiz": {"type": ["array", "null"], "items": {"type": "number"}},
        "assignment": {"type": ["array", "null"], "items": {"type": "number"}},
        "midterm": {"type": ["number", "null"]},
        "final": {"type": ["number", "null"]},
        "explicitExams": {"type": "boolean"}
      }
    }
  }
}`

const attendanceSettingsSchema = `{
  "type": "object",
  "properties": {
    "threshold": {"type": "integer"},
    "checkInterval": {"type": "integer"}
  }
}`

const gradeSettingsSchema = `{
  "type": "object",
  "properties": {
    "passingGrade": {"type": "integer"}
  }
}`

// payloadSchemas holds the compiled shape checks applied to every payload read
// from the store. Score ranges are left to the grade calculator.
var payloadSchemas = map[string]*jsonschema.Schema{
	KeyUsers:              jsonschema.MustCompileString("portal://users.json", usersSchema),
	KeyCourses:            jsonschema.MustCompileString("portal://courses.json", coursesSchema),
	KeyAttendance:         jsonschema.MustCompileString("portal://attendance.json", attendanceSchema),
	KeyResults:            jsonschema.MustCompileString("portal://results.json", resultsSchema),
	KeyAttendanceSettings: jsonschema.MustCompileString("portal://attendance-settings.json", attendanceSettingsSchema),
	KeyGradeSettings:      jsonschema.MustCompileString("portal://grade-settings.json", gradeSettingsSchema),
}
