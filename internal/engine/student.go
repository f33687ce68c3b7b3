package engine

import "strings"

// Student is a child enrolled in a class of a church branch.
// DateOfBirth keeps the value as received so that a malformed date only excludes this record.
type Student struct {
	ID              string `json:"id" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName"`
	DateOfBirth     string `json:"dateOfBirth"`
	ClassID         string `json:"classId,omitempty"`
	ClassName       string `json:"className,omitempty"`
	ChurchID        string `json:"churchId,omitempty"`
	GuardianName    string `json:"guardianName,omitempty"`
	GuardianContact string `json:"guardianContact,omitempty"`
	Gender          string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

func (s Student) PersonID() string { return s.ID }

// BirthDate parses DateOfBirth.
func (s Student) BirthDate() (CalendarDate, error) {
	return ParseDate(s.DateOfBirth)
}

// FullName returns "First Last", trimmed.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Scope narrows a roster to one church branch and, optionally, to some of its classes.
// Empty fields match everything.
type Scope struct {
	ChurchID string
	// Classes match either the class ID or the class name, since vCard imports only carry names.
	Classes []string
}

// IsZero reports whether the scope matches every student.
func (sc Scope) IsZero() bool {
	return sc.ChurchID == "" && len(sc.Classes) == 0
}

// Contains reports whether s belongs to the scope.
func (sc Scope) Contains(s Student) bool {
	if sc.ChurchID != "" && s.ChurchID != sc.ChurchID {
		return false
	}
	if len(sc.Classes) == 0 {
		return true
	}
	for _, c := range sc.Classes {
		if c != "" && (c == s.ClassID || c == s.ClassName) {
			return true
		}
	}
	return false
}

// InScope returns the students belonging to sc, in input order.
// The input slice is returned as is when the scope is empty.
func InScope(students []Student, sc Scope) []Student {
	if sc.IsZero() {
		return students
	}
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if sc.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
