package models

// NotAssignedCategory labels roster rows without a category.
const NotAssignedCategory = "NOT_ASSIGNED"

// Student is a learner known to the tutoring platform.
type Student struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}
