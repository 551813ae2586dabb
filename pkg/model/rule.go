package model

// RuleEntry maps one (patron group, material type) pair to its circulation
// policy. A lookup with no matching entry is an error, never a silent
// default; REFERENCE-style non-circulating material is expressed with
// loan_days and max_items of zero.
type RuleEntry struct {
	ID           string       `json:"id,omitempty" bson:"_id,omitempty"`
	PatronGroup  PatronGroup  `json:"patron_group" bson:"patron_group" validate:"required,oneof=STUDENT TEACHER LIBRARIAN ADMINISTRATOR"`
	MaterialType MaterialType `json:"material_type" bson:"material_type" validate:"required,oneof=REGULAR REFERENCE PERIODICAL MEDIA"`
	LoanDays     int          `json:"loan_days" bson:"loan_days" validate:"min=0,max=365"`
	MaxItems     int          `json:"max_items" bson:"max_items" validate:"min=0,max=200"`
	FinePerDay   Cents        `json:"fine_per_day" bson:"fine_per_day" validate:"min=0"`
}
