package store

import "time"

// Activity is a Kanban card joined to its project and sector for display.
// Dates are carried as YYYY-MM-DD strings, matching the wire contract.
type Activity struct {
	ID            int64
	Title         string
	Description   string
	ProjectID     int64
	ProjectName   string
	SectorID      *int64
	SectorCode    string
	StatusID      int
	PriorityID    int
	EstimateHours float64
	ReleaseID     *int64
	Position      int
	StartDate     string
	EndDate       string
	CreatedDate   string
	UpdatedAt     time.Time
}

// NewActivity carries the fields accepted on creation and full edit.
type NewActivity struct {
	Title         string
	Description   string
	ProjectID     int64
	SectorID      *int64
	StatusID      int
	PriorityID    int
	EstimateHours float64
	ReleaseID     *int64
	StartDate     string
	EndDate       string
	CreatedDate   string
}

// Responsible is a person accountable for an activity, identified by email.
// Rows are created lazily on first assignment and never deleted.
type Responsible struct {
	ID    int64
	Email string
}

// Collaborator is a row from the read-only HR directory view. The four
// sector-ish fields are synonyms upstream; hierarchy.Sector picks one.
type Collaborator struct {
	Email      string
	Name       string
	JobTitle   string
	Department string
	Division   string
	Advisory   string
	Section    string
}

type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

type Sector struct {
	ID   int64  `json:"id"`
	Code string `json:"sigla"`
	Name string `json:"nome"`
}
