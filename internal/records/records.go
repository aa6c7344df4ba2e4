// Package records holds the portal's program-management entities and
// the repository contract for reading and writing them.
package records

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

type Participant struct {
	ParticipantID   int64
	Email           string
	FirstName       string
	LastName        string
	DOB             *time.Time
	Role            string
	AreaCode        *int64
	Phone           string
	City            string
	State           string
	Zip             *int64
	FieldOfInterest string
}

type CreateParticipantInput struct {
	Email           string
	FirstName       string
	LastName        string
	DOB             *time.Time
	Role            string
	Phone           string
	City            string
	State           string
	FieldOfInterest string
}

type Event struct {
	EventID       int64
	EventName     string
	EventType     string
	DateTimeStart time.Time
	DateTimeEnd   *time.Time
	Location      string
	Capacity      *int64
}

type Milestone struct {
	MilestoneID   int64
	ParticipantID int64
	MilestoneNo   int64
	Title         string
	Date          *time.Time
}

type Donation struct {
	DonationID    int64
	ParticipantID *int64
	DonorName     string
	Date          *time.Time
	Amount        float64
}

// DashboardSummary backs the portal dashboard cards: headline counts
// and totals across the program.
type DashboardSummary struct {
	Participants   int64
	Events         int64
	Surveys        int64
	Milestones     int64
	DonationTotal  float64
	AvgSurveyScore float64
}
