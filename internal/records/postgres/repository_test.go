package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/impactdesk/impactdesk/internal/records"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func participantColumns() []string {
	return []string{
		"ParticipantID", "ParticipantEmail", "ParticipantFirstName", "ParticipantLastName",
		"ParticipantDOB", "ParticipantRole", "ParticipantAreaCode", "ParticipantPhone",
		"ParticipantCity", "ParticipantState", "ParticipantZip", "ParticipantFieldOfInterest",
	}
}

func TestListParticipantsAppliesSearchFilter(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	dob := time.Date(2007, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM "Participant"`).
		WithArgs("maya").
		WillReturnRows(sqlmock.NewRows(participantColumns()).
			AddRow(int64(12), "maya@example.org", "Maya", "Jensen", dob, "Participant",
				int64(801), "555-0101", "Provo", "UT", int64(84601), "Robotics"))

	participants, err := repo.ListParticipants(context.Background(), "maya")
	if err != nil {
		t.Fatalf("ListParticipants() error = %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("len(participants) = %d", len(participants))
	}
	got := participants[0]
	if got.ParticipantID != 12 || got.FirstName != "Maya" || got.FieldOfInterest != "Robotics" {
		t.Fatalf("participant = %+v", got)
	}
	if got.DOB == nil || !got.DOB.Equal(dob) {
		t.Fatalf("DOB = %v", got.DOB)
	}
	assertSQLMock(t, mock)
}

func TestGetParticipantReturnsNotFound(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`FROM "Participant"`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetParticipant(context.Background(), 404)
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, records.ErrNotFound)
	}
	assertSQLMock(t, mock)
}

func TestCreateParticipantReturnsAssignedID(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Participant"`)).
		WithArgs("ada@example.org", "Ada", "Nguyen", nil, "Participant", "555-0102", "Orem", "UT", "Software").
		WillReturnRows(sqlmock.NewRows([]string{"ParticipantID"}).AddRow(int64(31)))

	participant, err := repo.CreateParticipant(context.Background(), records.CreateParticipantInput{
		Email:           "ada@example.org",
		FirstName:       "Ada",
		LastName:        "Nguyen",
		Role:            "Participant",
		Phone:           "555-0102",
		City:            "Orem",
		State:           "UT",
		FieldOfInterest: "Software",
	})
	if err != nil {
		t.Fatalf("CreateParticipant() error = %v", err)
	}
	if participant.ParticipantID != 31 {
		t.Fatalf("ParticipantID = %d", participant.ParticipantID)
	}
	assertSQLMock(t, mock)
}

func TestListParticipantMilestones(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	achieved := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM "Milestone"`).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"MilestoneID", "ParticipantID", "MilestoneNo", "MilestoneTitle", "MilestoneDate"}).
			AddRow(int64(5), int64(12), int64(2), "Accepted to university", achieved).
			AddRow(int64(3), int64(12), int64(1), "Completed mentorship", nil))

	milestones, err := repo.ListParticipantMilestones(context.Background(), 12)
	if err != nil {
		t.Fatalf("ListParticipantMilestones() error = %v", err)
	}
	if len(milestones) != 2 {
		t.Fatalf("len(milestones) = %d", len(milestones))
	}
	if milestones[0].Title != "Accepted to university" || milestones[0].Date == nil {
		t.Fatalf("milestones[0] = %+v", milestones[0])
	}
	if milestones[1].Date != nil {
		t.Fatalf("milestones[1].Date = %v, want nil", milestones[1].Date)
	}
	assertSQLMock(t, mock)
}

func TestGetDashboardSummary(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{
			"participants", "events", "surveys", "milestones", "donation_total", "avg_survey_score",
		}).AddRow(int64(156), int64(42), int64(310), int64(87), 12500.50, 4.35))

	summary, err := repo.GetDashboardSummary(context.Background())
	if err != nil {
		t.Fatalf("GetDashboardSummary() error = %v", err)
	}
	if summary.Participants != 156 || summary.DonationTotal != 12500.50 {
		t.Fatalf("summary = %+v", summary)
	}
	assertSQLMock(t, mock)
}
