// Package postgres implements the records repository over the portal's
// PostgreSQL schema. Identifiers are case-sensitive CamelCase and must
// stay double-quoted.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/impactdesk/impactdesk/internal/records"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping portal db: %w", err)
	}
	return nil
}

func (r *Repository) ListParticipants(ctx context.Context, search string) ([]records.Participant, error) {
	query := `
SELECT "ParticipantID", "ParticipantEmail", "ParticipantFirstName", "ParticipantLastName",
       "ParticipantDOB", "ParticipantRole", "ParticipantAreaCode", "ParticipantPhone",
       "ParticipantCity", "ParticipantState", "ParticipantZip", "ParticipantFieldOfInterest"
FROM "Participant"
WHERE $1 = ''
   OR "ParticipantFirstName" ILIKE '%' || $1 || '%'
   OR "ParticipantLastName" ILIKE '%' || $1 || '%'
   OR "ParticipantEmail" ILIKE '%' || $1 || '%'
ORDER BY "ParticipantLastName" ASC, "ParticipantFirstName" ASC`

	rows, err := r.db.QueryContext(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	participants := make([]records.Participant, 0)
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant rows: %w", err)
	}
	return participants, nil
}

func (r *Repository) GetParticipant(ctx context.Context, participantID int64) (records.Participant, error) {
	query := `
SELECT "ParticipantID", "ParticipantEmail", "ParticipantFirstName", "ParticipantLastName",
       "ParticipantDOB", "ParticipantRole", "ParticipantAreaCode", "ParticipantPhone",
       "ParticipantCity", "ParticipantState", "ParticipantZip", "ParticipantFieldOfInterest"
FROM "Participant"
WHERE "ParticipantID" = $1`

	participant, err := scanParticipant(r.db.QueryRowContext(ctx, query, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return records.Participant{}, records.ErrNotFound
		}
		return records.Participant{}, err
	}
	return participant, nil
}

func (r *Repository) CreateParticipant(ctx context.Context, in records.CreateParticipantInput) (records.Participant, error) {
	query := `
INSERT INTO "Participant" ("ParticipantEmail", "ParticipantFirstName", "ParticipantLastName",
                           "ParticipantDOB", "ParticipantRole", "ParticipantPhone",
                           "ParticipantCity", "ParticipantState", "ParticipantFieldOfInterest")
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING "ParticipantID"`

	participant := records.Participant{
		Email:           in.Email,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		DOB:             in.DOB,
		Role:            in.Role,
		Phone:           in.Phone,
		City:            in.City,
		State:           in.State,
		FieldOfInterest: in.FieldOfInterest,
	}
	if err := r.db.QueryRowContext(ctx, query,
		in.Email, in.FirstName, in.LastName, in.DOB, in.Role,
		in.Phone, in.City, in.State, in.FieldOfInterest,
	).Scan(&participant.ParticipantID); err != nil {
		return records.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}

func (r *Repository) ListParticipantMilestones(ctx context.Context, participantID int64) ([]records.Milestone, error) {
	query := `
SELECT "MilestoneID", "ParticipantID", "MilestoneNo", "MilestoneTitle", "MilestoneDate"
FROM "Milestone"
WHERE "ParticipantID" = $1
ORDER BY "MilestoneDate" DESC NULLS LAST, "MilestoneNo" DESC`

	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("list participant milestones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	milestones := make([]records.Milestone, 0)
	for rows.Next() {
		var milestone records.Milestone
		var date sql.NullTime
		if err := rows.Scan(&milestone.MilestoneID, &milestone.ParticipantID, &milestone.MilestoneNo, &milestone.Title, &date); err != nil {
			return nil, fmt.Errorf("scan milestone row: %w", err)
		}
		if date.Valid {
			milestone.Date = &date.Time
		}
		milestones = append(milestones, milestone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestone rows: %w", err)
	}
	return milestones, nil
}

func (r *Repository) ListUpcomingEvents(ctx context.Context, limit int) ([]records.Event, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `
SELECT e."EventID", ed."EventName", ed."EventType", e."EventDateTimeStart",
       e."EventDateTimeEnd", e."EventLocation", e."EventCapacity"
FROM "Event" e
JOIN "EventDetails" ed ON e."EventDetailsID" = ed."EventDetailsID"
WHERE e."EventDateTimeStart" >= NOW()
ORDER BY e."EventDateTimeStart" ASC
LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]records.Event, 0)
	for rows.Next() {
		var event records.Event
		var end sql.NullTime
		var capacity sql.NullInt64
		if err := rows.Scan(&event.EventID, &event.EventName, &event.EventType,
			&event.DateTimeStart, &end, &event.Location, &capacity); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if end.Valid {
			event.DateTimeEnd = &end.Time
		}
		if capacity.Valid {
			event.Capacity = &capacity.Int64
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

func (r *Repository) GetDashboardSummary(ctx context.Context) (records.DashboardSummary, error) {
	query := `
SELECT
  (SELECT COUNT(*) FROM "Participant") AS participants,
  (SELECT COUNT(*) FROM "Event") AS events,
  (SELECT COUNT(*) FROM "Survey") AS surveys,
  (SELECT COUNT(*) FROM "Milestone") AS milestones,
  (SELECT COALESCE(SUM("DonationAmount"), 0) FROM "Donation") AS donation_total,
  (SELECT COALESCE(AVG("SurveyOverallScore"), 0) FROM "Survey") AS avg_survey_score`

	var summary records.DashboardSummary
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&summary.Participants,
		&summary.Events,
		&summary.Surveys,
		&summary.Milestones,
		&summary.DonationTotal,
		&summary.AvgSurveyScore,
	); err != nil {
		return records.DashboardSummary{}, fmt.Errorf("load dashboard summary: %w", err)
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (records.Participant, error) {
	var participant records.Participant
	var dob sql.NullTime
	var areaCode, zip sql.NullInt64
	var role, phone, city, state, interest sql.NullString
	if err := row.Scan(
		&participant.ParticipantID,
		&participant.Email,
		&participant.FirstName,
		&participant.LastName,
		&dob,
		&role,
		&areaCode,
		&phone,
		&city,
		&state,
		&zip,
		&interest,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return records.Participant{}, err
		}
		return records.Participant{}, fmt.Errorf("scan participant row: %w", err)
	}
	if dob.Valid {
		participant.DOB = &dob.Time
	}
	if areaCode.Valid {
		participant.AreaCode = &areaCode.Int64
	}
	if zip.Valid {
		participant.Zip = &zip.Int64
	}
	participant.Role = role.String
	participant.Phone = phone.String
	participant.City = city.String
	participant.State = state.String
	participant.FieldOfInterest = interest.String
	return participant, nil
}
