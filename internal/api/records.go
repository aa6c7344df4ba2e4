package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/impactdesk/impactdesk/internal/auth"
	"github.com/impactdesk/impactdesk/internal/records"
)

type participantView struct {
	ParticipantID   int64      `json:"participantId"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	DOB             *time.Time `json:"dob,omitempty"`
	Role            string     `json:"role"`
	Phone           string     `json:"phone,omitempty"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	FieldOfInterest string     `json:"fieldOfInterest,omitempty"`
}

type createParticipantRequest struct {
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	DOB             *time.Time `json:"dob"`
	Role            string     `json:"role"`
	Phone           string     `json:"phone"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	FieldOfInterest string     `json:"fieldOfInterest"`
}

type milestoneView struct {
	MilestoneID   int64      `json:"milestoneId"`
	ParticipantID int64      `json:"participantId"`
	MilestoneNo   int64      `json:"milestoneNo"`
	Title         string     `json:"title"`
	Date          *time.Time `json:"date,omitempty"`
}

type eventView struct {
	EventID       int64      `json:"eventId"`
	EventName     string     `json:"eventName"`
	EventType     string     `json:"eventType"`
	DateTimeStart time.Time  `json:"dateTimeStart"`
	DateTimeEnd   *time.Time `json:"dateTimeEnd,omitempty"`
	Location      string     `json:"location,omitempty"`
	Capacity      *int64     `json:"capacity,omitempty"`
}

type dashboardView struct {
	Participants   int64   `json:"participants"`
	Events         int64   `json:"events"`
	Surveys        int64   `json:"surveys"`
	Milestones     int64   `json:"milestones"`
	DonationTotal  float64 `json:"donationTotal"`
	AvgSurveyScore float64 `json:"avgSurveyScore"`
}

func handleListParticipants(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RECORDS_NOT_CONFIGURED", "records dependencies are not configured", false, nil)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	participants, err := deps.Repo.ListParticipants(r.Context(), search)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RECORDS_ERROR", "failed to list participants", true, map[string]any{"details": err.Error()})
		return
	}
	views := make([]participantView, 0, len(participants))
	for _, participant := range participants {
		views = append(views, toParticipantView(participant))
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": views})
}

func handleGetParticipant(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RECORDS_NOT_CONFIGURED", "records dependencies are not configured", false, nil)
		return
	}
	participantID, err := participantIDFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_PARTICIPANT_ID", "participant id must be a positive integer", false, nil)
		return
	}
	participant, err := deps.Repo.GetParticipant(r.Context(), participantID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "PARTICIPANT_NOT_FOUND", "participant was not found", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "RECORDS_ERROR", "failed to load participant", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toParticipantView(participant))
}

func handleCreateParticipant(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RECORDS_NOT_CONFIGURED", "records dependencies are not configured", false, nil)
		return
	}
	if _, authenticated := auth.IdentityFromContext(r.Context()); authenticated {
		if err := auth.RequireAdmin(r); err != nil {
			writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
			return
		}
	}

	var request createParticipantRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid participant request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Email) == "" || strings.TrimSpace(request.FirstName) == "" || strings.TrimSpace(request.LastName) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "FIELDS_REQUIRED", "email, firstName, and lastName are required", false, nil)
		return
	}
	role := strings.TrimSpace(request.Role)
	if role == "" {
		role = "Participant"
	}

	participant, err := deps.Repo.CreateParticipant(r.Context(), records.CreateParticipantInput{
		Email:           strings.TrimSpace(request.Email),
		FirstName:       strings.TrimSpace(request.FirstName),
		LastName:        strings.TrimSpace(request.LastName),
		DOB:             request.DOB,
		Role:            role,
		Phone:           strings.TrimSpace(request.Phone),
		City:            strings.TrimSpace(request.City),
		State:           strings.TrimSpace(request.State),
		FieldOfInterest: strings.TrimSpace(request.FieldOfInterest),
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RECORDS_ERROR", "failed to create participant", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, toParticipantView(participant))
}

func handleParticipantMilestones(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RECORDS_NOT_CONFIGURED", "records dependencies are not configured", false, nil)
		return
	}
	participantID, err := participantIDFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_PARTICIPANT_ID", "participant id must be a positive integer", false, nil)
		return
	}
	milestones, err := deps.Repo.ListParticipantMilestones(r.Context(), participantID)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RECORDS_ERROR", "failed to list milestones", true, map[string]any{"details": err.Error()})
		return
	}
	views := make([]milestoneView, 0, len(milestones))
	for _, milestone := range milestones {
		views = append(views, milestoneView{
			MilestoneID:   milestone.MilestoneID,
			ParticipantID: milestone.ParticipantID,
			MilestoneNo:   milestone.MilestoneNo,
			Title:         milestone.Title,
			Date:          milestone.Date,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"milestones": views})
}

func handleUpcomingEvents(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RECORDS_NOT_CONFIGURED", "records dependencies are not configured", false, nil)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		limit = parsed
	}
	events, err := deps.Repo.ListUpcomingEvents(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RECORDS_ERROR", "failed to list upcoming events", true, map[string]any{"details": err.Error()})
		return
	}
	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, eventView{
			EventID:       event.EventID,
			EventName:     event.EventName,
			EventType:     event.EventType,
			DateTimeStart: event.DateTimeStart,
			DateTimeEnd:   event.DateTimeEnd,
			Location:      event.Location,
			Capacity:      event.Capacity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": views})
}

func handleDashboard(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repo == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RECORDS_NOT_CONFIGURED", "records dependencies are not configured", false, nil)
		return
	}
	summary, err := deps.Repo.GetDashboardSummary(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RECORDS_ERROR", "failed to load dashboard summary", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dashboardView{
		Participants:   summary.Participants,
		Events:         summary.Events,
		Surveys:        summary.Surveys,
		Milestones:     summary.Milestones,
		DonationTotal:  summary.DonationTotal,
		AvgSurveyScore: summary.AvgSurveyScore,
	})
}

func participantIDFromRequest(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	participantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || participantID <= 0 {
		return 0, errors.New("invalid participant id")
	}
	return participantID, nil
}

func toParticipantView(participant records.Participant) participantView {
	return participantView{
		ParticipantID:   participant.ParticipantID,
		Email:           participant.Email,
		FirstName:       participant.FirstName,
		LastName:        participant.LastName,
		DOB:             participant.DOB,
		Role:            participant.Role,
		Phone:           participant.Phone,
		City:            participant.City,
		State:           participant.State,
		FieldOfInterest: participant.FieldOfInterest,
	}
}
