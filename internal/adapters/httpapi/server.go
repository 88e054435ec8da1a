package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/tripsync/planner/internal/app/activities"
	"github.com/tripsync/planner/internal/app/trips"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/idempotency"
	"github.com/tripsync/planner/internal/wire"
)

const rsvpRoute = "/trips/{tripID}/activities/{activityID}/rsvp"

// Server is the HTTP adapter. Handlers decode requests into wire shapes,
// call the application services and translate app errors into the JSON
// error envelope.
type Server struct {
	Trips      *trips.Service
	Activities *activities.Service
	Idem       idempotency.Store
	Log        *logrus.Logger
}

func NewServer(tripsSvc *trips.Service, activitiesSvc *activities.Service, idem idempotency.Store, log *logrus.Logger) *Server {
	return &Server{
		Trips:      tripsSvc,
		Activities: activitiesSvc,
		Idem:       idem,
		Log:        log,
	}
}

type tripResponse struct {
	Trip wire.Trip `json:"trip"`
}

type tripsResponse struct {
	Trips []wire.Trip `json:"trips"`
}

type activityResponse struct {
	Activity wire.Activity `json:"activity"`
}

type activitiesResponse struct {
	Activities []wire.Activity `json:"activities"`
}

type createActivityRequest struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Location      *string         `json:"location,omitempty"`
	Category      *string         `json:"category,omitempty"`
	Kind          string          `json:"kind"`
	StartTime     *wire.FlexTime  `json:"startTime,omitempty"`
	EndTime       *wire.FlexTime  `json:"endTime,omitempty"`
	TimeOptions   []wire.FlexTime `json:"timeOptions,omitempty"`
	RSVPCloseTime *wire.FlexTime  `json:"rsvpCloseTime,omitempty"`
	MaxCapacity   *int            `json:"maxCapacity,omitempty"`
	Visibility    *string         `json:"visibility,omitempty"`
	Shared        *bool           `json:"shared,omitempty"`
	InviteUserIDs []int64         `json:"inviteUserIds,omitempty"`
}

type setRSVPRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}

	ts, err := s.Trips.ListTrips(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	out := make([]wire.Trip, 0, len(ts))
	for _, t := range ts {
		out = append(out, wire.TripFromDomain(t))
	}
	writeJSON(w, http.StatusOK, tripsResponse{Trips: out})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}

	t, err := s.Trips.GetTrip(r.Context(), tripID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripResponse{Trip: wire.TripFromDomain(t)})
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}

	var in activities.ListInput
	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		kind := domain.ActivityKind(strings.ToUpper(raw))
		if !kind.Valid() {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "kind must be SCHEDULED or PROPOSE", map[string]any{"field": "kind"})
			return
		}
		in.Kind = &kind
	}

	as, err := s.Activities.ListTripActivities(r.Context(), user, tripID, in)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	out := make([]wire.Activity, 0, len(as))
	for _, a := range as {
		out = append(out, wire.FromDomain(a))
	}
	writeJSON(w, http.StatusOK, activitiesResponse{Activities: out})
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}

	var body createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}

	in := activities.CreateActivityInput{
		Name:          body.Name,
		Description:   body.Description,
		Location:      body.Location,
		CategoryHint:  body.Category,
		Kind:          domain.ActivityKind(strings.ToUpper(strings.TrimSpace(body.Kind))),
		StartTime:     body.StartTime.TimePtr(),
		EndTime:       body.EndTime.TimePtr(),
		RSVPCloseTime: body.RSVPCloseTime.TimePtr(),
		MaxCapacity:   body.MaxCapacity,
		Visibility:    body.Visibility,
		Shared:        body.Shared,
	}
	for _, ft := range body.TimeOptions {
		if ft.Valid {
			in.TimeOptions = append(in.TimeOptions, ft.Time)
		}
	}
	for _, id := range body.InviteUserIDs {
		in.InviteUserIDs = append(in.InviteUserIDs, domain.UserID(id))
	}

	created, err := s.Activities.CreateActivity(r.Context(), user, tripID, in)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, activityResponse{Activity: wire.FromDomain(created)})
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}

	if err := s.Activities.CancelActivity(r.Context(), user, tripID, activityID); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetRSVP(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}
	activityID, ok := activityIDParam(w, r)
	if !ok {
		return
	}

	var body setRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}
	action := domain.RSVPAction(strings.ToUpper(strings.TrimSpace(body.Action)))

	// Idempotency handling:
	// - Replay if same actor+key+route+bodyHash
	// - Reject if same actor+key+route with different bodyHash (409)
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	var bodyHash string
	if idemKey != "" && s.Idem != nil {
		var err error
		bodyHash, err = hashSetRSVPBody(tripID, activityID, action)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		metaFP := idempotency.Fingerprint{
			Key:      idempotency.Key(idemKey),
			User:     user,
			Method:   http.MethodPut,
			Route:    rsvpRoute,
			BodyHash: "",
		}
		if meta, ok, err := s.Idem.Get(r.Context(), metaFP); err != nil {
			s.handleError(w, r, err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
				return
			}
		} else {
			_ = s.Idem.Put(r.Context(), metaFP, idempotency.Record{
				StatusCode:  0,
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   time.Now().UTC(),
			})
		}

		respFP := metaFP
		respFP.BodyHash = bodyHash
		if rec, ok, err := s.Idem.Get(r.Context(), respFP); err != nil {
			s.handleError(w, r, err)
			return
		} else if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
			var payload activityResponse
			if err := json.Unmarshal(rec.Body, &payload); err == nil {
				writeJSON(w, http.StatusOK, payload)
				return
			}
		}
	}

	updated, err := s.Activities.SetRSVP(r.Context(), user, tripID, activityID, action)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := activityResponse{Activity: wire.FromDomain(updated)}
	if idemKey != "" && s.Idem != nil {
		respFP := idempotency.Fingerprint{
			Key:      idempotency.Key(idemKey),
			User:     user,
			Method:   http.MethodPut,
			Route:    rsvpRoute,
			BodyHash: bodyHash,
		}
		if b, err := json.Marshal(resp); err == nil {
			_ = s.Idem.Put(r.Context(), respFP, idempotency.Record{
				StatusCode:  http.StatusOK,
				ContentType: "application/json",
				Body:        b,
				CreatedAt:   time.Now().UTC(),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleError maps application errors onto the error envelope; anything
// unrecognized is a 500.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var aerr *activities.Error
	if errors.As(err, &aerr) {
		writeError(w, r, aerr.Status, aerr.Code, aerr.Message, aerr.Details)
		return
	}
	var terr *trips.Error
	if errors.As(err, &terr) {
		writeError(w, r, terr.Status, terr.Code, terr.Message, terr.Details)
		return
	}
	s.logger().WithError(err).Error("unhandled error")
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
}

func (s *Server) logger() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// tripIDParam parses {tripID}. A malformed id is treated as a trip that does
// not exist, matching the not-found hiding the services do.
func tripIDParam(w http.ResponseWriter, r *http.Request) (domain.TripID, bool) {
	raw := chi.URLParam(r, "tripID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found", nil)
		return 0, false
	}
	return domain.TripID(id), true
}

func activityIDParam(w http.ResponseWriter, r *http.Request) (domain.ActivityID, bool) {
	raw := chi.URLParam(r, "activityID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "ACTIVITY_NOT_FOUND", "activity not found", nil)
		return 0, false
	}
	return domain.ActivityID(id), true
}

func hashSetRSVPBody(tripID domain.TripID, activityID domain.ActivityID, action domain.RSVPAction) (string, error) {
	raw, err := json.Marshal(struct {
		TripID     int64  `json:"tripId"`
		ActivityID int64  `json:"activityId"`
		Action     string `json:"action"`
	}{
		TripID:     int64(tripID),
		ActivityID: int64(activityID),
		Action:     string(action),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
