package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	memactivityrepo "github.com/tripsync/planner/internal/adapters/memory/activityrepo"
	memclock "github.com/tripsync/planner/internal/adapters/memory/clock"
	memidempotency "github.com/tripsync/planner/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/tripsync/planner/internal/adapters/memory/memberrepo"
	memtriprepo "github.com/tripsync/planner/internal/adapters/memory/triprepo"
	"github.com/tripsync/planner/internal/app/activities"
	"github.com/tripsync/planner/internal/app/trips"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/wire"
)

var envNow = time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	h http.Handler

	members    *memmemberrepo.Repo
	trips      *memtriprepo.Repo
	activities *memactivityrepo.Repo
	idem       *memidempotency.Store
	clk        *memclock.ManualClock

	tripID domain.TripID
	alice  domain.UserID
	bob    domain.UserID
	carol  domain.UserID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{
		members:    memmemberrepo.NewRepo(),
		trips:      memtriprepo.NewRepo(),
		activities: memactivityrepo.NewRepo(),
		idem:       memidempotency.NewStore(),
		clk:        memclock.NewManualClock(envNow),
	}

	var err error
	if env.alice, err = env.members.Create(ctx, domain.Member{DisplayName: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	if env.bob, err = env.members.Create(ctx, domain.Member{DisplayName: "Bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	if env.carol, err = env.members.Create(ctx, domain.Member{DisplayName: "Carol", Email: "carol@example.com"}); err != nil {
		t.Fatalf("seed carol: %v", err)
	}

	start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)
	if env.tripID, err = env.trips.Create(ctx, domain.Trip{
		Name:      "Lisbon long weekend",
		StartDate: &start,
		EndDate:   &end,
		CreatedAt: envNow.Add(-72 * time.Hour),
		UpdatedAt: envNow.Add(-72 * time.Hour),
	}); err != nil {
		t.Fatalf("seed trip: %v", err)
	}

	api := NewServer(
		trips.NewService(env.trips),
		activities.NewService(env.activities, env.trips, env.members, env.clk),
		env.idem,
		quietLogger(),
	)
	env.h = NewRouterWithOptions(api, RouterOptions{AuthMiddleware: NewDevAuthMiddleware(0)})
	return env
}

func (env *testEnv) seedActivity(t *testing.T, a domain.Activity) domain.Activity {
	t.Helper()
	a.TripID = env.tripID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = envNow.Add(-24 * time.Hour)
		a.UpdatedAt = a.CreatedAt
	}
	created, err := env.activities.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	return created
}

// do sends a request as the given user; body may be empty.
func (env *testEnv) do(t *testing.T, method, path string, user domain.UserID, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Planner-User", strconv.FormatInt(int64(user), 10))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	env.h.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) activitiesPath() string {
	return "/trips/" + strconv.FormatInt(int64(env.tripID), 10) + "/activities"
}

func (env *testEnv) rsvpPath(id domain.ActivityID) string {
	return env.activitiesPath() + "/" + strconv.FormatInt(int64(id), 10) + "/rsvp"
}

func decodeActivity(t *testing.T, rec *httptest.ResponseRecorder) wire.Activity {
	t.Helper()
	var resp struct {
		Activity wire.Activity `json:"activity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
	return resp.Activity
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error: %v body=%s", err, rec.Body.String())
	}
	return er.Error
}

func TestListActivities_HidesOthersPersonalItems(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	private := "private"
	env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice,
		Invites: []domain.Invite{{UserID: env.bob, Status: domain.InviteStatusPending, UpdatedAt: envNow}},
	})
	env.seedActivity(t, domain.Activity{
		Name: "Bob's spa morning", Kind: domain.ActivityKindScheduled, CreatorID: env.bob,
		Visibility: &private,
	})

	rec := env.do(t, http.MethodGet, env.activitiesPath(), env.alice, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Activities []wire.Activity `json:"activities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Activities) != 1 || resp.Activities[0].Name != "Group dinner" {
		t.Fatalf("activities=%+v", resp.Activities)
	}
}

func TestListActivities_KindFilter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice,
		Invites: []domain.Invite{{UserID: env.bob, Status: domain.InviteStatusPending, UpdatedAt: envNow}},
	})
	env.seedActivity(t, domain.Activity{
		Name: "Where to brunch?", Kind: domain.ActivityKindPropose, CreatorID: env.alice,
		Invites: []domain.Invite{{UserID: env.bob, Status: domain.InviteStatusPending, UpdatedAt: envNow}},
	})

	rec := env.do(t, http.MethodGet, env.activitiesPath()+"?kind=PROPOSE", env.alice, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Activities []wire.Activity `json:"activities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Activities) != 1 || resp.Activities[0].Kind != "PROPOSE" {
		t.Fatalf("activities=%+v", resp.Activities)
	}

	rec = env.do(t, http.MethodGet, env.activitiesPath()+"?kind=someday", env.alice, "", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateActivity_EndToEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	body := `{
		"name": "Tapas night",
		"kind": "scheduled",
		"startTime": "2026-07-11T19:30:00Z",
		"maxCapacity": 6,
		"shared": true,
		"inviteUserIds": [` + strconv.FormatInt(int64(env.bob), 10) + `]
	}`

	rec := env.do(t, http.MethodPost, env.activitiesPath(), env.alice, body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	a := decodeActivity(t, rec)
	if a.ID == 0 || a.Name != "Tapas night" || a.Kind != "SCHEDULED" {
		t.Fatalf("activity=%+v", a)
	}
	if len(a.Invites) != 1 || a.Invites[0].Status != "pending" {
		t.Fatalf("invites=%+v", a.Invites)
	}
	if v, err := a.PendingCount.Get(); err != nil || v != 1 {
		t.Fatalf("pendingCount=%v err=%v", v, err)
	}
}

func TestCreateActivity_ValidationError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, env.activitiesPath(), env.alice, `{"name":"   ","kind":"SCHEDULED"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	er := decodeError(t, rec)
	if er.Code != "VALIDATION_ERROR" || er.Details["field"] != "name" {
		t.Fatalf("error=%+v", er)
	}
}

func TestCreateActivity_LegacyEpochTimeOptions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	// Millisecond epochs, the shape older clients still send.
	body := `{"name":"Old-app proposal","kind":"PROPOSE","shared":true,"timeOptions":[1783612800000, "2026-07-12T09:00:00Z"]}`

	rec := env.do(t, http.MethodPost, env.activitiesPath(), env.alice, body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	a := decodeActivity(t, rec)
	if len(a.TimeOptions) != 2 {
		t.Fatalf("timeOptions=%+v", a.TimeOptions)
	}
}

func TestDeleteActivity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	a := env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice,
		Invites: []domain.Invite{{UserID: env.bob, Status: domain.InviteStatusPending, UpdatedAt: envNow}},
	})
	path := env.activitiesPath() + "/" + strconv.FormatInt(int64(a.ID), 10)

	// Only the creator can cancel; others get a 404.
	rec := env.do(t, http.MethodDelete, path, env.bob, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodDelete, path, env.alice, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, env.activitiesPath(), env.alice, "", nil)
	var resp struct {
		Activities []wire.Activity `json:"activities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Activities) != 0 {
		t.Fatalf("activities=%+v", resp.Activities)
	}
}

func TestSetRSVP_EndToEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	shared := true
	a := env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice, Shared: &shared,
	})

	rec := env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"ACCEPT"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeActivity(t, rec)
	if len(got.Invites) != 1 || got.Invites[0].Status != "accepted" {
		t.Fatalf("invites=%+v", got.Invites)
	}
	if v, err := got.AcceptedCount.Get(); err != nil || v != 1 {
		t.Fatalf("acceptedCount=%v err=%v", v, err)
	}
}

func TestSetRSVP_CapacityFull(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	capacity := 1
	a := env.seedActivity(t, domain.Activity{
		Name: "Tiny boat", Kind: domain.ActivityKindScheduled, CreatorID: env.alice,
		MaxCapacity: &capacity,
		Invites: []domain.Invite{
			{UserID: env.alice, Status: domain.InviteStatusAccepted, UpdatedAt: envNow.Add(-time.Hour)},
			{UserID: env.bob, Status: domain.InviteStatusPending, UpdatedAt: envNow.Add(-time.Hour)},
		},
	})

	rec := env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"ACCEPT"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if er := decodeError(t, rec); er.Code != "CAPACITY_FULL" {
		t.Fatalf("error=%+v", er)
	}
}

func TestSetRSVP_Closed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	shared := true
	closeAt := envNow.Add(-time.Minute)
	a := env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice,
		Shared: &shared, RSVPCloseTime: &closeAt,
	})

	rec := env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"ACCEPT"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if er := decodeError(t, rec); er.Code != "RSVP_CLOSED" {
		t.Fatalf("error=%+v", er)
	}
}

func TestSetRSVP_IdempotentReplay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	shared := true
	a := env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice, Shared: &shared,
	})
	hdr := http.Header{}
	hdr.Set("Idempotency-Key", "key-1")

	rec := env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"ACCEPT"}`, hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status=%d body=%s", rec.Code, rec.Body.String())
	}
	first := rec.Body.String()

	// Outside the idempotent retry, bob's state changes.
	rec = env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"DECLINE"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("decline status=%d body=%s", rec.Code, rec.Body.String())
	}

	// The retried request replays the stored response instead of re-applying.
	rec = env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"ACCEPT"}`, hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != first {
		t.Fatalf("replay body=%s want %s", rec.Body.String(), first)
	}

	// The store still holds the declined state; the replay did not mutate.
	stored, err := env.activities.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if st, _ := domain.StatusFor(stored, env.bob); st != domain.InviteStatusDeclined {
		t.Fatalf("stored status=%q, want declined", st)
	}
}

func TestSetRSVP_IdempotencyKeyReuse(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	shared := true
	a := env.seedActivity(t, domain.Activity{
		Name: "Group dinner", Kind: domain.ActivityKindScheduled, CreatorID: env.alice, Shared: &shared,
	})
	hdr := http.Header{}
	hdr.Set("Idempotency-Key", "key-1")

	rec := env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"ACCEPT"}`, hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, env.rsvpPath(a.ID), env.bob, `{"action":"DECLINE"}`, hdr)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if er := decodeError(t, rec); er.Code != "IDEMPOTENCY_KEY_REUSE" {
		t.Fatalf("error=%+v", er)
	}
}

func TestSetRSVP_UnknownActivity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, env.rsvpPath(999), env.bob, `{"action":"ACCEPT"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if er := decodeError(t, rec); er.Code != "ACTIVITY_NOT_FOUND" {
		t.Fatalf("error=%+v", er)
	}
}
