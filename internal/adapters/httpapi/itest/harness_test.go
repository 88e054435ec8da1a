package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripsync/planner/internal/adapters/httpapi"
	memactivityrepo "github.com/tripsync/planner/internal/adapters/memory/activityrepo"
	memclock "github.com/tripsync/planner/internal/adapters/memory/clock"
	memidempotency "github.com/tripsync/planner/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/tripsync/planner/internal/adapters/memory/memberrepo"
	memtriprepo "github.com/tripsync/planner/internal/adapters/memory/triprepo"
	pgactivityrepo "github.com/tripsync/planner/internal/adapters/postgres/activityrepo"
	pgidempotency "github.com/tripsync/planner/internal/adapters/postgres/idempotency"
	pgmemberrepo "github.com/tripsync/planner/internal/adapters/postgres/memberrepo"
	postgres_testutil "github.com/tripsync/planner/internal/adapters/postgres/testutil"
	pgtriprepo "github.com/tripsync/planner/internal/adapters/postgres/triprepo"
	"github.com/tripsync/planner/internal/app/activities"
	"github.com/tripsync/planner/internal/app/trips"
	"github.com/tripsync/planner/internal/domain"
	activityrepoport "github.com/tripsync/planner/internal/ports/out/activityrepo"
	idempotencyport "github.com/tripsync/planner/internal/ports/out/idempotency"
	memberrepoport "github.com/tripsync/planner/internal/ports/out/memberrepo"
	triprepoport "github.com/tripsync/planner/internal/ports/out/triprepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

var itestNow = time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	baseURL string
	client  *http.Client

	clk *memclock.ManualClock

	tripID domain.TripID
	alice  domain.UserID
	bob    domain.UserID
	carol  domain.UserID
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(itestNow)

	var (
		memberRepo   memberrepoport.Repository
		tripRepo     triprepoport.Repository
		activityRepo activityrepoport.Repository
		idemStore    idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		memberRepo = pgmemberrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		activityRepo = pgactivityrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		memberRepo = memmemberrepo.NewRepo()
		tripRepo = memtriprepo.NewRepo()
		activityRepo = memactivityrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	tripSvc := trips.NewService(tripRepo)
	activitySvc := activities.NewService(activityRepo, tripRepo, memberRepo, clk)
	api := httpapi.NewServer(tripSvc, activitySvc, idemStore, log)

	// Integration tests use the dev auth middleware to stay fully local and
	// deterministic. The zero default user means every request MUST carry
	// X-Planner-User, which keeps auth-failure coverage honest.
	authMW := httpapi.NewDevAuthMiddleware(0)
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: authMW, Log: log})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ts := &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		clk:     clk,
	}
	ts.seed(t, memberRepo, tripRepo)
	return ts
}

// seed provisions the roster and one trip directly through the repositories;
// the API deliberately has no signup or trip-creation endpoints.
func (s *testServer) seed(t *testing.T, members memberrepoport.Repository, tripsRepo triprepoport.Repository) {
	t.Helper()
	ctx := context.Background()

	var err error
	if s.alice, err = members.Create(ctx, domain.Member{DisplayName: "Alice", Email: "alice@itest.example"}); err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	if s.bob, err = members.Create(ctx, domain.Member{DisplayName: "Bob", Email: "bob@itest.example"}); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	if s.carol, err = members.Create(ctx, domain.Member{DisplayName: "Carol", Email: "carol@itest.example"}); err != nil {
		t.Fatalf("seed carol: %v", err)
	}

	start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)
	if s.tripID, err = tripsRepo.Create(ctx, domain.Trip{
		Name:      "Lisbon long weekend",
		StartDate: &start,
		EndDate:   &end,
		CreatedAt: itestNow.Add(-72 * time.Hour),
		UpdatedAt: itestNow.Add(-72 * time.Hour),
	}); err != nil {
		t.Fatalf("seed trip: %v", err)
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) activitiesPath() string {
	return "/trips/" + strconv.FormatInt(int64(s.tripID), 10) + "/activities"
}

// doJSON sends a request as the given user; user 0 omits the auth header so
// callers can exercise the 401 path.
func (s *testServer) doJSON(t *testing.T, method string, path string, user domain.UserID, body any, header http.Header) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if user != 0 {
		req.Header.Set("X-Planner-User", strconv.FormatInt(int64(user), 10))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
