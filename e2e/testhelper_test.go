package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/fixlane/api/internal/auth"
	"github.com/fixlane/api/internal/client"
	"github.com/fixlane/api/internal/config"
	"github.com/fixlane/api/internal/handler"
	"github.com/fixlane/api/internal/ledger"
	"github.com/fixlane/api/internal/middleware"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/service"
	"github.com/fixlane/api/internal/store"
)

const testJWTSecret = "test-secret-for-e2e"

// fakeUpstream is an in-memory stand-in for the remote job API. It speaks
// the flat-record wire format: contractorProgress is carried as three
// scalar fields, never as a nested object.
type fakeUpstream struct {
	mu      sync.Mutex
	records map[string]map[string]interface{}
	nextID  int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{records: make(map[string]map[string]interface{})}
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /jobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		list := make([]map[string]interface{}, 0, len(f.records))
		for _, rec := range f.records {
			list = append(list, rec)
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		rec := readRecord(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		rec["id"] = fmt.Sprintf("up-%d", f.nextID)
		f.records[rec["id"].(string)] = rec
		writeJSON(w, http.StatusCreated, rec)
	})

	mux.HandleFunc("PUT /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		rec := readRecord(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.records[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": map[string]string{"message": "no such record"},
			})
			return
		}
		rec["id"] = id
		f.records[id] = rec
		writeJSON(w, http.StatusOK, rec)
	})

	mux.HandleFunc("POST /jobs/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		body := readRecord(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		rec, ok := f.records[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": map[string]string{"message": "no such record"},
			})
			return
		}
		rec["status"] = "InProgress"
		rec["assignedContractorId"] = body["contractorId"]
		rec["contractorProgress_currentStep"] = 1
		rec["contractorProgress_acknowledged"] = false
		rec["contractorProgress_lastUpdated"] = "2025-03-01T00:00:00Z"
		writeJSON(w, http.StatusOK, rec)
	})

	return mux
}

func readRecord(r *http.Request) map[string]interface{} {
	var rec map[string]interface{}
	json.NewDecoder(r.Body).Decode(&rec)
	if rec == nil {
		rec = make(map[string]interface{})
	}
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// testApp holds all components needed for testing
type testApp struct {
	app      *fiber.App
	upstream *fakeUpstream
}

// setupApp creates a Fiber app wired like main.go, but against an in-process
// fake upstream, an in-memory ledger and legacy HMAC auth only.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	upstream := newFakeUpstream()
	srv := httptest.NewServer(upstream.handler())
	t.Cleanup(srv.Close)

	// Redis (localhost — rate limiting fails open when absent)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	validate := validator.New()

	jobAPIClient := client.NewJobAPIClient(&config.JobAPIConfig{
		BaseURL: srv.URL,
		Timeout: 5,
	})

	jobStore := store.New()
	completedLedger := ledger.NewMemoryLedger()
	jobService := service.NewJobService(jobStore, jobAPIClient, completedLedger, nil, nil)

	jobHandler := handler.NewJobHandler(jobService, validate)
	progressHandler := handler.NewProgressHandler(jobService, validate)
	contractorHandler := handler.NewContractorHandler(jobService)
	authHandler := handler.NewAuthHandler(nil, testJWTSecret)

	// Auth middleware — legacy HMAC only
	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "jobs": jobStore.Len()})
	})
	app.Get("/auth/verify", authHandler.Verify)

	api := app.Group("/api", authMiddleware.Authenticate())

	// Use very high rate limits so tests don't get blocked
	jobs := api.Group("/jobs")
	jobs.Post("/", rateLimiter.CreateLimit(10000), middleware.RequireRole(model.RoleCustomer), jobHandler.Create)
	jobs.Get("/", jobHandler.List)
	jobs.Post("/refresh", rateLimiter.RefreshLimit(10000), jobHandler.Refresh)
	jobs.Get("/:jobId", jobHandler.Get)
	jobs.Put("/:jobId", jobHandler.Update)

	jobs.Post("/:jobId/assign", rateLimiter.AssignLimit(10000), middleware.RequireRole(model.RoleContractor), progressHandler.Assign)
	jobs.Post("/:jobId/acknowledge", rateLimiter.ProgressLimit(10000), middleware.RequireRole(model.RoleContractor), progressHandler.Acknowledge)
	jobs.Post("/:jobId/advance", rateLimiter.ProgressLimit(10000), middleware.RequireRole(model.RoleContractor), progressHandler.Advance)
	jobs.Post("/:jobId/complete", rateLimiter.ProgressLimit(10000), middleware.RequireRole(model.RoleContractor), progressHandler.Complete)

	contractors := api.Group("/contractors")
	contractors.Get("/:contractorId/completed", contractorHandler.Completed)

	return &testApp{app: app, upstream: upstream}
}

// tokenFor creates a legacy HMAC JWT token carrying the given identity.
func tokenFor(t *testing.T, userID, email, profileID string, role model.Role) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID:    userID,
		Email:     email,
		ProfileID: profileID,
		Role:      string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "fixlane-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

func customerToken(t *testing.T) string {
	return tokenFor(t, "customer-1", "dana@example.com", "6", model.RoleCustomer)
}

func contractorToken(t *testing.T) string {
	return tokenFor(t, "contractor-9", "mike@example.com", "", model.RoleContractor)
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs a request authenticated with the given token.
func doAuthRequest(t *testing.T, app *fiber.App, token, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertErrorCode checks the error envelope code.
func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}

func validCreateBody() string {
	return `{
		"jobName": "Repaint living room",
		"propertyAddress": "12 Elm St",
		"city": "Austin",
		"trade": "painting",
		"estimatedPay": "450",
		"description": "Two coats, eggshell finish",
		"customerName": "Dana Reed"
	}`
}

// createJob posts a job as the default customer and returns its id.
func createJob(t *testing.T, ta *testApp) string {
	t.Helper()
	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodPost, "/api/jobs", validCreateBody())
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
	result := parseJSON(t, resp)
	jobID, _ := result["id"].(string)
	if jobID == "" {
		t.Fatal("expected a server-issued job id")
	}
	return jobID
}
