package e2e

import (
	"net/http"
	"testing"
)

func TestCreateJob_Success(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodPost, "/api/jobs", validCreateBody())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusCreated)

	result := parseJSON(t, resp)
	if result["status"] != "Open" {
		t.Errorf("expected status Open, got %v", result["status"])
	}
	// The session profile id fills the omitted body field.
	if result["profileId"] != "6" {
		t.Errorf("expected profileId 6 from the session, got %v", result["profileId"])
	}
	if result["contractorProgress"] != nil {
		t.Error("new job must carry no contractor progress")
	}
}

func TestCreateJob_InvalidTrade(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"jobName": "Repaint living room",
		"propertyAddress": "12 Elm St",
		"city": "Austin",
		"trade": "alchemy",
		"estimatedPay": "450",
		"description": "Two coats"
	}`
	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodPost, "/api/jobs", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, resp), "VALIDATION_ERROR")
}

func TestCreateJob_ContractorForbidden(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, contractorToken(t), http.MethodPost, "/api/jobs", validCreateBody())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusForbidden)
}

func TestListJobs_CustomerSeesOwnJobs(t *testing.T) {
	ta := setupApp(t)
	jobID := createJob(t, ta)

	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodGet, "/api/jobs", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["count"].(float64) != 1 {
		t.Fatalf("expected 1 job, got %v", result["count"])
	}
	jobs := result["jobs"].([]interface{})
	if jobs[0].(map[string]interface{})["id"] != jobID {
		t.Errorf("expected job %s in the customer projection", jobID)
	}

	// Another customer sees nothing.
	other := tokenFor(t, "customer-2", "sam@example.com", "7", "customer")
	resp, err = doAuthRequest(t, ta.app, other, http.MethodGet, "/api/jobs", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	result = parseJSON(t, resp)
	if result["count"].(float64) != 0 {
		t.Errorf("expected empty projection for another customer, got %v", result["count"])
	}
}

func TestListJobs_AvailableByTrade(t *testing.T) {
	ta := setupApp(t)
	createJob(t, ta)

	resp, err := doAuthRequest(t, ta.app, contractorToken(t), http.MethodGet, "/api/jobs?available=true&trade=painting", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if parseJSON(t, resp)["count"].(float64) != 1 {
		t.Error("expected the painting job in the available pool")
	}

	resp, err = doAuthRequest(t, ta.app, contractorToken(t), http.MethodGet, "/api/jobs?available=true&trade=roofing", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if parseJSON(t, resp)["count"].(float64) != 0 {
		t.Error("expected no roofing jobs")
	}
}

func TestGetJob_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodGet, "/api/jobs/missing", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
	assertErrorCode(t, parseJSON(t, resp), "NOT_FOUND")
}

func TestUpdateJob_BackwardStatusRejected(t *testing.T) {
	ta := setupApp(t)
	jobID := createJob(t, ta)

	// Open → Complete skips InProgress.
	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodPut, "/api/jobs/"+jobID, `{"status": "Complete"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, resp), "INVALID_TRANSITION")
}

func TestUpdateJob_FieldMerge(t *testing.T) {
	ta := setupApp(t)
	jobID := createJob(t, ta)

	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodPut, "/api/jobs/"+jobID, `{"estimatedPay": "500"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["estimatedPay"] != "500" {
		t.Errorf("expected merged estimatedPay, got %v", result["estimatedPay"])
	}
	if result["jobName"] != "Repaint living room" {
		t.Errorf("untouched fields must survive the merge, got %v", result["jobName"])
	}
}

func TestRefresh_ReloadsSnapshot(t *testing.T) {
	ta := setupApp(t)
	createJob(t, ta)

	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodPost, "/api/jobs/refresh", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	if result["count"].(float64) != 1 {
		t.Errorf("expected 1 job after refresh, got %v", result["count"])
	}
}
