package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type schoolDoc struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Contact  string `json:"contact"`
	EmailID  string `json:"email_id"`
	ImageURL string `json:"image_url"`
}

type schoolPageDoc struct {
	Items      []schoolDoc `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func TestSchoolListReturnsSeededDirectory(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	resp, body := env.doJSON(t, http.MethodGet, "/api/v1/schools", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list failed: status=%d body=%q", resp.StatusCode, body)
	}
	var page schoolPageDoc
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("expected the 3 seeded schools, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Page != 1 || page.PageSize != 20 {
		t.Fatalf("unexpected default paging: %+v", page)
	}
}

func TestSchoolListPagination(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	resp, body := env.doJSON(t, http.MethodGet, "/api/v1/schools?page=1&page_size=2", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list page 1 failed: %d", resp.StatusCode)
	}
	var page schoolPageDoc
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 2 || page.TotalPages != 2 {
		t.Fatalf("expected 2 items over 2 pages, got %+v", page)
	}

	resp, body = env.doJSON(t, http.MethodGet, "/api/v1/schools?page=2&page_size=2", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list page 2 failed: %d", resp.StatusCode)
	}
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item on the last page, got %d", len(page.Items))
	}
}

func TestSchoolMutationsRequireSession(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/v1/schools", map[string]string{"name": "X"}},
		{http.MethodPatch, "/api/v1/schools/1", map[string]string{"city": "X"}},
		{http.MethodDelete, "/api/v1/schools/1", nil},
	}
	for _, tc := range cases {
		resp, body := env.doJSON(t, tc.method, tc.path, tc.body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s without session: expected 401, got %d body=%q", tc.method, tc.path, resp.StatusCode, body)
		}
	}
}

func TestSchoolCreateUpdateDelete(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()
	env.signIn(t, "admin@school.example")

	input := map[string]string{
		"name":     "Lakeside International School",
		"address":  "21 Shore Drive",
		"city":     "Chennai",
		"state":    "Tamil Nadu",
		"contact":  "+91 9812345678",
		"email_id": "office@lakeside.example",
	}
	req := multipartSchoolRequest(t, env.baseURL, http.MethodPost, "/api/v1/schools", input, "lakeside.png", pngBytes(64))
	resp, body := env.do(t, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create failed: status=%d body=%q", resp.StatusCode, body)
	}
	var created schoolDoc
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode created school: %v", err)
	}
	if created.ID == 0 || created.Name != input["name"] {
		t.Fatalf("unexpected created school: %+v", created)
	}

	path := fmt.Sprintf("/api/v1/schools/%d", created.ID)
	resp, body = env.doJSON(t, http.MethodPatch, path, map[string]string{"city": "Coimbatore"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update failed: status=%d body=%q", resp.StatusCode, body)
	}
	var updated schoolDoc
	if err := json.Unmarshal([]byte(body), &updated); err != nil {
		t.Fatalf("decode updated school: %v", err)
	}
	if updated.City != "Coimbatore" || updated.Name != input["name"] {
		t.Fatalf("patch should change only the city: %+v", updated)
	}

	resp, _ = env.doJSON(t, http.MethodDelete, path, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete failed: %d", resp.StatusCode)
	}

	resp, body = env.doJSON(t, http.MethodGet, path, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%q", resp.StatusCode, body)
	}
	if errEnv := decodeErrorEnvelope(t, body); errEnv.Error == nil || errEnv.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND envelope, got %q", body)
	}
}

func TestSchoolCreateValidatesInput(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()
	env.signIn(t, "admin@school.example")

	resp, body := env.doJSON(t, http.MethodPost, "/api/v1/schools", map[string]string{"name": ""}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d body=%q", resp.StatusCode, body)
	}
	if errEnv := decodeErrorEnvelope(t, body); errEnv.Error == nil || errEnv.Error.Code != "BAD_REQUEST" {
		t.Fatalf("expected BAD_REQUEST envelope, got %q", body)
	}

	// All fields present but no image part: still rejected.
	complete := map[string]string{
		"name":     "Imageless Academy",
		"address":  "1 Plain Street",
		"city":     "Nagpur",
		"state":    "Maharashtra",
		"contact":  "+91 9800011122",
		"email_id": "office@imageless.example",
	}
	resp, body = env.doJSON(t, http.MethodPost, "/api/v1/schools", complete, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without an image, got %d body=%q", resp.StatusCode, body)
	}
	if errEnv := decodeErrorEnvelope(t, body); errEnv.Error == nil || !strings.Contains(errEnv.Error.Message, "image is required") {
		t.Fatalf("expected image requirement in the message, got %q", body)
	}
}

func TestSchoolGetUnknownIDIs404(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	resp, body := env.doJSON(t, http.MethodGet, "/api/v1/schools/99999", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%q", resp.StatusCode, body)
	}
}
