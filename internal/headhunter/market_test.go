package headhunter

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func writeJSON(t *testing.T, w http.ResponseWriter, gzipped bool, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !gzipped {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
		return
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	w.Header().Set("Content-Encoding", "gzip")
	_, _ = w.Write(buf.Bytes())
}

func newMarketServer(t *testing.T, details *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		switch {
		case r.URL.Path == SearchPath:
			if r.URL.Query().Get("text") != "React Developer" {
				t.Errorf("unexpected search text: %q", r.URL.Query().Get("text"))
			}
			page := r.URL.Query().Get("page")
			items := []map[string]any{
				{"id": "1", "name": "React Developer", "experience": map[string]any{"id": ExperienceJunior}},
				{"id": "2", "name": "Old vacancy", "archived": true},
			}
			if page == "1" {
				items = []map[string]any{
					{"id": "3", "name": "Frontend Engineer", "salary": map[string]any{"from": 18000, "to": 35000, "currency": "EGP"}},
				}
			}
			writeJSON(t, w, page == "1", map[string]any{"items": items, "pages": 2, "page": pageNumber(page), "per_page": 2})
		case strings.HasPrefix(r.URL.Path, SearchPath+"/"):
			atomic.AddInt32(details, 1)
			id := strings.TrimPrefix(r.URL.Path, SearchPath+"/")
			if id == "3" {
				http.Error(w, "gone", http.StatusNotFound)
				return
			}
			writeJSON(t, w, true, map[string]any{
				"id":         id,
				"name":       "React Developer",
				"experience": map[string]any{"id": ExperienceJunior},
				"key_skills": []map[string]any{{"name": "React"}, {"name": "Jest"}},
				"salary":     map[string]any{"from": 8000, "to": 15000, "currency": "EGP"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func pageNumber(page string) int {
	if page == "1" {
		return 1
	}
	return 0
}

func TestVacanciesEnrichesSearchResults(t *testing.T) {
	var details int32
	server := newMarketServer(t, &details)
	defer server.Close()

	client := New(zap.NewNop(), "token")
	client.APIURL = server.URL

	vacancies, err := client.Vacancies(context.Background(), " React Developer ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vacancies.Len() != 2 {
		t.Fatalf("expected archived vacancy to be excluded, got %d", vacancies.Len())
	}
	if atomic.LoadInt32(&details) != 2 {
		t.Fatalf("expected two detail requests, got %d", details)
	}

	enriched := vacancies.FindByID("1")
	if enriched == nil || len(enriched.Skills()) != 2 {
		t.Fatalf("expected vacancy 1 to carry key skills, got %+v", enriched)
	}

	snapshot := vacancies.FindByID("3")
	if snapshot == nil || !snapshot.HasSalary() || snapshot.Salary.To != 35000 {
		t.Fatalf("expected vacancy 3 to keep its search snapshot, got %+v", snapshot)
	}
}

func TestVacanciesRequiresRole(t *testing.T) {
	client := New(nil, "")
	if _, err := client.Vacancies(context.Background(), "  "); err == nil {
		t.Fatalf("expected empty role to fail")
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	var details int32
	server := newMarketServer(t, &details)
	defer server.Close()

	client := New(zap.NewNop(), "token")
	client.APIURL = server.URL
	client.Limit = 1

	vacancies, err := client.SearchVacancies(context.Background(), &SearchParams{Text: "React Developer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vacancies.Len() != 1 {
		t.Fatalf("expected limit to stop paging, got %d", vacancies.Len())
	}
}

func TestSearchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := New(zap.NewNop(), "token")
	client.APIURL = server.URL

	if _, err := client.SearchVacancies(context.Background(), &SearchParams{Text: "x"}); err == nil || !strings.Contains(err.Error(), "bad status") {
		t.Fatalf("expected bad status error, got %v", err)
	}
}

func TestGetResumeDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resumes/abc" {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, false, map[string]any{"id": "abc", "title": "Frontend Developer", "skills": "React"})
	}))
	defer server.Close()

	client := New(zap.NewNop(), "token")
	client.APIURL = server.URL

	details, err := client.GetResumeDetails(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.ID != "abc" || details.Title != "Frontend Developer" {
		t.Fatalf("unexpected details: %+v", details)
	}
	doc, err := details.Document()
	if err != nil || !strings.Contains(string(doc), `"skills": "React"`) {
		t.Fatalf("unexpected document: %s (%v)", doc, err)
	}

	if _, err := client.GetResumeDetails(context.Background(), ""); err == nil {
		t.Fatalf("expected empty id to fail")
	}
}

func TestGetMineResumes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resumes/mine" {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, false, map[string]any{
			"items": []map[string]any{
				{"id": "r1", "title": "Frontend Developer"},
				{"id": "r2", "title": "React Developer"},
			},
			"pages": 1,
		})
	}))
	defer server.Close()

	client := New(zap.NewNop(), "token")
	client.APIURL = server.URL
	if !client.HasToken() || New(nil, "").HasToken() {
		t.Fatalf("unexpected token state")
	}

	resumes, err := client.GetMineResumes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resumes.Len() != 2 {
		t.Fatalf("expected 2 resumes, got %d", resumes.Len())
	}
	if titles := resumes.Titles(); titles[0] != "Frontend Developer" || titles[1] != "React Developer" {
		t.Fatalf("unexpected titles: %v", titles)
	}
	if found := resumes.FindByTitle("React Developer"); found == nil || found.ID != "r2" {
		t.Fatalf("unexpected resume: %+v", found)
	}
	if resumes.FindByTitle("Backend Developer") != nil {
		t.Fatalf("expected no match for an unknown title")
	}
}
