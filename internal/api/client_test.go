package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apet97/worklens/internal/api"
	"github.com/apet97/worklens/internal/auth"
	"github.com/apet97/worklens/internal/model"
)

// staticAuth supplies a fixed token pointing both endpoints at the test
// server.
type staticAuth struct {
	tok auth.Token
}

func (a staticAuth) Token(ctx context.Context) (auth.Token, error) {
	return a.tok, nil
}

func newTestClient(serverURL string) (*api.Client, *model.ApiStatus) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	status := &model.ApiStatus{}
	provider := staticAuth{tok: auth.Token{
		Raw: "test-token",
		Claims: auth.Claims{
			WorkspaceID: "ws1",
			BackendURL:  serverURL,
			ReportsURL:  serverURL,
		},
	}}
	return api.New(provider, status, log), status
}

func entriesPage(n int, prefix string) []map[string]any {
	page := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		page = append(page, map[string]any{
			"id":     fmt.Sprintf("%s-%d", prefix, i),
			"userId": "u1",
			"timeInterval": map[string]any{
				"start":    "2026-03-02T09:00:00Z",
				"end":      "2026-03-02T09:30:00Z",
				"duration": 1800,
			},
		})
	}
	return page
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	// assert, not require: handlers run off the test goroutine.
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestEntriesPartialResultOnFailingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Addon-Token"))
		switch r.URL.Query().Get("page") {
		case "1":
			writeJSON(t, w, entriesPage(500, "p1"))
		case "2":
			writeJSON(t, w, entriesPage(500, "p2"))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.Entries(context.Background(), "ws1", []string{"u1"}, testStart(), testEnd())

	// Exactly the two full pages, nothing from the failed one.
	assert.Len(t, got, 1000)
	assert.Equal(t, "p1-0", got[0].ID)
	assert.Equal(t, "p2-499", got[999].ID)
}

func TestEntriesStopsOnShortPage(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(t, w, entriesPage(3, "only"))
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.Entries(context.Background(), "ws1", nil, testStart(), testEnd())
	assert.Len(t, got, 3)
	assert.Equal(t, 1, requests, "a short page ends pagination")
}

func TestEntriesRetriesSamePageAfter429(t *testing.T) {
	var pageOneHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			pageOneHits++
			if pageOneHits == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
		}
		writeJSON(t, w, entriesPage(10, "p"+r.URL.Query().Get("page")))
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.Entries(context.Background(), "ws1", nil, testStart(), testEnd())
	assert.Equal(t, 2, pageOneHits, "the rate-limited page is retried")
	assert.Len(t, got, 10)
}

func TestEntriesGivesUpAfterSecond429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.Entries(context.Background(), "ws1", nil, testStart(), testEnd())
	assert.Empty(t, got)
}

func TestEntriesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			writeJSON(t, w, entriesPage(500, "p1"))
			return
		}
		// Cancel while the page-2 request is in flight and hold the
		// response until the client aborts.
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.Entries(ctx, "ws1", nil, testStart(), testEnd())
	assert.Len(t, got, 500, "cancellation returns what was accumulated, without error")
}

func TestEntriesCancelledBeforeFirstRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued after cancellation")
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.Entries(ctx, "ws1", nil, testStart(), testEnd())
	assert.Empty(t, got)
}

func TestDetailedReportNormalizesShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/workspaces/ws1/reports/detailed"))

		var body struct {
			AmountShown    string   `json:"amountShown"`
			Amounts        []string `json:"amounts"`
			DetailedFilter struct {
				Page     int `json:"page"`
				PageSize int `json:"pageSize"`
			} `json:"detailedFilter"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "EARNED", body.AmountShown)
		assert.Equal(t, []string{"EARNED", "COST", "PROFIT"}, body.Amounts)
		assert.Equal(t, 200, body.DetailedFilter.PageSize)

		// Legacy field spelling and a seconds duration.
		writeJSON(t, w, map[string]any{
			"timeentries": []map[string]any{
				{
					"_id":    "e1",
					"userId": "u1",
					"timeInterval": map[string]any{
						"start":    "2026-03-02T09:00:00Z",
						"end":      "2026-03-02T10:00:00Z",
						"duration": 3600,
					},
				},
				{
					"id":     "e2",
					"userId": "u1",
					"timeInterval": map[string]any{
						"start":    "2026-03-02T11:00:00Z",
						"end":      "2026-03-02T11:30:00Z",
						"duration": "PT30M",
					},
				},
			},
		})
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.DetailedReport(context.Background(), "ws1", testStart(), testEnd())
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "PT1H", got[0].Duration)
	assert.Equal(t, "PT30M", got[1].Duration)
}

func TestDetailedReportEmptyOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	got := client.DetailedReport(context.Background(), "ws1", testStart(), testEnd())
	assert.Empty(t, got)
}

func TestUsersErrorIsExplicit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	users, err := client.Users(context.Background(), "ws1")
	assert.Empty(t, users)
	assert.Error(t, err, "an empty result caused by a failure carries an error")
}

func TestUsersEmptyWorkspace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{})
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	users, err := client.Users(context.Background(), "ws1")
	require.NoError(t, err, "a genuinely empty workspace is not an error")
	assert.Empty(t, users)
}

func TestAllProfilesPartialFailure(t *testing.T) {
	failing := map[string]bool{"u2": true, "u4": true}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		userID := parts[len(parts)-1]
		if failing[userID] {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, map[string]any{
			"workCapacity": "PT8H",
			"workingDays":  []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"},
		})
	}))
	defer srv.Close()

	client, status := newTestClient(srv.URL)
	users := []model.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}, {ID: "u4"}, {ID: "u5"}}
	profiles := client.AllProfiles(context.Background(), "ws1", users)

	assert.Len(t, profiles, 3, "only successful fetches appear")
	assert.Contains(t, profiles, "u1")
	assert.NotContains(t, profiles, "u2")

	snapshot := status.Snapshot()
	assert.Equal(t, 5, snapshot.ProfilesAttempted)
	assert.Equal(t, 2, snapshot.ProfilesFailed)
	assert.NotEmpty(t, snapshot.LastError)
}

func TestCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/holidays"):
			writeJSON(t, w, []map[string]any{
				{"name": "Founding Day", "datePeriod": map[string]any{"startDate": "2026-03-03", "endDate": "2026-03-04"}},
			})
		case strings.Contains(r.URL.Path, "/time-off"):
			writeJSON(t, w, map[string]any{
				"requests": []map[string]any{
					{
						"userId": "u1",
						"status": map[string]any{"statusType": "APPROVED"},
						"timeOffPeriod": map[string]any{"period": map[string]any{
							"start": "2026-03-05T00:00:00Z",
							"end":   "2026-03-05T23:59:59Z",
						}},
					},
					{
						"userId": "u2",
						"status": map[string]any{"statusType": "REJECTED"},
						"timeOffPeriod": map[string]any{"period": map[string]any{
							"start": "2026-03-05T00:00:00Z",
							"end":   "2026-03-05T23:59:59Z",
						}},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, _ := newTestClient(srv.URL)
	cal := client.Calendar(context.Background(), "ws1", testStart(), testEnd())

	assert.True(t, cal.ZeroCapacity("u1", "2026-03-03"), "holiday applies to everyone")
	assert.True(t, cal.ZeroCapacity("u2", "2026-03-04"))
	assert.True(t, cal.ZeroCapacity("u1", "2026-03-05"), "approved time off")
	assert.False(t, cal.ZeroCapacity("u2", "2026-03-05"), "rejected time off is ignored")
	assert.False(t, cal.ZeroCapacity("u1", "2026-03-06"))
}

func testStart() time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}

func testEnd() time.Time {
	return time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC)
}
