package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkrogh/ttsync/internal/platform/logging"
	"github.com/mkrogh/ttsync/internal/platform/resilience"
)

func newTestClient(t *testing.T, handler http.Handler, breaker resilience.BreakerConfig) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		Season:         "2025/2026",
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	return client, srv
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "https://portal.example/", Logger: logging.NewNop()})

	tests := []struct {
		name  string
		path  string
		query map[string]string
		want  string
	}{
		{
			name: "plain path",
			path: "/feed/ranking",
			want: "https://portal.example/feed/ranking",
		},
		{
			name: "missing leading slash",
			path: "feed/ranking",
			want: "https://portal.example/feed/ranking",
		},
		{
			name:  "query keys sorted",
			path:  "/feed/tournaments",
			query: map[string]string{"season": "2025/2026", "page": "2"},
			want:  "https://portal.example/feed/tournaments?page=2&season=2025/2026",
		},
		{
			name:  "empty values dropped",
			path:  "/feed/tournaments",
			query: map[string]string{"season": ""},
			want:  "https://portal.example/feed/tournaments",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := client.buildURL(tt.path, tt.query); got != tt.want {
				t.Fatalf("buildURL(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for status, want := range map[int]bool{
		http.StatusOK:                  false,
		http.StatusNotFound:            false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
	} {
		if got := isRetryableStatus(status); got != want {
			t.Fatalf("isRetryableStatus(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestFetchTournamentsMapsAndTrims(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/tournaments" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("season"); got != "2025/2026" {
			t.Errorf("season query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":" T1 ","name":" DM Ungdom ","season":"2025/2026","startDate":"2025-09-14"}]}`))
	}), resilience.BreakerConfig{})

	rows, err := client.FetchTournaments(context.Background())
	if err != nil {
		t.Fatalf("FetchTournaments: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ExternalID != "T1" || rows[0].Name != "DM Ungdom" || rows[0].StartDate != "2025-09-14" {
		t.Fatalf("mapped row = %+v", rows[0])
	}
}

func TestFetchParticipantsCarriesClassKeys(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/tournaments/T1/classes/C1/participants" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"playerId":"12345","playerName":"Mads Kruse","clubName":"Brønshøj BTK","group":"Pulje 1","stage":"P","seed":"1"}]}`))
	}), resilience.BreakerConfig{})

	rows, err := client.FetchParticipants(context.Background(), "T1", "C1")
	if err != nil {
		t.Fatalf("FetchParticipants: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.TournamentExternalID != "T1" || row.ClassExternalID != "C1" {
		t.Fatalf("class keys not carried: %+v", row)
	}
	if row.PlayerExternalID != "12345" || row.GroupDescription != "Pulje 1" || row.StageCode != "P" {
		t.Fatalf("mapped row = %+v", row)
	}
}

func TestFetchNonRetryableStatusDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), resilience.BreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	if _, err := client.FetchRanking(context.Background()); err == nil {
		t.Fatal("want error on 404")
	}
	if state := client.breaker.State(); state != resilience.StateClosed {
		t.Fatalf("breaker state = %s after 404, want closed", state)
	}
}

func TestFetchServerErrorOpensBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), resilience.BreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	if _, err := client.FetchRanking(context.Background()); err == nil {
		t.Fatal("want error on 500")
	}
	if state := client.breaker.State(); state != resilience.StateOpen {
		t.Fatalf("breaker state = %s after 500, want open", state)
	}

	_, err := client.FetchTransitions(context.Background())
	if err == nil || !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("want circuit rejection, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("upstream hit %d times, want 1", hits.Load())
	}
}

func TestGetJSONRequiresBaseURL(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, err := client.FetchLicenses(context.Background()); err == nil {
		t.Fatal("want error without base url")
	}
}

func TestGetJSONDecodeFailure(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}), resilience.BreakerConfig{})

	_, err := client.FetchLicenses(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode portal response") {
		t.Fatalf("want decode error, got %v", err)
	}
}
