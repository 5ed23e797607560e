package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okonma/citymood/collector"
	"github.com/okonma/citymood/config"
	"github.com/okonma/citymood/db"
	"github.com/okonma/citymood/db/models"
	"github.com/okonma/citymood/db/repository"
	"github.com/okonma/citymood/db/service"
	"github.com/okonma/citymood/scheduler"
)

type stubRunner struct {
	block chan struct{}
	runs  int
}

func (r *stubRunner) RunCycle(_ context.Context) collector.CycleStats {
	r.runs++
	if r.block != nil {
		<-r.block
	}
	return collector.CycleStats{Posts: 3}
}

func newTestServer(t *testing.T, runner *stubRunner) *Server {
	t.Helper()

	database, err := db.NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.CreateDefaultConfig()
	cfg.Reddit.ClientID = "id"
	cfg.Reddit.ClientSecret = "secret"
	cfg.Cities = map[string]string{"Paris": "paris", "Tokyo": "tokyo"}

	postRepo := repository.NewPostRepository(database.DB)
	posts := service.NewPostService(postRepo)
	comments := service.NewCommentService(repository.NewCommentRepository(database.DB))

	seed := []*models.Post{
		{PostID: "p1", City: "Paris", Subreddit: "paris", Title: "good", Score: 10,
			SentimentFields: models.SentimentFields{Compound: 0.8, Label: "Positive"},
			PostedAt:        time.Now().Add(-time.Hour)},
		{PostID: "p2", City: "Paris", Subreddit: "paris", Title: "bad", Score: 50,
			SentimentFields: models.SentimentFields{Compound: -0.8, Label: "Negative"},
			PostedAt:        time.Now().Add(-2 * time.Hour)},
		{PostID: "p3", City: "Tokyo", Subreddit: "tokyo", Title: "meh", Score: 30,
			SentimentFields: models.SentimentFields{Compound: 0.0, Label: "Neutral"},
			PostedAt:        time.Now().Add(-3 * time.Hour)},
	}
	for _, p := range seed {
		if err := posts.SavePost(p); err != nil {
			t.Fatalf("seed post: %v", err)
		}
	}

	sched := scheduler.New(runner, time.Hour)
	return New(cfg, posts, comments, sched, NewHub())
}

func doGET(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	w := doGET(t, s, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestListPostsFilters(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	w := doGET(t, s, "/api/posts?city=Paris&sentiment=Negative")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Count int           `json:"count"`
		Posts []models.Post `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Posts[0].PostID != "p2" {
		t.Errorf("filtered posts = %+v, want just p2", body.Posts)
	}
}

func TestTopPostsSortedByScore(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	w := doGET(t, s, "/api/posts/top?limit=2")
	var body struct {
		Posts []models.Post `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Posts) != 2 || body.Posts[0].PostID != "p2" || body.Posts[1].PostID != "p3" {
		t.Errorf("top posts = %+v, want p2 then p3", body.Posts)
	}
}

func TestSummaryForCity(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	w := doGET(t, s, "/api/summary?city=Paris")
	var summary service.SentimentSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.TotalPosts != 2 || summary.PositiveCount != 1 || summary.NegativeCount != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.PositivePct != 50.0 {
		t.Errorf("positive pct = %v, want 50.0", summary.PositivePct)
	}
}

func TestCommentsRequirePostID(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	w := doGET(t, s, "/api/comments")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestManualCollectTrigger(t *testing.T) {
	runner := &stubRunner{}
	s := newTestServer(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/collect", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if runner.runs != 1 {
		t.Errorf("runner runs = %d, want 1", runner.runs)
	}
}

func TestManualCollectConflictsWhileRunning(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{})}
	s := newTestServer(t, runner)

	started := make(chan struct{})
	go func() {
		close(started)
		s.sched.TriggerNow()
	}()
	<-started
	// Give the goroutine a moment to enter the cycle.
	time.Sleep(50 * time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/api/collect", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}

	close(runner.block)
}
