package repository

import (
	"testing"
	"time"

	"github.com/okonma/citymood/db"
	"github.com/okonma/citymood/db/models"
)

func openTestDB(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testPost(postID, city string, score int, compound float64, label string) *models.Post {
	return &models.Post{
		PostID:    postID,
		City:      city,
		Subreddit: "testsub",
		Title:     "a title",
		FullText:  "a title. some body text",
		Author:    "someone",
		Score:     score,
		SentimentFields: models.SentimentFields{
			Compound: compound,
			Label:    label,
		},
		PostedAt:  time.Now().Add(-time.Hour),
		FetchedAt: time.Now(),
	}
}

func TestPostUpsertIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	repo := NewPostRepository(database.DB)

	if err := repo.Upsert(testPost("abc", "TestCity", 5, 0.9, "Positive")); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Re-collecting the same post with a changed score must update in
	// place, never add a second row.
	if err := repo.Upsert(testPost("abc", "TestCity", 42, 0.9, "Positive")); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	posts, err := repo.List(PostFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d rows, want 1", len(posts))
	}
	if posts[0].Score != 42 {
		t.Errorf("score = %d, want 42 (update-in-place)", posts[0].Score)
	}
	if posts[0].City != "TestCity" {
		t.Errorf("city = %q, want TestCity", posts[0].City)
	}
}

func TestPostListFilters(t *testing.T) {
	database := openTestDB(t)
	repo := NewPostRepository(database.DB)

	seed := []*models.Post{
		testPost("p1", "Paris", 10, 0.8, "Positive"),
		testPost("p2", "Paris", 50, -0.7, "Negative"),
		testPost("p3", "Tokyo", 30, 0.0, "Neutral"),
	}
	for _, p := range seed {
		if err := repo.Upsert(p); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	byCity, err := repo.List(PostFilter{City: "Paris"})
	if err != nil {
		t.Fatalf("List by city: %v", err)
	}
	if len(byCity) != 2 {
		t.Errorf("Paris posts = %d, want 2", len(byCity))
	}

	negative, err := repo.List(PostFilter{Sentiment: "Negative"})
	if err != nil {
		t.Fatalf("List by sentiment: %v", err)
	}
	if len(negative) != 1 || negative[0].PostID != "p2" {
		t.Errorf("negative posts = %v, want just p2", negative)
	}

	top, err := repo.TopByScore("", 2)
	if err != nil {
		t.Fatalf("TopByScore: %v", err)
	}
	if len(top) != 2 || top[0].PostID != "p2" || top[1].PostID != "p3" {
		t.Errorf("top posts by score wrong: %v", top)
	}

	recent, err := repo.List(PostFilter{Since: time.Now().Add(-2 * time.Hour)})
	if err != nil {
		t.Fatalf("List since: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("recent posts = %d, want 3", len(recent))
	}
	old, err := repo.List(PostFilter{Since: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("List since future: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("future-filtered posts = %d, want 0", len(old))
	}
}

func TestPostCounts(t *testing.T) {
	database := openTestDB(t)
	repo := NewPostRepository(database.DB)

	for _, p := range []*models.Post{
		testPost("p1", "Paris", 10, 0.5, "Positive"),
		testPost("p2", "Paris", 20, -0.5, "Negative"),
		testPost("p3", "Paris", 30, 0.0, "Neutral"),
		testPost("p4", "Tokyo", 40, 0.9, "Positive"),
	} {
		if err := repo.Upsert(p); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	counts, err := repo.Counts("Paris")
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Total != 3 || counts.Positive != 1 || counts.Negative != 1 || counts.Neutral != 1 {
		t.Errorf("Paris counts = %+v", counts)
	}

	global, err := repo.Counts("")
	if err != nil {
		t.Fatalf("Counts global: %v", err)
	}
	if global.Total != 4 || global.Positive != 2 {
		t.Errorf("global counts = %+v", global)
	}
}

func TestCommentUpsertKeyedByExternalID(t *testing.T) {
	database := openTestDB(t)
	repo := NewCommentRepository(database.DB)

	comment := &models.Comment{
		CommentID: "c1",
		PostID:    "abc",
		City:      "TestCity",
		Subreddit: "testsub",
		Body:      "an opinion about the city",
		Score:     3,
		PostedAt:  time.Now(),
		FetchedAt: time.Now(),
	}
	if err := repo.Upsert(comment); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	updated := *comment
	updated.ID = 0
	updated.Score = 9
	if err := repo.Upsert(&updated); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("comment rows = %d, want 1", count)
	}

	got, err := repo.FindByPostID("abc", 0)
	if err != nil {
		t.Fatalf("FindByPostID: %v", err)
	}
	if len(got) != 1 || got[0].Score != 9 {
		t.Errorf("comment not updated in place: %v", got)
	}
}
