package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/okonma/citymood/config"
)

func testConfig() *config.Config {
	cfg := config.CreateDefaultConfig()
	cfg.Reddit.ClientID = "id"
	cfg.Reddit.ClientSecret = "secret"
	cfg.Collection.MaxPostsPerFetch = 9
	cfg.Collection.MinCommentLength = 10
	cfg.Collection.MaxCommentsPerPost = 2
	return cfg
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(testConfig())
	c.baseURL = server.URL
	c.tokenURL = server.URL + "/api/v1/access_token"
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c, server
}

func serveToken(w http.ResponseWriter) {
	fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
}

func postChild(id, title, selftext string, score int) string {
	return fmt.Sprintf(`{"kind":"t3","data":{"id":%q,"subreddit":"testsub","title":%q,"selftext":%q,"author":"someone","score":%d,"upvote_ratio":0.9,"num_comments":2,"permalink":"/r/testsub/%s","url":"https://example.com","created_utc":1700000000}}`,
		id, title, selftext, score, id)
}

func TestFetchPostsDedupesAcrossFeeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
			t.Errorf("token request missing basic auth: %q %q", user, pass)
		}
		serveToken(w)
	})
	mux.HandleFunc("/r/testsub/hot", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[%s,%s]}}`,
			postChild("a", "first", "body text here", 10),
			postChild("b", "second", "", 5))
	})
	mux.HandleFunc("/r/testsub/new", func(w http.ResponseWriter, r *http.Request) {
		// "a" repeats and must be deduplicated.
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[%s]}}`,
			postChild("a", "first", "body text here", 10))
	})
	mux.HandleFunc("/r/testsub/top", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("t"); got != "week" {
			t.Errorf("top feed time filter = %q, want week", got)
		}
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[%s]}}`,
			postChild("c", "third", "", 1))
	})

	client, _ := newTestClient(t, mux)

	posts, err := client.FetchPosts(context.Background(), "testsub")
	if err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3 (deduplicated)", len(posts))
	}
	if posts[0].ID != "a" || posts[0].Source != "hot" {
		t.Errorf("first post = %+v", posts[0])
	}
	if posts[2].Source != "top" {
		t.Errorf("last post source = %q, want top", posts[2].Source)
	}
}

func TestGetJSONRetriesOn429(t *testing.T) {
	var attempts int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		serveToken(w)
	})
	mux.HandleFunc("/r/testsub/hot", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[%s]}}`,
			postChild("a", "first", "", 1))
	})
	mux.HandleFunc("/r/testsub/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kind":"Listing","data":{"children":[]}}`)
	})
	mux.HandleFunc("/r/testsub/top", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kind":"Listing","data":{"children":[]}}`)
	})

	client, _ := newTestClient(t, mux)

	posts, err := client.FetchPosts(context.Background(), "testsub")
	if err != nil {
		t.Fatalf("FetchPosts after 429: %v", err)
	}
	if attempts != 2 {
		t.Errorf("hot feed attempts = %d, want 2 (one retry)", attempts)
	}
	if len(posts) != 1 {
		t.Errorf("got %d posts, want 1", len(posts))
	}
}

func TestFetchCommentsFlattensFiltersAndCaps(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		serveToken(w)
	})
	mux.HandleFunc("/r/testsub/comments/p1", func(w http.ResponseWriter, r *http.Request) {
		// Post listing, then comments: one with a nested reply, one too
		// short to keep, one low-scored leaf.
		fmt.Fprint(w, `[
		 {"kind":"Listing","data":{"children":[]}},
		 {"kind":"Listing","data":{"children":[
		  {"kind":"t1","data":{"id":"c1","author":"u1","body":"a long enough comment","score":5,"depth":0,"created_utc":1700000000,"permalink":"/c1",
		    "replies":{"kind":"Listing","data":{"children":[
		      {"kind":"t1","data":{"id":"c2","author":"u2","body":"another long enough reply","score":8,"depth":1,"created_utc":1700000001,"permalink":"/c2","replies":""}}
		    ]}}}},
		  {"kind":"t1","data":{"id":"c3","author":"u3","body":"short","score":100,"depth":0,"created_utc":1700000002,"permalink":"/c3","replies":""}},
		  {"kind":"t1","data":{"id":"c4","author":"u4","body":"yet another long comment","score":1,"depth":0,"created_utc":1700000003,"permalink":"/c4","replies":""}}
		 ]}}
		]`)
	})

	client, _ := newTestClient(t, mux)

	comments, err := client.FetchComments(context.Background(), "testsub", "p1")
	if err != nil {
		t.Fatalf("FetchComments: %v", err)
	}
	// Cap is 2; the short "c3" is dropped despite its score; highest
	// scores win: c2 (8) then c1 (5).
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].ID != "c2" || comments[1].ID != "c1" {
		t.Errorf("comment order = %s, %s; want c2, c1", comments[0].ID, comments[1].ID)
	}
	for _, c := range comments {
		if c.PostID != "p1" {
			t.Errorf("comment %s parent = %q, want p1", c.ID, c.PostID)
		}
	}
}

func TestTokenIsCached(t *testing.T) {
	var tokenRequests int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		serveToken(w)
	})
	mux.HandleFunc("/r/testsub/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"display_name":"testsub","subscribers":42}}`)
	})

	client, _ := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		if err := client.TestConnection(context.Background(), "testsub"); err != nil {
			t.Fatalf("TestConnection: %v", err)
		}
	}
	if tokenRequests != 1 {
		t.Errorf("token requests = %d, want 1 (cached)", tokenRequests)
	}
}
