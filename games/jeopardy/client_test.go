/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newQuizAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("count"); got != "14" {
			t.Errorf("expected count=14, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"categories":[{"id":7,"title":"Rivers","clues_count":2},{"id":9,"title":"Potent Potables","clues_count":40}]}`))
	})

	mux.HandleFunc("/api/details/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"details":{"7":{"id":7,"title":"Rivers","clues":[
			{"id":70,"question":" It flows through Cairo ","answer":"the Nile","value":200},
			{"id":71,"question":"Longest in Europe","answer":"the Volga","value":400}]}}}`))
	})

	mux.HandleFunc("/api/details/8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"details":{}}`))
	})

	mux.HandleFunc("/api/details/9", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestAPIClientCategories(t *testing.T) {
	srv := newQuizAPI(t)
	c := NewAPIClient(srv.URL+"/api", 5*time.Second)

	got, err := c.Categories(context.Background(), CategoryPoolSize)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}

	if len(got) != 2 || got[0].ID != 7 || got[0].Title != "Rivers" || got[1].ClueCount != 40 {
		t.Errorf("unexpected categories: %+v", got)
	}
}

func TestAPIClientClues(t *testing.T) {
	srv := newQuizAPI(t)
	c := NewAPIClient(srv.URL+"/api/", 5*time.Second)

	got, err := c.Clues(context.Background(), 7)
	if err != nil {
		t.Fatalf("Clues: %v", err)
	}

	want := []Clue{
		{ID: 70, Prompt: "It flows through Cairo", Reveal: "the Nile"},
		{ID: 71, Prompt: "Longest in Europe", Reveal: "the Volga"},
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d clues, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clue %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestAPIClientMissingDetails(t *testing.T) {
	srv := newQuizAPI(t)
	c := NewAPIClient(srv.URL+"/api/", 5*time.Second)

	if _, err := c.Clues(context.Background(), 8); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestAPIClientStatusError(t *testing.T) {
	srv := newQuizAPI(t)
	c := NewAPIClient(srv.URL+"/api/", 5*time.Second)

	_, err := c.Clues(context.Background(), 9)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestAPIClientSendsHeaders(t *testing.T) {
	var got string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"categories":[]}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	c.SetHeader("User-Agent", "jeopardy-test")

	if _, err := c.Categories(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	if got != "jeopardy-test" {
		t.Errorf("expected custom user agent, got %q", got)
	}
}
