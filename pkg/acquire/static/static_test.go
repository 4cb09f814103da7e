package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/outreach/pkg/acquire"
)

const page = `<html><body><main><h1>John Doe</h1><button aria-expanded="false">see more</button></main></body></html>`

func server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/in/johndoe", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.UserAgent(), "Chrome") {
			http.Error(w, "bad agent", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/in/blocked", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(999)
	})
	mux.HandleFunc("/in/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func open(t *testing.T) acquire.Session {
	t.Helper()
	sess, err := New(Config{}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return sess
}

func TestSession_FetchesPage(t *testing.T) {
	srv := server(t)
	sess := open(t)
	ctx := context.Background()

	if err := sess.Navigate(ctx, srv.URL+"/in/johndoe"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if err := sess.WaitReady(ctx, "main"); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	controls, err := sess.Controls(ctx, acquire.DefaultExpansionSelector)
	if err != nil || len(controls) != 0 {
		t.Errorf("Controls() = %v, %v; want none", controls, err)
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(html, "John Doe") {
		t.Errorf("HTML() = %q", html)
	}
}

func TestSession_MissingSelector(t *testing.T) {
	srv := server(t)
	sess := open(t)

	if err := sess.Navigate(context.Background(), srv.URL+"/in/johndoe"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	err := sess.WaitReady(context.Background(), "#profile-card")
	if !errors.Is(err, ErrSelectorNotFound) {
		t.Errorf("WaitReady() error = %v, want ErrSelectorNotFound", err)
	}
}

func TestSession_ErrorStatus(t *testing.T) {
	srv := server(t)
	sess := open(t)

	err := sess.Navigate(context.Background(), srv.URL+"/in/blocked")
	if err == nil {
		t.Fatal("expected error for status 999")
	}
	if !strings.Contains(err.Error(), "999") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestSession_DeadlineIsTimeout(t *testing.T) {
	srv := server(t)
	sess := open(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sess.Navigate(ctx, srv.URL+"/in/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Navigate() error = %v, want DeadlineExceeded", err)
	}
}

func TestSession_HTMLBeforeNavigate(t *testing.T) {
	if _, err := open(t).HTML(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestAcquire_StaticEngine(t *testing.T) {
	srv := server(t)
	a := acquire.New(New(Config{}), acquire.Config{PageLoadTimeout: time.Second})

	res, err := a.Acquire(context.Background(), srv.URL+"/in/johndoe")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if res.Expanded != 0 || !strings.Contains(res.HTML, "John Doe") {
		t.Errorf("Acquire() = %+v", res)
	}
}
