package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/chronoreply/internal/gmail"
)

func newTestClient(t *testing.T, mux *http.ServeMux) gc.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	svc, err := gmail.NewService(
		context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewGoogleAPIClient(svc)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestListUnreadSendsQuery(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		writeJSON(t, w, map[string]any{
			"messages":      []map[string]string{{"id": "m1", "threadId": "t1"}, {"id": "m2", "threadId": "t2"}},
			"nextPageToken": "ignored",
		})
	})
	client := newTestClient(t, mux)

	ids, err := client.ListUnread(context.Background(), gc.Query{Raw: "is:unread"})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if gotQuery != "is:unread" {
		t.Fatalf("query %q", gotQuery)
	}
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestListUnreadEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"resultSizeEstimate": 0})
	})
	client := newTestClient(t, mux)

	ids, err := client.ListUnread(context.Background(), gc.Query{Raw: "is:unread"})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestGetMessageKeepsHeaderOrder(t *testing.T) {
	var gotFormat string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		gotFormat = r.URL.Query().Get("format")
		writeJSON(t, w, map[string]any{
			"id":       "m1",
			"threadId": "t1",
			"payload": map[string]any{
				"headers": []map[string]string{
					{"name": "From", "value": "Alice <a@x.com>"},
					{"name": "Subject", "value": "Hi"},
					{"name": "In-Reply-To", "value": "<1@x>"},
					{"name": "In-Reply-To", "value": "<2@x>"},
				},
			},
		})
	})
	client := newTestClient(t, mux)

	msg, err := client.GetMessage(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if gotFormat != "metadata" {
		t.Fatalf("format %q", gotFormat)
	}
	if msg.ThreadID != "t1" || msg.Subject != "Hi" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(msg.Headers) != 4 || msg.Headers[0].Name != "From" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	if msg.Headers.Count("In-Reply-To") != 2 {
		t.Fatalf("expected duplicate In-Reply-To headers to survive")
	}
}

func TestCreateLabelAndModifyThread(t *testing.T) {
	var (
		created  gmail.Label
		modified gmail.ModifyThreadRequest
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /gmail/v1/users/me/labels", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			t.Errorf("decode label: %v", err)
		}
		writeJSON(t, w, map[string]any{
			"id":                    "Label_9",
			"name":                  created.Name,
			"labelListVisibility":   created.LabelListVisibility,
			"messageListVisibility": created.MessageListVisibility,
		})
	})
	mux.HandleFunc("POST /gmail/v1/users/me/threads/t1/modify", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&modified); err != nil {
			t.Errorf("decode modify: %v", err)
		}
		writeJSON(t, w, map[string]any{"id": "t1"})
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	label, err := client.CreateLabel(ctx, "Vacation Auto-Replies", gc.VisibilityShown)
	if err != nil {
		t.Fatalf("create label: %v", err)
	}
	if label.ID != "Label_9" || label.Visibility != gc.VisibilityShown {
		t.Fatalf("unexpected label %+v", label)
	}
	if created.LabelListVisibility != "labelShow" || created.MessageListVisibility != "show" {
		t.Fatalf("unexpected visibility in request %+v", created)
	}

	if err := client.ModifyThreadLabels(ctx, "t1", []gc.LabelID{label.ID}, nil); err != nil {
		t.Fatalf("modify thread: %v", err)
	}
	if len(modified.AddLabelIds) != 1 || modified.AddLabelIds[0] != "Label_9" {
		t.Fatalf("unexpected add ids %v", modified.AddLabelIds)
	}
	if len(modified.RemoveLabelIds) != 0 {
		t.Fatalf("expected no removals, got %v", modified.RemoveLabelIds)
	}
}

func TestListLabelsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/labels", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})
	client := newTestClient(t, mux)

	if _, err := client.ListLabels(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
