package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

func TestHTTPRecordStoreGetComposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Composition/comp-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"resourceType":"Composition","id":"comp-1","status":"final"}`))
	}))
	defer srv.Close()

	store := NewHTTPRecordStore(srv.URL, srv.Client())
	comp, err := store.GetComposition(context.Background(), "Bearer token-1", "comp-1")
	if err != nil {
		t.Fatalf("GetComposition: %v", err)
	}
	if comp.ID != "comp-1" || comp.Status != "final" {
		t.Fatalf("unexpected composition: %+v", comp)
	}
}

func TestHTTPRecordStoreGetTaskByFocus(t *testing.T) {
	t.Run("SearchsetFirstEntry", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/Task" || r.URL.Query().Get("focus") != "Composition/comp-1" {
				t.Errorf("unexpected request %q %q", r.URL.Path, r.URL.RawQuery)
			}
			w.Write([]byte(`{
				"resourceType": "Bundle",
				"type": "searchset",
				"entry": [{"resource": {"resourceType": "Task", "id": "task-1", "status": "requested"}}]
			}`))
		}))
		defer srv.Close()

		store := NewHTTPRecordStore(srv.URL, srv.Client())
		task, err := store.GetTaskByFocus(context.Background(), "", "comp-1")
		if err != nil {
			t.Fatalf("GetTaskByFocus: %v", err)
		}
		if task.ID != "task-1" {
			t.Fatalf("unexpected task: %+v", task)
		}
	})

	t.Run("EmptySearchset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"resourceType":"Bundle","type":"searchset"}`))
		}))
		defer srv.Close()

		store := NewHTTPRecordStore(srv.URL, srv.Client())
		if _, err := store.GetTaskByFocus(context.Background(), "", "comp-1"); err == nil {
			t.Fatal("expected error for empty searchset")
		}
	})
}

func TestHTTPRecordStoreUpdates(t *testing.T) {
	var gotMethod, gotPath string
	var gotTask fhir.Task
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotTask); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	store := NewHTTPRecordStore(srv.URL, srv.Client())
	task := &fhir.Task{ResourceType: "Task", ID: "task-1", Status: "requested"}
	if err := store.UpdateTask(context.Background(), "", task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/Task/task-1" {
		t.Fatalf("expected PUT /Task/task-1, got %s %s", gotMethod, gotPath)
	}
	if gotTask.ID != "task-1" {
		t.Fatalf("unexpected task body: %+v", gotTask)
	}

	comp := &fhir.Composition{ResourceType: "Composition", ID: "comp-1"}
	if err := store.UpdateComposition(context.Background(), "", comp); err != nil {
		t.Fatalf("UpdateComposition: %v", err)
	}
	if gotPath != "/Composition/comp-1" {
		t.Fatalf("expected /Composition/comp-1, got %s", gotPath)
	}
}

func TestHTTPRecordStoreErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	store := NewHTTPRecordStore(srv.URL, srv.Client())
	if _, err := store.GetComposition(context.Background(), "", "comp-1"); err == nil {
		t.Fatal("expected error for non-200 read")
	}
	if err := store.UpdateTask(context.Background(), "", &fhir.Task{ID: "t1"}); err == nil {
		t.Fatal("expected error for non-200 write")
	}
}
