package provision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

func TestCreateVoiceRoom(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/conversations/voice" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(VoiceRoom{
			RoomURL:   "wss://rooms.test/rooms/abc",
			Token:     "tok-123",
			ExpiresAt: time.Now().Add(time.Hour),
		})
	}))
	defer srv.Close()

	cfg, err := NewClient(srv.URL).CreateVoiceRoom(context.Background())
	if err != nil {
		t.Fatalf("CreateVoiceRoom: %v", err)
	}
	if cfg.RoomAddress != "wss://rooms.test/rooms/abc" {
		t.Errorf("RoomAddress = %q", cfg.RoomAddress)
	}
	if cfg.Credential != "tok-123" {
		t.Errorf("Credential = %q", cfg.Credential)
	}
}

func TestCreateVoiceRoomErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room quota exceeded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).CreateVoiceRoom(context.Background()); err == nil {
		t.Fatal("error status not surfaced")
	}
}

func TestSaveConversationValidatesFirst(t *testing.T) {
	t.Parallel()
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).SaveConversation(context.Background(), domain.ConversationRecord{})
	if err == nil {
		t.Fatal("invalid record accepted")
	}
	if called {
		t.Error("invalid record reached the server")
	}
}

func TestSaveConversationRoundTrip(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec domain.ConversationRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode: %v", err)
		}
		rec.ID = "conv-1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rec)
	}))
	defer srv.Close()

	saved, err := NewClient(srv.URL).SaveConversation(context.Background(), domain.ConversationRecord{
		UserName:  "Nguyen Van An",
		BirthDate: "1985-03-29",
		Insight:   "Con số chủ đạo 1.",
	})
	if err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}
	if saved.ID != "conv-1" {
		t.Errorf("ID = %q, want conv-1", saved.ID)
	}
}
