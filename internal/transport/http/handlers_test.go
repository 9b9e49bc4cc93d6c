package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hieutrtr/numerologist-sub002/internal/config"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{Mode: "release", Secret: "test-secret", RoomBaseURL: "https://rooms.test"}
	return SetupRouter(cfg, NewAPI(cfg.RoomBaseURL))
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateVoiceRoom(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/conversations/voice", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var room voiceRoomResponse
	if err := json.Unmarshal(w.Body.Bytes(), &room); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(room.RoomURL, "https://rooms.test/rooms/") {
		t.Errorf("RoomURL = %q", room.RoomURL)
	}
	if room.Token == "" {
		t.Error("empty token")
	}
	if !room.ExpiresAt.After(time.Now()) {
		t.Errorf("ExpiresAt = %v, not in the future", room.ExpiresAt)
	}
}

func TestNumerologyProfile(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/numerology", map[string]string{
		"full_name":  "Nguyen Van An",
		"birth_date": "1985-03-29",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp numerologyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Numbers.LifePath != 1 {
		t.Errorf("LifePath = %d, want 1", resp.Numbers.LifePath)
	}
	if resp.Numbers.Personality != 11 {
		t.Errorf("Personality = %d, want 11", resp.Numbers.Personality)
	}
	if len(resp.Interpretations) != 4 {
		t.Errorf("interpretations = %d entries, want 4", len(resp.Interpretations))
	}
	if resp.Interpretations["life_path"] == "" {
		t.Error("life_path interpretation empty")
	}
}

func TestNumerologyRejectsBadDate(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/numerology", map[string]string{
		"full_name":  "Nguyen Van An",
		"birth_date": "29-03-1985",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func validRecord() domain.ConversationRecord {
	return domain.ConversationRecord{
		UserName:  "Nguyen Van An",
		BirthDate: "1985-03-29",
		Numbers:   domain.NumerologyNumbers{LifePath: 1, Destiny: 3, SoulUrge: 1, Personality: 11},
		Insight:   "Con số chủ đạo 1: người tiên phong.",
		Feedback:  "yes",
	}
}

func TestConversationRoundTrip(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/conversations", validRecord(), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()

	var saved domain.ConversationRecord
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" {
		t.Fatal("saved record has no ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("saved record has no CreatedAt")
	}

	w = doJSON(t, r, http.MethodGet, "/api/conversations/"+saved.ID, nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", w.Code, w.Body.String())
	}

	// another client must not see it
	w = doJSON(t, r, http.MethodGet, "/api/conversations/"+saved.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/conversations", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}
}

func TestSaveConversationValidation(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	rec := validRecord()
	rec.UserName = ""
	if w := doJSON(t, r, http.MethodPost, "/api/conversations", rec, nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", w.Code)
	}

	rec = validRecord()
	rec.Feedback = "maybe"
	if w := doJSON(t, r, http.MethodPost, "/api/conversations", rec, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad feedback: status = %d, want 400", w.Code)
	}
}
