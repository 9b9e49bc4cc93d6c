package domain

import (
	"errors"
	"testing"
)

func TestSessionConfigValidate(t *testing.T) {
	t.Parallel()
	if err := (SessionConfig{RoomAddress: "wss://rooms/abc", Credential: "tok"}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	// anonymous join is allowed
	if err := (SessionConfig{RoomAddress: "wss://rooms/abc"}).Validate(); err != nil {
		t.Errorf("empty credential rejected: %v", err)
	}
	if err := (SessionConfig{}).Validate(); err == nil {
		t.Error("empty address accepted")
	}
	if err := (SessionConfig{RoomAddress: RoomAddressPlaceholder}).Validate(); !errors.Is(err, ErrNoRoomAddress) {
		t.Errorf("placeholder: err = %v, want ErrNoRoomAddress", err)
	}
}

func TestSessionConfigPending(t *testing.T) {
	t.Parallel()
	if !(SessionConfig{}).Pending() {
		t.Error("empty address not pending")
	}
	if !(SessionConfig{RoomAddress: RoomAddressPlaceholder}).Pending() {
		t.Error("placeholder not pending")
	}
	if (SessionConfig{RoomAddress: "wss://rooms/abc"}).Pending() {
		t.Error("real address reported pending")
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	cause := errors.New("socket reset")
	err := NewSessionError(ErrTransport, cause)

	if got := KindOf(err); got != ErrTransport {
		t.Errorf("KindOf = %q, want transport", got)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if got := KindOf(cause); got != "" {
		t.Errorf("unclassified error: KindOf = %q, want empty", got)
	}

	// classification survives wrapping
	wrapped := NewSessionError(ErrJoin, err)
	if got := KindOf(wrapped); got != ErrJoin {
		t.Errorf("outermost kind = %q, want join", got)
	}
}

func TestConversationRecordValidate(t *testing.T) {
	t.Parallel()
	rec := ConversationRecord{
		UserName:  "Nguyen Van An",
		BirthDate: "1985-03-29",
		Insight:   "Con số chủ đạo 1.",
		Feedback:  "no",
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	bad := rec
	bad.BirthDate = "29/03/1985"
	if err := bad.Validate(); err == nil {
		t.Error("bad birth date accepted")
	}

	bad = rec
	bad.Feedback = "maybe"
	if err := bad.Validate(); err == nil {
		t.Error("bad feedback accepted")
	}

	bad = rec
	bad.Insight = ""
	if err := bad.Validate(); err == nil {
		t.Error("empty insight accepted")
	}
}
