package domain

import (
	"errors"
	"time"
)

// SilenceLevel is the audio level (dBFS) reported when no signal is present.
// Any state other than Publishing must read as silence regardless of the
// last forwarded level.
const SilenceLevel float64 = -160

// MaxConcurrentConversations is a product constraint: one process-wide
// conversation at a time.
const MaxConcurrentConversations = 1

const (
	MaxUserNameLen     = 100
	MaxUserQuestionLen = 500
	MaxInsightLen      = 2000
)

var ErrConversationNotFound = errors.New("conversation not found")

// Alternative is one ranked transcription hypothesis.
type Alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the speech pipeline payload delivered over the
// room's data channel. The client stores and clears it, never computes it.
type TranscriptionResult struct {
	Text         string        `json:"text"`
	IsFinal      bool          `json:"isFinal"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
	Timestamp    time.Time     `json:"timestamp"`
}

// NumerologyNumbers are the calculated values persisted with a conversation.
type NumerologyNumbers struct {
	LifePath      int `json:"lifePathNumber"`
	Destiny       int `json:"destinyNumber"`
	SoulUrge      int `json:"soulUrgeNumber"`
	Personality   int `json:"personalityNumber"`
	PersonalYear  int `json:"currentPersonalYear"`
	PersonalMonth int `json:"currentPersonalMonth"`
}

// ConversationRecord is a completed voice-numerology conversation.
type ConversationRecord struct {
	ID           string            `json:"id"`
	UserName     string            `json:"user_name" validate:"required,max=100"`
	BirthDate    string            `json:"birth_date" validate:"required,datetime=2006-01-02"`
	UserQuestion string            `json:"user_question,omitempty" validate:"max=500"`
	Numbers      NumerologyNumbers `json:"numbers_calculated"`
	Insight      string            `json:"insight_provided" validate:"required,max=2000"`
	Feedback     string            `json:"satisfaction_feedback,omitempty" validate:"omitempty,oneof=yes no"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Validate checks field constraints before the record is persisted.
func (r ConversationRecord) Validate() error {
	return validate.Struct(r)
}
