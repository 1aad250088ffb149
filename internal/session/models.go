package session

import (
	"time"
)

// Language is a supported conversation locale.
type Language string

const (
	LangUK Language = "uk"
	LangEN Language = "en"
)

// Valid reports whether l is one of the supported locales.
func (l Language) Valid() bool {
	return l == LangUK || l == LangEN
}

// Voice is a narration voice choice.
type Voice string

const (
	VoiceFemale  Voice = "female"
	VoiceMale    Voice = "male"
	VoiceNeutral Voice = "neutral"
)

// Style is a narration intonation style.
type Style string

const (
	StyleDefault   Style = "default"
	StyleEmotional Style = "emotional"
	StyleNarration Style = "narration"
)

// Step names used for persistence and logging.
const (
	StepNameStoryTopic  = "awaiting_story_topic"
	StepNameVoiceChoice = "awaiting_voice_choice"
	StepNameStyleChoice = "awaiting_style_choice"
	StepNameRiddleAge   = "awaiting_riddle_age"
)

// Step is the tagged variant describing what input the controller expects
// next for a conversation. A nil Step means the conversation is idle.
// Each variant carries only the payload fields that state needs.
type Step interface {
	StepName() string
}

// AwaitingStoryTopic expects a free-text story topic.
type AwaitingStoryTopic struct{}

func (AwaitingStoryTopic) StepName() string { return StepNameStoryTopic }

// AwaitingVoiceChoice expects a narration voice reply for a generated story.
type AwaitingVoiceChoice struct {
	Story string   `json:"story"`
	Lang  Language `json:"lang"`
}

func (AwaitingVoiceChoice) StepName() string { return StepNameVoiceChoice }

// AwaitingStyleChoice expects an intonation style reply.
type AwaitingStyleChoice struct {
	Story string   `json:"story"`
	Voice Voice    `json:"voice"`
	Lang  Language `json:"lang"`
}

func (AwaitingStyleChoice) StepName() string { return StepNameStyleChoice }

// AwaitingRiddleAge expects an age bracket reply for riddle generation.
type AwaitingRiddleAge struct{}

func (AwaitingRiddleAge) StepName() string { return StepNameRiddleAge }

// Session holds one conversation's dialogue state. The session store
// exclusively owns all records; only the controller mutates them, one
// inbound event at a time.
type Session struct {
	ChatID    string    `json:"chat_id"`
	Lang      Language  `json:"lang"`
	Step      Step      `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepName returns the active step's name, or "idle" when no step is active.
func (s *Session) StepName() string {
	if s.Step == nil {
		return "idle"
	}
	return s.Step.StepName()
}
