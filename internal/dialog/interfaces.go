package dialog

import (
	"context"

	"github.com/kazka/kazka-bot/internal/limiter"
	"github.com/kazka/kazka-bot/internal/session"
)

// EventKind distinguishes the inbound event surfaces exposed by the
// transport layer.
type EventKind string

const (
	// EventStart is the reset command. It unconditionally returns the
	// conversation to idle, regardless of prior state.
	EventStart EventKind = "start"
	// EventLanguage is a language selection.
	EventLanguage EventKind = "language"
	// EventMessage is a menu selection or free-text reply.
	EventMessage EventKind = "message"
)

// Event is one inbound event for a conversation.
type Event struct {
	ChatID string
	Kind   EventKind
	// Text carries the message text for EventMessage and the optional
	// deep-link payload (e.g. "invite_<chat>") for EventStart.
	Text string
	// Lang carries the selected locale for EventLanguage.
	Lang session.Language
}

// ReplyKind is the content-type hint of an outbound intent.
type ReplyKind string

const (
	ReplyText  ReplyKind = "text"
	ReplyImage ReplyKind = "image"
	ReplyAudio ReplyKind = "audio"
)

// Reply is one outbound message intent handed to the transport.
type Reply struct {
	ChatID   string
	Kind     ReplyKind
	Text     string
	Media    []byte
	MIME     string
	FileName string
}

// TextReply builds a text intent.
func TextReply(chatID, text string) Reply {
	return Reply{ChatID: chatID, Kind: ReplyText, Text: text}
}

// ImageReply builds an image intent.
func ImageReply(chatID string, media []byte, fileName string) Reply {
	return Reply{ChatID: chatID, Kind: ReplyImage, Media: media, MIME: "image/png", FileName: fileName}
}

// AudioReply builds an audio intent.
func AudioReply(chatID string, media []byte, fileName string) Reply {
	return Reply{ChatID: chatID, Kind: ReplyAudio, Media: media, MIME: "audio/mpeg", FileName: fileName}
}

// Sender transmits outbound intents. Every send is a suspension point and
// may fail at the transport level.
type Sender interface {
	Send(ctx context.Context, reply Reply) error
}

// Story is the structured result contract of the text provider: a narrative
// within a bounded character range, a one-paragraph moral and four follow-up
// questions.
type Story struct {
	Text      string
	Moral     string
	Questions [4]string
}

// StoryProvider generates narrative text content.
type StoryProvider interface {
	GenerateStory(ctx context.Context, topic string, lang session.Language) (Story, error)
	GenerateRiddles(ctx context.Context, age string, lang session.Language) (string, error)
	GeneratePhrases(ctx context.Context, lang session.Language) (string, error)
}

// ImageProvider generates an illustration for a prompt.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// SpeechProvider synthesizes narration audio.
type SpeechProvider interface {
	GenerateAudio(ctx context.Context, text string, voice session.Voice, lang session.Language, style session.Style) ([]byte, error)
}

// UsageLimiter gates paid generations per conversation.
type UsageLimiter interface {
	CheckLimit(ctx context.Context, chatID string) (limiter.Quota, error)
	IncrementUsage(ctx context.Context, chatID string) error
}

// PaymentLinks produces a checkout link for a conversation.
type PaymentLinks interface {
	CreatePaymentLink(ctx context.Context, chatID string) (string, error)
}

// InviteLinks produces invite deep links and records accepted referrals.
type InviteLinks interface {
	InviteLink(chatID string) string
	HandleInvite(ctx context.Context, chatID, referrerID string) error
}
