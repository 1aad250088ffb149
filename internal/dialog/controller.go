package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kazka/kazka-bot/internal/session"
)

const visualCreativityPrompt = "abstract lines and objects, children creativity"

// Controller is the conversation controller: for every inbound event it
// decides what step the conversation is on, invokes the providers that step
// needs, updates the session store and emits outbound intents through the
// sender. Provider errors never propagate past a single Handle invocation;
// they are translated to localized user messages and the conversation is
// reset so the user is never left stuck.
type Controller struct {
	sessions    session.Store
	stories     StoryProvider
	images      ImageProvider
	speech      SpeechProvider
	limits      UsageLimiter
	payments    PaymentLinks
	invites     InviteLinks
	defaultLang session.Language
	logger      *zap.Logger

	// Per-conversation serialization: a second event for a conversation
	// whose previous event is still in flight waits here. Distinct
	// conversations proceed concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewController creates a new conversation controller.
func NewController(
	sessions session.Store,
	stories StoryProvider,
	images ImageProvider,
	speech SpeechProvider,
	limits UsageLimiter,
	payments PaymentLinks,
	invites InviteLinks,
	defaultLang session.Language,
	logger *zap.Logger,
) (*Controller, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if stories == nil {
		return nil, fmt.Errorf("story provider cannot be nil")
	}
	if images == nil {
		return nil, fmt.Errorf("image provider cannot be nil")
	}
	if speech == nil {
		return nil, fmt.Errorf("speech provider cannot be nil")
	}
	if limits == nil {
		return nil, fmt.Errorf("usage limiter cannot be nil")
	}
	if !defaultLang.Valid() {
		defaultLang = session.LangUK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		sessions:    sessions,
		stories:     stories,
		images:      images,
		speech:      speech,
		limits:      limits,
		payments:    payments,
		invites:     invites,
		defaultLang: defaultLang,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}, nil
}

// Handle processes one inbound event. It is the top level of event handling:
// any unexpected error from a step is logged with full context, surfaced as a
// generic localized message and the conversation is unconditionally reset.
func (c *Controller) Handle(ctx context.Context, ev Event, out Sender) error {
	if ev.ChatID == "" {
		return fmt.Errorf("chat id is required")
	}
	if out == nil {
		return fmt.Errorf("sender cannot be nil")
	}

	unlock := c.lockChat(ev.ChatID)
	defer unlock()

	sess, err := c.loadSession(ctx, ev.ChatID)
	if err != nil {
		c.logger.Error("failed to load session",
			zap.String("chat_id", ev.ChatID),
			zap.Error(err))
		if serr := out.Send(ctx, TextReply(ev.ChatID, msg(c.defaultLang, msgGenericError))); serr != nil {
			return fmt.Errorf("failed to surface error: %w", serr)
		}
		return nil
	}

	switch ev.Kind {
	case EventStart:
		err = c.handleStart(ctx, sess, ev, out)
	case EventLanguage:
		err = c.handleLanguage(ctx, sess, ev, out)
	case EventMessage:
		err = c.handleMessage(ctx, sess, ev, out)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if err != nil {
		c.logger.Error("event handling failed",
			zap.String("chat_id", ev.ChatID),
			zap.String("text", ev.Text),
			zap.String("step", sess.StepName()),
			zap.Bool("permanent", isPermanent(err)),
			zap.Error(err))
		c.resetStep(ctx, sess)
		if serr := out.Send(ctx, TextReply(ev.ChatID, msg(sess.Lang, msgGenericError))); serr != nil {
			return fmt.Errorf("failed to surface error: %w", serr)
		}
	}
	return nil
}

func (c *Controller) handleStart(ctx context.Context, sess *session.Session, ev Event, out Sender) error {
	if ref, ok := strings.CutPrefix(ev.Text, "invite_"); ok && c.invites != nil {
		if ref != "" && ref != sess.ChatID {
			if err := c.invites.HandleInvite(ctx, sess.ChatID, ref); err != nil {
				c.logger.Warn("invite handling failed",
					zap.String("chat_id", sess.ChatID),
					zap.String("referrer_id", ref),
					zap.Error(err))
			}
		}
	}

	sess.Step = nil
	if err := c.saveSession(ctx, sess); err != nil {
		return err
	}
	return out.Send(ctx, TextReply(sess.ChatID, msg(sess.Lang, msgChooseLanguage)))
}

func (c *Controller) handleLanguage(ctx context.Context, sess *session.Session, ev Event, out Sender) error {
	if !ev.Lang.Valid() {
		return fmt.Errorf("unsupported language %q", ev.Lang)
	}
	sess.Lang = ev.Lang
	sess.Step = nil
	if err := c.saveSession(ctx, sess); err != nil {
		return err
	}
	return out.Send(ctx, TextReply(sess.ChatID, msg(sess.Lang, msgGreeting)))
}

func (c *Controller) handleMessage(ctx context.Context, sess *session.Session, ev Event, out Sender) error {
	switch step := sess.Step.(type) {
	case session.AwaitingStoryTopic:
		return c.runStoryStep(ctx, sess, ev.Text, out)
	case session.AwaitingVoiceChoice:
		return c.runVoiceStep(ctx, sess, step, ev.Text, out)
	case session.AwaitingStyleChoice:
		return c.runNarrationStep(ctx, sess, step, ev.Text, out)
	case session.AwaitingRiddleAge:
		return c.runRiddleStep(ctx, sess, ev.Text, out)
	}

	return c.runMenuAction(ctx, sess, ev.Text, out)
}

// runMenuAction dispatches idle-state menu selections. Unrecognized text in
// the idle state is ignored, matching the reference behavior.
func (c *Controller) runMenuAction(ctx context.Context, sess *session.Session, text string, out Sender) error {
	chatID := sess.ChatID
	lang := sess.Lang

	switch text {
	case menuStoryUK, menuStoryEN:
		if err := out.Send(ctx, TextReply(chatID, msg(lang, msgEnterTopic))); err != nil {
			return err
		}
		sess.Step = session.AwaitingStoryTopic{}
		return c.saveSession(ctx, sess)

	case menuRiddlesUK, menuRiddlesEN:
		if err := out.Send(ctx, TextReply(chatID, msg(lang, msgChooseAge))); err != nil {
			return err
		}
		sess.Step = session.AwaitingRiddleAge{}
		return c.saveSession(ctx, sess)

	case menuPhrasesUK, menuPhrasesEN:
		c.logger.Info("phrase generation started",
			zap.String("chat_id", chatID), zap.String("lang", string(lang)))
		phrases, err := c.stories.GeneratePhrases(ctx, lang)
		if err != nil {
			return err
		}
		return out.Send(ctx, TextReply(chatID, msg(lang, msgPhrasesReady)+"\n\n"+phrases))

	case menuVisualUK, menuVisualEN:
		c.logger.Info("image generation started",
			zap.String("chat_id", chatID), zap.String("prompt", visualCreativityPrompt))
		if err := out.Send(ctx, TextReply(chatID, msg(lang, msgGeneratingImage))); err != nil {
			return err
		}
		image, err := c.images.GenerateImage(ctx, visualCreativityPrompt)
		if err != nil {
			return err
		}
		if err := out.Send(ctx, ImageReply(chatID, image, "creative.png")); err != nil {
			return err
		}
		return out.Send(ctx, TextReply(chatID, msg(lang, msgVisualCreativity)))

	case menuLimitsUK, menuLimitsEN:
		quota, err := c.limits.CheckLimit(ctx, chatID)
		if err != nil {
			return err
		}
		return out.Send(ctx, TextReply(chatID, FormatLimits(lang, quota)))

	case menuPaymentUK, menuPaymentEN:
		if c.payments == nil {
			return fmt.Errorf("payment links are not configured")
		}
		url, err := c.payments.CreatePaymentLink(ctx, chatID)
		if err != nil {
			return err
		}
		return out.Send(ctx, TextReply(chatID, FormatPaymentLink(lang, url)))

	case menuInviteUK, menuInviteEN:
		if c.invites == nil {
			return fmt.Errorf("invite links are not configured")
		}
		return out.Send(ctx, TextReply(chatID, FormatInviteLink(lang, c.invites.InviteLink(chatID))))
	}

	return nil
}

// runStoryStep executes the full story step: quota gate, text generation
// with usage charged on success only, best-effort image generation, and the
// narration offer. One provider's fault never discards another provider's
// already-successful output: an image failure is reported, but the story has
// been delivered and the narration offer still follows.
func (c *Controller) runStoryStep(ctx context.Context, sess *session.Session, topic string, out Sender) error {
	chatID := sess.ChatID
	lang := sess.Lang

	c.logger.Info("story generation started",
		zap.String("chat_id", chatID),
		zap.String("topic", topic),
		zap.String("lang", string(lang)))

	quota, err := c.limits.CheckLimit(ctx, chatID)
	if err != nil {
		return err
	}
	if !quota.Allowed {
		c.resetStep(ctx, sess)
		return out.Send(ctx, TextReply(chatID, msg(lang, msgLimitReached)))
	}

	if err := out.Send(ctx, TextReply(chatID, msg(lang, msgGenerating))); err != nil {
		return err
	}

	formatted, err := c.generateAndDeliverStory(ctx, chatID, lang, topic, out)
	if err != nil {
		c.logger.Warn("story generation failed",
			zap.String("chat_id", chatID),
			zap.String("topic", topic),
			zap.Error(err))
		c.resetStep(ctx, sess)
		return out.Send(ctx, TextReply(chatID, msg(lang, msgStoryFailed)))
	}

	if err := c.sendStoryImage(ctx, chatID, lang, topic, out); err != nil {
		c.logger.Warn("image generation failed",
			zap.String("chat_id", chatID),
			zap.Error(err))
		if serr := out.Send(ctx, TextReply(chatID, msg(lang, msgImageFailed))); serr != nil {
			return serr
		}
	}

	if err := out.Send(ctx, TextReply(chatID, msg(lang, msgOfferVoice))); err != nil {
		c.logger.Warn("voice offer failed", zap.String("chat_id", chatID), zap.Error(err))
		c.resetStep(ctx, sess)
		return out.Send(ctx, TextReply(chatID, msg(lang, msgVoiceOfferFailed)))
	}
	sess.Step = session.AwaitingVoiceChoice{Story: formatted, Lang: lang}
	return c.saveSession(ctx, sess)
}

// generateAndDeliverStory is the charged part of the story step. Usage is
// consumed only when text generation succeeds, independent of the later
// image and audio steps.
func (c *Controller) generateAndDeliverStory(ctx context.Context, chatID string, lang session.Language, topic string, out Sender) (string, error) {
	story, err := c.stories.GenerateStory(ctx, topic, lang)
	if err != nil {
		return "", err
	}
	if err := c.limits.IncrementUsage(ctx, chatID); err != nil {
		return "", err
	}
	formatted := FormatStory(story)
	if err := out.Send(ctx, TextReply(chatID, msg(lang, msgStoryReady)+"\n\n"+formatted)); err != nil {
		return "", err
	}
	return formatted, nil
}

func (c *Controller) sendStoryImage(ctx context.Context, chatID string, lang session.Language, topic string, out Sender) error {
	c.logger.Info("image generation started",
		zap.String("chat_id", chatID), zap.String("prompt", topic))
	if err := out.Send(ctx, TextReply(chatID, msg(lang, msgGeneratingImage))); err != nil {
		return err
	}
	image, err := c.images.GenerateImage(ctx, topic)
	if err != nil {
		return err
	}
	return out.Send(ctx, ImageReply(chatID, image, "story.png"))
}

func (c *Controller) runVoiceStep(ctx context.Context, sess *session.Session, step session.AwaitingVoiceChoice, text string, out Sender) error {
	voice := ClassifyVoice(text)
	if err := out.Send(ctx, TextReply(sess.ChatID, msg(sess.Lang, msgChooseStyle))); err != nil {
		return err
	}
	sess.Step = session.AwaitingStyleChoice{Story: step.Story, Voice: voice, Lang: step.Lang}
	return c.saveSession(ctx, sess)
}

func (c *Controller) runNarrationStep(ctx context.Context, sess *session.Session, step session.AwaitingStyleChoice, text string, out Sender) error {
	chatID := sess.ChatID
	lang := sess.Lang
	style := ClassifyStyle(text)

	c.logger.Info("audio generation started",
		zap.String("chat_id", chatID),
		zap.String("voice", string(step.Voice)),
		zap.String("style", string(style)))

	if err := out.Send(ctx, TextReply(chatID, msg(lang, msgGeneratingAudio))); err != nil {
		return err
	}

	audio, err := c.speech.GenerateAudio(ctx, step.Story, step.Voice, step.Lang, style)
	if err != nil {
		c.logger.Warn("audio generation failed",
			zap.String("chat_id", chatID),
			zap.String("voice", string(step.Voice)),
			zap.String("style", string(style)),
			zap.Bool("permanent", isPermanent(err)),
			zap.Error(err))
		c.resetStep(ctx, sess)
		return out.Send(ctx, TextReply(chatID, msg(lang, msgAudioFailed)))
	}

	if err := out.Send(ctx, AudioReply(chatID, audio, "story.mp3")); err != nil {
		return err
	}
	c.resetStep(ctx, sess)
	return nil
}

func (c *Controller) runRiddleStep(ctx context.Context, sess *session.Session, text string, out Sender) error {
	age := ClassifyRiddleAge(text)
	c.logger.Info("riddle generation started",
		zap.String("chat_id", sess.ChatID),
		zap.String("age", age),
		zap.String("lang", string(sess.Lang)))

	riddles, err := c.stories.GenerateRiddles(ctx, age, sess.Lang)
	if err != nil {
		return err
	}
	if err := out.Send(ctx, TextReply(sess.ChatID, msg(sess.Lang, msgRiddlesReady)+"\n\n"+riddles)); err != nil {
		return err
	}
	c.resetStep(ctx, sess)
	return nil
}

// loadSession fetches the conversation's session. First contact creates an
// idle session with the default language; a failing store read is surfaced so
// a transient outage does not silently discard the active step.
func (c *Controller) loadSession(ctx context.Context, chatID string) (*session.Session, error) {
	sess, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return &session.Session{ChatID: chatID, Lang: c.defaultLang}, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !sess.Lang.Valid() {
		sess.Lang = c.defaultLang
	}
	return sess, nil
}

func (c *Controller) saveSession(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = time.Now()
	if err := c.sessions.Set(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// resetStep returns the conversation to idle, keeping the language choice.
func (c *Controller) resetStep(ctx context.Context, sess *session.Session) {
	sess.Step = nil
	if err := c.saveSession(ctx, sess); err != nil {
		c.logger.Error("failed to reset session", zap.String("chat_id", sess.ChatID), zap.Error(err))
	}
}

func (c *Controller) lockChat(chatID string) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[chatID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
