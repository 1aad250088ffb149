package dialog

import (
	"fmt"
	"strings"

	"github.com/kazka/kazka-bot/internal/limiter"
	"github.com/kazka/kazka-bot/internal/session"
)

// Menu item labels, matched by exact text in either locale.
const (
	menuStoryUK   = "Казка"
	menuStoryEN   = "Story"
	menuRiddlesUK = "Загадки"
	menuRiddlesEN = "Riddles"
	menuPhrasesUK = "Креатив"
	menuPhrasesEN = "Creativity"
	menuVisualUK  = "Візуальний креатив"
	menuVisualEN  = "Visual Creativity"
	menuLimitsUK  = "📊 Мої ліміти"
	menuLimitsEN  = "📊 My Limits"
	menuPaymentUK = "💳 Оплата"
	menuPaymentEN = "💳 Payment"
	menuInviteUK  = "🎁 Запросити друга"
	menuInviteEN  = "🎁 Invite Friend"
)

type msgID int

const (
	msgChooseLanguage msgID = iota
	msgGreeting
	msgEnterTopic
	msgChooseAge
	msgLimitReached
	msgGenerating
	msgStoryReady
	msgStoryFailed
	msgGeneratingImage
	msgImageFailed
	msgOfferVoice
	msgVoiceOfferFailed
	msgChooseStyle
	msgGeneratingAudio
	msgAudioFailed
	msgRiddlesReady
	msgPhrasesReady
	msgVisualCreativity
	msgGenericError
)

// Localization string management is a pass-through concern: the catalog is a
// closed inline table, not a translation pipeline.
var messages = map[msgID]map[session.Language]string{
	msgChooseLanguage: {
		session.LangUK: "Оберіть мову / Choose your language:\nУкраїнська — uk\nEnglish — en",
		session.LangEN: "Оберіть мову / Choose your language:\nУкраїнська — uk\nEnglish — en",
	},
	msgGreeting: {
		session.LangUK: "Привіт! Я створюю казки, загадки та креативні ідеї для дітей. Оберіть дію в меню.",
		session.LangEN: "Hi! I create fairy tales, riddles and creative ideas for children. Pick an action from the menu.",
	},
	msgEnterTopic: {
		session.LangUK: "Введіть тему казки:",
		session.LangEN: "Enter a story topic:",
	},
	msgChooseAge: {
		session.LangUK: "Оберіть вік: 3-4 або 5-6",
		session.LangEN: "Choose age: 3-4 or 5-6",
	},
	msgLimitReached: {
		session.LangUK: "Вичерпано ліміт генерацій.",
		session.LangEN: "Generation limit reached.",
	},
	msgGenerating: {
		session.LangUK: "⏳ Генерація триває...",
		session.LangEN: "⏳ Generating...",
	},
	msgStoryReady: {
		session.LangUK: "Ваша казка готова!",
		session.LangEN: "Your story is ready!",
	},
	msgStoryFailed: {
		session.LangUK: "Не вдалося згенерувати правильну казку. Спробуйте іншу тему.",
		session.LangEN: "Failed to generate a valid story. Please try another topic.",
	},
	msgGeneratingImage: {
		session.LangUK: "Генерую зображення...",
		session.LangEN: "Generating image...",
	},
	msgImageFailed: {
		session.LangUK: "⚠️ Не вдалося згенерувати зображення. Але казка вже готова!",
		session.LangEN: "⚠️ Failed to generate image. But the story is ready!",
	},
	msgOfferVoice: {
		session.LangUK: "Озвучити казку? (жіночий/чоловічий/нейтральний голос)",
		session.LangEN: "Voice the story? (female/male/neutral voice)",
	},
	msgVoiceOfferFailed: {
		session.LangUK: "⚠️ Не вдалося перейти до озвучки.",
		session.LangEN: "⚠️ Failed to continue to voicing step.",
	},
	msgChooseStyle: {
		session.LangUK: "Оберіть інтонацію: звичайна, емоційна, казкова",
		session.LangEN: "Choose intonation: normal, emotional, fairy-tale",
	},
	msgGeneratingAudio: {
		session.LangUK: "Генерую аудіо...",
		session.LangEN: "Generating audio...",
	},
	msgAudioFailed: {
		session.LangUK: "⚠️ Не вдалося згенерувати аудіо. Спробуйте ще раз.",
		session.LangEN: "⚠️ Failed to generate audio. Please try again.",
	},
	msgRiddlesReady: {
		session.LangUK: "Загадки готові!",
		session.LangEN: "Riddles are ready!",
	},
	msgPhrasesReady: {
		session.LangUK: "Креативні фрази готові!",
		session.LangEN: "Creative phrases are ready!",
	},
	msgVisualCreativity: {
		session.LangUK: "Домалюйте разом із дитиною те, що бачите на картинці!",
		session.LangEN: "Finish the drawing together with your child!",
	},
	msgGenericError: {
		session.LangUK: "Сталася помилка. Спробуйте ще раз.",
		session.LangEN: "An error occurred. Please try again.",
	},
}

func msg(lang session.Language, id msgID) string {
	byLang, ok := messages[id]
	if !ok {
		return ""
	}
	if s, ok := byLang[lang]; ok {
		return s
	}
	return byLang[session.LangUK]
}

// FormatStory renders the structured story result as the single delivery
// message. Section headers follow the reference output verbatim.
func FormatStory(story Story) string {
	parts := []string{
		story.Text,
		"⸻",
		"🧠 Мораль:\n" + story.Moral,
		"⸻",
		"💬 Питання для розмови з дитиною:",
	}
	for i, q := range story.Questions {
		parts = append(parts, fmt.Sprintf(" %d. %s", i+1, q))
	}
	return strings.Join(parts, "\n\n")
}

// FormatLimits renders a quota report.
func FormatLimits(lang session.Language, quota limiter.Quota) string {
	if lang == session.LangEN {
		return fmt.Sprintf("Your current limits:\n\nRemaining generations: %d\nTotal limit: %d", quota.Remaining, quota.Total)
	}
	return fmt.Sprintf("Ваші поточні ліміти:\n\nЗалишилось генерацій: %d\nЗагальний ліміт: %d", quota.Remaining, quota.Total)
}

// FormatPaymentLink renders the payment prompt.
func FormatPaymentLink(lang session.Language, url string) string {
	if lang == session.LangEN {
		return "To make a payment, follow the link:\n" + url
	}
	return "Для оплати перейдіть за посиланням:\n" + url
}

// FormatInviteLink renders the invite prompt.
func FormatInviteLink(lang session.Language, url string) string {
	if lang == session.LangEN {
		return fmt.Sprintf("Your invite link:\n%s\n\nInvite friends and get bonuses!", url)
	}
	return fmt.Sprintf("Ваше запрошувальне посилання:\n%s\n\nЗапрошуйте друзів та отримуйте бонуси!", url)
}
