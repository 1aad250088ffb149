package openai

import (
	"fmt"

	"github.com/kazka/kazka-bot/internal/session"
)

func storyPrompt(topic string, lang session.Language, minChars, maxChars int) string {
	if lang == session.LangEN {
		return fmt.Sprintf(`You are a professional children's storyteller. Write a unique fairy tale on the topic "%s" in a rich and imaginative style, with metaphors, vivid language, and a light touch of humor.

The story must be **between %d and %d characters**, written in a vivid, narrative tone with dialogue. No title.

Return a strict JSON object in the following format:

{
  "story": "<main story text>",
  "moral": "<the moral in one paragraph. Do NOT include 'Moral:' or emojis.>",
  "questions": ["<1st question>", "<2nd question>", "<3rd question>", "<4th question>"]
}

❗ Return only valid JSON. No explanation, no formatting outside JSON.`, topic, minChars, maxChars)
	}

	return fmt.Sprintf(`Ти — професійний дитячий казкар. Напиши унікальну казку на тему "%s" у художньому стилі з цікавою метафорою, грою слів і легким гумором.

Казка повинна бути **від %d до %d символів включно**. Пиши живо, з діалогами. Без заголовку.

Поверни строго JSON-об'єкт такого формату:

{
  "story": "<основний текст казки. Без слова 'Казка'.>",
  "moral": "<мораль одним абзацом. Не додавай 'Мораль:' або емодзі.>",
  "questions": ["<1-е питання>", "<2-е питання>", "<3-є питання>", "<4-е питання>"]
}

❗ Поверни тільки JSON. Нічого зайвого.`, topic, minChars, maxChars)
}

func riddlePrompt(age string, lang session.Language) string {
	if lang == session.LangEN {
		return fmt.Sprintf("Generate 5 riddles for children aged %s about logic, wit, and humor.", age)
	}
	return fmt.Sprintf("Згенеруй 5 загадок для дітей віком %s на логіку, кмітливість і гумор.", age)
}

func phrasePrompt(lang session.Language) string {
	if lang == session.LangEN {
		return "Generate 5 unfinished creative phrases for children."
	}
	return "Згенеруй 5 незавершених креативних фраз для дітей."
}
