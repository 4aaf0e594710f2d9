package summarizer

import (
	"strings"

	"github.com/tbourn/paper-digest/internal/domain"
)

// AbstractPlaceholder is replaced with the paper abstract in user templates.
const AbstractPlaceholder = "{abstract}"

// Prompt is the instruction pair for one language.
type Prompt struct {
	System string
	User   string // template containing AbstractPlaceholder
}

var prompts = map[domain.Language]Prompt{
	domain.EN: {
		System: "You are a helpful AI research assistant, skilled at summarizing complex academic papers in clear, concise English language.",
		User: "You are a helpful AI research assistant. Please provide a clear and concise summary of the following research paper abstract in English. Focus on:\n" +
			"1. The main problem or goal\n" +
			"2. Key methodology or approach\n" +
			"3. Main results or findings\n\n" +
			"Keep the summary under 250 words and use simple, clear language.\n\n" +
			"Abstract:\n" + AbstractPlaceholder + "\n",
	},
	domain.RU: {
		System: "Вы - полезный ИИ-ассистент исследователя, умеющий кратко и четко излагать сложные научные статьи на русском языке.",
		User: "Вы - полезный ИИ-ассистент исследователя. Пожалуйста, предоставьте четкое и краткое резюме следующего научного абстракта на русском языке. Сфокусируйтесь на:\n" +
			"1. Основная проблема или цель\n" +
			"2. Ключевая методология или подход\n" +
			"3. Основные результаты или выводы\n\n" +
			"Сохраняйте резюме в пределах 250 слов и используйте простой, понятный язык.\n\n" +
			"Абстракт:\n" + AbstractPlaceholder + "\n",
	},
}

// PromptFor returns the built-in prompt pair for lang.
func PromptFor(lang domain.Language) (Prompt, bool) {
	p, ok := prompts[lang]
	return p, ok
}

// Render substitutes abstract into tmpl.
func Render(tmpl, abstract string) string {
	return strings.ReplaceAll(tmpl, AbstractPlaceholder, abstract)
}
