package openai

import "fmt"

// Language names used inside prompt text. Codes the table does not know
// are passed through verbatim so an unexpected locale still yields a
// usable prompt.
var promptLanguageNames = map[string]string{
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"ja": "Japanese",
	"zh": "Chinese",
	"ko": "Korean",
	"en": "English",
}

func languageName(code string) string {
	if name, ok := promptLanguageNames[code]; ok {
		return name
	}
	if len(code) > 2 {
		if name, ok := promptLanguageNames[code[:2]]; ok {
			return name
		}
	}
	return code
}

func tutoringPrompt(languageCode, userText string) string {
	language := languageName(languageCode)
	return fmt.Sprintf(`You are a language learning assistant teaching %s.
The user said: %q

Teaching Guidelines:
1. Respond ONLY in %s
2. Keep responses concise (1-2 sentences)
3. If the user makes errors, subtly correct them by:
   - Rephrasing correctly in your response
   - Asking a leading question
   - Never explicitly point out errors
4. Continue the conversation naturally
5. Adjust difficulty based on user's apparent level`, language, userText, language)
}

func openingPromptInstructions(languageCode string) string {
	language := languageName(languageCode)
	return fmt.Sprintf(`You are a friendly language learning assistant teaching %s.
Start a simple conversation to practice basic greetings and introductions.
Keep your response to 1-2 sentences maximum.
Speak naturally and encouragingly.`, language)
}
