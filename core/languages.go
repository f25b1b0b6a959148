package turntaking

// Language is a practice language the engine can run a session in.
type Language struct {
	Code string
	Name string
}

// SupportedLanguages returns the practice languages in display order.
func SupportedLanguages() []Language {
	return []Language{
		{Code: "es", Name: "Spanish"},
		{Code: "fr", Name: "French"},
		{Code: "de", Name: "German"},
		{Code: "it", Name: "Italian"},
		{Code: "ja", Name: "Japanese"},
		{Code: "zh", Name: "Chinese"},
		{Code: "ko", Name: "Korean"},
	}
}

// LanguageName resolves a language code to its display name, falling back
// to the code itself for unknown languages.
func LanguageName(code string) string {
	for _, language := range SupportedLanguages() {
		if language.Code == code {
			return language.Name
		}
	}
	return code
}
