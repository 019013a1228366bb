package service

// Language is a supported translation language.
type Language struct {
	Code string
	Name string
}

// Default language pair.
const (
	DefaultSourceLanguage = "en"
	DefaultTargetLanguage = "hi"
)

// Languages is the complete table of supported languages, in display order.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi (हिंदी)"},
	{Code: "ta", Name: "Tamil (தமிழ்)"},
	{Code: "te", Name: "Telugu (తెలుగు)"},
	{Code: "bn", Name: "Bengali (বাংলা)"},
	{Code: "mr", Name: "Marathi (मराठी)"},
	{Code: "gu", Name: "Gujarati (ગુજરાતી)"},
	{Code: "kn", Name: "Kannada (ಕನ್ನಡ)"},
}

// Fallback names for codes outside the table.
const (
	fallbackSourceName = "English"
	fallbackTargetName = "Hindi"
)

// LookupLanguage returns the table entry for code.
func LookupLanguage(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// SourceLanguageName resolves a source code to the name the gateway expects.
func SourceLanguageName(code string) string {
	if l, ok := LookupLanguage(code); ok {
		return l.Name
	}
	return fallbackSourceName
}

// TargetLanguageName resolves a target code to the name the gateway expects.
func TargetLanguageName(code string) string {
	if l, ok := LookupLanguage(code); ok {
		return l.Name
	}
	return fallbackTargetName
}
