package models

// FAQEntry is a read-only health FAQ item. Answer is keyed by language code.
type FAQEntry struct {
	Question string            `yaml:"question" json:"question"`
	Keywords []string          `yaml:"keywords" json:"keywords"`
	Answer   map[string]string `yaml:"answer" json:"answer"`
}

// AlertEntry is a read-only outbreak alert. Message is keyed by language code.
type AlertEntry struct {
	Location      string            `yaml:"location" json:"location"`
	AffectedAreas []string          `yaml:"affected_areas" json:"affected_areas"`
	Message       map[string]string `yaml:"message" json:"message"`
}

// LocalizedText returns the text for lang, falling back to English.
func LocalizedText(texts map[string]string, lang string) string {
	if t, ok := texts[lang]; ok && t != "" {
		return t
	}
	return texts["en"]
}

// Language describes a supported working language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}
