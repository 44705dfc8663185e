package utils

// Minimal server-side i18n for fixed keys.
// UI strings should live in the client; server provides only essentials.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":        "ok",
		"result.no_band":   "We could not match your score to a result. An advisor will contact you.",
		"survey.completed": "Survey completed, thank you!",
	},
	"ru": {
		"health.ok":        "ок",
		"result.no_band":   "Мы не смогли подобрать результат по вашим баллам. С вами свяжется консультант.",
		"survey.completed": "Опрос завершён, спасибо!",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
