package tlguard

import "strings"

// TranslationStyle controls the tone and formality requested from LLM providers.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral tone suitable for catalog content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleMarketing uses persuasive, engaging language for product pages.
	StyleMarketing TranslationStyle = "marketing"
	// StyleTechnical uses precise language for specification sheets.
	StyleTechnical TranslationStyle = "technical"
)

var styleDescriptions = map[TranslationStyle]string{
	StyleFormal:    "Use a formal, professional register.",
	StyleNeutral:   "Use a neutral, professional register suitable for an online product catalog.",
	StyleMarketing: "Use persuasive, engaging language suited to product marketing, without inventing claims.",
	StyleTechnical: "Use precise technical vocabulary; keep units, model numbers and figures exactly as written.",
}

// GetStyleDescription returns the prompt sentence for a style, defaulting to neutral.
func GetStyleDescription(style TranslationStyle) string {
	if d, ok := styleDescriptions[style]; ok {
		return d
	}
	return styleDescriptions[StyleNeutral]
}

// LanguageNames maps base language codes to human-readable names.
var LanguageNames = map[string]string{
	"ar": "Arabic",
	"ca": "Catalan",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hu": "Hungarian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nb": "Norwegian Bokmål",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sv": "Swedish",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// regionNames qualifies a base name for common locales.
var regionNames = map[string]string{
	"en_US": "English (United States)",
	"en_GB": "English (United Kingdom)",
	"fr_FR": "French (France)",
	"fr_CA": "French (Canada)",
	"fr_BE": "French (Belgium)",
	"es_ES": "Spanish (Spain)",
	"es_MX": "Spanish (Mexico)",
	"pt_BR": "Portuguese (Brazil)",
	"pt_PT": "Portuguese (Portugal)",
	"zh_CN": "Chinese (Simplified)",
	"zh_TW": "Chinese (Traditional)",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	locale := NormalizeLocale(langCode)
	if name, ok := regionNames[locale]; ok {
		return name
	}
	if name, ok := LanguageNames[normalizeBaseLang(locale)]; ok {
		return name
	}
	return langCode
}

// deeplVariants lists the target codes DeepL requires a region for.
var deeplVariants = map[string]string{
	"en": "EN-US",
	"pt": "PT-BR",
}

// DeepLCode converts a language code to DeepL's format. Target codes for
// English and Portuguese need a regional variant; source codes must not
// carry one.
func DeepLCode(langCode string, target bool) string {
	locale := NormalizeLocale(langCode)
	base := normalizeBaseLang(locale)
	if !target {
		return strings.ToUpper(base)
	}
	if _, region, ok := strings.Cut(locale, "_"); ok && (base == "en" || base == "pt") {
		return strings.ToUpper(base + "-" + region)
	}
	if v, ok := deeplVariants[base]; ok {
		return v
	}
	return strings.ToUpper(base)
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[normalizeBaseLang(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// NormalizeLocale converts a language code to the standard format (e.g., "fr-FR" → "fr_FR").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(langCode, "-", "_")
}

// ToHTMLLang converts a locale code to HTML lang attribute format (e.g., "fr_FR" → "fr-FR").
func ToHTMLLang(langCode string) string {
	return strings.ReplaceAll(langCode, "_", "-")
}
