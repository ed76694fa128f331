package langmatch

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageInfo is one entry of a provider model's supported-language list.
type LanguageInfo struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// Matching filters the provider language list down to variants compatible with
// a detected language code. An empty detectedCode returns the whole list.
// Results are deduplicated by display name (case-insensitive, first entry
// wins) and sorted alphabetically by display name.
func Matching(detectedCode string, providerLanguages []LanguageInfo) []LanguageInfo {
	detected := strings.ToLower(strings.TrimSpace(detectedCode))

	matched := make([]LanguageInfo, 0, len(providerLanguages))
	seen := make(map[string]struct{}, len(providerLanguages))
	for _, lang := range providerLanguages {
		code := strings.ToLower(strings.TrimSpace(lang.Code))
		if code == "" {
			continue
		}
		if detected != "" && !strings.HasPrefix(code, detected) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(lang.DisplayName))
		if key == "" {
			key = code
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		matched = append(matched, lang)
	}

	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].DisplayName) < strings.ToLower(matched[j].DisplayName)
	})
	return matched
}

// AutoSelect picks the language variant to submit for a file, or "" when the
// user must choose manually.
//
// A single matching entry is selected unconditionally, even without a
// detection result. With a detection result and multiple matches, the first
// match after sorting wins.
func AutoSelect(detectedCode string, providerLanguages []LanguageInfo) string {
	matched := Matching(detectedCode, providerLanguages)
	if len(matched) == 1 {
		return matched[0].Code
	}
	if strings.TrimSpace(detectedCode) != "" && len(matched) > 0 {
		return matched[0].Code
	}
	return ""
}

// ResolveSource picks the source language submitted to the provider, in
// order of precedence: the explicitly selected variant, then the detected
// code, then automatic detection by the provider.
func ResolveSource(selectedVariant, detectedCode string) string {
	if variant := strings.TrimSpace(selectedVariant); variant != "" {
		return variant
	}
	if detected := strings.TrimSpace(detectedCode); detected != "" {
		return detected
	}
	return "auto"
}

// DisplayName resolves a human-readable name for a language code, preferring
// the provider list and falling back to CLDR English names, then the
// uppercased code itself.
func DisplayName(code string, providerLanguages []LanguageInfo) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	lowered := strings.ToLower(trimmed)
	for _, lang := range providerLanguages {
		if strings.ToLower(strings.TrimSpace(lang.Code)) == lowered && strings.TrimSpace(lang.DisplayName) != "" {
			return lang.DisplayName
		}
	}
	if tag, err := language.Parse(trimmed); err == nil {
		if name := display.English.Tags().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}
