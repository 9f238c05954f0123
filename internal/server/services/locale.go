package services

import "golang.org/x/text/language"

// DefaultLocale is used when the request states no usable language.
const DefaultLocale = "en-US"

// Locale picks the most preferred tag of an Accept-Language header.
func Locale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return DefaultLocale
	}
	return tags[0].String()
}
