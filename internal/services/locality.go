package services

import (
	"regexp"
	"strings"
)

// UnknownLocality is used wherever a locality is displayed but none could be derived.
const UnknownLocality = "Nao informado"

var (
	cityRegionPattern = regexp.MustCompile(`([A-Za-zÀ-ÿ][A-Za-zÀ-ÿ\s.'-]+)\s*[-/]\s*[A-Z]{2}\b`)
	postalCodePattern = regexp.MustCompile(`(?i)CEP[:\s-]*\d{5}-?\d{3}`)
	letterPattern     = regexp.MustCompile(`[A-Za-zÀ-ÿ]`)
	allDigits         = regexp.MustCompile(`^\d+$`)
	cepLabel          = regexp.MustCompile(`(?i)^CEP\b`)
)

// ExtractLocality guesses a city name from a free-text address. It is a
// best-effort heuristic: "Rua A, 123, Centro, Curitiba - PR" gives
// "Curitiba", "Vila Nova/PR" gives "Vila Nova". ok is false when nothing
// plausible is found.
func ExtractLocality(location string) (city string, ok bool) {
	text := strings.TrimSpace(location)
	if text == "" {
		return "", false
	}

	if m := cityRegionPattern.FindStringSubmatch(text); m != nil {
		byRegion := strings.TrimSpace(m[1])
		if letterPattern.MatchString(byRegion) {
			return lastChunk(byRegion), true
		}
	}

	parts := strings.Split(postalCodePattern.ReplaceAllString(text, " "), ",")
	for i := len(parts) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(parts[i])
		candidate = strings.SplitN(candidate, "-", 2)[0]
		candidate = strings.TrimSpace(strings.SplitN(candidate, "/", 2)[0])
		if candidate == "" || !letterPattern.MatchString(candidate) {
			continue
		}
		if allDigits.MatchString(candidate) || cepLabel.MatchString(candidate) {
			continue
		}
		return candidate, true
	}
	return "", false
}

// lastChunk keeps only the text after the final comma, so a full address
// matched by the region pattern yields just the city.
func lastChunk(s string) string {
	if i := strings.LastIndex(s, ","); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// LocalityOrUnknown is ExtractLocality with the display placeholder.
func LocalityOrUnknown(location string) string {
	if city, ok := ExtractLocality(location); ok {
		return city
	}
	return UnknownLocality
}
