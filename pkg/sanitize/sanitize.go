package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns free text into a %substring% pattern for ILIKE, escaping
// the wildcard characters so they match literally.
func LikePattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// Keyword trims a search term; an empty result means "no filter".
func Keyword(s string) string {
	return strings.TrimSpace(s)
}

// Optional trims *s and turns blank strings into nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Phone is the value used for the client uniqueness key: nil and blank collapse to "".
func Phone(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

var reDashes = regexp.MustCompile(`-{2,}`)

// Slug lowercases s and keeps letters and digits (any script), mapping
// everything else to single dashes.
func Slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return strings.Trim(reDashes.ReplaceAllString(b.String(), "-"), "-")
}
