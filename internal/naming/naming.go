package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Snake converts a Go identifier such as "LastEditor" or "HTTPHeaders" into snake_case.
func Snake(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Collection returns the pluralized snake_case collection name for a Go type name.
func Collection(typeName string) string {
	s := Snake(typeName)
	if s == "" {
		return ""
	}
	return inflection.Plural(s)
}

// IDs returns the attribute holding the live id list of a to-many relation, e.g. "tags" -> "tag_ids".
func IDs(relation string) string {
	return singular(relation) + "_ids"
}

// ForeignKey returns the conventional foreign key of an inverse relation, e.g. "author" -> "author_id".
func ForeignKey(relation string) string {
	return singular(relation) + "_id"
}

// Tag splits a struct tag value into its leading word and key=value options.
// Bare option words are stored with an empty value.
func Tag(tag string) (string, map[string]string) {
	parts := strings.Split(tag, ",")
	head := strings.TrimSpace(parts[0])
	opts := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, v, _ := strings.Cut(p, "=")
		opts[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return head, opts
}

func singular(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return inflection.Singular(s)
}
