package content

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const MaxNameLength = 100

var (
	strict   = bluemonday.StrictPolicy()
	ugc      = bluemonday.UGCPolicy()
	markdown = goldmark.New()
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Sanitize strips HTML tags from names typed into console forms. The result
// is plain text: entities the policy produces are decoded again, since
// templates escape on output.
func Sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
}

// Capitalize upper-cases the first letter, as names are shown in lists and titles.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// SameName reports whether two names differ only by case or surrounding space.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Contains is the case-insensitive substring match used by list filters.
func Contains(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

// nameRules is the validator tag every category, channel and role name obeys.
var nameRules = fmt.Sprintf(`required,max=%d,excludesall=/\`, MaxNameLength)

// ValidateName checks a category, channel or role name before it is put into
// a request path.
func ValidateName(name string) error {
	if err := validate.Var(strings.TrimSpace(name), nameRules); err != nil {
		return describe(err)
	}
	return nil
}

// Validate checks a form struct carrying validator tags.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		if field == "" {
			// validate.Var reports no field; only names are checked that way.
			field = "name"
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "excludesall":
			msgs = append(msgs, field+" contains forbidden characters")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// RenderMarkdown renders an announcement title the way the chat will show it.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(ugc.SanitizeBytes(buf.Bytes())), nil
}
