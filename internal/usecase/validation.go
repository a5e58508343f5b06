package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xavierca1/immo-leads/internal/entity"
)

const (
	MaxEmailLength   = 255
	MaxPayloadBytes  = 10000
	isoMillisLayout  = "2006-01-02T15:04:05.000Z07:00"
	defaultRegionTag = "default"
)

// whitespace is the browser's notion of \s: RE2's \s is ASCII only and
// leaves out \v.
const whitespace = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	emailPattern = regexp.MustCompile(`^[^@` + whitespace + `]+@[^@` + whitespace + `]+\.[^@` + whitespace + `]+$`)
	// 20 raw characters is the canonical bound for both endpoints.
	phonePattern = regexp.MustCompile(`^[0-9\-+()` + whitespace + `]{10,20}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// fieldLimits is checked in order; the first field over its limit is reported.
var fieldLimits = []struct {
	Key string
	Max int
}{
	{"contact_nom", 100},
	{"contact_prenom", 100},
	{"bien_localisation", 200},
	{"bien_description", 2000},
}

// ValidateEmail checks the trimmed address for length and shape.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || utf8.RuneCountInString(email) > MaxEmailLength {
		return false
	}
	return emailPattern.MatchString(email)
}

func ValidatePhone(phone string) bool {
	if phone == "" || !phonePattern.MatchString(phone) {
		return false
	}
	digits := len(nonDigit.ReplaceAllString(phone, ""))
	return digits >= 10 && digits <= 15
}

// SanitizeString trims v and cuts it to maxLen characters. Anything that is
// not a non-empty string yields "".
func SanitizeString(v any, maxLen int) string {
	s, ok := v.(string)
	if !ok || s == "" || maxLen <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// ParsePayload decodes a request body without losing the textual form of
// numbers, so the size check measures what the client sent.
func ParsePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DomainError{Code: CodeInvalidShape, Message: "Données invalides"}
	}
	// More() is false for a stray closing delimiter, so read one more token.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DomainError{Code: CodeInvalidShape, Message: "Données invalides"}
	}
	return v, nil
}

// ValidatePayload applies the rules in a fixed order and stops at the first
// failure.
func ValidatePayload(v any) error {
	data, ok := v.(map[string]any)
	if !ok || data == nil {
		return &DomainError{Code: CodeInvalidShape, Message: "Données invalides"}
	}

	email, _ := data["contact_email"].(string)
	if !ValidateEmail(email) {
		return &DomainError{Code: CodeInvalidEmail, Field: "contact_email", Message: "Email invalide"}
	}

	phone, _ := data["contact_tel"].(string)
	if !ValidatePhone(phone) {
		return &DomainError{Code: CodeInvalidPhone, Field: "contact_tel", Message: "Téléphone invalide"}
	}

	for _, limit := range fieldLimits {
		s, ok := data[limit.Key].(string)
		if ok && utf8.RuneCountInString(s) > limit.Max {
			return &DomainError{
				Code:    CodeFieldTooLong,
				Field:   limit.Key,
				Message: fmt.Sprintf("Le champ %s est trop long", limit.Key),
			}
		}
	}

	size, err := serializedSize(data)
	if err != nil || size > MaxPayloadBytes {
		return &DomainError{Code: CodePayloadTooLarge, Message: "Payload trop volumineux"}
	}

	return nil
}

func serializedSize(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return len(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Sanitize builds the lead that leaves the system. It expects data that
// already passed ValidatePayload.
func Sanitize(data map[string]any, now time.Time) entity.Lead {
	date := SanitizeString(data["Date"], 64)
	if date == "" {
		date = now.UTC().Format(isoMillisLayout)
	}

	region := SanitizeString(data["source_region"], 50)
	if raw, _ := data["source_region"].(string); raw == "" {
		region = defaultRegionTag
	}

	email, _ := data["contact_email"].(string)
	phone, _ := data["contact_tel"].(string)

	return entity.Lead{
		Date:         date,
		SourceRef:    SanitizeString(data["source_ref"], 100),
		SourceRegion: region,
		ProjectType:  entity.ProjectType(SanitizeString(data["projet_type"], 50)),
		PropertyType: entity.PropertyType(SanitizeString(data["bien_type"], 50)),
		Location:     SanitizeString(data["bien_localisation"], 200),
		Surface:      SanitizeString(data["bien_surface"], 10),
		Description:  SanitizeString(data["bien_description"], 2000),
		Timeline:     entity.Timeline(SanitizeString(data["projet_delai"], 50)),
		LastName:     SanitizeString(data["contact_nom"], 100),
		FirstName:    SanitizeString(data["contact_prenom"], 100),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Phone:        strings.Join(strings.Fields(phone), ""),
	}
}
