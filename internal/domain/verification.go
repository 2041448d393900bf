package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	MaxVerificationAttempts = 5
	VerificationTTL         = 24 * time.Hour

	MinGuestNameLen = 2
	MaxGuestNameLen = 80
)

type VerificationResult struct {
	OK   bool
	Name string
}

// ValidateVerification checks a guest's name and phrase against the event's
// expected phrase. Name length and phrase mismatch collapse into a single
// failure signal so a guest cannot tell which check rejected them. Phrase
// comparison is trim- and case-insensitive.
func ValidateVerification(inputName, inputPhrase, expectedPhrase string) VerificationResult {
	name := strings.TrimSpace(inputName)
	phrase := strings.ToLower(strings.TrimSpace(inputPhrase))
	expected := strings.ToLower(strings.TrimSpace(expectedPhrase))

	if len([]rune(name)) < MinGuestNameLen || len([]rune(name)) > MaxGuestNameLen || phrase != expected {
		return VerificationResult{}
	}

	return VerificationResult{OK: true, Name: name}
}

func IsLockedOut(attempts int) bool {
	return attempts >= MaxVerificationAttempts
}

// IsVerificationExpired reports whether a verification record has aged out.
// Expiry is inclusive: a record is expired exactly at verifiedAt + TTL.
func IsVerificationExpired(verifiedAt, now time.Time) bool {
	return now.Sub(verifiedAt) >= VerificationTTL
}

// BuildVerificationPhrase derives the shared phrase a host hands out to
// guests. It is deliberately reconstructable from the public slug; the
// phrase is a shared-knowledge gate, not a secret.
func BuildVerificationPhrase(slug string) string {
	return "kviečiame į " + strings.ToLower(slug) + " šventę"
}

var slugFolder = strings.NewReplacer(
	"ą", "a",
	"č", "c",
	"ę", "e",
	"ė", "e",
	"į", "i",
	"š", "s",
	"ų", "u",
	"ū", "u",
	"ž", "z",
)

// SlugifyTitle folds Lithuanian diacritics and collapses everything else
// to single dashes.
func SlugifyTitle(title string) string {
	folded := slugFolder.Replace(strings.ToLower(strings.TrimSpace(title)))

	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// BuildUniqueSlug suffixes a base slug when earlier events already claimed it.
func BuildUniqueSlug(baseSlug string, existingCount int) string {
	if existingCount > 0 {
		return baseSlug + "-" + strconv.Itoa(existingCount+1)
	}
	return baseSlug
}
