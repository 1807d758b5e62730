// Package validate holds the pure input validators for the identity core:
// email syntax, Brazilian phone and CPF formats, password-strength scoring,
// institutional-domain membership, and input sanitization. All functions are
// stateless and deterministic; "invalid" is a return value, never an error.
package validate

import (
	"regexp"
	"strings"
)

var (
	emailRe     = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?@[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z]{2,})+$`)
	nonDigitsRe = regexp.MustCompile(`\D`)
	jsSchemeRe  = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe = regexp.MustCompile(`(?i)on\w+=`)
	lowerRe     = regexp.MustCompile(`[a-z]`)
	upperRe     = regexp.MustCompile(`[A-Z]`)
	digitRe     = regexp.MustCompile(`\d`)
	specialRe   = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	commonRes   = []*regexp.Regexp{
		regexp.MustCompile(`123456`),
		regexp.MustCompile(`(?i)password`),
		regexp.MustCompile(`(?i)qwerty`),
		regexp.MustCompile(`(?i)admin`),
		regexp.MustCompile(`(?i)letmein`),
		regexp.MustCompile(`(?i)senha`),
	}
)

// veryCommonPasswords are rejected outright when contained in a candidate.
var veryCommonPasswords = []string{
	"password", "Password123", "123456789", "qwerty123", "admin123", "senha123",
}

// Email reports whether s has a standard local@domain.tld shape. Consecutive
// dots, a leading or trailing dot, and a dot adjacent to the @ are rejected.
func Email(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	if strings.Contains(s, "@.") || strings.Contains(s, ".@") {
		return false
	}
	return emailRe.MatchString(s)
}

// NormalizeEmail returns the canonical form used for all repository keys:
// trimmed and lowercased. Duplicate detection and lookup are case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PhoneBR reports whether s is a valid Brazilian national phone number after
// stripping formatting: 10 digits for landlines, 11 for mobiles. The DDD
// (area code) must be in [11,99]; mobiles must carry 9 as the third digit;
// the subscriber number must not start with 0 or 1.
func PhoneBR(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	digits := nonDigitsRe.ReplaceAllString(s, "")

	switch len(digits) {
	case 10:
		if !validDDD(digits[:2]) {
			return false
		}
		return digits[2] != '0' && digits[2] != '1'
	case 11:
		if !validDDD(digits[:2]) {
			return false
		}
		if digits[2] != '9' {
			return false
		}
		return digits[3] != '0' && digits[3] != '1'
	default:
		return false
	}
}

func validDDD(dd string) bool {
	ddd := int(dd[0]-'0')*10 + int(dd[1]-'0')
	return ddd >= 11 && ddd <= 99
}

// CPF reports whether s is a valid Brazilian tax id: exactly 11 digits after
// stripping formatting, not all identical, and with both check digits
// matching the standard weighted-sum algorithm.
func CPF(s string) bool {
	digits := nonDigitsRe.ReplaceAllString(s, "")
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == len(digits) {
		return false
	}

	if cpfCheckDigit(digits, 9, 10) != int(digits[9]-'0') {
		return false
	}
	return cpfCheckDigit(digits, 10, 11) == int(digits[10]-'0')
}

// cpfCheckDigit computes one CPF verification digit over digits[:n] with
// weights startWeight..2, applying the (sum*10)%11 remainder rule where a
// remainder of 10 or 11 maps to 0.
func cpfCheckDigit(digits string, n, startWeight int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (startWeight - i)
	}
	rem := (sum * 10) % 11
	if rem == 10 || rem == 11 {
		rem = 0
	}
	return rem
}

// StrengthResult is the outcome of password scoring.
type StrengthResult struct {
	Valid  bool
	Score  int
	Errors []string
}

// PasswordStrength scores a password from 0 to 5: one point each for length
// of at least minLength, a lowercase letter, an uppercase letter, a digit,
// and a special character. A missed criterion only costs its point; Errors
// records blocklist violations, each of which also carries a penalty (2 for a
// common pattern, 3 for containing a very common password). The password is
// valid when the score reaches minScore and no violation was recorded, so a
// clean 4-of-5 password passes the default threshold.
func PasswordStrength(password string, minScore int) StrengthResult {
	const minLength = 8
	var errs []string
	score := 0

	if len(password) >= minLength {
		score++
	}
	if lowerRe.MatchString(password) {
		score++
	}
	if upperRe.MatchString(password) {
		score++
	}
	if digitRe.MatchString(password) {
		score++
	}
	if specialRe.MatchString(password) {
		score++
	}

	for _, re := range commonRes {
		if re.MatchString(password) {
			errs = append(errs, "password must not contain common patterns")
			score = max(0, score-2)
			break
		}
	}

	lowered := strings.ToLower(password)
	for _, common := range veryCommonPasswords {
		if strings.Contains(lowered, strings.ToLower(common)) {
			errs = append(errs, "password is too common, choose a more unique one")
			score = max(0, score-3)
			break
		}
	}

	return StrengthResult{
		Valid:  score >= minScore && len(errs) == 0,
		Score:  score,
		Errors: errs,
	}
}

// InstitutionalEmail reports whether the email's domain matches any fragment
// of the government/public-safety allow-list.
func InstitutionalEmail(email string, domains []string) bool {
	lowered := strings.ToLower(email)
	at := strings.LastIndex(lowered, "@")
	if at < 0 {
		return false
	}
	domain := lowered[at+1:]
	for _, frag := range domains {
		if strings.Contains(domain, strings.ToLower(frag)) {
			return true
		}
	}
	return false
}

// SanitizeText strips angle brackets, javascript: schemes, and inline event
// handler patterns, then trims surrounding whitespace. Defense-in-depth input
// hygiene; output encoding at render time is still the consumer's job.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = eventAttrRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// FullName reports whether name consists only of letters and spaces and has
// a length within [minLen, maxLen]. Accented letters count as letters.
func FullName(name string, minLen, maxLen int) bool {
	runes := []rune(name)
	if len(runes) < minLen || len(runes) > maxLen {
		return false
	}
	return fullNameRe.MatchString(name)
}

var fullNameRe = regexp.MustCompile(`^[\p{L} ]+$`)
