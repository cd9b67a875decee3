package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	passwordUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLowercase = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits    = "0123456789"
	passwordSymbols   = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// sequentialPatterns are short runs that mark a password as guessable. The
// check is case-insensitive.
var sequentialPatterns = []string{
	"123", "234", "345", "456", "567", "678", "789",
	"abc", "bcd", "cde", "def",
	"qwerty", "qwe", "asdf", "zxcv",
}

// PasswordPolicy captures the strength rules enforced on new plaintexts.
type PasswordPolicy struct {
	MinLength           int
	MaxLength           int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireDigit        bool
	RequireSymbol       bool
	ForbiddenSubstrings []string
}

// DefaultPasswordPolicy returns the policy applied when callers pass none:
// length 8..128, one of each character class, and a ban list of the most
// common credential stuffing fragments.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSymbol:    true,
		ForbiddenSubstrings: []string{
			"password", "letmein", "welcome", "admin", "iloveyou",
		},
	}
}

// Enforce validates plaintext against the policy and returns the first
// failing rule only, wrapped in ErrWeakPassword. Checks run length, then
// character classes, then forbidden patterns; the single-reason report avoids
// handing brute-forcers more than one signal per attempt.
func (p PasswordPolicy) Enforce(plaintext string) error {
	if len(plaintext) < p.MinLength || len(plaintext) > p.MaxLength {
		return fmt.Errorf("%w: length must be between %d and %d characters",
			ErrWeakPassword, p.MinLength, p.MaxLength)
	}
	if p.RequireUppercase && !strings.ContainsAny(plaintext, passwordUppercase) {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	}
	if p.RequireLowercase && !strings.ContainsAny(plaintext, passwordLowercase) {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	}
	if p.RequireDigit && !strings.ContainsAny(plaintext, passwordDigits) {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}
	if p.RequireSymbol && !strings.ContainsAny(plaintext, passwordSymbols) {
		return fmt.Errorf("%w: must contain a symbol", ErrWeakPassword)
	}

	lower := strings.ToLower(plaintext)
	for _, banned := range p.ForbiddenSubstrings {
		if banned != "" && strings.Contains(lower, strings.ToLower(banned)) {
			return fmt.Errorf("%w: contains a forbidden word", ErrWeakPassword)
		}
	}
	for _, seq := range sequentialPatterns {
		if strings.Contains(lower, seq) {
			return fmt.Errorf("%w: contains a sequential pattern", ErrWeakPassword)
		}
	}
	return nil
}

// PasswordScore rates a plaintext 0..100 with an additive heuristic: length
// tiers at 8/12/16/20 characters, ten points per character class present,
// minus ten each for repeated runs, sequential patterns, and common words.
// The score is informational only and enforces nothing.
func PasswordScore(plaintext string) int {
	score := 0
	for _, tier := range []int{8, 12, 16, 20} {
		if len(plaintext) >= tier {
			score += 10
		}
	}
	for _, class := range []string{passwordUppercase, passwordLowercase, passwordDigits, passwordSymbols} {
		if strings.ContainsAny(plaintext, class) {
			score += 10
		}
	}

	lower := strings.ToLower(plaintext)
	if hasRepeatedRun(plaintext, 3) {
		score -= 10
	}
	for _, seq := range sequentialPatterns {
		if strings.Contains(lower, seq) {
			score -= 10
			break
		}
	}
	for _, banned := range DefaultPasswordPolicy().ForbiddenSubstrings {
		if strings.Contains(lower, banned) {
			score -= 10
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// GeneratePassword produces a policy-compliant temporary password of the
// requested length (clamped to at least 8) from a cryptographically strong
// source: one guaranteed character per required class, the rest drawn from
// the full alphabet, then shuffled. A draw that trips the sequential-pattern
// or forbidden-word rules is discarded and redrawn.
func GeneratePassword(length int) (string, error) {
	policy := DefaultPasswordPolicy()
	if length < policy.MinLength {
		length = policy.MinLength
	}
	if length > policy.MaxLength {
		length = policy.MaxLength
	}
	for {
		pw, err := generatePasswordOnce(length)
		if err != nil {
			return "", err
		}
		if policy.Enforce(pw) == nil {
			return pw, nil
		}
	}
}

func generatePasswordOnce(length int) (string, error) {
	classes := []string{passwordUppercase, passwordLowercase, passwordDigits, passwordSymbols}
	all := strings.Join(classes, "")

	chars := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates so the guaranteed class characters don't sit at the front.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		chars[i], chars[j.Int64()] = chars[j.Int64()], chars[i]
	}
	return string(chars), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}
	return alphabet[n.Int64()], nil
}

func hasRepeatedRun(s string, runLen int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= runLen {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
