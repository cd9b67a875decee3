package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordPolicy_Enforce(t *testing.T) {
	policy := DefaultPasswordPolicy()

	cases := []struct {
		name     string
		password string
		wantWeak bool
	}{
		{"compliant", "Tr0ub4dor&X!", false},
		{"too short", "Ab1!", true},
		{"too long", "Ab1!" + strings.Repeat("x", 130), true},
		{"no uppercase", "tr0ub4dor&x!", true},
		{"no lowercase", "TR0UB4DOR&X!", true},
		{"no digit", "Troubador&Xy!", true},
		{"no symbol", "Tr0ub4dorXy9", true},
		{"forbidden word", "MyPassword9!", true},
		{"sequential digits", "Xy9!ab123Qr", true},
		{"keyboard walk", "Qwerty9!Xkm", true},
	}

	for _, tc := range cases {
		err := policy.Enforce(tc.password)
		if tc.wantWeak {
			if !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("%s: expected ErrWeakPassword, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: expected acceptance, got %v", tc.name, err)
		}
	}
}

func TestPasswordPolicy_FirstFailureOnly(t *testing.T) {
	// Violates several rules at once; the report must name length, the first
	// check in the order.
	err := DefaultPasswordPolicy().Enforce("abc")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if !strings.Contains(err.Error(), "length") {
		t.Fatalf("expected length to be reported first, got %q", err.Error())
	}
}

func TestPasswordScore_Bounds(t *testing.T) {
	for _, pw := range []string{"", "a", "password", "Tr0ub4dor&X!", strings.Repeat("aA1!", 40)} {
		score := PasswordScore(pw)
		if score < 0 || score > 100 {
			t.Fatalf("score out of range for %q: %d", pw, score)
		}
	}
}

func TestPasswordScore_RewardsStrength(t *testing.T) {
	weak := PasswordScore("password")
	strong := PasswordScore("Vx9!mRq2#Lp7&Zw4")
	if strong <= weak {
		t.Fatalf("expected strong password to outscore weak: %d <= %d", strong, weak)
	}
}

func TestPasswordScore_PenalisesPatterns(t *testing.T) {
	clean := PasswordScore("Vx9!mRqA#Lp7")
	repeated := PasswordScore("Vx9!mRqqq#L7")
	if repeated >= clean {
		t.Fatalf("expected repeated run to cost points: %d >= %d", repeated, clean)
	}
}

func TestGeneratePassword(t *testing.T) {
	policy := DefaultPasswordPolicy()

	for _, length := range []int{8, 12, 16, 24} {
		pw, err := GeneratePassword(length)
		if err != nil {
			t.Fatalf("GeneratePassword(%d) returned error: %v", length, err)
		}
		if len(pw) != length {
			t.Fatalf("expected length %d, got %d", length, len(pw))
		}
		if err := policy.Enforce(pw); err != nil {
			t.Fatalf("generated password violates policy: %v", err)
		}
	}

	// Short requests are clamped up to the policy minimum.
	pw, err := GeneratePassword(3)
	if err != nil {
		t.Fatalf("GeneratePassword(3) returned error: %v", err)
	}
	if len(pw) != policy.MinLength {
		t.Fatalf("expected clamp to %d, got %d", policy.MinLength, len(pw))
	}
}

func TestGeneratePassword_Varies(t *testing.T) {
	a, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatalf("two generated passwords should differ")
	}
}
