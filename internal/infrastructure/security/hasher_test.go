package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// bcrypt.MinCost keeps the tests fast; NewBcryptHasher raises it to
// DefaultCost internally, which is the property under test elsewhere.
func fastHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.MinCost}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := fastHasher()

	hashed, err := h.Hash("s3cret-Pass!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hashed == "s3cret-Pass!" {
		t.Fatalf("plaintext stored verbatim")
	}

	match, err := h.Compare("s3cret-Pass!", hashed)
	if err != nil || !match {
		t.Fatalf("expected match, got %v %v", match, err)
	}
	match, err = h.Compare("wrong", hashed)
	if err != nil {
		t.Fatalf("simple mismatch must not error: %v", err)
	}
	if match {
		t.Fatalf("wrong password compared true")
	}
}

func TestBcryptHasher_SaltedPerCall(t *testing.T) {
	h := fastHasher()

	first, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatalf("two hashes of the same input must differ")
	}
	for _, hashed := range []string{first, second} {
		if match, err := h.Compare("same-input", hashed); err != nil || !match {
			t.Fatalf("both hashes must verify: %v %v", match, err)
		}
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := fastHasher()
	if _, err := h.Compare("anything", "not-a-bcrypt-hash"); !errors.Is(err, domain.ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
}

func TestBcryptHasher_CostFloor(t *testing.T) {
	h := NewBcryptHasher(4)
	hashed, err := h.Hash("x")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost < DefaultCost {
		t.Fatalf("configured cost below the floor leaked through: %d", cost)
	}
}

func TestBcryptHasher_IsHashed(t *testing.T) {
	h := fastHasher()
	hashed, err := h.Hash("x")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !h.IsHashed(hashed) {
		t.Fatalf("real hash not recognised")
	}
	for _, v := range []string{"", "plaintext", "$1$legacy"} {
		if h.IsHashed(v) {
			t.Fatalf("%q misrecognised as a hash", v)
		}
	}
}

func TestBcryptHasher_Describe(t *testing.T) {
	h := fastHasher()
	hashed, err := h.Hash("x")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	info, ok := h.Describe(hashed)
	if !ok {
		t.Fatalf("Describe rejected a real hash")
	}
	if info.Algorithm != "bcrypt" || info.Cost != bcrypt.MinCost {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, ok := h.Describe("garbage"); ok {
		t.Fatalf("Describe accepted garbage")
	}
}
