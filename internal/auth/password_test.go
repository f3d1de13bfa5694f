package auth

import (
	"strings"
	"testing"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(Argon2Params{})

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Hash() = %q, want $argon2id$ prefix", hash)
	}
	if strings.Contains(hash, "correct horse") {
		t.Error("hash must not contain the plaintext")
	}

	if !hasher.Verify("correct horse battery staple", hash) {
		t.Error("Verify() rejected the original password")
	}
	if hasher.Verify("wrong password", hash) {
		t.Error("Verify() accepted a wrong password")
	}
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	h1, err := hasher.Hash("password123")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := hasher.Hash("password123")
	if err != nil {
		t.Fatal(err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password must differ (random salt)")
	}
	if !hasher.Verify("password123", h1) || !hasher.Verify("password123", h2) {
		t.Error("both hashes should verify against the original password")
	}
}

func TestPasswordHasher_VerifyUsesEmbeddedParams(t *testing.T) {
	// Hash with cheap parameters, verify with a hasher configured
	// differently; the parameters in the encoded hash must win.
	cheap := NewPasswordHasher(Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32})
	hash, err := cheap.Hash("hunter22")
	if err != nil {
		t.Fatal(err)
	}

	other := NewPasswordHasher(DefaultArgon2Params())
	if !other.Verify("hunter22", hash) {
		t.Error("Verify() should honor the cost parameters embedded in the hash")
	}
}

func TestPasswordHasher_VerifyMalformed(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=1,p=4$salt",         // missing hash segment
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",  // wrong algorithm
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA", // wrong version
		"$argon2id$v=19$m=abc,t=1,p=4$c2FsdA$aGFzaA",  // bad params
		"$argon2id$v=19$m=65536,t=1,p=4$!!$aGFzaA",    // bad base64
	}
	for _, h := range malformed {
		if hasher.Verify("whatever", h) {
			t.Errorf("Verify() accepted malformed hash %q", h)
		}
	}
}
