package builtins

import (
	"testing"

	"schemevm/types"
)

func findDigestPrim(t *testing.T, name string) *types.Primitive {
	t.Helper()
	for _, p := range DigestPrimitives() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no digest primitive named %q", name)
	return nil
}

func TestStringHashIsDeterministicPerAlgorithm(t *testing.T) {
	p := findDigestPrim(t, "string-hash")
	a, err := p.Fn([]types.Value{types.NewString("hello"), types.Intern("sha256")})
	if err != nil {
		t.Fatalf("string-hash: %v", err)
	}
	b, err := p.Fn([]types.Value{types.NewString("hello"), types.Intern("sha256")})
	if err != nil {
		t.Fatalf("string-hash: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("string-hash should be deterministic: %v != %v", a, b)
	}

	other, err := p.Fn([]types.Value{types.NewString("hello"), types.Intern("sha512")})
	if err != nil {
		t.Fatalf("string-hash sha512: %v", err)
	}
	if a.Equal(other) {
		t.Fatal("sha256 and sha512 digests of the same input should differ")
	}
}

func TestStringHashRejectsUnknownAlgorithm(t *testing.T) {
	p := findDigestPrim(t, "string-hash")
	if _, err := p.Fn([]types.Value{types.NewString("hello"), types.Intern("md5")}); err == nil {
		t.Fatal("expected an error for an unsupported digest algorithm")
	}
}

func TestCryptHashAndVerifyRoundTrip(t *testing.T) {
	hashP := findDigestPrim(t, "crypt-hash")
	verifyP := findDigestPrim(t, "crypt-verify")

	hashed, err := hashP.Fn([]types.Value{types.NewString("correct horse battery staple")})
	if err != nil {
		t.Fatalf("crypt-hash: %v", err)
	}

	ok, err := verifyP.Fn([]types.Value{types.NewString("correct horse battery staple"), hashed})
	if err != nil {
		t.Fatalf("crypt-verify: %v", err)
	}
	if ok != types.True {
		t.Fatalf("crypt-verify should accept the correct password, got %v", ok)
	}

	bad, err := verifyP.Fn([]types.Value{types.NewString("wrong password"), hashed})
	if err != nil {
		t.Fatalf("crypt-verify: %v", err)
	}
	if bad != types.False {
		t.Fatalf("crypt-verify should reject the wrong password, got %v", bad)
	}
}
