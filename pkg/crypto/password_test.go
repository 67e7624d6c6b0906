package crypto

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if string(digest) == "correct horse battery staple" {
		t.Fatal("digest stored the plaintext")
	}
	if err := VerifyPassword(digest, "correct horse battery staple"); err != nil {
		t.Fatalf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword(digest, "wrong password"); err == nil {
		t.Fatal("VerifyPassword accepted a wrong password")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if string(a) == string(b) {
		t.Fatal("two digests of the same input are identical, expected salted output")
	}
}
