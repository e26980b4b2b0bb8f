package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	p := DefaultParams()
	// Keep the test fast; verification honors embedded params.
	p.MemoryKiB = 8 * 1024
	p.Iterations = 1

	enc, err := Hash("correct horse battery staple", p)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := Verify("correct horse battery staple", enc)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = Verify("wrong password", enc)
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"$argon2id$v=19$m=65536,t=3,p=1$salt",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=3,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=999999999,t=3,p=1$c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
	}
	for _, enc := range cases {
		if _, err := Verify("pw", enc); err == nil {
			t.Fatalf("expected ErrInvalidHash for %q", enc)
		}
	}
}
