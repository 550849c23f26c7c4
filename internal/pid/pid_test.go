package pid

import (
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	c := MustNew("test-secret")
	for _, id := range []uint{1, 5, 999, 1734000000} {
		tok := c.Encode(id)
		got, err := c.Decode(tok)
		if err != nil {
			t.Fatalf("Decode(%q): %v", tok, err)
		}
		if got != id {
			t.Errorf("Decode(Encode(%d)) = %d", id, got)
		}
	}
}

func TestDeterministic(t *testing.T) {
	c := MustNew("test-secret")
	if c.Encode(42) != c.Encode(42) {
		t.Fatal("expected identical tokens for the same id")
	}
	if c.Encode(42) == c.Encode(43) {
		t.Fatal("expected different tokens for different ids")
	}
}

func TestRejectsForeignAndTampered(t *testing.T) {
	a := MustNew("secret-a")
	b := MustNew("secret-b")
	tok := a.Encode(7)
	if _, err := b.Decode(tok); !errors.Is(err, ErrInvalid) {
		t.Errorf("foreign token: got %v, want ErrInvalid", err)
	}
	tampered := []byte(tok)
	tampered[len(tampered)-1] ^= 'x' ^ 'y'
	if _, err := a.Decode(string(tampered)); err == nil {
		t.Error("tampered token decoded")
	}
	for _, bad := range []string{"", "not-base64!!", "abc"} {
		if _, err := a.Decode(bad); !errors.Is(err, ErrInvalid) {
			t.Errorf("Decode(%q) = %v, want ErrInvalid", bad, err)
		}
	}
}

func TestNewEmptySecret(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
