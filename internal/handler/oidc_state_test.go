package handler

import "testing"

func TestLoginStateRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	state, err := newLoginState(key)
	if err != nil {
		t.Fatal(err)
	}
	if err := openLoginState(state, key); err != nil {
		t.Errorf("expected the state to open under the sealing key, got %s", err)
	}
}

func TestLoginStateWrongKey(t *testing.T) {
	state, err := newLoginState([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	if err := openLoginState(state, []byte("fedcba9876543210fedcba9876543210")); err == nil {
		t.Error("expected the state to be rejected under another key")
	}
}

func TestLoginStateTampered(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	state, err := newLoginState(key)
	if err != nil {
		t.Fatal(err)
	}

	tampered := []byte(state)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}
	if err := openLoginState(string(tampered), key); err == nil {
		t.Error("expected a tampered state to be rejected")
	}
}

func TestLoginStateGarbage(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	if err := openLoginState("not//valid//base64==", key); err == nil {
		t.Error("expected a garbage state to be rejected")
	}
}
