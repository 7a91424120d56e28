package crypto

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}
	addr := key.PubKey().Address()
	rendered := addr.String()
	if !strings.HasPrefix(rendered, string(HubPrefix)) {
		t.Fatalf("address %s missing %s prefix", rendered, HubPrefix)
	}

	decoded, err := DecodeAddress(rendered)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Raw() != addr.Raw() {
		t.Fatalf("round trip mismatch")
	}
	if len(decoded.Bytes()) != 20 {
		t.Fatalf("address length = %d", len(decoded.Bytes()))
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatalf("expected error for malformed address")
	}
	if _, err := DecodeAddress(""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}
	path := t.TempDir() + "/node.key"
	if err := SaveToKeystore(path, key, "correct horse"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "correct horse")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.PubKey().Address().Raw() != key.PubKey().Address().Raw() {
		t.Fatalf("keystore round trip changed the key")
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected error for wrong passphrase")
	}
}
