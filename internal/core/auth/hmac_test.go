package auth

import (
	"strings"
	"testing"
)

const (
	testSecretID = "0123456789abcdef0123456789abcdef"
	testRandom   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, testRandom), false},
		{"wrong prefix", "ak-v1-" + testSecretID + "-" + testRandom, true},
		{"wrong version", "pw-v2-" + testSecretID + "-" + testRandom, true},
		{"short secret id", "pw-v1-0123-" + testRandom, true},
		{"short random", "pw-v1-" + testSecretID + "-abcd", true},
		{"uppercase hex", "pw-v1-" + strings.ToUpper(testSecretID) + "-" + testRandom, true},
		{"extra part", FormatAPIKey(testSecretID, testRandom) + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, randomData, err := ParseAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if err != ErrInvalidKeyFormat {
					t.Errorf("ParseAPIKey() error = %v, want ErrInvalidKeyFormat", err)
				}
				return
			}
			if secretID != testSecretID {
				t.Errorf("secretID = %v, want %v", secretID, testSecretID)
			}
			if randomData != testRandom {
				t.Errorf("randomData = %v, want %v", randomData, testRandom)
			}
		})
	}
}

func TestFormatAPIKey_Length(t *testing.T) {
	if got := len(FormatAPIKey(testSecretID, testRandom)); got != 102 {
		t.Errorf("len(key) = %d, want 102", got)
	}
}

func TestComputeHMAC(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	key := FormatAPIKey(testSecretID, testRandom)

	h1 := ComputeHMAC(secret, key)
	h2 := ComputeHMAC(secret, key)
	if len(h1) != 32 {
		t.Errorf("len(hash) = %d, want 32", len(h1))
	}
	if !VerifyHMAC(h1, h2) {
		t.Error("same input should produce same hash")
	}
	if VerifyHMAC(h1, ComputeHMAC([]byte("another-secret-another-secret-xx"), key)) {
		t.Error("different secrets should produce different hashes")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	key1, hash1, err := GenerateAPIKey(testSecretID, secret)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	key2, _, err := GenerateAPIKey(testSecretID, secret)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}

	if key1 == key2 {
		t.Error("generated keys should differ")
	}
	if id, _, err := ParseAPIKey(key1); err != nil || id != testSecretID {
		t.Errorf("ParseAPIKey(generated) = %v, %v", id, err)
	}
	if !VerifyHMAC(hash1, ComputeHMAC(secret, key1)) {
		t.Error("returned hash should match ComputeHMAC of the key")
	}

	if _, _, err := GenerateAPIKey("not-hex", secret); err == nil {
		t.Error("expected error for malformed secret id")
	}
}
