package chain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestTokenID(t *testing.T) {
	tests := []struct {
		ual  string
		want string
		ok   bool
	}{
		{"did:dkg:otp:2043/0x5cac41237127f94c2d21dae0b14bfefa99880630/318322", "318322", true},
		{"did:dkg:otp/0xabc/7", "7", true},
		{"did:dkg:otp/0xabc/0", "", false},
		{"did:dkg:otp/0xabc", "", false},
		{"", "", false},
		{"did:dkg:otp/0xabc/12a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ual, func(t *testing.T) {
			id, ok := TokenID(tt.ual)
			if ok != tt.ok {
				t.Fatalf("TokenID(%q) ok = %v, want %v", tt.ual, ok, tt.ok)
			}
			if ok && id.String() != tt.want {
				t.Errorf("TokenID(%q) = %s, want %s", tt.ual, id, tt.want)
			}
		})
	}
}

func TestABIsParse(t *testing.T) {
	for name, src := range map[string]string{"proof": ProofScoreABI, "assertions": AssertionsABI} {
		if _, err := abi.JSON(strings.NewReader(src)); err != nil {
			t.Errorf("%s ABI does not parse: %v", name, err)
		}
	}

	parsed, _ := abi.JSON(strings.NewReader(AssertionsABI))
	if _, ok := parsed.Methods["getAssertionIdByIndex"]; !ok {
		t.Error("expected getAssertionIdByIndex in assertions ABI")
	}
}

func TestEthReader_InvalidAddress(t *testing.T) {
	r := &EthReader{}
	_, err := r.ReadContract(context.Background(), "not-an-address", ProofScoreABI, "getProofScore")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}
