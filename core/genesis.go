package core

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"contenthub/crypto"
)

// Genesis declares the initial registry state: the administrator, the
// treasury that funds payouts, the initial contributor set and reward
// currency allocations. It is applied exactly once, on first start.
type Genesis struct {
	Admin        string            `json:"admin"`
	Treasury     string            `json:"treasury"`
	Contributors []string          `json:"contributors"`
	Alloc        map[string]string `json:"alloc"`
}

// LoadGenesis reads and validates a genesis document from disk.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	genesis := new(Genesis)
	if err := json.Unmarshal(raw, genesis); err != nil {
		return nil, fmt.Errorf("genesis: decode %s: %w", path, err)
	}
	if err := genesis.Validate(); err != nil {
		return nil, err
	}
	return genesis, nil
}

// Validate checks that all addresses decode and allocations parse.
func (g *Genesis) Validate() error {
	if g == nil {
		return fmt.Errorf("genesis: document required")
	}
	if _, err := crypto.DecodeAddress(strings.TrimSpace(g.Admin)); err != nil {
		return fmt.Errorf("genesis: invalid admin address: %w", err)
	}
	if _, err := crypto.DecodeAddress(strings.TrimSpace(g.Treasury)); err != nil {
		return fmt.Errorf("genesis: invalid treasury address: %w", err)
	}
	for _, contributor := range g.Contributors {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(contributor)); err != nil {
			return fmt.Errorf("genesis: invalid contributor address %q: %w", contributor, err)
		}
	}
	for addr, amount := range g.Alloc {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(addr)); err != nil {
			return fmt.Errorf("genesis: invalid alloc address %q: %w", addr, err)
		}
		if _, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10); !ok {
			return fmt.Errorf("genesis: invalid alloc amount %q for %s", amount, addr)
		}
	}
	return nil
}

func (g *Genesis) adminRaw() [20]byte {
	addr, _ := crypto.DecodeAddress(strings.TrimSpace(g.Admin))
	return addr.Raw()
}

func (g *Genesis) treasuryRaw() [20]byte {
	addr, _ := crypto.DecodeAddress(strings.TrimSpace(g.Treasury))
	return addr.Raw()
}
