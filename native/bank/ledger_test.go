package bank

import (
	"errors"
	"math/big"
	"testing"

	"contenthub/core/types"
)

type mockState struct {
	accounts map[string]*types.Account
}

func newMockState() *mockState {
	return &mockState{accounts: make(map[string]*types.Account)}
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acc, ok := m.accounts[string(addr)]; ok {
		return acc.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	m.accounts[string(addr)] = account.Clone()
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func (m *mockState) balance(a [20]byte) *big.Int {
	if acc, ok := m.accounts[string(a[:])]; ok && acc.Balance != nil {
		return new(big.Int).Set(acc.Balance)
	}
	return big.NewInt(0)
}

func TestTransferConservesTotal(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	from := addr(0x01)
	to := addr(0x02)
	if err := ledger.Mint(from, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := ledger.Transfer(from, to, big.NewInt(250)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := state.balance(from); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("from balance = %s, want 750", got)
	}
	if got := state.balance(to); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("to balance = %s, want 250", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	from := addr(0x01)
	to := addr(0x02)
	if err := ledger.Mint(from, big.NewInt(10)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := ledger.Transfer(from, to, big.NewInt(11)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := state.balance(from); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("failed transfer must not debit, balance = %s", got)
	}
	if got := state.balance(to); got.Sign() != 0 {
		t.Fatalf("failed transfer must not credit, balance = %s", got)
	}
}

func TestTransferToSelfPreservesBalance(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	account := addr(0x01)
	if err := ledger.Mint(account, big.NewInt(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := ledger.Transfer(account, account, big.NewInt(40)); err != nil {
		t.Fatalf("self transfer failed: %v", err)
	}
	if got := state.balance(account); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("self transfer must not change the balance, got %s", got)
	}
}

func TestTransferZeroIsNoop(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	from := addr(0x01)
	if err := ledger.Transfer(from, addr(0x02), big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer failed: %v", err)
	}
	if err := ledger.Transfer(from, addr(0x02), nil); err != nil {
		t.Fatalf("nil transfer failed: %v", err)
	}
}

func TestBalanceOfUnknownAccount(t *testing.T) {
	ledger := NewLedger(newMockState())
	balance, err := ledger.BalanceOf(addr(0x09))
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("unknown account balance = %s, want 0", balance)
	}
}
