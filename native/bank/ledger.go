package bank

import (
	"errors"
	"math/big"

	"contenthub/core/types"
)

var (
	errNilState          = errors.New("bank: state not configured")
	errInvalidAmount     = errors.New("bank: amount must not be negative")
	ErrInsufficientFunds = errors.New("bank: insufficient balance")
)

type ledgerState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger implements the reward-currency accounting consumed by the registry's
// approval path. It moves balances between accounts held in state; it has no
// notion of content or roles.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a ledger over the supplied account state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

// SetState replaces the backing account state.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	return acc.EnsureDefaults()
}

// BalanceOf returns the current balance for the address.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(ensureAccount(acc).Balance), nil
}

// Transfer moves amount from one account to the other. A zero amount or a
// self-transfer is a no-op; an underfunded source fails with
// ErrInsufficientFunds and leaves both accounts untouched.
func (l *Ledger) Transfer(from [20]byte, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errInvalidAmount
	}
	if from == to {
		return nil
	}
	fromAcc, err := l.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toAcc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := l.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to[:], toAcc)
}

// Mint credits amount to the address. Used when applying genesis allocations.
func (l *Ledger) Mint(addr [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errInvalidAmount
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return l.state.PutAccount(addr[:], acc)
}
