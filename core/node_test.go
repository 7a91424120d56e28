package core

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"contenthub/crypto"
	"contenthub/native/common"
	"contenthub/native/registry"
	"contenthub/storage"
)

type testAccounts struct {
	admin       crypto.Address
	treasury    crypto.Address
	contributor crypto.Address
}

func newAccounts(t *testing.T) testAccounts {
	t.Helper()
	mk := func() crypto.Address {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			t.Fatalf("key generation failed: %v", err)
		}
		return key.PubKey().Address()
	}
	return testAccounts{admin: mk(), treasury: mk(), contributor: mk()}
}

func newTestNode(t *testing.T, accounts testAccounts, treasuryBalance string) *Node {
	t.Helper()
	node, err := NewNode(storage.NewMemDB())
	if err != nil {
		t.Fatalf("node init failed: %v", err)
	}
	node.SetNowFunc(func() int64 { return 500 })
	genesis := &Genesis{
		Admin:        accounts.admin.String(),
		Treasury:     accounts.treasury.String(),
		Contributors: []string{accounts.contributor.String()},
		Alloc:        map[string]string{accounts.treasury.String(): treasuryBalance},
	}
	if err := node.ApplyGenesis(genesis); err != nil {
		t.Fatalf("genesis apply failed: %v", err)
	}
	return node
}

func TestGenesisAppliedOnce(t *testing.T) {
	accounts := newAccounts(t)
	node := newTestNode(t, accounts, "1000")

	// A second apply must not double the allocation.
	genesis := &Genesis{
		Admin:        accounts.admin.String(),
		Treasury:     accounts.treasury.String(),
		Contributors: []string{accounts.contributor.String()},
		Alloc:        map[string]string{accounts.treasury.String(): "1000"},
	}
	if err := node.ApplyGenesis(genesis); err != nil {
		t.Fatalf("re-apply failed: %v", err)
	}
	balance, err := node.BalanceOf(accounts.treasury.Raw())
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("treasury balance = %s, want 1000", balance)
	}
	if ok, _ := node.IsContributor(accounts.contributor.Raw()); !ok {
		t.Fatalf("genesis contributor missing")
	}
}

func TestSubmitApprovePayout(t *testing.T) {
	accounts := newAccounts(t)
	node := newTestNode(t, accounts, "1000")

	events, cancel := node.Bus().Subscribe()
	defer cancel()

	record, err := node.SubmitContent(accounts.contributor.Raw(), "Intro to X", "desc", "http://x", big.NewInt(100))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := node.ApproveContent(accounts.admin.Raw(), record.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	balance, err := node.BalanceOf(accounts.contributor.Raw())
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("submitter balance = %s, want 100", balance)
	}
	stored, err := node.GetContent(record.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != registry.StatusApproved {
		t.Fatalf("status = %s, want approved", stored.Status)
	}

	submitted := <-events
	if submitted.Type != registry.EventTypeContentSubmitted {
		t.Fatalf("first event = %s, want submitted", submitted.Type)
	}
	approved := <-events
	if approved.Type != registry.EventTypeContentApproved {
		t.Fatalf("second event = %s, want approved", approved.Type)
	}
	if approved.Attributes["reward"] != "100" {
		t.Fatalf("approval reward attribute = %s", approved.Attributes["reward"])
	}
}

func TestFailedApprovalLeavesNoTrace(t *testing.T) {
	accounts := newAccounts(t)
	node := newTestNode(t, accounts, "50")

	record, err := node.SubmitContent(accounts.contributor.Raw(), "t", "d", "u", big.NewInt(100))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := node.ApproveContent(accounts.admin.Raw(), record.ID); !errors.Is(err, registry.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	stored, err := node.GetContent(record.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != registry.StatusPending {
		t.Fatalf("record must stay pending, got %s", stored.Status)
	}
	balance, _ := node.BalanceOf(accounts.treasury.Raw())
	if balance.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("treasury must be untouched, balance = %s", balance)
	}
}

func TestConcurrentApprovalsSingleWinner(t *testing.T) {
	accounts := newAccounts(t)
	node := newTestNode(t, accounts, "1000")

	record, err := node.SubmitContent(accounts.contributor.Raw(), "t", "d", "u", big.NewInt(10))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = node.ApproveContent(accounts.admin.Raw(), record.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, registry.ErrAlreadyProcessed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("exactly one approval must win, got %d", successes)
	}
	balance, _ := node.BalanceOf(accounts.contributor.Raw())
	if balance.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("reward paid %s times the requested amount", balance)
	}
}

func TestPauseBlocksMutations(t *testing.T) {
	accounts := newAccounts(t)
	node := newTestNode(t, accounts, "1000")

	node.PauseRegistry()
	if _, err := node.SubmitContent(accounts.contributor.Raw(), "t", "d", "u", big.NewInt(1)); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	node.ResumeRegistry()
	if _, err := node.SubmitContent(accounts.contributor.Raw(), "t", "d", "u", big.NewInt(1)); err != nil {
		t.Fatalf("submit after resume failed: %v", err)
	}
}
