package registry

import (
	"errors"
	"math/big"
	"testing"

	"contenthub/core/events"
	"contenthub/core/types"
	"contenthub/native/bank"
)

type mockState struct {
	admin        [20]byte
	hasAdmin     bool
	contents     map[[32]byte]*ContentRecord
	contributors map[[20]byte]bool
	accounts     map[string]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		contents:     make(map[[32]byte]*ContentRecord),
		contributors: make(map[[20]byte]bool),
		accounts:     make(map[string]*types.Account),
	}
}

func (m *mockState) RegistryAdminGet() ([20]byte, bool, error) {
	return m.admin, m.hasAdmin, nil
}

func (m *mockState) RegistryContentGet(id [32]byte) (*ContentRecord, bool, error) {
	record, ok := m.contents[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) RegistryContentPut(record *ContentRecord) error {
	if record == nil {
		return nil
	}
	m.contents[record.ID] = record.Clone()
	return nil
}

func (m *mockState) RegistryContributorPut(addr [20]byte) error {
	m.contributors[addr] = true
	return nil
}

func (m *mockState) RegistryContributorDelete(addr [20]byte) error {
	delete(m.contributors, addr)
	return nil
}

func (m *mockState) RegistryContributorHas(addr [20]byte) (bool, error) {
	return m.contributors[addr], nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acc, ok := m.accounts[string(addr)]; ok {
		return acc.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		delete(m.accounts, string(addr))
		return nil
	}
	m.accounts[string(addr)] = account.Clone()
	return nil
}

func (m *mockState) setAccount(addr [20]byte, amount int64) {
	m.accounts[string(addr[:])] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	if acc, ok := m.accounts[string(addr[:])]; ok && acc.Balance != nil {
		return new(big.Int).Set(acc.Balance)
	}
	return big.NewInt(0)
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetToken(bank.NewLedger(state))
	engine.SetTreasury(addr(0xAA))
	engine.SetNowFunc(func() int64 { return 1000 })
	return engine
}

func TestSubmitContentUnauthorized(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	outsider := addr(0x01)
	if _, err := engine.SubmitContent(outsider, "Intro to X", "desc", "http://x", big.NewInt(100)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(state.contents) != 0 {
		t.Fatalf("no record should be created on unauthorized submit")
	}
}

func TestSubmitContentRoundTrip(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	contributor := addr(0x02)
	state.contributors[contributor] = true

	record, err := engine.SubmitContent(contributor, "Intro to X", "desc", "http://x", big.NewInt(100))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	stored, err := engine.GetContent(record.ID)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if stored.Title != "Intro to X" || stored.Description != "desc" || stored.URL != "http://x" {
		t.Fatalf("unexpected fields: %+v", stored)
	}
	if stored.Reward.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected reward: %s", stored.Reward)
	}
	if stored.Status != StatusPending {
		t.Fatalf("expected pending, got %s", stored.Status)
	}
	if stored.Submitter != contributor {
		t.Fatalf("unexpected submitter")
	}
	if stored.SubmittedAt != 1000 {
		t.Fatalf("unexpected submission time: %d", stored.SubmittedAt)
	}
}

func TestSubmitDuplicateTripleFails(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	contributor := addr(0x02)
	state.contributors[contributor] = true

	if _, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(1)); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(99)); !errors.Is(err, ErrContentExists) {
		t.Fatalf("expected ErrContentExists, got %v", err)
	}
}

func TestApprovePaysSubmitter(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true
	contributor := addr(0x02)
	state.contributors[contributor] = true
	treasury := addr(0xAA)
	state.setAccount(treasury, 1_000)
	state.setAccount(contributor, 0)

	record, err := engine.SubmitContent(contributor, "Intro to X", "desc", "http://x", big.NewInt(100))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	approved, err := engine.ApproveContent(admin, record.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if got := state.balance(contributor); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("submitter balance = %s, want 100", got)
	}
	if got := state.balance(treasury); got.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("treasury balance = %s, want 900", got)
	}
}

func TestApproveTreasurySubmissionKeepsSupply(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true
	treasury := addr(0xAA)
	state.contributors[treasury] = true
	state.setAccount(treasury, 1_000)

	record, err := engine.SubmitContent(treasury, "t", "d", "u", big.NewInt(100))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	approved, err := engine.ApproveContent(admin, record.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if got := state.balance(treasury); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("treasury paying itself must not change supply, balance = %s", got)
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	state.admin = addr(0x0A)
	state.hasAdmin = true
	contributor := addr(0x02)
	state.contributors[contributor] = true
	state.setAccount(addr(0xAA), 1_000)

	record, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(10))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := engine.ApproveContent(contributor, record.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.RejectContent(contributor, record.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSingleTransitionAwayFromPending(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true
	contributor := addr(0x02)
	state.contributors[contributor] = true
	state.setAccount(addr(0xAA), 1_000)

	first, err := engine.SubmitContent(contributor, "a", "b", "c", big.NewInt(5))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := engine.ApproveContent(admin, first.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := engine.ApproveContent(admin, first.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second approve: expected ErrAlreadyProcessed, got %v", err)
	}
	if _, err := engine.RejectContent(admin, first.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("reject after approve: expected ErrAlreadyProcessed, got %v", err)
	}

	second, err := engine.SubmitContent(contributor, "x", "y", "z", big.NewInt(5))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := engine.RejectContent(admin, second.ID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, err := engine.RejectContent(admin, second.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second reject: expected ErrAlreadyProcessed, got %v", err)
	}
	if _, err := engine.ApproveContent(admin, second.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("approve after reject: expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestRejectMovesNoCurrency(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true
	contributor := addr(0x03)
	state.contributors[contributor] = true
	treasury := addr(0xAA)
	state.setAccount(treasury, 500)
	state.setAccount(contributor, 0)

	record, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(200))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	rejected, err := engine.RejectContent(admin, record.ID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if got := state.balance(contributor); got.Sign() != 0 {
		t.Fatalf("no transfer expected on reject, balance = %s", got)
	}
	if got := state.balance(treasury); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("treasury must be untouched, balance = %s", got)
	}
}

func TestApproveTransferFailureLeavesPending(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true
	contributor := addr(0x02)
	state.contributors[contributor] = true
	treasury := addr(0xAA)
	state.setAccount(treasury, 50) // underfunded

	record, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(100))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := engine.ApproveContent(admin, record.ID); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	stored, err := engine.GetContent(record.ID)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if stored.Status != StatusPending {
		t.Fatalf("record must stay pending after failed transfer, got %s", stored.Status)
	}
	if got := state.balance(contributor); got.Sign() != 0 {
		t.Fatalf("no payout expected, balance = %s", got)
	}
	if got := state.balance(treasury); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("treasury must be untouched, balance = %s", got)
	}
}

func TestAddContributorIdempotent(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true

	account := addr(0x07)
	if err := engine.AddContributor(admin, account); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := engine.AddContributor(admin, account); err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(state.contributors) != 1 {
		t.Fatalf("expected exactly one contributor entry, got %d", len(state.contributors))
	}
	if err := engine.AddContributor(account, account); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin add: expected ErrUnauthorized, got %v", err)
	}
}

func TestRemoveContributorKeepsPriorRecords(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	admin := addr(0x0A)
	state.admin = admin
	state.hasAdmin = true
	contributor := addr(0x02)
	state.contributors[contributor] = true

	record, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(1))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := engine.RemoveContributor(admin, contributor); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := engine.RemoveContributor(admin, contributor); err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if ok, _ := engine.IsContributor(contributor); ok {
		t.Fatalf("contributor should be removed")
	}
	if _, err := engine.GetContent(record.ID); err != nil {
		t.Fatalf("prior submission must survive removal: %v", err)
	}
	if _, err := engine.SubmitContent(contributor, "t2", "d2", "u2", big.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("removed contributor must not submit, got %v", err)
	}
}

func TestSubmitEmitsEvent(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	capture := &events.Capture{}
	engine.SetEmitter(capture)

	contributor := addr(0x02)
	state.contributors[contributor] = true

	if _, err := engine.SubmitContent(contributor, "t", "d", "u", big.NewInt(7)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	emitted := capture.Events()
	if len(emitted) != 1 {
		t.Fatalf("expected one event, got %d", len(emitted))
	}
	if emitted[0].EventType() != EventTypeContentSubmitted {
		t.Fatalf("unexpected event type %s", emitted[0].EventType())
	}
	carrier, ok := emitted[0].(interface{ Event() *types.Event })
	if !ok {
		t.Fatalf("event does not carry a payload")
	}
	attrs := carrier.Event().Attributes
	if attrs["reward"] != "7" || attrs["title"] != "t" {
		t.Fatalf("unexpected attributes: %v", attrs)
	}
}

func TestContentIDDeterministic(t *testing.T) {
	a := ContentID("title", "desc", "url")
	b := ContentID("title", "desc", "url")
	if a != b {
		t.Fatalf("identical triples must produce identical ids")
	}
	c := ContentID("title", "descu", "rl")
	if a == c {
		t.Fatalf("field boundaries must affect the id")
	}
}
