package registry

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"contenthub/core/events"
	"contenthub/core/types"
	"contenthub/native/common"
)

// ModuleName identifies the registry for the pause guard.
const ModuleName = "registry"

var (
	// ErrUnauthorized is returned when the caller lacks the contributor or
	// administrator role required for the operation.
	ErrUnauthorized = errors.New("registry: caller not authorized")
	// ErrAlreadyProcessed is returned when a status transition is attempted
	// on a record that already left Pending.
	ErrAlreadyProcessed = errors.New("registry: content already processed")
	// ErrTransferFailed wraps a reward-transfer failure during approval. The
	// approval is aborted and the record remains Pending.
	ErrTransferFailed = errors.New("registry: reward transfer failed")
	// ErrContentExists is returned when the identical (title, description,
	// url) triple has already been submitted.
	ErrContentExists = errors.New("registry: content already exists")
	// ErrContentNotFound is returned for operations on unknown record ids.
	ErrContentNotFound = errors.New("registry: content not found")

	errNilState      = errors.New("registry engine: state not configured")
	errNilToken      = errors.New("registry engine: reward token not configured")
	errNoTreasury    = errors.New("registry engine: treasury not configured")
	errInvalidReward = errors.New("registry engine: reward must not be negative")
)

type engineState interface {
	RegistryAdminGet() ([20]byte, bool, error)
	RegistryContentGet(id [32]byte) (*ContentRecord, bool, error)
	RegistryContentPut(record *ContentRecord) error
	RegistryContributorPut(addr [20]byte) error
	RegistryContributorDelete(addr [20]byte) error
	RegistryContributorHas(addr [20]byte) (bool, error)
}

// RewardTransfer is the external capability that moves reward currency to a
// recipient upon approval. The registry does not implement currency
// accounting itself.
type RewardTransfer interface {
	Transfer(from [20]byte, to [20]byte, amount *big.Int) error
}

// Engine wires the content registry business logic with persistence, the
// reward-transfer capability and event emission. Caller identity is passed
// explicitly into every mutating operation; the engine holds no ambient
// "current caller" state.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	token    RewardTransfer
	nowFn    func() int64
	treasury [20]byte
	pauses   common.PauseView
}

// NewEngine constructs a registry engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetToken configures the reward-transfer capability consumed by approvals.
func (e *Engine) SetToken(token RewardTransfer) { e.token = token }

// SetTreasury configures the account that funds reward payouts.
func (e *Engine) SetTreasury(addr [20]byte) { e.treasury = addr }

// SetPauses configures the pause view consulted before mutating operations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	admin, ok, err := e.state.RegistryAdminGet()
	if err != nil {
		return err
	}
	if !ok || admin != caller {
		return ErrUnauthorized
	}
	return nil
}

func hexID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// AddContributor grants submission rights to the account. Administrator-only
// and idempotent: adding an existing contributor changes nothing.
func (e *Engine) AddContributor(caller [20]byte, account [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	exists, err := e.state.RegistryContributorHas(account)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := e.state.RegistryContributorPut(account); err != nil {
		return err
	}
	e.emit(ContributorAddedEvent(hexAddr(account)))
	return nil
}

// RemoveContributor revokes submission rights. Administrator-only and
// idempotent. Records already submitted by the account are not invalidated.
func (e *Engine) RemoveContributor(caller [20]byte, account [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	exists, err := e.state.RegistryContributorHas(account)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := e.state.RegistryContributorDelete(account); err != nil {
		return err
	}
	e.emit(ContributorRemovedEvent(hexAddr(account)))
	return nil
}

// IsContributor reports whether the account currently holds submission rights.
func (e *Engine) IsContributor(account [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.RegistryContributorHas(account)
}

// SubmitContent registers a new Pending record for the caller. The record id
// is derived deterministically from the three text fields; resubmitting an
// identical triple fails rather than overwriting the prior record. The reward
// magnitude is not validated beyond rejecting negative amounts.
func (e *Engine) SubmitContent(caller [20]byte, title string, description string, url string, reward *big.Int) (*ContentRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	authorized, err := e.state.RegistryContributorHas(caller)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, ErrUnauthorized
	}
	if reward == nil {
		reward = big.NewInt(0)
	}
	if reward.Sign() < 0 {
		return nil, errInvalidReward
	}
	id := ContentID(title, description, url)
	if _, ok, err := e.state.RegistryContentGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrContentExists
	}
	record := &ContentRecord{
		ID:          id,
		Submitter:   caller,
		Title:       title,
		Description: description,
		URL:         url,
		Reward:      new(big.Int).Set(reward),
		Status:      StatusPending,
		SubmittedAt: e.now(),
	}
	if err := e.state.RegistryContentPut(record); err != nil {
		return nil, err
	}
	e.emit(ContentSubmittedEvent(hexID(id), hexAddr(caller), title, description, url, record.Reward.String()))
	return record.Clone(), nil
}

// GetContent returns a copy of the stored record for the id.
func (e *Engine) GetContent(id [32]byte) (*ContentRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.RegistryContentGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrContentNotFound
	}
	return record.Clone(), nil
}

// ApproveContent marks the record Approved and pays its reward to the
// submitter from the treasury. Administrator-only. The status change and the
// transfer are one unit of work: a failed transfer aborts the approval and
// the record stays Pending.
func (e *Engine) ApproveContent(caller [20]byte, id [32]byte) (*ContentRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	record, ok, err := e.state.RegistryContentGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrContentNotFound
	}
	if record.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}
	if record.Reward != nil && record.Reward.Sign() > 0 {
		if e.token == nil {
			return nil, errNilToken
		}
		if isZeroAddress(e.treasury) {
			return nil, errNoTreasury
		}
		if err := e.token.Transfer(e.treasury, record.Submitter, record.Reward); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	record.Status = StatusApproved
	record.ReviewedAt = e.now()
	if err := e.state.RegistryContentPut(record); err != nil {
		return nil, err
	}
	e.emit(ContentApprovedEvent(hexID(id), hexAddr(record.Submitter), record.Reward.String()))
	return record.Clone(), nil
}

// RejectContent marks the record Rejected. Administrator-only; no currency
// moves.
func (e *Engine) RejectContent(caller [20]byte, id [32]byte) (*ContentRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	record, ok, err := e.state.RegistryContentGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrContentNotFound
	}
	if record.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}
	record.Status = StatusRejected
	record.ReviewedAt = e.now()
	if err := e.state.RegistryContentPut(record); err != nil {
		return nil, err
	}
	e.emit(ContentRejectedEvent(hexID(id), hexAddr(record.Submitter)))
	return record.Clone(), nil
}
