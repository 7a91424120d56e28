package core

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"contenthub/core/events"
	"contenthub/crypto"
	"contenthub/native/bank"
	"contenthub/native/common"
	"contenthub/native/registry"
	"contenthub/state"
	"contenthub/storage"
)

// Node is the serialized execution front for the registry. Every mutating
// operation acquires the node mutex and runs inside a single state
// transaction, so one operation completes in full (including any nested
// transfer) before the next begins and a failed operation leaves no
// observable state change.
type Node struct {
	mu sync.RWMutex

	db       storage.Database
	state    *state.Manager
	registry *registry.Engine
	ledger   *bank.Ledger
	pauses   *common.PauseSet
	bus      *events.Bus
}

// NewNode wires the state manager, engines and event bus over the database.
func NewNode(db storage.Database) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database required")
	}
	manager := state.NewManager(db)
	node := &Node{
		db:       db,
		state:    manager,
		registry: registry.NewEngine(),
		ledger:   bank.NewLedger(manager),
		pauses:   common.NewPauseSet(),
		bus:      events.NewBus(),
	}
	node.registry.SetState(manager)
	node.registry.SetToken(node.ledger)
	node.registry.SetPauses(node.pauses)
	if treasury, ok, err := manager.RegistryTreasuryGet(); err != nil {
		return nil, err
	} else if ok {
		node.registry.SetTreasury(treasury)
	}
	return node, nil
}

// Bus exposes the event bus for RPC subscriptions.
func (n *Node) Bus() *events.Bus { return n.bus }

// SetNowFunc overrides the registry time source for deterministic tests.
func (n *Node) SetNowFunc(now func() int64) { n.registry.SetNowFunc(now) }

// ApplyGenesis applies the genesis document if it has not been applied yet.
// The admin, treasury, contributor set and allocations land in one
// transaction together with the applied marker.
func (n *Node) ApplyGenesis(genesis *Genesis) error {
	if genesis == nil {
		return fmt.Errorf("node: genesis document required")
	}
	if err := genesis.Validate(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	applied, err := n.state.GenesisApplied()
	if err != nil {
		return err
	}
	treasury := genesis.treasuryRaw()
	if applied {
		n.registry.SetTreasury(treasury)
		return nil
	}
	err = n.state.Transact(func(txn *state.Txn) error {
		if err := txn.RegistryAdminPut(genesis.adminRaw()); err != nil {
			return err
		}
		if err := txn.RegistryTreasuryPut(treasury); err != nil {
			return err
		}
		for _, contributor := range genesis.Contributors {
			addr, err := crypto.DecodeAddress(strings.TrimSpace(contributor))
			if err != nil {
				return err
			}
			if err := txn.RegistryContributorPut(addr.Raw()); err != nil {
				return err
			}
		}
		ledger := bank.NewLedger(txn)
		for rendered, amount := range genesis.Alloc {
			addr, err := crypto.DecodeAddress(strings.TrimSpace(rendered))
			if err != nil {
				return err
			}
			value, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
			if !ok {
				return fmt.Errorf("node: invalid genesis allocation %q", amount)
			}
			if err := ledger.Mint(addr.Raw(), value); err != nil {
				return err
			}
		}
		return txn.MarkGenesisApplied()
	})
	if err != nil {
		return err
	}
	n.registry.SetTreasury(treasury)
	return nil
}

// transact binds the engines to a fresh overlay transaction, runs fn, and on
// commit republishes the events the engines emitted during the transaction.
func (n *Node) transact(fn func() error) error {
	capture := &events.Capture{}
	n.registry.SetEmitter(capture)
	defer n.registry.SetEmitter(nil)

	err := n.state.Transact(func(txn *state.Txn) error {
		n.registry.SetState(txn)
		n.ledger.SetState(txn)
		defer func() {
			n.registry.SetState(n.state)
			n.ledger.SetState(n.state)
		}()
		return fn()
	})
	if err != nil {
		return err
	}
	for _, evt := range capture.Events() {
		n.bus.Emit(evt)
	}
	return nil
}

// AddContributor grants submission rights to the account.
func (n *Node) AddContributor(caller [20]byte, account [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transact(func() error {
		return n.registry.AddContributor(caller, account)
	})
}

// RemoveContributor revokes submission rights from the account.
func (n *Node) RemoveContributor(caller [20]byte, account [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transact(func() error {
		return n.registry.RemoveContributor(caller, account)
	})
}

// SubmitContent records a new pending submission for the caller.
func (n *Node) SubmitContent(caller [20]byte, title, description, url string, reward *big.Int) (*registry.ContentRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var record *registry.ContentRecord
	err := n.transact(func() error {
		var err error
		record, err = n.registry.SubmitContent(caller, title, description, url, reward)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ApproveContent approves the record and pays its reward to the submitter.
func (n *Node) ApproveContent(caller [20]byte, id [32]byte) (*registry.ContentRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var record *registry.ContentRecord
	err := n.transact(func() error {
		var err error
		record, err = n.registry.ApproveContent(caller, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RejectContent rejects the record without moving currency.
func (n *Node) RejectContent(caller [20]byte, id [32]byte) (*registry.ContentRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var record *registry.ContentRecord
	err := n.transact(func() error {
		var err error
		record, err = n.registry.RejectContent(caller, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetContent returns the stored record for the id.
func (n *Node) GetContent(id [32]byte) (*registry.ContentRecord, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.registry.GetContent(id)
}

// IsContributor reports whether the account holds submission rights.
func (n *Node) IsContributor(account [20]byte) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.registry.IsContributor(account)
}

// BalanceOf returns the reward currency balance for the address.
func (n *Node) BalanceOf(addr [20]byte) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ledger.BalanceOf(addr)
}

// PauseRegistry halts mutating registry operations.
func (n *Node) PauseRegistry() { n.pauses.Pause(registry.ModuleName) }

// ResumeRegistry lifts a registry pause.
func (n *Node) ResumeRegistry() { n.pauses.Resume(registry.ModuleName) }
