package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"contenthub/core/types"
	"contenthub/native/registry"
	"contenthub/storage"
)

var (
	keyAdmin             = []byte("registry/admin")
	keyTreasury          = []byte("registry/treasury")
	keyGenesisApplied    = []byte("registry/genesis")
	prefixContent        = "registry/content/"
	prefixContributor    = "registry/contributor/"
	prefixAccount        = "accounts/"
	contributorSentinel  = []byte{0x01}
	errManagerNoDatabase = errors.New("state: database not configured")
)

// kv is the minimal key-value surface shared by the manager's direct view and
// the overlay transaction.
type kv interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Has(key []byte) (bool, error)
	Delete(key []byte) error
}

// accessor provides the typed registry/ledger state methods over any kv.
type accessor struct {
	store kv
}

func contentKey(id [32]byte) []byte {
	return append([]byte(prefixContent), id[:]...)
}

func contributorKey(addr [20]byte) []byte {
	return append([]byte(prefixContributor), addr[:]...)
}

func accountKey(addr []byte) []byte {
	return append([]byte(prefixAccount), addr...)
}

func (a accessor) RegistryAdminGet() ([20]byte, bool, error) {
	var admin [20]byte
	raw, err := a.store.Get(keyAdmin)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return admin, false, nil
	}
	if err != nil {
		return admin, false, err
	}
	if len(raw) != 20 {
		return admin, false, fmt.Errorf("state: malformed admin entry (%d bytes)", len(raw))
	}
	copy(admin[:], raw)
	return admin, true, nil
}

func (a accessor) RegistryAdminPut(admin [20]byte) error {
	return a.store.Put(keyAdmin, admin[:])
}

func (a accessor) RegistryTreasuryGet() ([20]byte, bool, error) {
	var treasury [20]byte
	raw, err := a.store.Get(keyTreasury)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return treasury, false, nil
	}
	if err != nil {
		return treasury, false, err
	}
	if len(raw) != 20 {
		return treasury, false, fmt.Errorf("state: malformed treasury entry (%d bytes)", len(raw))
	}
	copy(treasury[:], raw)
	return treasury, true, nil
}

func (a accessor) RegistryTreasuryPut(treasury [20]byte) error {
	return a.store.Put(keyTreasury, treasury[:])
}

func (a accessor) RegistryContentGet(id [32]byte) (*registry.ContentRecord, bool, error) {
	raw, err := a.store.Get(contentKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	record := new(registry.ContentRecord)
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, false, fmt.Errorf("state: decode content record: %w", err)
	}
	return record, true, nil
}

func (a accessor) RegistryContentPut(record *registry.ContentRecord) error {
	if record == nil {
		return errors.New("state: nil content record")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("state: encode content record: %w", err)
	}
	return a.store.Put(contentKey(record.ID), raw)
}

func (a accessor) RegistryContributorPut(addr [20]byte) error {
	return a.store.Put(contributorKey(addr), contributorSentinel)
}

func (a accessor) RegistryContributorDelete(addr [20]byte) error {
	return a.store.Delete(contributorKey(addr))
}

func (a accessor) RegistryContributorHas(addr [20]byte) (bool, error) {
	return a.store.Has(contributorKey(addr))
}

func (a accessor) GetAccount(addr []byte) (*types.Account, error) {
	raw, err := a.store.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account := new(types.Account)
	if err := json.Unmarshal(raw, account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return account, nil
}

func (a accessor) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return a.store.Delete(accountKey(addr))
	}
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return a.store.Put(accountKey(addr), raw)
}

// Manager exposes the registry and ledger state over a storage.Database and
// hands out overlay transactions for all-or-nothing mutations.
type Manager struct {
	accessor
	db storage.Database
}

// NewManager wraps the database in a state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{accessor: accessor{store: directKV{db}}, db: db}
}

type directKV struct {
	db storage.Database
}

func (d directKV) Get(key []byte) ([]byte, error) { return d.db.Get(key) }
func (d directKV) Put(key, value []byte) error    { return d.db.Put(key, value) }
func (d directKV) Has(key []byte) (bool, error)   { return d.db.Has(key) }
func (d directKV) Delete(key []byte) error        { return d.db.Delete(key) }

// GenesisApplied reports whether the genesis document was already applied.
func (m *Manager) GenesisApplied() (bool, error) {
	if m == nil || m.db == nil {
		return false, errManagerNoDatabase
	}
	return m.db.Has(keyGenesisApplied)
}

// MarkGenesisApplied is recorded inside the same transaction that applies the
// genesis allocations.
func (t *Txn) MarkGenesisApplied() error {
	return t.Put(keyGenesisApplied, []byte{0x01})
}

// Transact runs fn against an overlay of the database. Writes are staged in
// memory and flushed as a single batch only when fn returns nil, so a failed
// operation leaves no observable state change.
func (m *Manager) Transact(fn func(*Txn) error) error {
	if m == nil || m.db == nil {
		return errManagerNoDatabase
	}
	txn := &Txn{
		db:      m.db,
		writes:  make(map[string][]byte),
		deletes: make(map[string]bool),
	}
	txn.accessor = accessor{store: txn}
	if err := fn(txn); err != nil {
		return err
	}
	return txn.commit()
}

// Txn is a copy-on-write overlay over the database. It satisfies the same
// typed state interfaces as the manager, plus the raw kv surface.
type Txn struct {
	accessor
	db      storage.Database
	writes  map[string][]byte
	deletes map[string]bool
}

func (t *Txn) Get(key []byte) ([]byte, error) {
	k := string(key)
	if t.deletes[k] {
		return nil, storage.ErrKeyNotFound
	}
	if value, ok := t.writes[k]; ok {
		return append([]byte{}, value...), nil
	}
	return t.db.Get(key)
}

func (t *Txn) Put(key []byte, value []byte) error {
	k := string(key)
	delete(t.deletes, k)
	t.writes[k] = append([]byte{}, value...)
	return nil
}

func (t *Txn) Has(key []byte) (bool, error) {
	k := string(key)
	if t.deletes[k] {
		return false, nil
	}
	if _, ok := t.writes[k]; ok {
		return true, nil
	}
	return t.db.Has(key)
}

func (t *Txn) Delete(key []byte) error {
	k := string(key)
	delete(t.writes, k)
	t.deletes[k] = true
	return nil
}

func (t *Txn) commit() error {
	if len(t.writes) == 0 && len(t.deletes) == 0 {
		return nil
	}
	batch := storage.NewBatch()
	for k, v := range t.writes {
		batch.Put([]byte(k), v)
	}
	for k := range t.deletes {
		batch.Delete([]byte(k))
	}
	return t.db.Write(batch)
}
