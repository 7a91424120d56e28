package registry

import (
	"fmt"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ContentStatus represents the lifecycle states of a submitted record. A
// record leaves Pending at most once and never moves between Approved and
// Rejected.
type ContentStatus uint8

const (
	StatusPending ContentStatus = iota
	StatusApproved
	StatusRejected
)

// String renders the status for events and RPC results.
func (s ContentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ContentRecord captures a single submitted item of content together with the
// reward requested by its submitter. The identifier is the keccak256 hash of
// the title, description and URL, ensuring deterministic ids without storing
// a counter.
type ContentRecord struct {
	ID          [32]byte      `json:"id"`
	Submitter   [20]byte      `json:"submitter"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	Reward      *big.Int      `json:"reward"`
	Status      ContentStatus `json:"status"`
	SubmittedAt int64         `json:"submittedAt"`
	ReviewedAt  int64         `json:"reviewedAt,omitempty"`
}

// Clone returns a deep copy of the record so callers can safely mutate the
// copy without affecting the stored instance.
func (c *ContentRecord) Clone() *ContentRecord {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Reward != nil {
		clone.Reward = new(big.Int).Set(c.Reward)
	} else {
		clone.Reward = big.NewInt(0)
	}
	return &clone
}

// ContentID derives the deterministic record identifier from the submitted
// fields. Fields are length-prefix separated so distinct triples cannot
// collide through concatenation.
func ContentID(title, description, url string) [32]byte {
	var id [32]byte
	digest := gethcrypto.Keccak256(
		lengthPrefixed(title),
		lengthPrefixed(description),
		lengthPrefixed(url),
	)
	copy(id[:], digest)
	return id
}

func lengthPrefixed(field string) []byte {
	buf := make([]byte, 0, len(field)+9)
	buf = append(buf, []byte(fmt.Sprintf("%d:", len(field)))...)
	buf = append(buf, field...)
	return buf
}
