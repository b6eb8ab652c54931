package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/repository"
)

// Verification entity types.
const (
	EntityTransaction  = "transaction"
	EntityReport       = "report"
	EntityDistribution = "distribution"
)

// Verifier fingerprints records and keeps the verification ledger. Anchoring
// runs in simulation mode: the transaction id is derived from the hash.
type Verifier struct {
	records repository.RecordRepository
	now     func() time.Time
}

// NewVerifier returns a verifier writing to records.
func NewVerifier(records repository.RecordRepository) *Verifier {
	return &Verifier{records: records, now: time.Now}
}

// Hash returns the hex SHA-256 of the canonical JSON of the entity
// fingerprint. encoding/json sorts map keys, which makes the encoding stable.
func (v *Verifier) Hash(entityType string, entityID int64, fields domain.Record, at time.Time) (string, error) {
	data := fields.Clone()
	data["id"] = entityID
	data["type"] = entityType
	data["timestamp"] = at.UTC().Format(time.RFC3339Nano)
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// SimulatedTxID is the transaction id recorded when no chain is configured.
func SimulatedTxID(hash string) string {
	if len(hash) > 16 {
		hash = hash[:16]
	}
	return "sim_" + hash
}

// Anchor hashes the entity and stores a verification record for it.
func (v *Verifier) Anchor(ctx context.Context, entityType string, entityID int64, fields domain.Record) (domain.Record, error) {
	at := v.now()
	hash, err := v.Hash(entityType, entityID, fields, at)
	if err != nil {
		return nil, err
	}
	return v.records.Create(ctx, domain.Record{
		"entity_type":      entityType,
		"entity_id":        entityID,
		"hash_value":       hash,
		"blockchain_tx_id": SimulatedTxID(hash),
		"timestamp":        at.UTC().Format(time.RFC3339Nano),
		"is_verified":      true,
	})
}

// Verify reports whether hash is on the ledger. When txID is set it must
// match the recorded transaction id.
func (v *Verifier) Verify(ctx context.Context, hash, txID string) (domain.Record, error) {
	matches, err := v.records.List(ctx, func(r domain.Record) bool {
		if domain.StringField(r, "hash_value") != hash {
			return false
		}
		return txID == "" || domain.StringField(r, "blockchain_tx_id") == txID
	})
	if err != nil {
		return nil, err
	}
	out := domain.Record{"verified": len(matches) > 0, "hash": hash, "tx_id": txID}
	if len(matches) > 0 {
		m := matches[0]
		out["tx_id"] = m["blockchain_tx_id"]
		out["entity_type"] = m["entity_type"]
		out["entity_id"] = m["entity_id"]
		out["timestamp"] = m["timestamp"]
	}
	return out, nil
}

// Stats summarises the ledger.
func (v *Verifier) Stats(ctx context.Context) (domain.Record, error) {
	all, err := v.records.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	byType := map[string]int{}
	verified := 0
	for _, r := range all {
		byType[domain.StringField(r, "entity_type")]++
		if domain.BoolField(r, "is_verified") {
			verified++
		}
	}
	return domain.Record{
		"total_verifications": len(all),
		"verified":            verified,
		"by_entity_type":      byType,
		"mode":                "simulation",
	}, nil
}
