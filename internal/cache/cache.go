package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// JudgementKey generates a cache key for a model judgement over a
// document. Keyed by document content and model so a changed document
// or a different review model never reuses a stale judgement.
func JudgementKey(document []byte, modelName string) string {
	h := sha256.New()
	h.Write(document)
	h.Write([]byte{0})
	h.Write([]byte(modelName))
	return "veridoc:v1:" + hex.EncodeToString(h.Sum(nil))
}
