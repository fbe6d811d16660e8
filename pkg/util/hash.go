package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// Md5ThenHex digests every chunk in order and returns the hex sum.
func Md5ThenHex(chunks ...[]byte) string {
	hasher := md5.New()
	for _, c := range chunks {
		hasher.Write(c)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashUUID derives a stable uuid from the json form of value, so equal
// headers get equal ids across runs. Empty when value cannot be marshaled.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := md5.Sum(raw)
	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// RunID is a random id used to tag the log records of one invocation.
func RunID() string {
	return uuid.NewString()
}
