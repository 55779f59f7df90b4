// Package idhash computes deterministic identifiers so that re-importing
// identical raw text yields byte-identical records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeImportID computes a deterministic import_id using SHA256.
// Formula: SHA256(broker|rawText)
// Returns hex-encoded hash (64 characters).
func ComputeImportID(broker string, rawText string) string {
	data := fmt.Sprintf("%s|%s", broker, rawText)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(import_id|symbol|open_time_unix|quantity|ordinal)
// The ordinal is the trade's position within the statement; it
// disambiguates identical fills in one import.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	importID string,
	symbol string,
	openTimeUnix int64,
	quantity int64,
	ordinal int,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d",
		importID,
		symbol,
		openTimeUnix,
		quantity,
		ordinal,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
