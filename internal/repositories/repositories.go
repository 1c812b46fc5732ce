// package repositories provides the persistence layer: a TTL key/value cache
// used cache-aside by the discovery pipeline, and a per-user capped search
// history index.
package repositories

import "time"

// Cache TTLs per value class. Entries are overwritten wholesale on refresh,
// never partially mutated.
const (
	DetailTTL  = 24 * time.Hour
	SummaryTTL = 7 * 24 * time.Hour
	ResultTTL  = 30 * 24 * time.Hour
)

// HistoryCap is the maximum number of history rows retained per user. The
// oldest row is evicted when an append would exceed it.
const HistoryCap = 100

// Cache key namespaces. Detail keys are shared across users (detail is
// query-independent); summary and result keys carry query hashes.
func DetailKey(playlistID string) string {
	return "playlist:detail:" + playlistID
}

func SummaryKey(playlistID, queryHash string) string {
	return "playlist:summary:" + playlistID + ":" + queryHash
}

func ResultKey(searchHash string) string {
	return "discovery:result:" + searchHash
}
