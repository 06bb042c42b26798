/*
partition.go - Date to partition-key mapping

PURPOSE:
  Maps a calendar date to the month partition it belongs in. The key is a
  pure function of (month, year) only: "Mar2025", "Apr2025", ...

KEY FORMAT:
  Go's reference layout "Jan2006" - three-letter month abbreviation
  followed by the four-digit year. Two dates in the same calendar month
  always map to the same key; dates in different months never collide.

CUMULATIVE SCANS:
  Opening balances are cumulative since inception, so reports need every
  partition up to a cutoff month. PartitionKeysThrough filters a listing
  of document ids down to the months at or before the cutoff, skipping
  ids that do not parse as partition keys (legacy tolerance).

SEE ALSO:
  - store.go: Uses keys as partition document ids
  - migrate.go: Detects when a record's key has drifted from its date
*/
package generic

import (
	"sort"
	"time"
)

const partitionKeyLayout = "Jan2006"

// PartitionKeyFor returns the partition key for a date, e.g. "Mar2025".
// Pure function of the date's month and year.
func PartitionKeyFor(date TimePoint) string {
	return date.normalize().Format(partitionKeyLayout)
}

// PartitionKeyForMonth returns the key for an explicit (year, month) pair.
func PartitionKeyForMonth(year int, month time.Month) string {
	return PartitionKeyFor(NewTimePoint(year, month, 1))
}

// ParsePartitionKey recovers the first day of the month a key denotes.
// The boolean is false for ids that are not partition keys.
func ParsePartitionKey(key string) (TimePoint, bool) {
	t, err := time.Parse(partitionKeyLayout, key)
	if err != nil {
		return TimePoint{}, false
	}
	return TimePointOf(t), true
}

// PartitionKeysThrough filters candidate document ids down to partition keys
// whose month is at or before the cutoff date's month, sorted chronologically.
// Non-key ids are skipped rather than treated as errors.
func PartitionKeysThrough(candidates []string, cutoff TimePoint) []string {
	type keyed struct {
		key   string
		month TimePoint
	}
	limit := StartOfMonth(cutoff.Year(), cutoff.Month())

	var keep []keyed
	for _, c := range candidates {
		month, ok := ParsePartitionKey(c)
		if !ok {
			continue
		}
		if month.BeforeOrEqual(limit) {
			keep = append(keep, keyed{key: c, month: month})
		}
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i].month.Before(keep[j].month) })

	keys := make([]string, len(keep))
	for i, k := range keep {
		keys[i] = k.key
	}
	return keys
}
