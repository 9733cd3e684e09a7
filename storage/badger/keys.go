package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/tabstash/core"
)

// Key prefixes for different data types
const (
	tabRecordPrefix     = "tabrec"
	tabRecordDatePrefix = "tabrecd"
	tabRecordUserPrefix = "tabrecu"
	tabRecordIDSeq      = "tabrecseq"
)

// makeTabRecordKey generates a key for a tab record by ID.
func makeTabRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", tabRecordPrefix, id))
}

// makeTabDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeTabDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := tabRecordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialTabDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialTabDateKey(timestamp time.Time) []byte {
	prefix := tabRecordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeTabUserKey generates a composite key for the user index.
// Format: prefix:userID:id
// The user ID is null-terminated so one user's prefix can never be a
// prefix of another user's entries.
func makeTabUserKey(userID string, id core.ID) []byte {
	prefix := tabRecordUserPrefix + ":"
	totalSize := len(prefix) + len(userID) + 1 + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, []byte(prefix))
	offset += copy(buf[offset:], []byte(userID))
	buf[offset] = 0
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialTabUserKey generates a partial key for user-scoped queries.
// Format: prefix:userID
func makePartialTabUserKey(userID string) []byte {
	prefix := tabRecordUserPrefix + ":"
	totalSize := len(prefix) + len(userID) + 1
	buf := make([]byte, totalSize)
	offset := copy(buf, []byte(prefix))
	offset += copy(buf[offset:], []byte(userID))
	buf[offset] = 0
	return buf
}
