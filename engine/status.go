// Status codes returned by the engine.
//
// Every non-nil error returned by this package is a Status. The numeric
// values are a stable contract: callers above the engine compare them,
// store them and hand them back to String for a description. New codes are
// appended below MinStatus and MinStatus moves with them.
package engine

// Status is the result code of an engine operation.
type Status int

const (
	StatusOK                Status = 0
	StatusInvalidArgs       Status = -1
	StatusOpenFail          Status = -2
	StatusNoSuchFile        Status = -3
	StatusWriteFail         Status = -4
	StatusReadFail          Status = -5
	StatusCloseFail         Status = -6
	StatusCommitFail        Status = -7
	StatusAllocFail         Status = -8
	StatusKeyNotFound       Status = -9
	StatusReadOnlyViolation Status = -10
	StatusCompactionFail    Status = -11
	StatusIteratorFail      Status = -12
	StatusSeekFail          Status = -13
	StatusFsyncFail         Status = -14
	StatusChecksumError     Status = -15
	StatusFileCorruption    Status = -16
	StatusCompressionFail   Status = -17
	StatusInvalidConfig     Status = -18
	StatusFileIsBusy        Status = -19
	StatusFileRemoveFail    Status = -20
	StatusFileRenameFail    Status = -21
	StatusInvalidHandle     Status = -22
	StatusInvalidStoreName  Status = -23
	StatusFileNotOpen       Status = -24
	StatusNoDBHeaders       Status = -25
	StatusRecordTooLarge    Status = -26
)

// MinStatus is the most negative code the engine emits. Codes below it
// are never produced by this package.
const MinStatus = StatusRecordTooLarge

var messages = map[Status]string{
	StatusOK:                "success",
	StatusInvalidArgs:       "invalid arguments",
	StatusOpenFail:          "error opening file",
	StatusNoSuchFile:        "no such file",
	StatusWriteFail:         "error writing to file",
	StatusReadFail:          "error reading from file",
	StatusCloseFail:         "error closing file",
	StatusCommitFail:        "commit failed",
	StatusAllocFail:         "memory allocation failed",
	StatusKeyNotFound:       "key not found",
	StatusReadOnlyViolation: "database is read-only",
	StatusCompactionFail:    "compaction failed",
	StatusIteratorFail:      "iterator failed",
	StatusSeekFail:          "seek failed",
	StatusFsyncFail:         "fsync failed",
	StatusChecksumError:     "checksum mismatch",
	StatusFileCorruption:    "file corruption",
	StatusCompressionFail:   "compression failed",
	StatusInvalidConfig:     "invalid configuration",
	StatusFileIsBusy:        "file is locked by another process",
	StatusFileRemoveFail:    "error removing file",
	StatusFileRenameFail:    "error renaming file",
	StatusInvalidHandle:     "invalid handle",
	StatusInvalidStoreName:  "invalid key-value store name",
	StatusFileNotOpen:       "database file is not open",
	StatusNoDBHeaders:       "no database header found",
	StatusRecordTooLarge:    "record exceeds maximum size",
}

// String returns the engine's description of the code. Codes the engine
// does not define return "unknown error".
func (s Status) String() string {
	if msg, ok := messages[s]; ok {
		return msg
	}
	return "unknown error"
}

// Error implements the error interface.
func (s Status) Error() string {
	return s.String()
}

// Statuses returns every code the engine can emit, from StatusOK down to
// MinStatus.
func Statuses() []Status {
	out := make([]Status, 0, int(-MinStatus)+1)
	for s := StatusOK; s >= MinStatus; s-- {
		out = append(out, s)
	}
	return out
}
