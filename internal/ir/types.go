package ir

// Record is one entry in a RecordStore.
// Records are created by append and only their Vote ever changes.
type Record struct {
	Link  string   `json:"link"`  // Arbitrary text, not validated
	Owner Identity `json:"owner"` // Caller that appended the record
	Vote  int32    `json:"vote"`  // Signed tally, may go negative
}

// RecordStore is the logical content of an account buffer.
//
// Invariant: Count == len(Records) after every successful operation.
// Records are never reordered, compacted or removed, so indices are stable.
type RecordStore struct {
	Count   uint64   `json:"count"`
	Records []Record `json:"records"`
}

// Clone returns a deep copy of the store.
func (s RecordStore) Clone() RecordStore {
	out := RecordStore{Count: s.Count, Records: make([]Record, len(s.Records))}
	copy(out.Records, s.Records)
	return out
}

// Account is a host-managed buffer plus the metadata the host tracks for it.
type Account struct {
	Address    Identity `json:"address"`
	Owner      Identity `json:"owner"` // Program that may mutate Data
	Space      int      `json:"space"` // Fixed capacity of Data
	Data       []byte   `json:"-"`
	CreatedSeq int64    `json:"created_seq"`
}

// Transaction status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Transaction is one entry of the host's append-only transaction log.
// Failed calls are logged too; they never change the account buffer.
type Transaction struct {
	ID           string   `json:"id"`  // Content-addressed hash
	Seq          int64    `json:"seq"` // Logical clock
	Instruction  string   `json:"instruction"`
	Account      Identity `json:"account"`
	Caller       Identity `json:"caller"`
	Args         string   `json:"args"` // Canonical JSON
	Status       string   `json:"status"`
	ErrorCode    string   `json:"error_code,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}
