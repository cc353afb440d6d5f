package models

// Record is a schemaless snapshot of a single synchronized record as it is
// exchanged with devices and persisted by the record store adapter. Field
// semantics belong to the owning collection; the engine only fingerprints
// and transports the content.
type Record map[string]any

// Operation names the kind of change a device submits for a record.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether op is one of the three supported operations.
func (op Operation) Valid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Clone returns a shallow copy of the record. A nil record clones to nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}

	return c
}
