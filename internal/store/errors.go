package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against
// these values.
var (
	// ErrDeviceNotFound is returned when an operation references a device
	// id that has never been registered.
	ErrDeviceNotFound = errors.New("device was not found")

	// ErrRecordNotFound is returned when an update or delete targets a
	// record that does not exist in the record store, or when a queried
	// record is absent.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrVersionNotFound is returned when a ledger operation targets a
	// (collection, record id) pair that has no version row yet.
	ErrVersionNotFound = errors.New("version record was not found")

	// ErrVersionConflict is returned when the atomic conditional bump
	// fails: the server's current version is ahead of the version the
	// device submitted, meaning another device modified the record since
	// the submitter last synchronized.
	ErrVersionConflict = errors.New("record version conflict occurred")

	// ErrPendingChangeNotFound is returned when a resolution references a
	// pending change id that does not exist.
	ErrPendingChangeNotFound = errors.New("pending change was not found")

	// ErrUnknownCollection is returned by the adapter registry when no
	// record store has been registered for the requested collection name.
	ErrUnknownCollection = errors.New("collection is not registered")

	// ErrCollectionAlreadyRegistered is returned when two record stores
	// are registered under the same collection name.
	ErrCollectionAlreadyRegistered = errors.New("collection is already registered")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan result row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan result rows")

	// ErrEncodingSnapshot is returned when a record snapshot cannot be
	// serialized for JSONB storage.
	ErrEncodingSnapshot = errors.New("failed to encode record snapshot")

	// ErrDecodingSnapshot is returned when a stored JSONB snapshot cannot
	// be deserialized back into a record.
	ErrDecodingSnapshot = errors.New("failed to decode record snapshot")
)
