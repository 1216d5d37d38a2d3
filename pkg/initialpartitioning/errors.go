package initialpartitioning

import "errors"

// Sentinel errors returned by Base.
var (
	// ErrInvalidNode is returned for a node id outside [0, numNodes).
	ErrInvalidNode = errors.New("invalid node id")

	// ErrInvalidPart is returned for a part id outside [0, k).
	ErrInvalidPart = errors.New("invalid part id")

	// ErrInvalidK is returned when the configured number of parts is not positive
	// or does not match the hypergraph.
	ErrInvalidK = errors.New("invalid number of parts")

	// ErrStaleBalanceConstraints is returned when the configured bounds were
	// computed for a different total weight.
	ErrStaleBalanceConstraints = errors.New("balance constraints are stale")

	// ErrNoCandidateNode is returned by the sampler when no node carries the requested marker.
	ErrNoCandidateNode = errors.New("no node with the requested part marker")

	// ErrInconsistentState signals that incremental bookkeeping diverged from
	// the hypergraph. The attempt must be abandoned.
	ErrInconsistentState = errors.New("initial partitioning state is inconsistent")
)
