package accessor

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; async caches call them
// from whatever goroutine the backing accessor completes on.
type Hooks interface {
	// The cache went to the backing store for a read.
	// reason ∈ {"miss", "reload"}
	ReadThrough(name, reason string)

	// A backing read failed; the cell was left as it was.
	ReadFailed(name string, err error)

	// A backing write failed. The cell already holds the value, so the
	// cache is now ahead of the store until the next successful Push/Set.
	WriteFailed(name string, err error)

	// Push found an empty cell and wrote nothing.
	PushEmpty(name string)

	// MutateCAS lost a race for the cell and is retrying.
	MutateConflict(name string, attempt int)

	// A store adapter found a corrupt entry under key and deleted it.
	// reason ∈ {"corrupt"}
	SelfHeal(key, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ReadThrough(string, string) {}
func (NopHooks) ReadFailed(string, error)   {}
func (NopHooks) WriteFailed(string, error)  {}
func (NopHooks) PushEmpty(string)           {}
func (NopHooks) MutateConflict(string, int) {}
func (NopHooks) SelfHeal(string, string)    {}
