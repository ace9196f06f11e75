package reactive

// Op identifies the structural mutation that triggered a notification.
type Op uint8

const (
	OpSet     Op = iota // cell or derived value replaced
	OpAppend            // items added at the end
	OpPrepend           // items added at the front
	OpInsert            // item added at Index
	OpRemove            // item removed at Index
	OpReplace           // entire contents replaced
	OpClear             // all items removed
	OpSort              // items reordered in place
)

// String returns the string representation of the Op.
func (o Op) String() string {
	switch o {
	case OpSet:
		return "Set"
	case OpAppend:
		return "Append"
	case OpPrepend:
		return "Prepend"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpReplace:
		return "Replace"
	case OpClear:
		return "Clear"
	case OpSort:
		return "Sort"
	default:
		return "Unknown"
	}
}

// Mutation describes a single structural change to a reactive source.
// Collections pass the mutating method and its positional arguments so
// consumers can update incrementally instead of re-reading everything.
type Mutation struct {
	// Op is the mutating method that fired.
	Op Op

	// Index is the position the mutation applied to, where meaningful
	// (Insert, Remove). Append carries the pre-mutation length.
	Index int

	// Count is the number of items involved.
	Count int

	// Items holds the items the mutation introduced, in order, for
	// Append, Prepend, Insert, and Replace. Removal, Clear, and Sort
	// carry no payload.
	Items []any
}

// Subscriber is anything that can be notified when a source it watches
// changes. Bindings, conditional groups, and list reconcilers all
// implement it.
type Subscriber interface {
	// Invalidate notifies the subscriber that the source changed.
	// It runs synchronously on the mutating call.
	Invalidate(mu Mutation)

	// ID returns a unique identifier for this subscriber.
	// The registry deduplicates subscriptions by this identity.
	ID() uint64
}

// staleSubscriber is implemented by subscribers whose liveness is tied to
// an owning scope rather than an explicit Close on the subscription.
// The registry treats a stale subscriber exactly like a closed one.
type staleSubscriber interface {
	Stale() bool
}

// Source is the read surface shared by cells, collections, and derived
// values. Bindings classify a source once at bind time and then interact
// with it only through this interface.
type Source interface {
	// ID returns the unique identifier for this source.
	ID() uint64

	// Subscribe registers a subscriber and returns its disposer.
	// Subscribing the same subscriber identity twice returns the
	// original subscription.
	Subscribe(sub Subscriber) *Subscription

	// Value returns the current value without subscribing.
	Value() any
}

// ListSource is a Source whose value is an ordered sequence.
// Collections implement it directly; a Derived resolving to a collection
// is unwrapped to one by its consumer.
type ListSource interface {
	Source

	// Len returns the number of items.
	Len() int

	// At returns the item at index i. It panics if i is out of range.
	At(i int) any

	// Values returns a copy of the items.
	Values() []any
}
