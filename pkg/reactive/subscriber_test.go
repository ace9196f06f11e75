package reactive

// testSubscriber counts notifications and records the mutations it saw.
type testSubscriber struct {
	id        uint64
	mutations []Mutation
	stale     bool
	onInvalid func(Mutation)
}

func newTestSubscriber() *testSubscriber {
	return &testSubscriber{id: nextID()}
}

func (t *testSubscriber) ID() uint64 { return t.id }

func (t *testSubscriber) Invalidate(mu Mutation) {
	t.mutations = append(t.mutations, mu)
	if t.onInvalid != nil {
		t.onInvalid(mu)
	}
}

func (t *testSubscriber) Stale() bool { return t.stale }

func (t *testSubscriber) count() int { return len(t.mutations) }
