package rbacguard

// Watcher lets an Engine notify external processes sharing the same policy
// source that a reload is needed, and receive the same notification back.
// Modeled after Casbin's persist.Watcher contract; a concrete distributed
// implementation (Redis pub/sub, etcd, ...) is outside this package's
// scope, only the interface and a no-op default are provided here.
type Watcher interface {
	// Update broadcasts that the local policy changed in some way not
	// covered by the more specific UpdateFor* methods below.
	Update() error
	UpdateForAddPolicy(section, ptype string, rule ...string) error
	UpdateForRemovePolicy(section, ptype string, rule ...string) error
	UpdateForRemoveFilteredPolicy(section, ptype string, fieldIndex int, fieldValues ...string) error
	UpdateForSavePolicy(rules [][]string) error
	UpdateForAddPolicies(section, ptype string, rules ...[]string) error
	UpdateForRemovePolicies(section, ptype string, rules ...[]string) error
	// SetUpdateCallback registers the function the watcher invokes when it
	// observes an update notification from another process. The callback
	// receives the watcher's opaque payload string.
	SetUpdateCallback(callback func(string)) error
	Close() error
}

// NopWatcher is the default Watcher: every broadcast is a no-op and no
// callback ever fires. Suitable for a single-process Engine.
type NopWatcher struct{}

func (NopWatcher) Update() error                                       { return nil }
func (NopWatcher) UpdateForAddPolicy(_, _ string, _ ...string) error    { return nil }
func (NopWatcher) UpdateForRemovePolicy(_, _ string, _ ...string) error { return nil }
func (NopWatcher) UpdateForRemoveFilteredPolicy(_, _ string, _ int, _ ...string) error {
	return nil
}
func (NopWatcher) UpdateForSavePolicy(_ [][]string) error                  { return nil }
func (NopWatcher) UpdateForAddPolicies(_, _ string, _ ...[]string) error   { return nil }
func (NopWatcher) UpdateForRemovePolicies(_, _ string, _ ...[]string) error { return nil }
func (NopWatcher) SetUpdateCallback(func(string)) error                    { return nil }
func (NopWatcher) Close() error                                            { return nil }

var _ Watcher = NopWatcher{}
