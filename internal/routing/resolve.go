package routing

import (
	"strings"

	"github.com/nerrad567/gray-switch/internal/action"
	"github.com/nerrad567/gray-switch/internal/bridgecfg"
	"github.com/nerrad567/gray-switch/internal/output"
)

// topicMatches reports whether a message topic matches a subscription
// pattern.
//
// Matching is by prefix, not MQTT wildcards: the pattern "home/relay"
// matches "home/relay1/set". This mirrors the historical behaviour and is
// a known limitation; exact equality would avoid accidental collisions but
// would silently change existing deployments.
func topicMatches(topic, pattern string) bool {
	return strings.HasPrefix(topic, pattern)
}

// Binding is one subscription with its link id resolved to concrete
// output and action entries. Resolution happens once at config load, not
// per message.
type Binding struct {
	Sub     bridgecfg.Subscription
	Outputs []*output.Entry
	Actions []*action.Entry
}

// Resolve binds every subscription to its targets.
//
// A link id matches every output/action id that equals it or extends it:
// link "X" matches ids "X" and "XY" but not "Y". One configured id
// prefixing another makes short link ids greedy, so that situation is
// reported through warn as a configuration warning. A subscription that
// resolves to nothing is likewise warned about; it is kept, and matching
// messages will simply find no targets.
func Resolve(table *bridgecfg.Table, outputs *output.Registry, actions *action.Registry, warn func(msg string, args ...any)) []Binding {
	if warn == nil {
		warn = func(string, ...any) {}
	}

	warnAmbiguousIDs(outputs, actions, warn)

	bindings := make([]Binding, 0, len(table.Subscriptions))
	for _, sub := range table.Subscriptions {
		b := Binding{
			Sub:     sub,
			Outputs: outputs.MatchPrefix(sub.LinkID),
			Actions: actions.MatchPrefix(sub.LinkID),
		}
		if len(b.Outputs) == 0 && len(b.Actions) == 0 {
			warn("subscription links no output or action",
				"topic", sub.Topic,
				"link_id", sub.LinkID,
			)
		}
		bindings = append(bindings, b)
	}
	return bindings
}

// warnAmbiguousIDs reports configured ids where one is a proper prefix of
// another, since a link id naming the shorter one greedily matches both.
// An output and an action sharing the same id is deliberate (both are
// driven) and not warned.
func warnAmbiguousIDs(outputs *output.Registry, actions *action.Registry, warn func(msg string, args ...any)) {
	type namedID struct {
		id   string
		kind string
	}

	var ids []namedID
	for _, e := range outputs.Entries() {
		ids = append(ids, namedID{id: e.ID, kind: "output"})
	}
	for _, e := range actions.Entries() {
		ids = append(ids, namedID{id: e.ID, kind: "action"})
	}

	for _, shorter := range ids {
		for _, longer := range ids {
			if shorter.id != longer.id && strings.HasPrefix(longer.id, shorter.id) {
				warn("ambiguous ids: one is a prefix of the other",
					"shorter", shorter.id,
					"shorter_kind", shorter.kind,
					"longer", longer.id,
					"longer_kind", longer.kind,
				)
			}
		}
	}
}
