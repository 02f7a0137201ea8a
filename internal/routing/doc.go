// Package routing is the message-routing core: payload decoding, topic
// matching, link resolution, and the Router that drives outputs and
// actions from inbound messages.
//
// Topic matching is by prefix, and link ids match output/action ids by
// prefix too; both are documented legacy semantics. Link resolution runs
// once at config load, producing Bindings the Router iterates per message
// in subscription-table order.
package routing
