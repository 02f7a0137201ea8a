// Package bridgecfg parses the line-oriented bridge file that defines the
// routing table: the MQTT broker, the digital outputs, the process actions,
// and the subscriptions linking topics to them.
//
// The format is deliberately plain: whitespace/tab-delimited records, one
// per line, with '#' comments. It predates this implementation and is kept
// compatible with existing deployments. Any malformed record is a fatal
// configuration error carrying its line number; the daemon fails fast
// before connecting to the broker.
package bridgecfg
