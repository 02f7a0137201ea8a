package bridgecfg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record keywords recognised in the bridge file.
const (
	keywordMQTT = "MQTT"
	keywordGPIO = "GPIO"
	keywordCMD  = "CMD"
	keywordSUB  = "SUB"

	// oneshotToken is the literal, case-sensitive CMD modifier.
	oneshotToken = "oneshot"

	// invPrefix marks a SUB invert modifier. Historically any token
	// starting with INV enabled inversion, so the prefix is preserved.
	invPrefix = "INV"

	maxQoS  = 2
	maxPort = 65535
)

// LoadFile parses the bridge file at path.
//
// Any malformed record is fatal: the returned error names the offending
// line number and the process is expected to exit before the message loop
// starts.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bridge config: %w", err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Parse reads the whitespace/tab-delimited bridge file from r.
//
// Lines beginning with '#' and blank lines are skipped. One record per
// line:
//
//	MQTT <host> <port>            exactly once
//	GPIO <id> <chip> <pin>        zero or more
//	CMD  <id> <path> [oneshot]    zero or more
//	SUB  <topic> <linkId> <qos> [INV...]
//
// Duplicate GPIO ids and duplicate CMD ids are rejected. Extra tokens past
// a record's recognised fields are reported as warnings, not errors.
func Parse(r io.Reader) (*Table, error) {
	table := &Table{}

	outputIDs := make(map[string]int)
	actionIDs := make(map[string]int)
	brokerLine := 0

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case keywordMQTT:
			if brokerLine != 0 {
				return nil, &ParseError{
					Line: lineNum,
					Msg:  fmt.Sprintf("MQTT already declared on line %d", brokerLine),
					Err:  ErrDuplicateBroker,
				}
			}
			broker, err := parseBroker(lineNum, fields)
			if err != nil {
				return nil, err
			}
			table.Broker = broker
			brokerLine = lineNum
			table.warnExtra(lineNum, fields, 3)

		case keywordGPIO:
			out, err := parseOutput(lineNum, fields)
			if err != nil {
				return nil, err
			}
			if prev, dup := outputIDs[out.ID]; dup {
				return nil, &ParseError{
					Line: lineNum,
					Msg:  fmt.Sprintf("GPIO id %q already declared on line %d", out.ID, prev),
					Err:  ErrDuplicateID,
				}
			}
			outputIDs[out.ID] = lineNum
			table.Outputs = append(table.Outputs, out)
			table.warnExtra(lineNum, fields, 4)

		case keywordCMD:
			act, err := parseAction(lineNum, fields)
			if err != nil {
				return nil, err
			}
			if prev, dup := actionIDs[act.ID]; dup {
				return nil, &ParseError{
					Line: lineNum,
					Msg:  fmt.Sprintf("CMD id %q already declared on line %d", act.ID, prev),
					Err:  ErrDuplicateID,
				}
			}
			actionIDs[act.ID] = lineNum
			table.Actions = append(table.Actions, act)
			if len(fields) >= 4 && fields[3] != oneshotToken {
				table.Warnings = append(table.Warnings,
					fmt.Sprintf("line %d: unrecognised CMD modifier %q (expected %q)",
						lineNum, fields[3], oneshotToken))
			}
			table.warnExtra(lineNum, fields, 4)

		case keywordSUB:
			sub, err := parseSubscription(lineNum, fields)
			if err != nil {
				return nil, err
			}
			table.Subscriptions = append(table.Subscriptions, sub)
			if len(fields) >= 5 && !strings.HasPrefix(fields[4], invPrefix) {
				table.Warnings = append(table.Warnings,
					fmt.Sprintf("line %d: unrecognised SUB modifier %q (expected %s)",
						lineNum, fields[4], invPrefix))
			}
			table.warnExtra(lineNum, fields, 5)

		default:
			return nil, parseErrorf(lineNum, "unknown record type %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bridge config: %w", err)
	}

	if brokerLine == 0 {
		return nil, ErrMissingBroker
	}

	return table, nil
}

// parseBroker parses "MQTT <host> <port>".
func parseBroker(lineNum int, fields []string) (Broker, error) {
	if len(fields) < 2 {
		return Broker{}, parseErrorf(lineNum, "MQTT server host expected")
	}
	if len(fields) < 3 {
		return Broker{}, parseErrorf(lineNum, "MQTT server port expected")
	}

	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return Broker{}, parseErrorf(lineNum, "MQTT port %q is not a number", fields[2])
	}
	if port < 1 || port > maxPort {
		return Broker{}, parseErrorf(lineNum, "MQTT port %d out of range (1-%d)", port, maxPort)
	}

	return Broker{Host: fields[1], Port: port}, nil
}

// parseOutput parses "GPIO <id> <chip> <pin>".
func parseOutput(lineNum int, fields []string) (Output, error) {
	if len(fields) < 2 {
		return Output{}, parseErrorf(lineNum, "gpio id expected")
	}
	if len(fields) < 3 {
		return Output{}, parseErrorf(lineNum, "gpio chip expected")
	}
	if len(fields) < 4 {
		return Output{}, parseErrorf(lineNum, "gpio pin expected")
	}

	pin, err := strconv.Atoi(fields[3])
	if err != nil {
		return Output{}, parseErrorf(lineNum, "gpio pin %q is not a number", fields[3])
	}
	if pin < 0 {
		return Output{}, parseErrorf(lineNum, "gpio pin %d must be non-negative", pin)
	}

	return Output{ID: fields[1], Chip: fields[2], Pin: pin}, nil
}

// parseAction parses "CMD <id> <path> [oneshot]".
func parseAction(lineNum int, fields []string) (Action, error) {
	if len(fields) < 2 {
		return Action{}, parseErrorf(lineNum, "cmd id expected")
	}
	if len(fields) < 3 {
		return Action{}, parseErrorf(lineNum, "cmd path expected")
	}

	act := Action{ID: fields[1], Path: fields[2]}
	// The modifier is case-sensitive; anything else never marks the
	// action oneshot.
	if len(fields) >= 4 && fields[3] == oneshotToken {
		act.Oneshot = true
	}
	return act, nil
}

// parseSubscription parses "SUB <topic> <linkId> <qos> [INV...]".
func parseSubscription(lineNum int, fields []string) (Subscription, error) {
	if len(fields) < 2 {
		return Subscription{}, parseErrorf(lineNum, "sub topic expected")
	}
	if len(fields) < 3 {
		return Subscription{}, parseErrorf(lineNum, "sub link id expected")
	}
	if len(fields) < 4 {
		return Subscription{}, parseErrorf(lineNum, "sub qos expected")
	}

	qos, err := strconv.Atoi(fields[3])
	if err != nil {
		return Subscription{}, parseErrorf(lineNum, "sub qos %q is not a number", fields[3])
	}
	if qos < 0 || qos > maxQoS {
		return Subscription{}, parseErrorf(lineNum, "sub qos %d out of range (0-%d)", qos, maxQoS)
	}

	sub := Subscription{Topic: fields[1], LinkID: fields[2], QoS: qos}
	if len(fields) >= 5 && strings.HasPrefix(fields[4], invPrefix) {
		sub.Invert = true
	}
	return sub, nil
}

// warnExtra records a warning when a record carries more tokens than its
// grammar defines. Extra tokens were silently ignored historically; keeping
// them non-fatal preserves old files while still surfacing likely typos.
func (t *Table) warnExtra(lineNum int, fields []string, want int) {
	if len(fields) > want {
		t.Warnings = append(t.Warnings,
			fmt.Sprintf("line %d: ignoring extra tokens after %s record: %s",
				lineNum, fields[0], strings.Join(fields[want:], " ")))
	}
}
