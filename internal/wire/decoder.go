// Package wire decodes the compact delimited streaming protocol used by
// the aggregate-pairs price stream. A message is a list of `~`-separated
// tokens whose final token is a hexadecimal bitmask; the mask decides
// which optional schema fields the preceding tokens map onto.
package wire

import (
	"strconv"
	"strings"

	"github.com/rainner/cc-stream/internal/domain"
)

// Delimiter separates tokens in stream payloads and subscription keys.
const Delimiter = "~"

// Field is one schema entry. Mask 0 marks an always-present field;
// any other mask marks a field present only when the message bitmask
// has that bit set.
type Field struct {
	Name string
	Mask uint32
}

// Schema is the ordered field list for one message type. Order is part
// of the wire contract: tokens are consumed positionally, so the schema
// must never be reordered independently of the producer.
type Schema []Field

// Message is a decoded payload. Fields the bitmask excluded, and fields
// whose tokens were missing from a short payload, are absent — callers
// must distinguish absent from present-but-empty via Get.
type Message struct {
	values map[string]string
}

// Decode splits a raw payload and walks the schema in declared order.
// A malformed bitmask decodes as 0, leaving only the always-present
// fields. A payload with fewer tokens than expected yields absent
// trailing fields. Decode never fails.
func (s Schema) Decode(payload string) Message {
	parts := strings.Split(payload, Delimiter)
	mask64, err := strconv.ParseUint(parts[len(parts)-1], 16, 32)
	if err != nil {
		mask64 = 0
	}
	mask := uint32(mask64)

	msg := Message{values: make(map[string]string, len(s))}
	idx := 0
	for _, f := range s {
		if f.Mask != 0 && mask&f.Mask == 0 {
			continue
		}
		if idx >= len(parts)-1 {
			// short payload: remaining present fields stay absent
			break
		}
		msg.values[f.Name] = parts[idx]
		idx++
	}
	return msg
}

// Get returns a field's raw token and whether it was present.
func (m Message) Get(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Float returns a present field coerced to float64, or (0, false) when
// the field is absent. Malformed numbers coerce to 0 like everywhere
// else in the pipeline.
func (m Message) Float(name string) (float64, bool) {
	v, ok := m.values[name]
	if !ok {
		return 0, false
	}
	return domain.Float(v), true
}

// Len reports how many fields decoded as present.
func (m Message) Len() int {
	return len(m.values)
}

// SubKey builds a `~`-joined subscription string for the stream server,
// e.g. SubKey("5", "CCCAGG", "BTC", "USD") -> "5~CCCAGG~BTC~USD".
func SubKey(parts ...string) string {
	return strings.Join(parts, Delimiter)
}

// TypeCurrentAgg is the message type tag of aggregate pair updates.
const TypeCurrentAgg = "5"

// CurrentAgg is the schema of aggregate pair update messages. The first
// five fields ride on every message; the rest are bitmask-gated.
var CurrentAgg = Schema{
	{Name: "TYPE", Mask: 0x0},
	{Name: "MARKET", Mask: 0x0},
	{Name: "FROMSYMBOL", Mask: 0x0},
	{Name: "TOSYMBOL", Mask: 0x0},
	{Name: "FLAGS", Mask: 0x0},
	{Name: "PRICE", Mask: 0x1},
	{Name: "BID", Mask: 0x2},
	{Name: "OFFER", Mask: 0x4},
	{Name: "LASTUPDATE", Mask: 0x8},
	{Name: "AVG", Mask: 0x10},
	{Name: "LASTVOLUME", Mask: 0x20},
	{Name: "LASTVOLUMETO", Mask: 0x40},
	{Name: "LASTTRADEID", Mask: 0x80},
	{Name: "VOLUMEHOUR", Mask: 0x100},
	{Name: "VOLUMEHOURTO", Mask: 0x200},
	{Name: "VOLUME24HOUR", Mask: 0x400},
	{Name: "VOLUME24HOURTO", Mask: 0x800},
	{Name: "OPENHOUR", Mask: 0x1000},
	{Name: "HIGHHOUR", Mask: 0x2000},
	{Name: "LOWHOUR", Mask: 0x4000},
	{Name: "OPEN24HOUR", Mask: 0x8000},
	{Name: "HIGH24HOUR", Mask: 0x10000},
	{Name: "LOW24HOUR", Mask: 0x20000},
	{Name: "LASTMARKET", Mask: 0x40000},
}
