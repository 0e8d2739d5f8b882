// internal/feed/codec.go
package feed

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// contentType marks broker payloads encoded by this package.
const contentType = "application/cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	opts := cbor.CoreDetEncOptions()
	// ids travel as their canonical text form
	opts.TextMarshaler = cbor.TextMarshalerTextString
	opts.Time = cbor.TimeRFC3339Nano
	encMode, err = opts.EncMode()
	if err != nil {
		panic("feed: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("feed: CBOR decoder initialization failed: " + err.Error())
	}
}

func encodeEvent(ev Event) ([]byte, error) {
	b, err := encMode.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

func decodeEvent(b []byte) (Event, error) {
	var ev Event
	if err := decMode.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
