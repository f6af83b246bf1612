package audit

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// auditEncMode is the canonical CBOR encoder mode used for durable audit
// trails: sorted map keys and no indefinite-length items, so two
// encodings of the same Event are byte-identical.
var auditEncMode cbor.EncMode

func init() {
	opts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("audit: failed to build CBOR encoder mode: %v", err))
	}
	auditEncMode = mode
}

// CBORLogger serializes each Event with the canonical encoder above and
// writes it to an underlying io.Writer, one record per call, guarded by
// a mutex since the writer itself may not be safe for concurrent use.
type CBORLogger struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewCBORLogger wraps w with a canonical CBOR encoder.
func NewCBORLogger(w io.Writer) *CBORLogger {
	return &CBORLogger{enc: auditEncMode.NewEncoder(w)}
}

func (c *CBORLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A write failure here has nowhere safe to go: the audit sink must
	// never block or panic the request path it is observing.
	_ = c.enc.Encode(e)
}

var _ Logger = (*CBORLogger)(nil)
