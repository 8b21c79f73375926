package layout

import "fmt"

// CapacityError reports a write that would not fit in a fixed-size buffer.
type CapacityError struct {
	Need     int // Bytes the write or encoding requires
	Capacity int // Bytes available
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: need %d bytes, capacity %d", e.Need, e.Capacity)
}

// DecodeError reports buffer contents that do not match the canonical layout.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode at offset %d: %s", e.Offset, e.Reason)
}
