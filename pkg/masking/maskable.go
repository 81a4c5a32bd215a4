package masking

import "fmt"

// Maskable is a header value that is either safe to print or masked.
type Maskable struct {
	value  string
	masked bool
}

func Normal(v string) Maskable { return Maskable{value: v} }
func Masked(v string) Maskable { return Maskable{value: v, masked: true} }

func (m Maskable) IsMasked() bool { return m.masked }

// Expose returns the raw value for the wire.
func (m Maskable) Expose() string { return m.value }

// String is the loggable form.
func (m Maskable) String() string {
	if m.masked {
		return mask
	}
	return m.value
}

func (m Maskable) Format(f fmt.State, _ rune) { _, _ = f.Write([]byte(m.String())) }
