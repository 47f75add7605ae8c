package mask

import (
	"errors"
	"fmt"
)

// MaxInputs is the number of flags that fit in a combined code.
const MaxInputs = 8

// ErrTooManyInputs is returned when more than MaxInputs flags are combined.
var ErrTooManyInputs = errors.New("too many mask inputs")

// Combine returns a code whose bit i is set iff values[i] is non-zero.
// An empty input yields 0.
func Combine(values []float64) (uint8, error) {
	if len(values) > MaxInputs {
		return 0, fmt.Errorf("%w: got %d, max %d", ErrTooManyInputs, len(values), MaxInputs)
	}
	var code uint8
	for i, v := range values {
		if v != 0 {
			code |= 1 << uint(i)
		}
	}
	return code, nil
}

// BitTest reports whether every bit of a configured mask is set in a code.
type BitTest struct {
	mask uint16
}

// NewBitTest returns a BitTest for mask.
func NewBitTest(mask uint16) *BitTest {
	return &BitTest{mask: mask}
}

// SetMask replaces the tested bits. It must not race with Eval.
func (b *BitTest) SetMask(mask uint16) {
	b.mask = mask
}

// Mask returns the tested bits.
func (b *BitTest) Mask() uint16 {
	return b.mask
}

// Eval returns 1 when code&mask == mask and 0 otherwise.
func (b *BitTest) Eval(code uint16) uint8 {
	if code&b.mask == b.mask {
		return 1
	}
	return 0
}
