package viewmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapUnmap(t *testing.T) {
	r, err := Map(1 << 16)
	assert.Nil(t, err)
	assert.Equal(t, 1<<16, len(r.Mem))

	// the region starts zeroed and is writable
	for _, b := range r.Mem[:4096] {
		assert.Equal(t, byte(0), b)
	}
	r.Mem[0] = 0xAA
	assert.Equal(t, byte(0xAA), r.Mem[0])

	assert.Nil(t, Unmap(r))
	assert.Nil(t, Unmap(r)) // idempotent
	assert.Nil(t, Unmap(nil))
}

func TestMapRejectsBadSize(t *testing.T) {
	_, err := Map(0)
	assert.NotNil(t, err)
	_, err = Map(-1)
	assert.NotNil(t, err)
}
