package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()
	b := Backoff{Min: 10 * time.Millisecond, Max: 80 * time.Millisecond, K: 2}

	assert.Equal(t, time.Duration(0), b.DelayBefore())

	d1 := b.DelayAfter(false)
	assert.True(t, d1 > 0 && d1 <= 20*time.Millisecond, "d1=%s", d1)
	d2 := b.DelayAfter(false)
	assert.True(t, d2 > d1, "d1=%s d2=%s", d1, d2)

	for i := 0; i < 10; i++ {
		b.Failure()
	}
	assert.True(t, b.DelayBefore() <= 80*time.Millisecond)

	b.Reset()
	time.Sleep(11 * time.Millisecond)
	assert.Equal(t, time.Duration(0), b.DelayBefore())
}
