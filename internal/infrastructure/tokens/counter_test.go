package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimator(t *testing.T) {
	c := NewEstimator()

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("abc"))
	assert.Equal(t, 1, c.Count("abcd"))
	assert.Equal(t, 2, c.Count("abcde"))
}

func TestNew(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	n := c.Count("hello world")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 5)
}

func TestNew_UnknownEncoding(t *testing.T) {
	c, err := New("no-such-encoding")
	assert.Error(t, err)
	assert.Equal(t, 2, c.Count("abcdefgh"))
}
