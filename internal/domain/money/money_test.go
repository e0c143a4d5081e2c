package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumIsOrderIndependent(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 1e6, 0.07, 19.99}

	var forward, backward Sum
	for _, v := range values {
		forward.Add(v)
	}
	for i := len(values) - 1; i >= 0; i-- {
		backward.Add(values[i])
	}

	assert.True(t, forward.Decimal().Equal(backward.Decimal()))
	assert.Equal(t, 1000020.66, forward.Float())
}

func TestSumSkipsNonFinite(t *testing.T) {
	var s Sum
	assert.True(t, s.Add(10))
	assert.False(t, s.Add(math.NaN()))
	assert.False(t, s.AddProduct(math.Inf(1), 2))
	assert.True(t, s.AddProduct(5, 10))

	assert.Equal(t, 60.0, s.Float())
	assert.Equal(t, 2, s.Skipped())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(100, 0))
	assert.Equal(t, 100.0, Percent(50, 50))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 0.0, Round2(math.NaN()))
}
