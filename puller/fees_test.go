package puller

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeanStddev(t *testing.T) {
	mean, sigma := meanStddev([]int64{10, 20, 30, 40, 50})
	assert.Equal(t, 30.0, mean)
	assert.InDelta(t, math.Sqrt(200), sigma, 1e-9)

	mean, sigma = meanStddev([]int64{7})
	assert.Equal(t, 7.0, mean)
	assert.Equal(t, 0.0, sigma)

	mean, sigma = meanStddev(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, sigma)
}

func TestFeeBands(t *testing.T) {
	low, medium, high := feeBands([]int64{10, 20, 30, 40, 50})
	assert.Equal(t, int64(30), medium)
	// 30 - sqrt(200) = 15.857.. floored
	assert.Equal(t, int64(15), low)
	// 30 + sqrt(200) = 44.142.. floored
	assert.Equal(t, int64(44), high)
}

func TestFeeBandsClampsLow(t *testing.T) {
	// sigma far above the mean drives the raw low band negative
	low, medium, _ := feeBands([]int64{0, 0, 0, 0, 1000})
	assert.Equal(t, int64(200), medium)
	assert.Equal(t, int64(0), low)
}

func TestBackoffInterval(t *testing.T) {
	base := 5 * time.Second
	assert.Equal(t, base, backoffInterval(base, 1))
	assert.Equal(t, 2*base, backoffInterval(base, 2))
	assert.Equal(t, 4*base, backoffInterval(base, 3))
	assert.Equal(t, maxBackoff, backoffInterval(base, 20))
}
