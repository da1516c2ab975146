package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		current, previous int64
		want              int
	}{
		{5, 0, 100},
		{0, 0, 0},
		{10, 5, 100},
		{5, 10, -50},
		{3, 2, 50},
		{1, 3, -67},
		{2, 3, -33},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, growthRate(tt.current, tt.previous), "growthRate(%d, %d)", tt.current, tt.previous)
	}
}

func TestOverviewGrowth(t *testing.T) {
	// 3 sur 7 jours, 5 sur 30 jours: previous = max(1, 5-3) = 2
	assert.Equal(t, 50, overviewGrowth(3, 5))
	// previous plancher à 1
	assert.Equal(t, 200, overviewGrowth(3, 3))
	assert.Equal(t, -100, overviewGrowth(0, 0))
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		x        float64
		decimals int
		want     float64
	}{
		{2.5, 0, 3},
		{-2.5, 0, -2},
		{66.666, 0, 67},
		{4.25, 1, 4.3},
		{1.005, 2, 1.01},
		{math.NaN(), 0, 0},
		{math.Inf(1), 0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, roundHalfUp(tt.x, tt.decimals), 1e-9, "roundHalfUp(%v, %d)", tt.x, tt.decimals)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(3, 0))
	assert.Equal(t, 25, percent(1, 4))
	assert.Equal(t, 67, percent(2, 3))
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 3.0, toFloat(int32(3)))
	assert.Equal(t, 4.0, toFloat(int64(4)))
	assert.Equal(t, 1.5, toFloat(1.5))
	assert.Equal(t, 0.0, toFloat(nil))
	assert.Equal(t, 0.0, toFloat("12"))
	assert.Equal(t, 0.0, toFloat(math.NaN()))
}

func TestFirstDocAndDocs(t *testing.T) {
	arr := bson.A{bson.M{"n": int32(2)}, "ignoré", bson.M{"n": int32(3)}}
	assert.Equal(t, int32(2), firstDoc(arr)["n"])
	assert.Len(t, docs(arr), 2)
	assert.Empty(t, firstDoc(nil))
	assert.Empty(t, firstDoc(bson.A{}))
	assert.Empty(t, docs(nil))
}
