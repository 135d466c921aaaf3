package scope

import (
	"testing"

	"github.com/itohio/gopcr/pkg/trace"
	"github.com/stretchr/testify/assert"
)

func TestAutoScale_Empty(t *testing.T) {
	assert.Equal(t, Scale{YMin: 0, YMax: 1, XMin: 0, XMax: 60}, AutoScale(nil, 60))
}

func TestAutoScale_CoversBothTraces(t *testing.T) {
	sc := AutoScale([]trace.Sample{
		{Elapsed: 1, Current: 5, Target: 10},
		{Elapsed: 2, Current: 12, Target: 10},
		{Elapsed: 3, Current: 8, Target: 6},
	}, 10)

	assert.Equal(t, float32(0), sc.YMin, "zero gauge stays visible")
	assert.InDelta(t, 13.2, sc.YMax, 1e-4)
	assert.Equal(t, float32(1), sc.XMin)
	assert.Equal(t, float32(11), sc.XMax, "at least one window wide")
}

func TestAutoScale_LongHistory(t *testing.T) {
	sc := AutoScale([]trace.Sample{
		{Elapsed: 0, Current: 0},
		{Elapsed: 100, Current: 0},
	}, 10)

	assert.Equal(t, float32(0), sc.XMin)
	assert.Equal(t, float32(100), sc.XMax)
	assert.Equal(t, float32(0), sc.YMin)
	assert.InDelta(t, 0.1, sc.YMax, 1e-6, "flat trace gets a unit span")
}

func TestPlot_Pos(t *testing.T) {
	p := plot{x: 10, y: 20, w: 100, h: 50, sc: Scale{YMin: 0, YMax: 10, XMin: 0, XMax: 5}}

	a := p.pos(0, 0)
	assert.Equal(t, float32(10), a.X)
	assert.Equal(t, float32(70), a.Y)

	b := p.pos(5, 10)
	assert.Equal(t, float32(110), b.X)
	assert.Equal(t, float32(20), b.Y)
}
