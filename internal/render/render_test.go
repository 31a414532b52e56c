package render

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/log"
)

func TestCapture(t *testing.T) {
	var c Capture
	_, ok := c.Current()
	assert.False(t, ok)

	c.Present(View{Buffer: 3, Count: 64})
	v, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, View{Buffer: 3, Count: 64}, v)

	c.Withdraw()
	_, ok = c.Current()
	assert.False(t, ok)

	presented, withdrawn := c.Counts()
	assert.Equal(t, 1, presented)
	assert.Equal(t, 1, withdrawn)
}

func TestFetch_TrimsToCount(t *testing.T) {
	ctx := context.Background()
	dev, err := device.NewCPU(ctx, nil, device.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	defer dev.Close(ctx)

	buf, err := dev.Allocate(8)
	require.NoError(t, err)
	require.NoError(t, dev.Write(buf, []boid.State{{Position: mgl32.Vec3{1, 2, 3}}}))

	states, err := Fetch(ctx, dev, View{Buffer: buf, Count: 5})
	require.NoError(t, err)
	require.Len(t, states, 5)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, states[0].Position)
}

func TestCamera_Project(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{}, 10)

	x, y, ok := cam.Project(mgl32.Vec3{}, 640, 480)
	require.True(t, ok)
	assert.InDelta(t, 320, x, 0.5, "center projects to the screen center")
	assert.InDelta(t, 240, y, 0.5)

	_, up, ok := cam.Project(mgl32.Vec3{0, 5, 0}, 640, 480)
	require.True(t, ok)
	assert.Less(t, up, y, "higher points are drawn nearer the top")

	_, _, ok = cam.Project(cam.Eye.Add(mgl32.Vec3{0, -10, -30}), 640, 480)
	assert.False(t, ok, "points behind the eye are culled")
}

func TestCamera_OrbitKeepsDistance(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{1, 1, 1}, 10)
	before := cam.Eye.Sub(cam.Center).Len()
	cam.Orbit(1.3)
	assert.InDelta(t, before, cam.Eye.Sub(cam.Center).Len(), 1e-4)
}
