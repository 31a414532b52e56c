package reduction

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/kernels"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/store"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/log"
)

func TestSchedule(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		blockSize int
		policy    device.Remainder
		want      []int
	}{
		{"1024 drop", 1024, 32, device.RemainderDrop, []int{1024, 32}},
		{"1024 pad", 1024, 32, device.RemainderPad, []int{1024, 32}},
		{"32768 drop", 32768, 32, device.RemainderDrop, []int{32768, 1024, 32}},
		{"32 drop", 32, 32, device.RemainderDrop, []int{32}},
		{"64 drop leaves two aggregates", 64, 32, device.RemainderDrop, []int{64}},
		{"64 pad reduces to one", 64, 32, device.RemainderPad, []int{64, 2}},
		{"Smaller than a block drop", 16, 32, device.RemainderDrop, nil},
		{"Smaller than a block pad", 16, 32, device.RemainderPad, []int{16}},
		{"Single particle drop", 1, 32, device.RemainderDrop, nil},
		{"Single particle pad", 1, 32, device.RemainderPad, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Schedule(tt.n, tt.blockSize, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedule_Terminates(t *testing.T) {
	for _, policy := range []device.Remainder{device.RemainderDrop, device.RemainderPad} {
		for _, bs := range []int{2, 4, 32, 256} {
			for n := 1; n <= 1<<16; n <<= 1 {
				sizes, err := Schedule(n, bs, policy)
				require.NoError(t, err)
				for i := 1; i < len(sizes); i++ {
					if sizes[i] >= sizes[i-1] {
						t.Fatalf("%s bs=%d n=%d: schedule does not shrink: %v", policy, bs, n, sizes)
					}
				}
			}
		}
	}
}

func TestSchedule_InvalidBlockSize(t *testing.T) {
	for _, bs := range []int{0, 1, 3, 24, -8} {
		_, err := Schedule(64, bs, device.RemainderPad)
		assert.ErrorIs(t, err, ErrInvalidBlockSize, "block size %d", bs)
	}
	_, err := Schedule(64, 32, device.Remainder("round"))
	assert.Error(t, err)
}

type fixture struct {
	dev       *device.CPU
	particles device.BufferID
	scratch   [2]device.BufferID
	states    []boid.State
	traces    []device.Trace
}

func newFixture(t *testing.T, n, blockSize int) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{}
	dev, err := device.NewCPU(ctx, kernels.All(blockSize, kernels.DefaultSteerGroupSize),
		device.WithLogger(log.DiscardLogger),
		device.WithTrace(func(tr device.Trace) { f.traces = append(f.traces, tr) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close(ctx) })
	f.dev = dev

	extent := mgl32.Vec3{10, 10, 10}
	f.particles, err = store.Populate(dev, n, extent, store.DefaultSeed)
	require.NoError(t, err)
	f.states, err = store.Seed(n, extent, store.DefaultSeed)
	require.NoError(t, err)
	for i := range f.scratch {
		f.scratch[i], err = dev.Allocate(n)
		require.NoError(t, err)
	}
	return f
}

func hostMean(states []boid.State) boid.State {
	var n behavior.Neighborhood
	for _, s := range states {
		n.Accumulate(s)
	}
	n.Mean()
	return boid.State{Position: n.Center, Heading: n.Heading}
}

func assertClose(t *testing.T, want, got boid.State) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want.Position[i], got.Position[i], 1e-4, "position %d", i)
		assert.InDelta(t, want.Heading[i], got.Heading[i], 1e-4, "heading %d", i)
	}
}

func TestDriver_PingPong(t *testing.T) {
	f := newFixture(t, 64, 4)
	ctx := context.Background()

	d, err := NewDriver(f.dev, f.particles, f.scratch, 64, device.RemainderPad)
	require.NoError(t, err)
	assert.Equal(t, []int{64, 16, 4}, d.Passes())

	// Three passes write scratch[0], scratch[1], scratch[0].
	result, count := d.Result()
	assert.Equal(t, f.scratch[0], result)
	assert.Equal(t, 1, count)

	require.NoError(t, d.Run())
	require.NoError(t, f.dev.Fence(ctx))

	require.Len(t, f.traces, 3)
	for i, groups := range []int{16, 4, 1} {
		assert.Equal(t, kernels.Reduce, f.traces[i].Kernel)
		assert.Equal(t, groups, f.traces[i].Groups)
	}

	agg, err := f.dev.ReadBack(ctx, result)
	require.NoError(t, err)
	assertClose(t, hostMean(f.states), agg[0])

	// The particle buffer is only read.
	particles, err := f.dev.ReadBack(ctx, f.particles)
	require.NoError(t, err)
	assert.Equal(t, f.states, particles)

	require.NoError(t, d.Release())
}

func TestDriver_DropKeepsBlockAggregates(t *testing.T) {
	f := newFixture(t, 16, 4)
	ctx := context.Background()

	d, err := NewDriver(f.dev, f.particles, f.scratch, 16, device.RemainderDrop)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 4}, d.Passes())

	result, count := d.Result()
	assert.Equal(t, f.scratch[1], result)
	assert.Equal(t, 1, count)

	require.NoError(t, d.Run())
	agg, err := f.dev.ReadBack(ctx, result)
	require.NoError(t, err)
	assertClose(t, hostMean(f.states), agg[0])
}

func TestDriver_NoPasses(t *testing.T) {
	f := newFixture(t, 2, 4)

	d, err := NewDriver(f.dev, f.particles, f.scratch, 2, device.RemainderDrop)
	require.NoError(t, err)
	assert.Empty(t, d.Passes())

	result, count := d.Result()
	assert.Equal(t, f.scratch[0], result)
	assert.Equal(t, 0, count)

	require.NoError(t, d.Run())
	require.NoError(t, f.dev.Fence(context.Background()))
	assert.Empty(t, f.traces)
}

func TestDriver_UnknownBufferRollsBack(t *testing.T) {
	f := newFixture(t, 64, 4)

	_, err := NewDriver(f.dev, f.particles, [2]device.BufferID{f.scratch[0], 999}, 64, device.RemainderPad)
	require.ErrorIs(t, err, device.ErrUnknownBuffer)

	// Pass 0 was bound then released; its buffers become writable again.
	require.NoError(t, f.dev.Fence(context.Background()))
	assert.NoError(t, f.dev.Write(f.scratch[0], nil))
}
