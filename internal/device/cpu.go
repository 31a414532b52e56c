package device

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	DefaultMaxElements = 1 << 24
	DefaultAskTimeout  = 5 * time.Second
)

// CPU is the reference Device. Kernels run on goroutines, one dispatch at a
// time, in the order the host submitted them. The order is enforced by a
// single goakt actor whose mailbox is the device queue.
type CPU struct {
	name        string
	logger      log.Logger
	kernels     map[string]Kernel
	maxElements int
	askTimeout  time.Duration
	workers     int
	trace       func(Trace)

	system actor.ActorSystem
	queue  *actor.PID

	mu          sync.RWMutex
	buffers     map[BufferID][]boid.State
	refs        map[BufferID]int
	bindings    map[BindingID]Binding
	nextBuffer  BufferID
	nextBinding BindingID
	allocated   int

	seq    atomic.Uint64
	fault  atomic.Pointer[error]
	closed atomic.Bool
}

var _ Device = (*CPU)(nil)

// Option configures a CPU device.
type Option func(*CPU)

// WithLogger sets the logger shared by the device and its actor system.
func WithLogger(logger log.Logger) Option {
	return func(d *CPU) { d.logger = logger }
}

// WithMaxElements caps the total number of elements across live buffers.
func WithMaxElements(n int) Option {
	return func(d *CPU) { d.maxElements = n }
}

// WithAskTimeout bounds Fence and ReadBack round trips.
func WithAskTimeout(timeout time.Duration) Option {
	return func(d *CPU) { d.askTimeout = timeout }
}

// WithWorkers sets how many goroutines execute the groups of one dispatch.
func WithWorkers(n int) Option {
	return func(d *CPU) { d.workers = n }
}

// WithTrace registers a hook called on the queue goroutine after each
// dispatch executes.
func WithTrace(fn func(Trace)) Option {
	return func(d *CPU) { d.trace = fn }
}

// NewCPU starts a CPU device able to run the given kernels.
func NewCPU(ctx context.Context, kernels []Kernel, opts ...Option) (*CPU, error) {
	d := &CPU{
		logger:      log.DiscardLogger,
		kernels:     make(map[string]Kernel, len(kernels)),
		maxElements: DefaultMaxElements,
		askTimeout:  DefaultAskTimeout,
		workers:     runtime.GOMAXPROCS(0),
		buffers:     make(map[BufferID][]boid.State),
		refs:        make(map[BufferID]int),
		bindings:    make(map[BindingID]Binding),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = 1
	}
	for _, k := range kernels {
		d.kernels[k.Name()] = k
	}
	d.name = fmt.Sprintf("CPU reference device (%d workers)", d.workers)

	system, err := actor.NewActorSystem("boids-device",
		actor.WithLogger(d.logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	// The queue must outlive idle periods between frames.
	pid, err := system.Spawn(ctx, "queue", &queueActor{dev: d}, actor.WithLongLived())
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn device queue: %w", err)
	}
	d.system = system
	d.queue = pid
	return d, nil
}

func (d *CPU) Name() string { return d.name }

func (d *CPU) Allocate(n int) (BufferID, error) {
	if n <= 0 {
		return 0, fmt.Errorf("device: invalid buffer size %d", n)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.allocated+n > d.maxElements {
		return 0, fmt.Errorf("%w: %d elements requested, %d of %d in use",
			ErrOutOfMemory, n, d.allocated, d.maxElements)
	}
	d.nextBuffer++
	id := d.nextBuffer
	d.buffers[id] = make([]boid.State, n)
	d.allocated += n
	return id, nil
}

func (d *CPU) Write(id BufferID, data []boid.State) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if d.refs[id] > 0 {
		return fmt.Errorf("%w: %d", ErrBufferBound, id)
	}
	if len(data) > len(buf) {
		return fmt.Errorf("device: writing %d elements into buffer %d of %d", len(data), id, len(buf))
	}
	copy(buf, data)
	return nil
}

func (d *CPU) Release(id BufferID) error {
	d.mu.RLock()
	_, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	return d.submit(command{op: opRelease, buffer: id})
}

func (d *CPU) GroupSize(kernel string) (int, error) {
	k, ok := d.kernels[kernel]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKernelNotFound, kernel)
	}
	if k.GroupSize() <= 0 {
		return 0, fmt.Errorf("%s: %w", kernel, ErrZeroGroupSize)
	}
	return k.GroupSize(), nil
}

func (d *CPU) Bind(b Binding) (BindingID, error) {
	k, ok := d.kernels[b.Kernel]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKernelNotFound, b.Kernel)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	exists := func(id BufferID) bool {
		_, ok := d.buffers[id]
		return ok
	}
	if err := b.validate(k, exists); err != nil {
		return 0, err
	}
	d.nextBinding++
	id := d.nextBinding
	d.bindings[id] = b
	for _, buf := range b.Buffers {
		d.refs[buf]++
	}
	return id, nil
}

func (d *CPU) Unbind(id BindingID) error {
	d.mu.RLock()
	_, ok := d.bindings[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBinding, id)
	}
	return d.submit(command{op: opUnbind, binding: id})
}

func (d *CPU) Dispatch(id BindingID, groups int, values map[string]float64) error {
	if groups < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGroups, groups)
	}
	d.mu.RLock()
	b, ok := d.bindings[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBinding, id)
	}
	if err := b.checkValues(values); err != nil {
		return err
	}
	if groups == 0 {
		return nil
	}
	return d.submit(command{op: opDispatch, binding: id, groups: groups, values: values})
}

func (d *CPU) Fence(ctx context.Context) error {
	if d.closed.Load() {
		return ErrClosed
	}
	reply, err := actor.Ask(ctx, d.queue, &emptypb.Empty{}, d.askTimeout)
	if err != nil {
		return fmt.Errorf("device fence: %w", err)
	}
	if msg, ok := reply.(*wrapperspb.StringValue); ok && msg.GetValue() != "" {
		return fmt.Errorf("%w: %s", ErrDeviceFault, msg.GetValue())
	}
	return nil
}

func (d *CPU) ReadBack(ctx context.Context, id BufferID) ([]boid.State, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	reply, err := actor.Ask(ctx, d.queue, wrapperspb.UInt32(uint32(id)), d.askTimeout)
	if err != nil {
		return nil, fmt.Errorf("device read-back: %w", err)
	}
	switch msg := reply.(type) {
	case *wrapperspb.BytesValue:
		return boid.Decode(msg.GetValue())
	case *wrapperspb.StringValue:
		// The only read-back failure is a buffer released before it ran.
		return nil, fmt.Errorf("%w: %d (%s)", ErrUnknownBuffer, id, msg.GetValue())
	default:
		return nil, fmt.Errorf("device read-back: unexpected reply %T", reply)
	}
}

func (d *CPU) Err() error {
	if p := d.fault.Load(); p != nil {
		return fmt.Errorf("%w: %v", ErrDeviceFault, *p)
	}
	return nil
}

// Close stops the device queue. Commands still queued are dropped.
func (d *CPU) Close(ctx context.Context) error {
	if d.closed.Swap(true) {
		return nil
	}
	return d.system.Stop(ctx)
}

// submit hands a command to the queue without waiting for it to run.
func (d *CPU) submit(c command) error {
	if d.closed.Load() {
		return ErrClosed
	}
	c.seq = d.seq.Add(1)
	msg, err := c.toProto()
	if err != nil {
		return err
	}
	// The Tell context only scopes the enqueue, never the execution.
	if err := actor.Tell(context.Background(), d.queue, msg); err != nil {
		return fmt.Errorf("device submit: %w", err)
	}
	return nil
}

// latch records the first fault; later dispatches are skipped.
func (d *CPU) latch(err error) {
	d.fault.CompareAndSwap(nil, &err)
}

// execute runs a dispatch on the queue goroutine.
func (d *CPU) execute(c command) error {
	d.mu.RLock()
	b, ok := d.bindings[c.binding]
	if !ok {
		d.mu.RUnlock()
		return fmt.Errorf("%w: %d", ErrUnknownBinding, c.binding)
	}
	bufs := make(map[string][]boid.State, len(b.Buffers))
	for slot, id := range b.Buffers {
		buf, ok := d.buffers[id]
		if !ok {
			d.mu.RUnlock()
			return fmt.Errorf("%s.%s: %w: %d", b.Kernel, slot, ErrUnknownBuffer, id)
		}
		bufs[slot] = buf
	}
	d.mu.RUnlock()

	k := d.kernels[b.Kernel]
	inv := &Invocation{
		GroupSize: k.GroupSize(),
		Groups:    c.groups,
		Buffers:   bufs,
		Scalars:   b.scalars(c.values),
	}

	g := new(errgroup.Group)
	g.SetLimit(d.workers)
	chunk := (c.groups + d.workers - 1) / d.workers
	for start := 0; start < c.groups; start += chunk {
		end := min(start+chunk, c.groups)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s: group panic: %v", k.Name(), r)
				}
			}()
			for group := start; group < end; group++ {
				if err := k.RunGroup(group, inv); err != nil {
					return fmt.Errorf("%s group %d: %w", k.Name(), group, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if d.trace != nil {
		d.trace(Trace{Seq: c.seq, Kernel: b.Kernel, Binding: c.binding, Groups: c.groups, Values: c.values})
	}
	return nil
}

// release frees a buffer on the queue goroutine.
func (d *CPU) release(id BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if buf, ok := d.buffers[id]; ok {
		d.allocated -= len(buf)
		delete(d.buffers, id)
		delete(d.refs, id)
	}
}

// unbind drops a binding on the queue goroutine.
func (d *CPU) unbind(id BindingID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.bindings[id]
	if !ok {
		return
	}
	for _, buf := range b.Buffers {
		if d.refs[buf] > 0 {
			d.refs[buf]--
		}
	}
	delete(d.bindings, id)
}

// snapshot encodes a buffer on the queue goroutine.
func (d *CPU) snapshot(id BufferID) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	buf, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	return boid.Encode(buf), nil
}
