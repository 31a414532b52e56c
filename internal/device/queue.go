package device

import (
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// queueActor is the device queue. Its mailbox is processed one message at a
// time, so commands run in submission order.
type queueActor struct {
	dev      *CPU
	executed uint64
	skipped  uint64
}

func (q *queueActor) PreStart(ctx *actor.Context) error {
	return nil
}

func (q *queueActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("device queue started on %s", q.dev.Name())

	case *structpb.Struct:
		c, err := commandFromProto(msg)
		if err != nil {
			ctx.Logger().Errorf("dropping command: %v", err)
			return
		}
		q.run(ctx, c)

	case *emptypb.Empty:
		// Fence: every earlier message has been handled by now.
		fault := ""
		if p := q.dev.fault.Load(); p != nil {
			fault = (*p).Error()
		}
		ctx.Response(wrapperspb.String(fault))

	case *wrapperspb.UInt32Value:
		data, err := q.dev.snapshot(BufferID(msg.GetValue()))
		if err != nil {
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		ctx.Response(wrapperspb.Bytes(data))

	default:
		ctx.Unhandled()
	}
}

func (q *queueActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("device queue stopped: %d dispatches executed, %d skipped", q.executed, q.skipped)
	return nil
}

func (q *queueActor) run(ctx *actor.ReceiveContext, c command) {
	switch c.op {
	case opRelease:
		q.dev.release(c.buffer)
	case opUnbind:
		q.dev.unbind(c.binding)
	case opDispatch:
		if q.dev.fault.Load() != nil {
			q.skipped++
			ctx.Logger().Debugf("skipping dispatch #%d after device fault", c.seq)
			return
		}
		if err := q.dev.execute(c); err != nil {
			q.dev.latch(err)
			ctx.Logger().Errorf("dispatch #%d failed: %v", c.seq, err)
			return
		}
		q.executed++
	}
}
