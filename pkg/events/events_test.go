package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func (f *fakeClient) Close() { f.closed = true }

func TestKafkaPublish(t *testing.T) {
	cl := &fakeClient{}
	k := NewKafkaWithClient(cl, "storefront.orders")

	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	err := k.Publish(context.Background(), Event{
		Type:         TypeOrderStatusChanged,
		OrderID:      "O1",
		Status:       "shipped",
		StockUpdated: true,
		At:           at,
	})
	require.NoError(t, err)
	require.Len(t, cl.records, 1)

	rec := cl.records[0]
	assert.Equal(t, "storefront.orders", rec.Topic)
	assert.Equal(t, []byte("O1"), rec.Key)
	assert.Equal(t, "type", rec.Headers[0].Key)
	assert.Equal(t, []byte(TypeOrderStatusChanged), rec.Headers[0].Value)

	var got Event
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, "shipped", got.Status)
	assert.True(t, got.StockUpdated)
	assert.True(t, at.Equal(got.At))

	k.Close()
	assert.True(t, cl.closed)
}

func TestKafkaPublishError(t *testing.T) {
	boom := errors.New("broker down")
	k := NewKafkaWithClient(&fakeClient{err: boom}, "t")

	err := k.Publish(context.Background(), Event{OrderID: "O1"})
	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublishCancelled(t *testing.T) {
	cl := &fakeClient{}
	k := NewKafkaWithClient(cl, "t")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, k.Publish(ctx, Event{OrderID: "O1"}), context.Canceled)
	assert.Empty(t, cl.records)
}

func TestNewKafkaNeedsBrokers(t *testing.T) {
	_, err := NewKafka(context.Background(), nil, "t")
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), Event{OrderID: "a"}))
	require.NoError(t, r.Publish(context.Background(), Event{OrderID: "b"}))

	got := r.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].OrderID)
}

type failing struct{ Recorder }

func (f *failing) Publish(context.Context, Event) error { return errors.New("broker down") }

func TestAsyncDeliversOnClose(t *testing.T) {
	rec := &Recorder{}
	a := NewAsync(rec, 2, 16)

	ctx, cancel := context.WithCancel(context.Background())
	for _, id := range []string{"O1", "O2", "O3"} {
		require.NoError(t, a.Publish(ctx, Event{Type: TypeOrderPlaced, OrderID: id}))
	}
	cancel()

	a.Close()
	assert.Len(t, rec.Events(), 3, "a finished request does not cancel its events")
	assert.Error(t, a.Publish(context.Background(), Event{OrderID: "late"}))
}

func TestAsyncSwallowsPublishErrors(t *testing.T) {
	a := NewAsync(&failing{}, 1, 4)
	require.NoError(t, a.Publish(context.Background(), Event{OrderID: "O1"}))
	a.Close()
}
