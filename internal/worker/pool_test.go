package worker

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/alert-history/internal/dispatcher"
	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

func testManager(t *testing.T) *matcher.Manager {
	t.Helper()
	builder := matcher.NewTreeBuilder(nil)
	m, err := matcher.NewManager(builder, matcher.NodeConfig{
		Type: matcher.NodeRuleset, Name: "root",
		Rules: []rule.Config{{Name: "r1", Active: true}},
	}, slog.Default(), nil)
	require.NoError(t, err)
	return m
}

func TestPool_SubmitProcessesEventsAndDispatches(t *testing.T) {
	m := testManager(t)
	bus := dispatcher.NewChannelBus(10, nil, nil)

	p := NewPool(2, 4, m, bus, nil, nil)
	p.Start()
	defer p.Close()

	payload := value.NewObject()
	err := p.Submit(event.New("alert", payload, nil))
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for p.Processed() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for event to be processed")
		case <-time.After(time.Millisecond):
		}
	}
	assert.Equal(t, int64(1), p.Processed())
}

func TestPool_SubmitAfterCloseFails(t *testing.T) {
	m := testManager(t)
	bus := dispatcher.NewChannelBus(10, nil, nil)
	p := NewPool(1, 1, m, bus, nil, nil)
	p.Start()
	p.Close()

	err := p.Submit(event.New("alert", value.NewObject(), nil))
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_OnProcessedCallbackFires(t *testing.T) {
	m := testManager(t)
	bus := dispatcher.NewChannelBus(10, nil, nil)
	p := NewPool(1, 1, m, bus, nil, nil)

	received := make(chan matcher.ProcessedNode, 1)
	p.OnProcessed(func(_ event.Event, pn matcher.ProcessedNode) {
		received <- pn
	})
	p.Start()
	defer p.Close()

	require.NoError(t, p.Submit(event.New("alert", value.NewObject(), nil)))

	select {
	case pn := <-received:
		assert.Equal(t, matcher.NodeRuleset, pn.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onProcessed callback")
	}
}
