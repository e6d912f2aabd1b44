package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

type recordingBus struct {
	published []rule.Action
}

func (b *recordingBus) Publish(action rule.Action) {
	b.published = append(b.published, action)
}

func TestDispatch_OnlyMatchedRulesPublish(t *testing.T) {
	processed := matcher.ProcessedNode{
		Type: matcher.NodeFilter, Name: "root", FilterStatus: matcher.StatusMatched,
		Children: []matcher.ProcessedNode{
			{
				Type: matcher.NodeRuleset, Name: "rs",
				Rules: []rule.Processed{
					{Name: "a", Status: rule.StatusMatched, Actions: []rule.Action{{ID: "act1", Payload: value.String("x")}}},
					{Name: "b", Status: rule.StatusNotMatched},
					{Name: "c", Status: rule.StatusPartiallyMatched, Actions: []rule.Action{{ID: "act2", Payload: value.String("y")}}},
					{Name: "d", Status: rule.StatusNotProcessed},
				},
			},
		},
	}

	bus := &recordingBus{}
	Dispatch(processed, bus)

	require.Len(t, bus.published, 1)
	assert.Equal(t, "act1", bus.published[0].ID)
}

func TestDispatch_WalksIteratorFanOut(t *testing.T) {
	processed := matcher.ProcessedNode{
		Type: matcher.NodeIterator, Name: "root", IteratorStatus: matcher.StatusMatched,
		Items: []matcher.IteratorItem{
			{
				Index: 0,
				Nodes: []matcher.ProcessedNode{
					{
						Type: matcher.NodeRuleset, Name: "rs",
						Rules: []rule.Processed{
							{Name: "a", Status: rule.StatusMatched, Actions: []rule.Action{{ID: "act1"}}},
						},
					},
				},
			},
			{
				Index: 1,
				Nodes: []matcher.ProcessedNode{
					{
						Type: matcher.NodeRuleset, Name: "rs",
						Rules: []rule.Processed{
							{Name: "a", Status: rule.StatusMatched, Actions: []rule.Action{{ID: "act2"}}},
						},
					},
				},
			},
		},
	}

	bus := &recordingBus{}
	Dispatch(processed, bus)

	require.Len(t, bus.published, 2)
	assert.Equal(t, "act1", bus.published[0].ID)
	assert.Equal(t, "act2", bus.published[1].ID)
}

func TestChannelBus_PublishNonBlockingOnFullChannel(t *testing.T) {
	bus := NewChannelBus(1, nil, nil)
	bus.Publish(rule.Action{ID: "first"})
	bus.Publish(rule.Action{ID: "dropped"})

	assert.Equal(t, int64(1), bus.Dropped())
	select {
	case a := <-bus.Out():
		assert.Equal(t, "first", a.ID)
	default:
		t.Fatal("expected first action to be queued")
	}
}

func TestChannelBus_SubscribeReceivesTee(t *testing.T) {
	bus := NewChannelBus(4, nil, nil)
	sub := make(chan rule.Action, 1)
	bus.Subscribe(sub)

	bus.Publish(rule.Action{ID: "act1"})

	select {
	case a := <-sub:
		assert.Equal(t, "act1", a.ID)
	default:
		t.Fatal("expected subscriber to receive tee'd action")
	}

	bus.Unsubscribe(sub)
	bus.Publish(rule.Action{ID: "act2"})
	select {
	case <-sub:
		t.Fatal("unsubscribed channel should not receive further actions")
	default:
	}
}
