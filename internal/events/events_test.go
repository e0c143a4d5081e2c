package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	e := NewEmitter[RecordChanged]()
	var got []string

	e.Subscribe(func(evt RecordChanged) { got = append(got, "a:"+evt.ID) })
	e.Subscribe(func(evt RecordChanged) { got = append(got, "b:"+evt.ID) })

	e.Publish(RecordChanged{Bucket: "sales", ID: "1", Op: OpCreate})

	assert.Equal(t, []string{"a:1", "b:1"}, got)
}

func TestEmitterUnsubscribe(t *testing.T) {
	e := NewEmitter[BranchChanged]()
	calls := 0
	unsubscribe := e.Subscribe(func(BranchChanged) { calls++ })

	e.Publish(BranchChanged{UserID: "u1", BranchID: "b1"})
	unsubscribe()
	unsubscribe()
	e.Publish(BranchChanged{UserID: "u1", BranchID: "b2"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, e.Len())
}

func TestSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	e := NewEmitter[RecordChanged]()
	calls := 0
	var unsubscribe func()
	unsubscribe = e.Subscribe(func(RecordChanged) {
		calls++
		unsubscribe()
	})

	e.Publish(RecordChanged{ID: "x"})
	e.Publish(RecordChanged{ID: "y"})

	assert.Equal(t, 1, calls)
}
