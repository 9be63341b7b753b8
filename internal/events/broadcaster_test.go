package events

import (
	"sync"
	"testing"
)

func TestBroadcasterDeliversInOrder(t *testing.T) {
	b := NewBroadcaster[string]()

	var got []string
	b.Subscribe(func(v string) { got = append(got, "a:"+v) })
	b.Subscribe(func(v string) { got = append(got, "b:"+v) })

	b.Publish("x")

	if len(got) != 2 || got[0] != "a:x" || got[1] != "b:x" {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster[int]()

	calls := 0
	unsubscribe := b.Subscribe(func(int) { calls++ })
	b.Publish(1)
	unsubscribe()
	unsubscribe()
	b.Publish(2)

	if calls != 1 {
		t.Fatalf("expected 1 call got %d", calls)
	}
	if b.Len() != 0 {
		t.Fatalf("expected no subscribers got %d", b.Len())
	}
}

func TestBroadcasterSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	b := NewBroadcaster[int]()

	var unsubscribe func()
	calls := 0
	unsubscribe = b.Subscribe(func(int) {
		calls++
		unsubscribe()
	})

	b.Publish(1)
	b.Publish(2)

	if calls != 1 {
		t.Fatalf("expected 1 call got %d", calls)
	}
}

func TestBroadcasterNilSubscriber(t *testing.T) {
	b := NewBroadcaster[int]()
	b.Subscribe(nil)()
	if b.Len() != 0 {
		t.Fatalf("expected nil subscriber to be ignored")
	}
}

func TestBroadcasterDropsOvertakenValues(t *testing.T) {
	b := NewBroadcaster[int]()

	var got []int
	b.Subscribe(func(v int) { got = append(got, v) })

	older := b.Stamp()
	newer := b.Stamp()
	b.PublishAt(newer, 2)
	b.PublishAt(older, 1)

	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected only the newer value got %v", got)
	}
}

func TestBroadcasterNestedPublishEndsOnNewest(t *testing.T) {
	b := NewBroadcaster[int]()

	var first []int
	b.Subscribe(func(v int) {
		first = append(first, v)
		if v == 1 {
			b.Publish(0)
		}
	})
	last := -1
	b.Subscribe(func(v int) { last = v })

	b.Publish(1)

	if last != 0 {
		t.Fatalf("expected second subscriber to end on 0 got %d", last)
	}
	if len(first) != 2 || first[0] != 1 || first[1] != 0 {
		t.Fatalf("expected first subscriber to see 1 then 0 got %v", first)
	}
}

func TestBroadcasterConcurrentPublishersEndOnNewest(t *testing.T) {
	b := NewBroadcaster[uint64]()

	var mu sync.Mutex
	var last uint64
	b.Subscribe(func(v uint64) {
		mu.Lock()
		if v < last {
			t.Errorf("value %d delivered after %d", v, last)
		}
		last = v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := b.Stamp()
			b.PublishAt(seq, seq)
		}()
	}
	wg.Wait()

	if last != 50 {
		t.Fatalf("expected final value 50 got %d", last)
	}
}
