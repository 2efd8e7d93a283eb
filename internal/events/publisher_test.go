package events

import (
	"testing"
	"time"
)

func TestPublishToResourceSubscriber(t *testing.T) {
	p := NewMemoryPublisher()
	defer p.Close()

	ch := p.Subscribe("todos")
	p.Publish(NewEvent(EventCreated, "todos", "1", nil))

	select {
	case ev := <-ch:
		if ev.Type != EventCreated {
			t.Errorf("Type = %q, want %q", ev.Type, EventCreated)
		}
		if ev.Resource != "todos" {
			t.Errorf("Resource = %q, want todos", ev.Resource)
		}
		if ev.ID != "1" {
			t.Errorf("ID = %q, want 1", ev.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestGlobalSubscriberReceivesAll(t *testing.T) {
	p := NewMemoryPublisher()
	defer p.Close()

	ch := p.Subscribe(GlobalResource)
	p.Publish(NewEvent(EventUpdated, "goals", "3", nil))
	p.Publish(NewEvent(EventDeleted, "habits", "7", nil))

	for _, want := range []string{"goals", "habits"} {
		select {
		case ev := <-ch:
			if ev.Resource != want {
				t.Errorf("Resource = %q, want %q", ev.Resource, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestResourceSubscriberFiltered(t *testing.T) {
	p := NewMemoryPublisher()
	defer p.Close()

	ch := p.Subscribe("todos")
	p.Publish(NewEvent(EventCreated, "wishes", "1", nil))

	select {
	case ev := <-ch:
		t.Errorf("unexpected event for %q", ev.Resource)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	p := NewMemoryPublisher()
	defer p.Close()

	ch := p.Subscribe("todos")
	p.Unsubscribe("todos", ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if n := p.SubscriberCount("todos"); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

func TestPublishAfterCloseIsNop(t *testing.T) {
	p := NewMemoryPublisher()
	ch := p.Subscribe("todos")
	p.Close()

	p.Publish(NewEvent(EventCreated, "todos", "1", nil))
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after publisher close")
	}
}

func TestFullBufferDoesNotBlock(t *testing.T) {
	p := NewMemoryPublisher(WithBufferSize(1))
	defer p.Close()

	p.Subscribe("todos")
	done := make(chan struct{})
	go func() {
		p.Publish(NewEvent(EventCreated, "todos", "1", nil))
		p.Publish(NewEvent(EventCreated, "todos", "2", nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full buffer")
	}
}
