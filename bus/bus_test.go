package bus

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestExactDelivery(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("t")
	sub := conn.Subscribe(T("station", "state"))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("station", "state"), 42, false))
	if m := recvOne(t, sub); m.Payload.(int) != 42 {
		t.Fatalf("payload = %v, want 42", m.Payload)
	}
}

func TestRetainedReplayOnSubscribe(t *testing.T) {
	b := NewBus(4)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(T("station", "state"), "hot", true))

	late := b.NewConnection("late")
	sub := late.Subscribe(T("station", "state"))
	defer late.Unsubscribe(sub)

	if m := recvOne(t, sub); m.Payload.(string) != "hot" {
		t.Fatalf("payload = %v, want retained 'hot'", m.Payload)
	}
}

func TestWildcardSubtree(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("t")
	sub := conn.Subscribe(T("station", Wildcard))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("station", "notify"), "beep", false))
	conn.Publish(conn.NewMessage(T("station", "control", "suspend"), nil, false))
	conn.Publish(conn.NewMessage(T("elsewhere"), "x", false))

	if m := recvOne(t, sub); m.Topic[1] != "notify" {
		t.Fatalf("first topic = %v", m.Topic)
	}
	if m := recvOne(t, sub); m.Topic[1] != "control" {
		t.Fatalf("second topic = %v", m.Topic)
	}
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected message on %v", m.Topic)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestReplyPath(t *testing.T) {
	b := NewBus(4)
	caller := b.NewConnection("caller")
	svc := b.NewConnection("svc")

	replies := caller.Subscribe(T("reply", "1"))
	defer caller.Unsubscribe(replies)
	ctrl := svc.Subscribe(T("station", "control", "suspend"))
	defer svc.Unsubscribe(ctrl)

	caller.Publish(&Message{
		Topic:   T("station", "control", "suspend"),
		ReplyTo: T("reply", "1"),
	})
	req := recvOne(t, ctrl)
	if !req.CanReply() {
		t.Fatal("request should carry a reply topic")
	}
	svc.Reply(req, "ok", false)

	if m := recvOne(t, replies); m.Payload.(string) != "ok" {
		t.Fatalf("reply payload = %v", m.Payload)
	}
}

func TestDropOldestWhenFull(t *testing.T) {
	b := NewBus(1)
	conn := b.NewConnection("t")
	sub := conn.Subscribe(T("x"))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("x"), 1, false))
	conn.Publish(conn.NewMessage(T("x"), 2, false))

	if m := recvOne(t, sub); m.Payload.(int) != 2 {
		t.Fatalf("payload = %v, want newest (2)", m.Payload)
	}
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("t")
	conn.Publish(conn.NewMessage(T("y"), 7, true))
	conn.Publish(conn.NewMessage(T("y"), nil, true)) // clears retained

	sub := conn.Subscribe(T("y"))
	defer conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected retained message %v", m.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}
