// Package bus is the in-process publish/subscribe fabric between the
// control core and its display/feedback collaborators. Topics are slash-free
// string paths; a trailing "#" subscribes to a whole subtree. Retained
// messages replay to late subscribers, so the UI can join at any time and
// still see the latest station state.
package bus

import "sync"

// Topic is a sequence of path segments.
type Topic []string

// T builds a topic from its segments.
func T(parts ...string) Topic { return Topic(parts) }

// Wildcard is the multi-level subscription suffix.
const Wildcard = "#"

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the publisher asked for a reply.
func (m *Message) CanReply() bool { return len(m.ReplyTo) > 0 }

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// NewBus creates a bus with the given per-subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, seg := range topic {
		if seg == Wildcard {
			break
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &node{}
			n.children[seg] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	// Replay retained state below the attachment point.
	if isWildcard(topic) {
		replayRetained(n, sub)
	} else if n.retained != nil {
		deliver(sub, n.retained)
	}
}

func isWildcard(t Topic) bool {
	return len(t) > 0 && t[len(t)-1] == Wildcard
}

func replayRetained(n *node, sub *Subscription) {
	if n.retained != nil {
		deliver(sub, n.retained)
	}
	for _, c := range n.children {
		replayRetained(c, sub)
	}
}

func deliver(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
	default:
		// Queue full: drop the oldest so the newest state wins.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// Publish delivers msg to exact subscribers of its topic and to wildcard
// subscribers above it, then stores or clears retained state.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, s := range n.subs {
		if isWildcard(s.topic) {
			deliver(s, msg)
		}
	}
	for _, seg := range msg.Topic {
		if n.children == nil {
			if !msg.Retained {
				return
			}
			n.children = make(map[string]*node)
		}
		child, ok := n.children[seg]
		if !ok {
			if !msg.Retained {
				return
			}
			child = &node{}
			n.children[seg] = child
		}
		n = child
		for _, s := range n.subs {
			if isWildcard(s.topic) && len(s.topic)-1 < len(msg.Topic) {
				deliver(s, msg)
			}
		}
	}

	for _, s := range n.subs {
		if !isWildcard(s.topic) {
			deliver(s, msg)
		}
	}

	if msg.Retained {
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	var keys []string
	for _, seg := range topic {
		if seg == Wildcard {
			break
		}
		child, ok := n.children[seg]
		if !ok {
			return
		}
		stack = append(stack, n)
		keys = append(keys, seg)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune empty nodes.
	for i := len(stack) - 1; i >= 0; i-- {
		child := stack[i].children[keys[i]]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(stack[i].children, keys[i])
		} else {
			break
		}
	}
}

// ---- Connection ----

// Connection scopes subscriptions to one participant so Disconnect can
// release them all at once.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

// NewMessage builds a message ready for Publish.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Reply publishes payload to the message's reply topic, if any.
func (c *Connection) Reply(to *Message, payload any, retained bool) {
	if !to.CanReply() {
		return
	}
	c.bus.Publish(&Message{Topic: to.ReplyTo, Payload: payload, Retained: retained})
}

func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions owned by this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}
