package client

import "sort"

// SubscriptionStatus tracks where a channel sits in the subscribe handshake.
type SubscriptionStatus int

const (
	SubNotSubscribed SubscriptionStatus = iota
	SubPending
	SubActive
)

func (s SubscriptionStatus) String() string {
	switch s {
	case SubPending:
		return "pending"
	case SubActive:
		return "active"
	default:
		return "not_subscribed"
	}
}

// subscriptionSet holds per-channel subscription status. It is not
// self-locking: the owning Client guards it with its session mutex.
type subscriptionSet struct {
	status map[Channel]SubscriptionStatus
}

func newSubscriptionSet() subscriptionSet {
	return subscriptionSet{status: make(map[Channel]SubscriptionStatus)}
}

func (s *subscriptionSet) get(ch Channel) SubscriptionStatus {
	return s.status[ch]
}

func (s *subscriptionSet) set(ch Channel, st SubscriptionStatus) {
	if st == SubNotSubscribed {
		delete(s.status, ch)
		return
	}
	s.status[ch] = st
}

func (s *subscriptionSet) clear() {
	for ch := range s.status {
		delete(s.status, ch)
	}
}

// activeChannels returns the channels with an acknowledged subscription,
// sorted for stable output.
func (s *subscriptionSet) activeChannels() []Channel {
	var out []Channel
	for ch, st := range s.status {
		if st == SubActive {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
