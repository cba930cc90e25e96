// Package topics provides the topic rotation for photo fetching
package topics

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoTopics is returned when a rotation is created without any topics
var ErrNoTopics = errors.New("at least one topic is required")

// Rotation hands out topics in a fixed round robin order
type Rotation struct {
	topics []string

	mu   sync.Mutex
	next int
}

// New returns a Rotation over the given topics. Blank topics are dropped,
// the remaining ones keep their order.
func New(topics []string) (*Rotation, error) {
	cleaned := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}

		cleaned = append(cleaned, topic)
	}

	if len(cleaned) == 0 {
		return nil, ErrNoTopics
	}

	return &Rotation{topics: cleaned}, nil
}

// Next returns the next topic in the rotation
func (r *Rotation) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	topic := r.topics[r.next]
	r.next = (r.next + 1) % len(r.topics)

	return topic
}

// Topics returns the topics in rotation order
func (r *Rotation) Topics() []string {
	topics := make([]string, len(r.topics))
	copy(topics, r.topics)

	return topics
}
