package pool

import (
	"fmt"
	"regexp"
	"strings"
)

var topicSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// Key returns the storage key for an image, <topic>_<id>.jpg
func Key(topic, id string) string {
	return fmt.Sprintf("%s_%s.jpg", SanitizeTopic(topic), id)
}

// SanitizeTopic lowercases a topic and reduces it to letters, digits and
// dashes so that it survives a round trip through the storage backends.
// Pool records, storage keys and metric labels all carry the sanitized
// form, only provider queries see the topic as configured.
func SanitizeTopic(topic string) string {
	topic = strings.ToLower(topic)
	topic = topicSanitizer.ReplaceAllString(topic, "-")
	topic = strings.Trim(topic, "-")

	if topic == "" {
		return "topic"
	}

	return topic
}

// ParseKey splits a storage key into topic and image id. Sanitized topics
// never contain underscores, so the split happens at the first one, image
// ids may contain underscores themselves.
func ParseKey(key string) (topic, id string, err error) {
	if !strings.HasSuffix(key, ".jpg") {
		return "", "", fmt.Errorf("key %q doesn't have a .jpg suffix", key)
	}

	name := strings.TrimSuffix(key, ".jpg")
	topic, id, ok := strings.Cut(name, "_")
	if !ok || topic == "" || id == "" {
		return "", "", fmt.Errorf("key %q doesn't match topic_id.jpg", key)
	}

	return topic, id, nil
}
