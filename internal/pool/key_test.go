package pool_test

import (
	"testing"

	"github.com/splashpool/splashpool/internal/pool"
)

func TestKey(t *testing.T) {
	tests := []struct {
		Name     string
		Topic    string
		ID       string
		Expected string
	}{
		{"plain topic", "nature", "abc123", "nature_abc123.jpg"},
		{"uppercase topic", "Nature", "abc123", "nature_abc123.jpg"},
		{"topic with spaces", "New York", "abc123", "new-york_abc123.jpg"},
		{"topic with underscores", "new_york", "abc123", "new-york_abc123.jpg"},
		{"id with underscores", "nature", "a_b_c", "nature_a_b_c.jpg"},
		{"topic sanitized away", "***", "abc123", "topic_abc123.jpg"},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			if got := pool.Key(test.Topic, test.ID); got != test.Expected {
				t.Errorf("wrong key %s", got)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		Name          string
		Key           string
		ExpectedTopic string
		ExpectedID    string
		ExpectError   bool
	}{
		{"plain key", "nature_abc123.jpg", "nature", "abc123", false},
		{"id with underscores", "nature_a_b_c.jpg", "nature", "a_b_c", false},
		{"dashed topic", "new-york_abc123.jpg", "new-york", "abc123", false},
		{"missing suffix", "nature_abc123.png", "", "", true},
		{"missing separator", "natureabc123.jpg", "", "", true},
		{"empty topic", "_abc123.jpg", "", "", true},
		{"empty id", "nature_.jpg", "", "", true},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			topic, id, err := pool.ParseKey(test.Key)
			if test.ExpectError {
				if err == nil {
					t.Fatal("no error")
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if topic != test.ExpectedTopic || id != test.ExpectedID {
				t.Errorf("wrong result %s %s", topic, id)
			}
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	key := pool.Key("Mountain Lakes", "xK_9f-2")

	topic, id, err := pool.ParseKey(key)
	if err != nil {
		t.Fatal(err)
	}

	if topic != "mountain-lakes" || id != "xK_9f-2" {
		t.Errorf("wrong result %s %s", topic, id)
	}
}
