package scheduler

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var defaultTopics []byte

// Topic is one entry of the daily rotation.
type Topic struct {
	Topic    string `yaml:"topic"`
	Category string `yaml:"category"`
}

// Topics is an immutable rotation list.
type Topics []Topic

// DefaultTopics returns the built-in rotation.
func DefaultTopics() Topics {
	t, err := ParseTopics(defaultTopics)
	if err != nil {
		panic(fmt.Sprintf("embedded topics.yaml: %v", err))
	}
	return t
}

// LoadTopics reads a rotation from path, or the built-in one when path is
// empty.
func LoadTopics(path string) (Topics, error) {
	if path == "" {
		return DefaultTopics(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}
	return ParseTopics(data)
}

// ParseTopics decodes a YAML list of topics. Every entry needs a topic.
func ParseTopics(data []byte) (Topics, error) {
	var topics Topics
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("failed to parse topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, errors.New("topic list is empty")
	}
	for i, t := range topics {
		if strings.TrimSpace(t.Topic) == "" {
			return nil, fmt.Errorf("topic %d has no text", i)
		}
	}
	return topics, nil
}

// TopicIndex maps a date onto a list of n topics. Day one of the year selects
// index 1 % n, so dates n days apart select the same topic.
func TopicIndex(t time.Time, n int) int {
	return t.YearDay() % n
}

// For returns the topic scheduled for t.
func (ts Topics) For(t time.Time) Topic {
	return ts[TopicIndex(t, len(ts))]
}
