package eventbus

import (
	"strings"
	"time"
)

// ParseRetryDelayFromTopicName extracts the retry delay from a retry topic
// name, e.g. "curately.interaction.events.retry.1m0s" -> 1m0s.
func ParseRetryDelayFromTopicName(name string) (time.Duration, bool) {
	idx := strings.LastIndex(name, ".retry.")
	if idx == -1 || idx+7 >= len(name) {
		return 0, false
	}
	d, err := time.ParseDuration(name[idx+7:])
	if err != nil {
		return 0, false
	}
	return d, true
}
