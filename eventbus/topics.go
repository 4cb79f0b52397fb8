package eventbus

// Topic declarations, one place so they can be swapped by configuration
// later if needed.

var (
	TopicInteractionEvents = NewTopic("curately.interaction.events")
)

var AllTopics = []Topic{
	TopicInteractionEvents,
}
