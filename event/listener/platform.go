package listener

import (
	"log"

	"chat-service/event"
)

var (
	PlatformChannel = make(chan event.EventChannelData)
)

// Platform drains inbound platform events. The chat service currently only
// records them; participant snapshots are intentionally never synced.
func Platform() {
	for event := range PlatformChannel {
		log.Printf("platform event %s: %s", event.Action, event.Data)
	}
}
