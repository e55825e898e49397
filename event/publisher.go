package event

import (
	"encoding/json"
	"log"
)

// PlatformPublisher pushes chat domain events onto the platform queue so the
// main rental service can raise notifications.
type PlatformPublisher struct {
	Queue string
}

func NewPlatformPublisher() *PlatformPublisher {
	return &PlatformPublisher{Queue: "platform"}
}

func (p *PlatformPublisher) Publish(action string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", action, err)
		return
	}

	Emit(p.Queue, action, data, true)
}
