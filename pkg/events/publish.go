package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// PublisherManager distributes events to a set of publishers, each registered
// for a topic.
//
// Every outgoing message carries a sequence number, in the order the events
// were handed to Publish.
type PublisherManager struct {
	Publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mutex          sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		Publishers: make(map[string][]message.Publisher),
	}
}

func (s *PublisherManager) RegisterPublisher(topic string, pub message.Publisher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Publishers[topic] = append(s.Publishers[topic], pub)
}

// Publish serializes the event to JSON and sends it to all publishers.
func (s *PublisherManager) Publish(event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for topic, pubs := range s.Publishers {
		for _, pub := range pubs {
			msg := message.NewMessage(watermill.NewUUID(), b)
			msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", s.sequenceNumber))
			msg.Metadata.Set("event_type", string(event.Type()))
			msg.Metadata.Set("run_id", event.Metadata().RunID)
			if err := pub.Publish(topic, msg); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to publish")
			}
		}
	}
	s.sequenceNumber++

	return nil
}

func (s *PublisherManager) PublishBlind(event Event) {
	if err := s.Publish(event); err != nil {
		log.Warn().Err(err).Msg("failed to publish")
	}
}
