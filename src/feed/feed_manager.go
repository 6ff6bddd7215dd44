package feed

import (
	"fmt"

	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// NewSource builds the feed source selected by feed.source_type. The engine
// runs exactly one source; swapping sources means stopping the adapter and
// mounting a new one.
// -----------------------------------------------------------------------------

func NewSource(cfg *models.MConfig) (interfaces.IFeedSource, error) {
	switch cfg.Feed.SourceType {
	case "", "simulator":
		return NewSimulatorSource(cfg), nil

	case "websocket":
		if cfg.Feed.URL == "" {
			return nil, fmt.Errorf("feed source websocket requires feed.url")
		}
		return NewWebsocketSource(cfg), nil

	case "mqtt":
		if cfg.Feed.Broker == "" || cfg.Feed.Topic == "" {
			return nil, fmt.Errorf("feed source mqtt requires feed.broker and feed.topic")
		}
		return NewMQTTSource(cfg), nil

	case "kafka":
		if len(cfg.Feed.Brokers) == 0 || cfg.Feed.Topic == "" {
			return nil, fmt.Errorf("feed source kafka requires feed.brokers and feed.topic")
		}
		return NewKafkaSource(cfg), nil

	default:
		return nil, fmt.Errorf("unknown feed source type: %s", cfg.Feed.SourceType)
	}
}
