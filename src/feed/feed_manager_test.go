package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func TestNewSourceSelection(t *testing.T) {
	tests := []struct {
		name    string
		feed    models.MFeedConfig
		want    interface{}
		wantErr bool
	}{
		{
			name: "default is the simulator",
			feed: models.MFeedConfig{SourceType: ""},
			want: &SimulatorSource{},
		},
		{
			name: "explicit simulator",
			feed: models.MFeedConfig{SourceType: "simulator"},
			want: &SimulatorSource{},
		},
		{
			name: "websocket",
			feed: models.MFeedConfig{SourceType: "websocket", URL: "ws://example.local/stream"},
			want: &WebsocketSource{},
		},
		{
			name:    "websocket without url",
			feed:    models.MFeedConfig{SourceType: "websocket"},
			wantErr: true,
		},
		{
			name: "mqtt",
			feed: models.MFeedConfig{SourceType: "mqtt", Broker: "tcp://broker.local:1883", Topic: "plant/readings"},
			want: &MQTTSource{},
		},
		{
			name:    "mqtt without broker",
			feed:    models.MFeedConfig{SourceType: "mqtt", Topic: "plant/readings"},
			wantErr: true,
		},
		{
			name:    "mqtt without topic",
			feed:    models.MFeedConfig{SourceType: "mqtt", Broker: "tcp://broker.local:1883"},
			wantErr: true,
		},
		{
			name: "kafka",
			feed: models.MFeedConfig{SourceType: "kafka", Brokers: []string{"kafka.local:9092"}, Topic: "plant.readings"},
			want: &KafkaSource{},
		},
		{
			name:    "kafka without brokers",
			feed:    models.MFeedConfig{SourceType: "kafka", Topic: "plant.readings"},
			wantErr: true,
		},
		{
			name:    "kafka without topic",
			feed:    models.MFeedConfig{SourceType: "kafka", Brokers: []string{"kafka.local:9092"}},
			wantErr: true,
		},
		{
			name:    "unknown type",
			feed:    models.MFeedConfig{SourceType: "carrier-pigeon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &models.MConfig{Feed: tt.feed}
			src, err := NewSource(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, src)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, src)
		})
	}
}
