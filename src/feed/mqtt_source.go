package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/paho"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// MQTTSource subscribes to a broker topic carrying sensor readings as JSON
// payloads. Broker-side disconnects and client errors are fatal; the adapter
// decides whether to restart.
// -----------------------------------------------------------------------------

const defaultMQTTClientID = "plant-monitor-feed"

type MQTTSource struct {
	Config *models.MConfig
	Logger *logger.Logger

	mu         sync.Mutex
	client     *paho.Client
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
}

// -----------------------------------------------------------------------------

func NewMQTTSource(cfg *models.MConfig) *MQTTSource {
	return &MQTTSource{
		Config: cfg,
		Logger: logger.NewLogger(cfg, "MQTTSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *MQTTSource) Name() string {
	return "mqtt"
}

// -----------------------------------------------------------------------------

func (s *MQTTSource) Start(parentCtx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	// 1. Open the TCP connection; paho takes ownership of it
	var dialer net.Dialer
	conn, err := dialer.DialContext(parentCtx, "tcp", s.Config.Feed.Broker)
	if err != nil {
		return fmt.Errorf("failed to dial broker %s: %w", s.Config.Feed.Broker, err)
	}

	ctx, cancel := context.WithCancel(parentCtx)

	clientID := s.Config.Feed.ClientID
	if clientID == "" {
		clientID = defaultMQTTClientID
	}

	// A fatal error must only be reported once even when OnClientError and
	// OnServerDisconnect both fire for the same teardown.
	var fatalOnce sync.Once
	reportFatal := func(err error) {
		fatalOnce.Do(func() {
			if ctx.Err() != nil {
				return
			}
			s.isRunning.Store(false)
			s.Logger.Error("Connection lost: %v", err)
			select {
			case errs <- err:
			default:
			}
		})
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: clientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				var point models.MSensorPoint
				if err := json.Unmarshal(pr.Packet.Payload, &point); err != nil {
					s.Logger.Warning("Discarding malformed payload on %s: %v", pr.Packet.Topic, err)
					return true, nil
				}
				select {
				case out <- point:
				case <-ctx.Done():
				}
				return true, nil
			},
		},
		OnClientError: func(err error) {
			reportFatal(fmt.Errorf("mqtt client error: %w", err))
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			reportFatal(fmt.Errorf("mqtt server disconnect (reason %d)", d.ReasonCode))
		},
	})

	// 2. Connect and subscribe before declaring the source running
	if _, err := client.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  30,
		CleanStart: true,
	}); err != nil {
		cancel()
		conn.Close()
		return fmt.Errorf("failed to connect to broker %s: %w", s.Config.Feed.Broker, err)
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic: s.Config.Feed.Topic,
			QoS:   0,
		}},
	}); err != nil {
		cancel()
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return fmt.Errorf("failed to subscribe to %s: %w", s.Config.Feed.Topic, err)
	}

	s.client = client
	s.cancelFunc = cancel
	s.isRunning.Store(true)

	// 3. Paho delivers on its own goroutines; this one only handles teardown
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
	}()

	s.Logger.Info("Started MQTTSource: %s topic=%s", s.Config.Feed.Broker, s.Config.Feed.Topic)
	return nil
}

// -----------------------------------------------------------------------------

func (s *MQTTSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped MQTTSource")
	return nil
}
