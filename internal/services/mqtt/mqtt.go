package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// StatusTopic - топик исходящей телеметрии устройства
func StatusTopic(prefix, deviceType, deviceNumber string) string {
	return fmt.Sprintf("%s/%s/%s/status", prefix, deviceType, deviceNumber)
}

// RequestTopic - топик входящих команд устройства
func RequestTopic(prefix, deviceType, deviceNumber string) string {
	return fmt.Sprintf("%s/%s/%s/request", prefix, deviceType, deviceNumber)
}

// Transport - MQTT клиент с mTLS для брокера телеметрии
type Transport struct {
	client         paho.Client
	statusTopic    string
	requestTopic   string
	qos            byte
	connectTimeout time.Duration
	publishTimeout time.Duration
	logger         *logging.Logger

	mu      sync.RWMutex
	handler func(payload []byte)
}

var _ interfaces.MessageTransport = (*Transport)(nil)

func NewTransport(cfg *config.AppConfig, logger *logging.Logger) (*Transport, error) {
	t := &Transport{
		statusTopic:    StatusTopic(cfg.MQTT.TopicPrefix, cfg.Device.Type, cfg.Device.Number),
		requestTopic:   RequestTopic(cfg.MQTT.TopicPrefix, cfg.Device.Type, cfg.Device.Number),
		qos:            byte(cfg.MQTT.QoS),
		connectTimeout: cfg.MQTT.ConnectTimeout,
		publishTimeout: cfg.MQTT.PublishTimeout,
		logger:         logger.WithPrefix("MQTT"),
	}

	tlsConfig, err := newTLSConfig(cfg.MQTT)
	if err != nil {
		return nil, err
	}
	scheme := "tcp"
	if tlsConfig != nil {
		scheme = "ssl"
	}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.MQTT.Endpoint, cfg.MQTT.Port)).
		SetClientID(ClientID(cfg)).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetOrderMatters(false).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			t.logger.Warn("Connection to broker lost", "error", err)
		})
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	t.client = paho.NewClient(opts)
	return t, nil
}

// ClientID возвращает MQTT_CLIENT_ID или "<type>-<number>-<случайный суффикс>"
func ClientID(cfg *config.AppConfig) string {
	if cfg.MQTT.ClientID != "" {
		return cfg.MQTT.ClientID
	}
	return fmt.Sprintf("%s-%s-%s", cfg.Device.Type, cfg.Device.Number, uuid.NewString()[:8])
}

func newTLSConfig(cfg config.MQTTConfig) (*tls.Config, error) {
	if cfg.CACert == "" && cfg.CertFile == "" && cfg.PrivateKey == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("чтение CA сертификата: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("CA сертификат не содержит PEM блоков")
		}
		tlsConfig.RootCAs = pool
	}
	if cfg.CertFile != "" || cfg.PrivateKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("загрузка клиентского сертификата: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func (t *Transport) onConnect(c paho.Client) {
	t.logger.Info("Connected to broker", "subscribe", t.requestTopic)
	token := c.Subscribe(t.requestTopic, t.qos, func(_ paho.Client, msg paho.Message) {
		t.mu.RLock()
		handler := t.handler
		t.mu.RUnlock()
		if handler != nil {
			handler(msg.Payload())
		}
	})
	go func() {
		if token.WaitTimeout(t.connectTimeout) && token.Error() != nil {
			t.logger.Error("Subscribe failed", "topic", t.requestTopic, "error", token.Error())
		}
	}()
}

// OnMessage задает обработчик входящих команд
func (t *Transport) OnMessage(handler func(payload []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *Transport) Connect(ctx context.Context) error {
	t.logger.Info("Connecting to broker...")
	return wait(ctx, t.client.Connect(), t.connectTimeout, "connect")
}

func (t *Transport) Publish(ctx context.Context, payload []byte) error {
	if !t.client.IsConnectionOpen() {
		return errors.New("mqtt: нет соединения с брокером")
	}
	return wait(ctx, t.client.Publish(t.statusTopic, t.qos, false, payload), t.publishTimeout, "publish")
}

func (t *Transport) Disconnect() {
	t.client.Disconnect(250)
	t.logger.Info("Disconnected from broker")
}

func wait(ctx context.Context, token paho.Token, timeout time.Duration, op string) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt %s: %w", op, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("mqtt %s: timeout after %s", op, timeout)
	case <-ctx.Done():
		return fmt.Errorf("mqtt %s: %w", op, ctx.Err())
	}
}
