// Package mqtt publishes disaggregation results to an MQTT broker using
// Eclipse Paho. The Publisher doubles as a metrics sink registered under the
// "mqtt" type.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/amice/core/factory"
	coremetrics "github.com/kilianp07/amice/core/metrics"
	"github.com/kilianp07/amice/infra/logger"
)

// DefaultTopicPrefix is the root of every published topic.
const DefaultTopicPrefix = "amice"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	RetainRuns  bool        `json:"retain_runs"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher sends match and run records as JSON messages.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retainRuns bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p := &Publisher{
		cli:        c,
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retainRuns: cfg.RetainRuns,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	if p.prefix == "" {
		p.prefix = DefaultTopicPrefix
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "amice-" + uuid.NewString()[:8]
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

type matchMessage struct {
	RunID          string  `json:"run_id"`
	Appliance      string  `json:"appliance"`
	Anchor         float64 `json:"anchor"`
	AbsoluteAnchor float64 `json:"absolute_anchor"`
	FeatureErr     float64 `json:"feature_error"`
	TimeErr        float64 `json:"time_error"`
	Score          float64 `json:"score"`
	Consumed       int     `json:"consumed"`
	Timestamp      int64   `json:"timestamp"`
}

type runMessage struct {
	RunID      string `json:"run_id"`
	Matches    int    `json:"matches"`
	Residual   int    `json:"residual"`
	DurationMS int64  `json:"duration_ms"`
	Failed     bool   `json:"failed"`
	Timestamp  int64  `json:"timestamp"`
}

// MatchTopic returns the topic a match for the appliance is published on.
func (p *Publisher) MatchTopic(appliance string) string {
	return fmt.Sprintf("%s/match/%s", p.prefix, topicSafe(appliance))
}

// RunTopic returns the topic run summaries are published on.
func (p *Publisher) RunTopic() string { return p.prefix + "/run" }

// RecordMatches publishes one message per match.
func (p *Publisher) RecordMatches(recs []coremetrics.MatchRecord) error {
	for _, r := range recs {
		msg := matchMessage{
			RunID:          r.RunID,
			Appliance:      r.Appliance,
			Anchor:         r.Anchor,
			AbsoluteAnchor: r.AbsoluteAnchor,
			FeatureErr:     r.FeatureErr,
			TimeErr:        r.TimeErr,
			Score:          r.Score(),
			Consumed:       r.Consumed,
			Timestamp:      r.Time.UnixMilli(),
		}
		if err := p.publish(p.MatchTopic(r.Appliance), false, msg); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun publishes the run summary, retained when configured.
func (p *Publisher) RecordRun(rec coremetrics.RunRecord) error {
	return p.publish(p.RunTopic(), p.retainRuns, runMessage{
		RunID:      rec.RunID,
		Matches:    rec.Matches,
		Residual:   rec.Residual,
		DurationMS: rec.Duration.Milliseconds(),
		Failed:     rec.Failed,
		Timestamp:  rec.Time.UnixMilli(),
	})
}

func (p *Publisher) publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published to %s", topic)
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

func topicSafe(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_").Replace(s)
}

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
