package consume

import (
	"crypto/tls"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"

	"github.com/scour-io/scour/internal/config"
)

// Dial creates a consumer-group client for the deletion-request topic.
// Auto-commit is disabled: offsets advance only at explicit batch barriers.
// A nil mechanism yields a plaintext client for local development; with a
// mechanism the connection is SASL over TLS.
func Dial(cfg config.KafkaConfig, mech sasl.Mechanism) (*kgo.Client, error) {
	reset := kgo.NewOffset().AtStart()
	if cfg.AutoOffsetReset == "latest" {
		reset = kgo.NewOffset().AtEnd()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.BootstrapServers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeResetOffset(reset),
		kgo.DisableAutoCommit(),
		kgo.ClientID("scour"),
	}
	if mech != nil {
		opts = append(opts,
			kgo.SASL(mech),
			kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		)
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("consume: create kafka client: %w", err)
	}
	return client, nil
}
