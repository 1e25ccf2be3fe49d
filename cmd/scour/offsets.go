package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"

	"github.com/scour-io/scour/internal/auth"
	"github.com/scour-io/scour/internal/config"
)

// partitionOffsets describes one partition's backlog.
type partitionOffsets struct {
	Partition int32 `json:"partition"`
	Start     int64 `json:"startOffset"`
	End       int64 `json:"endOffset"`
	Committed int64 `json:"committedOffset"`
	Lag       int64 `json:"lag"`
}

// offsetsReport summarizes the pending backlog on the request topic.
type offsetsReport struct {
	Topic      string             `json:"topic"`
	GroupID    string             `json:"groupId"`
	Partitions []partitionOffsets `json:"partitions"`
	TotalLag   int64              `json:"totalLag"`
}

func runOffsets(args []string) {
	fs := flag.NewFlagSet("offsets", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	brokers := fs.String("brokers", "", "Override Kafka bootstrap servers (comma-separated)")
	topic := fs.String("topic", "", "Override deletion request topic")
	group := fs.String("group", "", "Override consumer group ID")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")
	plaintext := fs.Bool("plaintext", false, "Connect without MSK IAM authentication (local development)")

	fs.Usage = func() {
		fmt.Println(`Usage: scour offsets [options]

Show the consumer group's committed offsets against the request topic's
start and end offsets. Lag is the number of deletion requests the next
erasure pass would pick up.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI overrides
	if *brokers != "" {
		cfg.Kafka.BootstrapServers = splitBrokers(*brokers)
	}
	if *topic != "" {
		cfg.Kafka.Topic = *topic
	}
	if *group != "" {
		cfg.Kafka.GroupID = *group
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	var mech sasl.Mechanism
	if !*plaintext {
		mech = auth.NewTokenProvider(cfg.AWS.Region).Mechanism()
	}

	client, err := dialAdmin(cfg, mech)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating kafka client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := collectOffsets(ctx, kadm.NewClient(client), cfg.Kafka.Topic, cfg.Kafka.GroupID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Topic: %s\n", report.Topic)
	fmt.Printf("Group: %s\n\n", report.GroupID)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTITION\tSTART\tEND\tCOMMITTED\tLAG")
	for _, p := range report.Partitions {
		committed := fmt.Sprintf("%d", p.Committed)
		if p.Committed < 0 {
			committed = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%d\n", p.Partition, p.Start, p.End, committed, p.Lag)
	}
	w.Flush()

	fmt.Printf("\nTotal lag: %d\n", report.TotalLag)
}

// dialAdmin creates a groupless client for admin queries; reading offsets
// must not join the group and trigger a rebalance.
func dialAdmin(cfg *config.Config, mech sasl.Mechanism) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Kafka.BootstrapServers...),
		kgo.ClientID("scour"),
	}
	if mech != nil {
		opts = append(opts,
			kgo.SASL(mech),
			kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		)
	}
	return kgo.NewClient(opts...)
}

// collectOffsets builds the backlog report. A partition with no committed
// offset reports -1 and counts its whole retained range as lag, matching
// what an "earliest" reset would consume.
func collectOffsets(ctx context.Context, adm *kadm.Client, topic, groupID string) (*offsetsReport, error) {
	starts, err := adm.ListStartOffsets(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list start offsets: %w", err)
	}
	ends, err := adm.ListEndOffsets(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list end offsets: %w", err)
	}
	fetched, err := adm.FetchOffsets(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch group offsets: %w", err)
	}
	committed := fetched.Offsets()

	report := &offsetsReport{Topic: topic, GroupID: groupID}
	ends.Each(func(end kadm.ListedOffset) {
		p := partitionOffsets{
			Partition: end.Partition,
			End:       end.Offset,
			Committed: -1,
		}
		if start, ok := starts.Lookup(end.Topic, end.Partition); ok {
			p.Start = start.Offset
		}
		if o, ok := committed.Lookup(end.Topic, end.Partition); ok {
			p.Committed = o.At
		}
		if p.Committed >= 0 {
			p.Lag = p.End - p.Committed
		} else {
			p.Lag = p.End - p.Start
		}
		if p.Lag < 0 {
			p.Lag = 0
		}
		report.Partitions = append(report.Partitions, p)
		report.TotalLag += p.Lag
	})

	sort.Slice(report.Partitions, func(i, j int) bool {
		return report.Partitions[i].Partition < report.Partitions[j].Partition
	})

	return report, nil
}
