package testing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultESImage = "docker.elastic.co/elasticsearch/elasticsearch:8.19.0"

type ESContainer struct {
	Container testcontainers.Container
	Address   string
}

type ESConfig struct {
	Image string
	// Ready bounds the wait for a yellow cluster.
	Ready time.Duration
}

func (c *ESContainer) Addresses() []string {
	return []string{c.Address}
}

// NewESContainer starts a single-node cluster with the default image and
// terminates it when tb finishes.
func NewESContainer(ctx context.Context, tb testing.TB) *ESContainer {
	return NewESContainerWithConfig(ctx, tb, ESConfig{})
}

func NewESContainerWithConfig(ctx context.Context, tb testing.TB, cfg ESConfig) *ESContainer {
	tb.Helper()

	if cfg.Image == "" {
		cfg.Image = defaultESImage
	}
	if cfg.Ready <= 0 {
		cfg.Ready = 90 * time.Second
	}

	esContainer, err := elasticsearch.Run(ctx,
		cfg.Image,
		elasticsearch.WithPassword(""),
		testcontainers.WithWaitStrategy(
			// Index creation fails on a red cluster, so wait for shards first.
			wait.ForHTTP("/_cluster/health?wait_for_status=yellow&timeout=30s").
				WithPort("9200").
				WithStartupTimeout(cfg.Ready),
		),
	)
	if err != nil {
		tb.Fatalf("failed to start elasticsearch container: %v", err)
	}

	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(esContainer); err != nil {
			tb.Logf("failed to terminate elasticsearch container: %v", err)
		}
	})

	host, err := esContainer.Host(ctx)
	if err != nil {
		tb.Fatalf("failed to get elasticsearch host: %v", err)
	}

	port, err := esContainer.MappedPort(ctx, "9200")
	if err != nil {
		tb.Fatalf("failed to get elasticsearch port: %v", err)
	}

	return &ESContainer{
		Container: esContainer,
		Address:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}

// IndexName derives an index name from prefix and the test name, so tests
// sharing a cluster never see each other's results.
func IndexName(tb testing.TB, prefix string) string {
	tb.Helper()

	var b strings.Builder
	b.WriteString(strings.ToLower(prefix))
	b.WriteByte('_')
	for _, r := range strings.ToLower(tb.Name()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := b.String()
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
