// Package util holds the helpers of the integration tests: a throwaway
// Mosquitto broker and a poller for the Prometheus endpoint.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MosquittoImage        = "eclipse-mosquitto:2.0"
	MosquittoReadyTimeout = 5 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`

// Broker is a Mosquitto container reachable at URL.
type Broker struct {
	URL       string
	container tc.Container
	confDir   string
}

// StartBroker runs Mosquitto in a container and waits until it accepts MQTT
// connections.
func StartBroker(ctx context.Context) (*Broker, error) {
	dir, err := os.MkdirTemp("", "powerplan-mosquitto")
	if err != nil {
		return nil, err
	}
	b := &Broker{confDir: dir}
	conf := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(conf, []byte(mosquittoConf), 0o644); err != nil {
		b.Close()
		return nil, err
	}

	b.container, err = tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        MosquittoImage,
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      conf,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("start mosquitto: %w", err)
	}

	endpoint, err := b.container.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		b.Close()
		return nil, err
	}
	b.URL = endpoint

	readyCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := b.waitReady(readyCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("mosquitto not ready: %w", err)
	}
	return b, nil
}

// Close terminates the container and removes its configuration.
func (b *Broker) Close() {
	if b.container != nil {
		_ = b.container.Terminate(context.Background())
	}
	_ = os.RemoveAll(b.confDir)
}

func (b *Broker) waitReady(ctx context.Context) error {
	for {
		cli, err := connect(b.URL, "ready-check")
		if err == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(pollInterval):
		}
	}
}

// Subscribe returns a channel receiving the payload of every message
// published on topic. The subscription is active when Subscribe returns.
func (b *Broker) Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error) {
	cli, err := connect(b.URL, fmt.Sprintf("collector-%d", time.Now().UnixNano()))
	if err != nil {
		return nil, nil, err
	}
	out := make(chan []byte, 64)
	token := cli.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		select {
		case out <- msg.Payload():
		case <-ctx.Done():
		}
	})
	if token.Wait() && token.Error() != nil {
		cli.Disconnect(100)
		return nil, nil, token.Error()
	}
	return out, func() { cli.Disconnect(100) }, nil
}

func connect(broker, clientID string) (paho.Client, error) {
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID(clientID))
	token := cli.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

// WaitForMetric polls metricsURL until its body contains substr.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	var last string
	for {
		if body, err := scrape(ctx, metricsURL); err == nil {
			if strings.Contains(body, substr) {
				return nil
			}
			last = body
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found (%d bytes scraped): %w", substr, len(last), ctx.Err())
		case <-ticker.C:
		}
	}
}

func scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}
