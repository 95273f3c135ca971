package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

// Client wraps the Pub/Sub v2 client for fleet alert broadcasts.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("fleet alert topic is required")
)

// FleetAlertEvent is the message body published when a manager shares a
// bycatch alert with the fleet.
type FleetAlertEvent struct {
	AlertID        string    `json:"alert_id"`
	OrgID          string    `json:"org_id"`
	SpeciesCode    int       `json:"species_code"`
	SpeciesName    string    `json:"species_name"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Position       string    `json:"position"`
	Amount         string    `json:"amount"`
	Unit           string    `json:"unit"`
	RecipientCount int       `json:"recipient_count"`
	SharedAt       time.Time `json:"shared_at"`
}

// NewClient creates a Pub/Sub v2 client and verifies the configured topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.FleetAlertTopic) == "" {
		return nil, errNoTopic
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if err := c.ensureTopicExists(ctx, cfg.FleetAlertTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}

	_, err := c.client.TopicAdminClient.GetTopic(
		ctx,
		&pubsubpb.GetTopicRequest{Topic: fullName},
	)
	if err != nil {
		// v2 uses gRPC errors; NotFound means the topic doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		return fmt.Errorf("checking topic %q: %w", name, err)
	}

	return nil
}

// Publisher returns a publisher handle for the given topic ID/resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

// FleetAlertPublisher returns the configured fleet alert publisher.
func (c *Client) FleetAlertPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.FleetAlertTopic)
}

// PublishFleetAlert publishes a shared-alert event and waits for the server ack.
func (c *Client) PublishFleetAlert(ctx context.Context, event FleetAlertEvent) (string, error) {
	publisher := c.FleetAlertPublisher()
	if publisher == nil {
		return "", errors.New("fleet alert publisher not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encoding fleet alert event: %w", err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": "bycatch_alert.shared",
			"org_id":     event.OrgID,
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing fleet alert: %w", err)
	}
	return id, nil
}

// Ping verifies Pub/Sub connectivity by checking the configured topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.ensureTopicExists(ctx, c.cfg.FleetAlertTopic)
}

// Close releases the Pub/Sub client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}

func (c *Client) ensureSubscriptionExists(ctx context.Context, name string) error {
	fullName := c.subscriptionResourceName(name)
	if fullName == "" {
		return fmt.Errorf("subscription %q not configured", name)
	}

	_, err := c.client.SubscriptionAdminClient.GetSubscription(
		ctx,
		&pubsubpb.GetSubscriptionRequest{Subscription: fullName},
	)
	if err != nil {
		// v2 uses gRPC errors; NotFound means the subscription doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription %q does not exist", name)
		}
		return fmt.Errorf("checking subscription %q: %w", name, err)
	}

	return nil
}

// Subscription returns a subscriber handle for the given subscription ID.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.subscriptionResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Subscriber(fullName)
}

// FleetAlertSubscription returns the configured fleet alert subscriber, or
// nil when no subscription is configured.
func (c *Client) FleetAlertSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.FleetAlertSubscription)
}

// EnsureFleetAlertSubscription verifies the configured subscription exists.
// Only the analytics worker calls this; the api never consumes.
func (c *Client) EnsureFleetAlertSubscription(ctx context.Context) error {
	return c.ensureSubscriptionExists(ctx, c.cfg.FleetAlertSubscription)
}

func (c *Client) subscriptionResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/subscriptions/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/subscriptions/%s", p, n)
}
