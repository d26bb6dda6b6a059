package events

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubPublisher sends committed records to a Cloud Pub/Sub topic, where the
// document renderer (invoice and receipt PDFs) picks them up.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher uses Application Default Credentials unless credJSON is given.
func NewPubSubPublisher(ctx context.Context, projectID, topicName, credJSON string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, errors.New("GCP_PROJECT not set")
	}
	if topicName == "" {
		return nil, errors.New("topic is required")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	t := c.Topic(topicName)
	ok, err := t.Exists(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	if !ok {
		if t, err = c.CreateTopic(ctx, topicName); err != nil {
			c.Close()
			return nil, fmt.Errorf("create topic %q: %w", topicName, err)
		}
	}
	return &PubSubPublisher{client: c, topic: t}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":   ev.Type,
			"action": ev.Action,
		},
	})
	_, err = result.Get(ctx)
	return err
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
