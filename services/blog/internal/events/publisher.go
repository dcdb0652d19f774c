// Package events publishes comment moderation events to NATS JetStream so an
// external notification service can tell authors about moderation outcomes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/jobportal/internal/platform/natsconn"
)

const (
	SubjectCommentSubmitted = "blog.comments.submitted"
	SubjectCommentApproved  = "blog.comments.approved"
	SubjectCommentRejected  = "blog.comments.rejected"
	streamName              = "BLOG"
)

// CommentEvent is the payload published to NATS. It carries enough context
// for a downstream notifier to address the comment's author without a
// round trip back to this service.
type CommentEvent struct {
	EventID    string    `json:"event_id"`
	CommentID  string    `json:"comment_id"`
	BlogPostID string    `json:"blog_post_id"`
	AuthorID   string    `json:"author_id"`
	ParentID   *string   `json:"parent_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes moderation events to NATS JetStream.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New connects to NATS and ensures the BLOG stream exists.
// If natsURL is empty, returns a no-op publisher (stub).
func New(natsURL string, log *zap.Logger) (*Publisher, error) {
	if natsURL == "" {
		log.Warn("NATS_URL not set, moderation events will not be published (stub mode)")
		return &Publisher{log: log}, nil
	}

	nc, err := natsconn.Connect(natsconn.Options{URL: natsURL})
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	// Create stream if it doesn't exist.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"blog.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		log.Warn("failed to create NATS stream (may already exist)", zap.Error(err))
	}

	log.Info("NATS publisher initialised", zap.String("stream", streamName))
	return &Publisher{js: js, log: log}, nil
}

// Publish sends a moderation event to the given subject. A missing event id
// or timestamp is filled in. In stub mode it logs and returns nil.
func (p *Publisher) Publish(_ context.Context, subject string, evt CommentEvent) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	if p.js == nil {
		p.log.Debug("NATS stub: skipping publish", zap.String("subject", subject), zap.String("comment_id", evt.CommentID))
		return nil
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	ack, err := p.js.Publish(subject, data)
	if err != nil {
		return err
	}

	p.log.Debug("moderation event published",
		zap.String("subject", subject),
		zap.String("event_id", evt.EventID),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}
