package broker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/google/uuid"

	"github.com/cruxauth/authsvc/identity"
)

// Config carries the connection settings for the broker.
type Config struct {
	User       string
	Pass       string
	Host       string
	Queue      string
	CertPath   string
	KeyPath    string
	Passphrase string
	CAPath     string
}

func (c Config) url() string {
	scheme := "amqp"
	if c.CertPath != "" {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s/", scheme, c.User, c.Pass, c.Host)
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.CertPath == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("load broker tls keypair: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

// remoteError carries an identity.Service failure back across the broker
// boundary, preserving both the original message text (for the HTTP
// response body) and the sentinel it maps to (so errors.Is still
// classifies it correctly on the gateway side).
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

// Publisher is the gateway-side RPC client: it publishes a Request to the
// well-known command queue and blocks on a correlated reply delivered to
// an exclusive, auto-deleted reply queue.
type Publisher struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	replyTo string

	mu      sync.Mutex
	pending map[string]chan Reply
}

// NewPublisher dials the broker and opens a single long-lived channel plus
// an exclusive reply queue: one connection, one channel per role.
func NewPublisher(cfg Config) (*Publisher, error) {
	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	var conn *amqp.Connection
	if tlsCfg != nil {
		conn, err = amqp.DialTLS(cfg.url(), tlsCfg)
	} else {
		conn, err = amqp.Dial(cfg.url())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p := &Publisher{
		conn:    conn,
		ch:      ch,
		queue:   cfg.Queue,
		replyTo: replyQueue.Name,
		pending: make(map[string]chan Reply),
	}

	deliveries, err := ch.Consume(replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	go p.consumeReplies(deliveries)

	return p, nil
}

func (p *Publisher) consumeReplies(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		var reply Reply
		if err := json.Unmarshal(d.Body, &reply); err != nil {
			continue
		}
		p.mu.Lock()
		ch, ok := p.pending[reply.ID]
		if ok {
			delete(p.pending, reply.ID)
		}
		p.mu.Unlock()
		if ok {
			ch <- reply
		}
	}
}

// Call publishes a Request built from command and payload, and blocks for
// the correlated reply or ctx's deadline, whichever comes first.
func (p *Publisher) Call(ctx context.Context, command Command, payload any) (json.RawMessage, error) {
	body, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	req := Request{ID: id, Command: command, Payload: body}
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	replyCh := make(chan Reply, 1)
	p.mu.Lock()
	p.pending[id] = replyCh
	p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: id,
		ReplyTo:       p.replyTo,
		Body:          encoded,
	})
	if err != nil {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	select {
	case reply := <-replyCh:
		if reply.Error != "" {
			if sentinel := identity.ErrorForCode(identity.Code(reply.Code)); sentinel != nil {
				return nil, &remoteError{msg: reply.Error, sentinel: sentinel}
			}
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, reply.Error)
		}
		return reply.Payload, nil
	case <-ctx.Done():
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Close tears down the channel and connection.
func (p *Publisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}
