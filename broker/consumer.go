package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cruxauth/authsvc/identity"
)

// Consumer is the identity-service side of the RPC transport: it consumes
// Requests from the durable command queue, dispatches by Command to the
// matching identity.Service method, and publishes a Reply to the
// correlation's ReplyTo queue. Acknowledgements are manual: a decode
// failure nacks without requeue (the message can never succeed), a
// handler error still acks (the failure is carried in the Reply body, not
// as a broker-level failure).
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	service *identity.Service
}

func NewConsumer(cfg Config, service *identity.Service) (*Consumer, error) {
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

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Consumer{conn: conn, ch: ch, queue: cfg.Queue, service: service}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrUnavailable
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var req Request
	if err := json.Unmarshal(d.Body, &req); err != nil {
		d.Nack(false, false)
		return
	}

	payload, handlerErr := c.dispatch(ctx, req)

	reply := Reply{ID: req.ID}
	if handlerErr != nil {
		reply.Error = handlerErr.Error()
		reply.Code = string(identity.ErrorCode(handlerErr))
	} else {
		reply.Payload = payload
	}
	encoded, err := json.Marshal(reply)
	if err != nil {
		d.Ack(false)
		return
	}

	if d.ReplyTo != "" {
		if err := c.ch.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: req.ID,
			Body:          encoded,
		}); err != nil {
			log.Printf("broker: publish reply failed: %v", err)
		}
	}
	d.Ack(false)
}

func (c *Consumer) dispatch(ctx context.Context, req Request) (json.RawMessage, error) {
	switch req.Command {
	case CommandSignUp:
		var in identity.SignUpInput
		if err := json.Unmarshal(req.Payload, &in); err != nil {
			return nil, err
		}
		result, err := c.service.SignUp(ctx, in)
		if err != nil {
			return nil, err
		}
		return marshalPayload(result)

	case CommandSignIn:
		var in identity.SignInInput
		if err := json.Unmarshal(req.Payload, &in); err != nil {
			return nil, err
		}
		result, err := c.service.SignIn(ctx, in)
		if err != nil {
			return nil, err
		}
		return marshalPayload(result)

	case CommandRefreshToken:
		var in struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(req.Payload, &in); err != nil {
			return nil, err
		}
		result, err := c.service.RefreshToken(ctx, in.Token)
		if err != nil {
			return nil, err
		}
		return marshalPayload(result)

	case CommandValidateToken:
		var in struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(req.Payload, &in); err != nil {
			return nil, err
		}
		result, err := c.service.ValidateToken(ctx, in.Token)
		if err != nil {
			return nil, err
		}
		return marshalPayload(result)

	case CommandVerifyUser:
		var in struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(req.Payload, &in); err != nil {
			return nil, err
		}
		result, err := c.service.VerifyUser(ctx, in.Key)
		if err != nil {
			return nil, err
		}
		return marshalPayload(result)

	default:
		return nil, fmt.Errorf("broker: unknown command %q", req.Command)
	}
}

func (c *Consumer) Close() error {
	c.ch.Close()
	return c.conn.Close()
}
