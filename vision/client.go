// Package vision wraps the generated ComputerVision gRPC client with a
// single long-lived connection to VISION_HOST:VISION_PORT, and
// client-side rejection of empty image payloads before a round trip is
// spent on an obviously-bad request, mirroring the reference Rust
// service's own request validation.
package vision

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cruxauth/authsvc/visionpb"
)

var ErrEmptyImage = errors.New("vision: empty image bytes")

// Client wraps visionpb.ComputerVisionClient over a dialed connection.
type Client struct {
	conn   *grpc.ClientConn
	client visionpb.ComputerVisionClient
}

// Dial connects to host:port. TLS material loading is left to operators;
// the dial itself uses insecure transport credentials.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vision: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, client: visionpb.NewComputerVisionClient(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ProcessImage handles the single-file case of the vision route.
func (c *Client) ProcessImage(ctx context.Context, image []byte, model visionpb.ModelType) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	resp, err := c.client.ProcessImage(ctx, &visionpb.ImgProcRequest{Image: image, Model: model})
	if err != nil {
		return "", err
	}
	return resp.Description, nil
}

// ProcessImageBatch handles the two-or-more-files case: every image is
// pushed onto the bidi stream in order, then the stream is half-closed and
// descriptions are read back, preserving input order.
func (c *Client) ProcessImageBatch(ctx context.Context, images [][]byte, model visionpb.ModelType) ([]string, error) {
	for _, img := range images {
		if len(img) == 0 {
			return nil, ErrEmptyImage
		}
	}

	stream, err := c.client.ProcessImageBatch(ctx)
	if err != nil {
		return nil, err
	}

	for _, img := range images {
		if err := stream.Send(&visionpb.ImgProcRequest{Image: img, Model: model}); err != nil {
			return nil, err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	descriptions := make([]string, 0, len(images))
	for range images {
		resp, err := stream.Recv()
		if err != nil {
			return nil, err
		}
		descriptions = append(descriptions, resp.Description)
	}
	return descriptions, nil
}
