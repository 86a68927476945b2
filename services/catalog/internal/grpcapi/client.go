package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls catalog.v1.CatalogService over conn using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) ListGames(ctx context.Context, in *ListGamesRequest, opts ...grpc.CallOption) (*ListGamesResponse, error) {
	out := new(ListGamesResponse)
	if err := c.conn.Invoke(ctx, methodListGames, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResolveReference(ctx context.Context, in *ResolveReferenceRequest, opts ...grpc.CallOption) (*ResolveReferenceResponse, error) {
	out := new(ResolveReferenceResponse)
	if err := c.conn.Invoke(ctx, methodResolveReference, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{CallOption()}, opts...)
}
