package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/turtacn/dockview/pkg/errors"
)

// LigandsClient calls the endpoints that need no session.
type LigandsClient struct {
	client *Client
}

type presetsResponse struct {
	Presets []Preset `json:"presets"`
}

// Extract parses SDF text on the server. An empty order keeps the file order.
func (l *LigandsClient) Extract(ctx context.Context, name, sdf, order string) (*Extraction, error) {
	switch order {
	case "", OrderAscending, OrderDescending:
	default:
		return nil, errors.InvalidParam("order must be ascending or descending")
	}
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if order != "" {
		q.Set("order", order)
	}

	var ex Extraction
	req := request{
		method:      http.MethodPost,
		path:        "/ligands/extract",
		query:       q,
		rawBody:     []byte(sdf),
		contentType: "chemical/x-mdl-sdfile",
	}
	if err := l.client.do(ctx, req, &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

// Environment reports which docking tools the server found.
func (l *LigandsClient) Environment(ctx context.Context) (*Environment, error) {
	var env Environment
	if err := l.client.do(ctx, request{method: http.MethodGet, path: "/environment"}, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Presets lists the built-in protein targets.
func (l *LigandsClient) Presets(ctx context.Context) ([]Preset, error) {
	var resp presetsResponse
	if err := l.client.do(ctx, request{method: http.MethodGet, path: "/presets"}, &resp); err != nil {
		return nil, err
	}
	return resp.Presets, nil
}
