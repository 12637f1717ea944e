package client

import (
	"context"
	"fmt"
	"net/url"

	"roombook/pkg/model"
)

type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(httpClient *HttpClient) *ReservationClient {
	return &ReservationClient{
		httpClient: httpClient,
	}
}

// Create posts draft under a fresh idempotency key.
func (c *ReservationClient) Create(ctx context.Context, draft *model.Reservation) (*Response, error) {
	return c.httpClient.POSTIdempotent(ctx, "/api/v1/reservations", draft, "")
}

func (c *ReservationClient) List(ctx context.Context, filter model.ReservationFilter) (*Response, error) {
	q := url.Values{}
	if filter.Scope != "" {
		q.Set("scope", string(filter.Scope))
	}
	if filter.RoomID != "" {
		q.Set("room_id", filter.RoomID)
	}
	if filter.OwnerID != "" {
		q.Set("owner_id", filter.OwnerID)
	}
	if filter.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", filter.Offset))
	}

	path := "/api/v1/reservations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.httpClient.GET(ctx, path)
}

func (c *ReservationClient) GetByID(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id)
	return c.httpClient.GET(ctx, path)
}

func (c *ReservationClient) Update(ctx context.Context, id string, patch *model.ReservationUpdate) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id)
	return c.httpClient.PATCH(ctx, path, patch)
}

func (c *ReservationClient) Delete(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(ctx, path)
}
