package client

import (
	"context"
	"net/url"
	"time"

	"roombook/pkg/model"
)

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(httpClient *HttpClient) *RoomClient {
	return &RoomClient{
		httpClient: httpClient,
	}
}

func (c *RoomClient) Create(ctx context.Context, room *model.Room) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/rooms", room)
}

func (c *RoomClient) List(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/rooms")
}

func (c *RoomClient) GetByID(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/rooms/id/" + url.PathEscape(id)
	return c.httpClient.GET(ctx, path)
}

func (c *RoomClient) Update(ctx context.Context, id string, patch *model.RoomUpdate) (*Response, error) {
	path := "/api/v1/rooms/id/" + url.PathEscape(id)
	return c.httpClient.PATCH(ctx, path, patch)
}

func (c *RoomClient) Delete(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/rooms/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(ctx, path)
}

// Availability asks for the free slots of the day containing date. A zero
// date means today on the server.
func (c *RoomClient) Availability(ctx context.Context, id string, date time.Time) (*Response, error) {
	path := "/api/v1/rooms/id/" + url.PathEscape(id) + "/availability"
	if !date.IsZero() {
		path += "?date=" + date.Format("2006-01-02")
	}
	return c.httpClient.GET(ctx, path)
}
