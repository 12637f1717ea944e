package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roombook/pkg/model"
)

type recorded struct {
	method      string
	uri         string
	userID      string
	role        string
	idempotency string
	contentType string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.uri = r.URL.RequestURI()
		rec.userID = r.Header.Get("X-User-ID")
		rec.role = r.Header.Get("X-User-Role")
		rec.idempotency = r.Header.Get("Idempotency-Key")
		rec.contentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestReservationClient_Create(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"data":{"id":"r1","title":"standup"}}`)
	c := NewReservationClient(NewHttpClient(srv.URL, "U1", "user"))

	resp, err := c.Create(context.Background(), &model.Reservation{Title: "standup", RoomID: "room"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("IsSuccess() = false for %d", resp.StatusCode)
	}

	var created model.Reservation
	if err := resp.DecodeData(&created); err != nil {
		t.Fatalf("DecodeData() error = %v", err)
	}
	if created.ID != "r1" {
		t.Errorf("ID = %q, want r1", created.ID)
	}

	if rec.method != http.MethodPost || rec.uri != "/api/v1/reservations" {
		t.Errorf("request = %s %s", rec.method, rec.uri)
	}
	if rec.userID != "U1" || rec.role != "user" {
		t.Errorf("identity headers = %q/%q", rec.userID, rec.role)
	}
	if rec.idempotency == "" {
		t.Error("missing Idempotency-Key header")
	}
	if rec.contentType != "application/json" {
		t.Errorf("Content-Type = %q", rec.contentType)
	}
}

func TestClient_Paths(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		call       func(h *HttpClient) (*Response, error)
		wantMethod string
		wantURI    string
	}{
		{
			name: "list reservations",
			call: func(h *HttpClient) (*Response, error) {
				return NewReservationClient(h).List(ctx, model.ReservationFilter{Scope: model.ScopePast, RoomID: "r 1", Limit: 5})
			},
			wantMethod: http.MethodGet,
			wantURI:    "/api/v1/reservations?limit=5&room_id=r+1&scope=past",
		},
		{
			name: "list reservations without filter",
			call: func(h *HttpClient) (*Response, error) {
				return NewReservationClient(h).List(ctx, model.ReservationFilter{})
			},
			wantMethod: http.MethodGet,
			wantURI:    "/api/v1/reservations",
		},
		{
			name: "update reservation",
			call: func(h *HttpClient) (*Response, error) {
				return NewReservationClient(h).Update(ctx, "abc", &model.ReservationUpdate{Title: "x"})
			},
			wantMethod: http.MethodPatch,
			wantURI:    "/api/v1/reservations/id/abc",
		},
		{
			name: "delete reservation",
			call: func(h *HttpClient) (*Response, error) {
				return NewReservationClient(h).Delete(ctx, "abc")
			},
			wantMethod: http.MethodDelete,
			wantURI:    "/api/v1/reservations/id/abc",
		},
		{
			name: "room availability",
			call: func(h *HttpClient) (*Response, error) {
				return NewRoomClient(h).Availability(ctx, "room1", date)
			},
			wantMethod: http.MethodGet,
			wantURI:    "/api/v1/rooms/id/room1/availability?date=2026-03-02",
		},
		{
			name: "room availability today",
			call: func(h *HttpClient) (*Response, error) {
				return NewRoomClient(h).Availability(ctx, "room1", time.Time{})
			},
			wantMethod: http.MethodGet,
			wantURI:    "/api/v1/rooms/id/room1/availability",
		},
		{
			name: "get room",
			call: func(h *HttpClient) (*Response, error) {
				return NewRoomClient(h).GetByID(ctx, "room1")
			},
			wantMethod: http.MethodGet,
			wantURI:    "/api/v1/rooms/id/room1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, `{"data":null}`)
			if _, err := tt.call(NewHttpClient(srv.URL, "A1", "admin")); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if rec.method != tt.wantMethod {
				t.Errorf("method = %s, want %s", rec.method, tt.wantMethod)
			}
			if rec.uri != tt.wantURI {
				t.Errorf("uri = %s, want %s", rec.uri, tt.wantURI)
			}
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "code and message", body: `{"code":"CONFLICT","message":"taken"}`, want: "CONFLICT: taken"},
		{name: "code only", body: `{"code":"BUSY"}`, want: "BUSY"},
		{name: "message only", body: `{"message":"boom"}`, want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorMessage(&Response{Body: []byte(tt.body)}); got != tt.want {
				t.Errorf("GetErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := GetErrorMessage(&Response{Body: []byte("nope")}); got == "" {
		t.Error("GetErrorMessage() on invalid JSON returned empty string")
	}
}

func TestWaitForHealthy(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"status":"ok"}`)
	if err := NewHttpClient(srv.URL, "", "").WaitForHealthy(context.Background(), time.Second); err != nil {
		t.Errorf("WaitForHealthy() error = %v", err)
	}

	down, _ := newServer(t, http.StatusServiceUnavailable, `{}`)
	if err := NewHttpClient(down.URL, "", "").WaitForHealthy(context.Background(), 100*time.Millisecond); err == nil {
		t.Error("WaitForHealthy() on failing server returned nil")
	}
}

func TestResponse_DecodeData(t *testing.T) {
	resp := &Response{Body: []byte(`{"data":[{"id":"a"},{"id":"b"}],"total_count":2}`)}
	var rooms []model.Room
	if err := resp.DecodeData(&rooms); err != nil {
		t.Fatalf("DecodeData() error = %v", err)
	}
	if len(rooms) != 2 || rooms[1].ID != "b" {
		t.Errorf("rooms = %+v", rooms)
	}
}
