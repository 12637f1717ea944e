// Command roomctl is a thin command-line client for the reservations API.
//
//	roomctl [--server URL] [--user ID] [--role user|admin] <resource> <action> [flags]
//
// Resources are rooms and reservations. Responses are printed as indented
// JSON; API errors go to stderr and set a non-zero exit status.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"roombook/pkg/client"
	"roombook/pkg/model"
)

const (
	envAPIURL  = "ROOMBOOK_SERVER"
	envUserID  = "ROOMBOOK_USER_ID"
	envRole    = "ROOMBOOK_ROLE"
	defaultURL = "http://localhost:8080"
	dateLayout = "2006-01-02"
)

var errUsage = errors.New("usage: roomctl [global flags] <rooms|reservations> <action> [flags]")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("roomctl", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	apiURL := global.String("server", envOr(envAPIURL, defaultURL), "base URL of the reservations API")
	userID := global.String("user", envOr(envUserID, ""), "acting user id")
	role := global.String("role", envOr(envRole, string(model.RoleUser)), "acting role (user or admin)")
	timeout := global.Duration("timeout", 10*time.Second, "request timeout")

	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) < 2 {
		fmt.Fprintln(stderr, errUsage)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	httpClient := client.NewHttpClient(*apiURL, *userID, *role)
	var (
		resp *client.Response
		err  error
	)
	switch rest[0] {
	case "rooms", "room":
		resp, err = runRooms(ctx, client.NewRoomClient(httpClient), rest[1], rest[2:], stderr)
	case "reservations", "reservation":
		resp, err = runReservations(ctx, client.NewReservationClient(httpClient), rest[1], rest[2:], stderr)
	default:
		err = fmt.Errorf("unknown resource %q", rest[0])
	}
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	return printResponse(resp, stdout, stderr)
}

func printResponse(resp *client.Response, stdout, stderr io.Writer) int {
	if !resp.IsSuccess() {
		fmt.Fprintf(stderr, "request failed (%d): %s\n", resp.StatusCode, client.GetErrorMessage(resp))
		return 1
	}
	if len(resp.Body) == 0 {
		return 0
	}
	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body, "", "  "); err != nil {
		_, _ = stdout.Write(resp.Body)
		return 0
	}
	out.WriteByte('\n')
	_, _ = out.WriteTo(stdout)
	return 0
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func requireID(fs *pflag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one id argument", fs.Name())
	}
	return fs.Arg(0), nil
}

func runRooms(ctx context.Context, c *client.RoomClient, action string, args []string, stderr io.Writer) (*client.Response, error) {
	fs := newFlagSet("rooms "+action, stderr)

	switch action {
	case "list":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return c.List(ctx)

	case "get", "delete":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		id, err := requireID(fs)
		if err != nil {
			return nil, err
		}
		if action == "get" {
			return c.GetByID(ctx, id)
		}
		return c.Delete(ctx, id)

	case "create":
		name := fs.String("name", "", "room name")
		capacity := fs.Int("capacity", 0, "number of seats")
		color := fs.String("color", "", "display color")
		description := fs.String("description", "", "free-form description")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return c.Create(ctx, &model.Room{
			Name:        *name,
			Capacity:    *capacity,
			Color:       *color,
			Description: *description,
		})

	case "update":
		name := fs.String("name", "", "new name")
		capacity := fs.Int("capacity", 0, "new capacity")
		color := fs.String("color", "", "new color")
		description := fs.String("description", "", "new description")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		id, err := requireID(fs)
		if err != nil {
			return nil, err
		}
		patch := &model.RoomUpdate{Name: *name, Color: *color}
		if fs.Changed("capacity") {
			patch.Capacity = capacity
		}
		if fs.Changed("description") {
			patch.Description = description
		}
		return c.Update(ctx, id, patch)

	case "availability":
		date := fs.String("date", "", "day to inspect as YYYY-MM-DD (default today)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		id, err := requireID(fs)
		if err != nil {
			return nil, err
		}
		var day time.Time
		if *date != "" {
			day, err = time.Parse(dateLayout, *date)
			if err != nil {
				return nil, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", *date)
			}
		}
		return c.Availability(ctx, id, day)
	}
	return nil, fmt.Errorf("unknown rooms action %q", action)
}

func runReservations(ctx context.Context, c *client.ReservationClient, action string, args []string, stderr io.Writer) (*client.Response, error) {
	fs := newFlagSet("reservations "+action, stderr)

	switch action {
	case "list":
		scope := fs.String("scope", "", "upcoming, past or all")
		roomID := fs.String("room", "", "only this room")
		ownerID := fs.String("owner", "", "only this owner (admins)")
		limit := fs.Int("limit", 0, "page size")
		offset := fs.Int64("offset", 0, "page offset")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return c.List(ctx, model.ReservationFilter{
			Scope:   model.ReservationScope(*scope),
			RoomID:  *roomID,
			OwnerID: *ownerID,
			Limit:   *limit,
			Offset:  *offset,
		})

	case "get", "delete":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		id, err := requireID(fs)
		if err != nil {
			return nil, err
		}
		if action == "get" {
			return c.GetByID(ctx, id)
		}
		return c.Delete(ctx, id)

	case "create":
		title := fs.String("title", "", "reservation title")
		roomID := fs.String("room", "", "room id")
		ownerID := fs.String("owner", "", "owner id (admins only, defaults to --user)")
		start := fs.String("start", "", "start time, RFC 3339")
		end := fs.String("end", "", "end time, RFC 3339")
		notes := fs.String("notes", "", "notes")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		startTime, err := parseTime("start", *start)
		if err != nil {
			return nil, err
		}
		endTime, err := parseTime("end", *end)
		if err != nil {
			return nil, err
		}
		return c.Create(ctx, &model.Reservation{
			Title:     *title,
			RoomID:    *roomID,
			OwnerID:   *ownerID,
			StartTime: startTime,
			EndTime:   endTime,
			Notes:     *notes,
		})

	case "update":
		title := fs.String("title", "", "new title")
		roomID := fs.String("room", "", "move to this room")
		start := fs.String("start", "", "new start time, RFC 3339")
		end := fs.String("end", "", "new end time, RFC 3339")
		notes := fs.String("notes", "", "new notes")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		id, err := requireID(fs)
		if err != nil {
			return nil, err
		}
		patch := &model.ReservationUpdate{Title: *title, RoomID: *roomID}
		if fs.Changed("start") {
			t, err := parseTime("start", *start)
			if err != nil {
				return nil, err
			}
			patch.StartTime = &t
		}
		if fs.Changed("end") {
			t, err := parseTime("end", *end)
			if err != nil {
				return nil, err
			}
			patch.EndTime = &t
		}
		if fs.Changed("notes") {
			patch.Notes = notes
		}
		return c.Update(ctx, id, patch)
	}
	return nil, fmt.Errorf("unknown reservations action %q", action)
}

func parseTime(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", flag)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, expected RFC 3339", flag, value)
	}
	return t, nil
}
