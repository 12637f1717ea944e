// Package seed loads an initial set of rooms from a YAML file.
//
//	rooms:
//	  - name: Aurora
//	    capacity: 8
//	    color: "#ff8800"
//	    description: Second floor, east wing
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"roombook/internal/reservations/repository"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type File struct {
	Rooms []Room `yaml:"rooms"`
}

type Room struct {
	Name        string `yaml:"name"`
	Capacity    int    `yaml:"capacity"`
	Color       string `yaml:"color,omitempty"`
	Description string `yaml:"description,omitempty"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := make(map[string]bool, len(f.Rooms))
	for i, r := range f.Rooms {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("room %d: name is required", i)
		}
		if r.Capacity < 1 {
			return nil, fmt.Errorf("room %q: capacity must be positive", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("room %q: duplicate name", name)
		}
		seen[key] = true
		f.Rooms[i].Name = name
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Apply creates every seeded room whose name does not exist yet and returns
// how many were created. Names compare case-insensitively.
func Apply(ctx context.Context, rooms repository.RoomRepository, f *File, log *logger.Logger) (int, error) {
	existing, err := rooms.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, r := range existing {
		present[strings.ToLower(r.Name)] = true
	}

	created := 0
	for _, r := range f.Rooms {
		if present[strings.ToLower(r.Name)] {
			log.Debug("Seed room already exists", "name", r.Name)
			continue
		}
		color := r.Color
		if color == "" {
			color = model.DefaultRoomColor
		}
		room := &model.Room{
			Name:        r.Name,
			Capacity:    r.Capacity,
			Color:       color,
			Description: r.Description,
		}
		if err := rooms.Create(ctx, room); err != nil {
			return created, fmt.Errorf("create room %q: %w", r.Name, err)
		}
		log.Info("Seeded room", "id", room.ID, "name", room.Name)
		created++
	}
	return created, nil
}
