package room

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 16
)

// Registry maps room codes to live rooms.
type Registry struct {
	logger zerolog.Logger
	opts   []Option

	mu      sync.Mutex
	rooms   map[string]*Room
	newCode func() (string, error)
}

// NewRegistry returns an empty registry. opts are applied to every room it creates.
func NewRegistry(logger zerolog.Logger, opts ...Option) *Registry {
	return &Registry{
		logger:  logger,
		opts:    opts,
		rooms:   make(map[string]*Room),
		newCode: randomCode,
	}
}

// Create opens a room under a fresh code.
func (reg *Registry) Create() (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for range codeAttempts {
		code, err := reg.newCode()
		if err != nil {
			return nil, fmt.Errorf("room code: %w", err)
		}
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		r, err := New(code, append([]Option{WithLogger(reg.logger)}, reg.opts...)...)
		if err != nil {
			return nil, err
		}
		reg.rooms[code] = r
		reg.logger.Info().Str("room", code).Int("rooms", len(reg.rooms)).Msg("room created")
		return r, nil
	}
	return nil, fmt.Errorf("no free room code after %d attempts", codeAttempts)
}

// Get finds a room by code, ignoring case.
func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Release tears the room down once nobody is connected to it.
func (reg *Registry) Release(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok || !r.closeIfEmpty() {
		return
	}
	delete(reg.rooms, code)
	reg.logger.Info().Str("room", code).Int("rooms", len(reg.rooms)).Msg("room closed")
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Close shuts every room.
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for code, r := range reg.rooms {
		r.Close()
		delete(reg.rooms, code)
	}
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
