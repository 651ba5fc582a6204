// Package mcp exposes a play session as MCP tools so agents and scripted
// runners can drive an investigation.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"casefile/internal/game"
	"casefile/internal/interpreter"
	"casefile/internal/store"
	"casefile/internal/story"
)

// Session is the part of a play session the tools drive.
type Session interface {
	Story() *story.Story
	Snapshot() *game.State
	Update(fn func(*game.State) *game.State) *game.State
	Submit(line string) interpreter.Result
	SendMessage(channel story.Channel, characterID, body string, attachments []string) error
	Pending() int
}

type Server struct {
	session Session
	db      store.Store
	mcp     *sdk.Server
}

// NewServer registers the game tools. db may be nil, in which case saving
// is unavailable.
func NewServer(session Session, db store.Store, version string) *Server {
	s := &Server{
		session: session,
		db:      db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "casefile",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
