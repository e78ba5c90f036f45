// Package backend declares the contracts of the remote collaborator the
// client depends on: request/response operations (Client) and the push
// subscription (Feed).
//
// The package contains no transport. internal/backend/inmem provides an
// in-process implementation used by tests, scenarios and the demo command.
package backend

import (
	"context"

	"github.com/theonlysinjin/team-retro/internal/model"
)

// SessionTicket is returned by CreateSession.
type SessionTicket struct {
	SessionID string
	Code      string
	HostToken string
}

// CardPatch is a partial card update. Nil fields are left unchanged.
// A non-nil GroupID pointing at "" clears the card's group.
type CardPatch struct {
	EncryptedData *string
	Position      *model.Position
	GroupID       *string
}

// Empty reports whether the patch changes nothing.
func (p CardPatch) Empty() bool {
	return p.EncryptedData == nil && p.Position == nil && p.GroupID == nil
}

// Client is the request/response surface of the backend.
//
// Implementations return *Error for contract failures (not found,
// duplicate vote, missing vote, invalid argument).
type Client interface {
	CreateSession(ctx context.Context, hostName string) (SessionTicket, error)
	GetSessionByCode(ctx context.Context, code string) (*model.Session, error)
	GetSessionByHostToken(ctx context.Context, token string) (*model.Session, error)
	JoinSession(ctx context.Context, sessionID, userName string) error
	LeaveSession(ctx context.Context, sessionID, userName string) error

	UpdatePresence(ctx context.Context, sessionID, userName string) error
	GetPresence(ctx context.Context, sessionID string) ([]model.Presence, error)

	GetCards(ctx context.Context, sessionID string) ([]model.CardRecord, error)
	CreateCard(ctx context.Context, sessionID, encryptedData string, pos model.Position, authorName string) (string, error)
	UpdateCard(ctx context.Context, cardID string, patch CardPatch) error
	DeleteCard(ctx context.Context, cardID string) error

	GetVotes(ctx context.Context, sessionID string) ([]model.Vote, error)
	AddVote(ctx context.Context, cardID, sessionID, userName string) error
	RemoveVote(ctx context.Context, cardID, userName string) error

	GetGroups(ctx context.Context, sessionID string) ([]model.GroupRecord, error)
	CreateGroup(ctx context.Context, sessionID, encryptedData string, pos model.Position, cardIDs []string) (string, error)
	AddCardToGroup(ctx context.Context, cardID, groupID string) error
	RemoveCardFromGroup(ctx context.Context, cardID string) error
	UpdateGroupTitle(ctx context.Context, groupID, encryptedData string) error
	DeleteGroup(ctx context.Context, groupID string) error
}

// UpdateKind identifies the table a pushed update carries.
type UpdateKind int

const (
	UpdateCards UpdateKind = iota + 1
	UpdateVotes
	UpdateGroups
	UpdatePresence
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateCards:
		return "cards"
	case UpdateVotes:
		return "votes"
	case UpdateGroups:
		return "groups"
	case UpdatePresence:
		return "presence"
	}
	return "unknown"
}

// Update is one pushed snapshot: the full current contents of one table
// of a session. Only the field matching Kind is meaningful.
type Update struct {
	Kind     UpdateKind
	Cards    []model.CardRecord
	Votes    []model.Vote
	Groups   []model.GroupRecord
	Presence []model.Presence
}

// Feed is the push subscription surface of the backend.
//
// Subscribe delivers the current snapshot of every table immediately, then
// a fresh snapshot of a table whenever it changes. The channel is closed
// when ctx is done.
type Feed interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan Update, error)
}
