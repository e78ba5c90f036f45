package model

import "strings"

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionArchived SessionStatus = "archived"
)

// Session is a retro board shared by everyone holding its code.
//
// HostToken is only populated for the host (it is the bearer secret that
// restores host identity on reconnect).
type Session struct {
	ID        string        `json:"id" yaml:"id"`
	Code      string        `json:"code" yaml:"code"`
	HostName  string        `json:"host_name" yaml:"host_name"`
	HostToken string        `json:"host_token,omitempty" yaml:"host_token,omitempty"`
	CreatedAt int64         `json:"created_at" yaml:"created_at"`
	Status    SessionStatus `json:"status" yaml:"status"`
}

// Position is a point in the canvas frame.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by (dx, dy).
func (p Position) Add(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Category is the optional retro lane of a card.
type Category string

const (
	CategoryWell  Category = "well"
	CategoryBadly Category = "badly"
	CategoryTodo  Category = "todo"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWell, CategoryBadly, CategoryTodo:
		return true
	}
	return false
}

// Card is a decrypted sticky note.
type Card struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Content    string    `json:"content"`
	Color      string    `json:"color"`
	Category   *Category `json:"category"`
	Position   Position  `json:"position"`
	AuthorName string    `json:"author_name"`
	CreatedAt  int64     `json:"created_at"`
	UpdatedAt  int64     `json:"updated_at"`
	GroupID    string    `json:"group_id,omitempty"`
}

// Payload returns the encrypted portion of the card.
func (c Card) Payload() CardPayload {
	return CardPayload{Content: c.Content, Color: c.Color, Category: c.Category}
}

// Vote is one user's vote on one card. At most one vote exists per
// (CardID, UserName).
type Vote struct {
	ID        string `json:"id"`
	CardID    string `json:"card_id"`
	SessionID string `json:"session_id"`
	UserName  string `json:"user_name"`
	CreatedAt int64  `json:"created_at"`
}

// Key identifies the (card, user) pair a vote belongs to.
func (v Vote) Key() VoteKey {
	return VoteKey{CardID: v.CardID, UserName: v.UserName}
}

// VoteKey is the exclusivity key of a vote.
type VoteKey struct {
	CardID   string
	UserName string
}

// TempIDPrefix marks identifiers synthesized locally for optimistic entries.
const TempIDPrefix = "temp-"

// IsTemporaryID reports whether id was synthesized locally.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// IsTemporary reports whether the vote was synthesized locally.
func (v Vote) IsTemporary() bool {
	return IsTemporaryID(v.ID)
}

// Group is a decrypted card group. Membership is not stored here: the
// members are the cards whose GroupID equals ID. Position is informational;
// the rendered bounds are always derived from the member cards.
type Group struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	Name      *string  `json:"name,omitempty"`
	Color     *string  `json:"color,omitempty"`
	Position  Position `json:"position"`
}

// Presence is a liveness record of a participant.
type Presence struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	UserName  string `json:"user_name"`
	LastSeen  int64  `json:"last_seen"`
	Color     string `json:"color"`
	UserAgent string `json:"user_agent,omitempty"`
}

// CardRecord is a card as stored by the backend: plaintext metadata plus
// the encrypted payload.
type CardRecord struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"session_id"`
	EncryptedData string   `json:"encrypted_data"`
	Position      Position `json:"position"`
	AuthorName    string   `json:"author_name"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
	GroupID       string   `json:"group_id,omitempty"`
}

// Decrypted combines the record metadata with its decrypted payload.
func (r CardRecord) Decrypted(p CardPayload) Card {
	return Card{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Content:    p.Content,
		Color:      p.Color,
		Category:   p.Category,
		Position:   r.Position,
		AuthorName: r.AuthorName,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		GroupID:    r.GroupID,
	}
}

// GroupRecord is a group as stored by the backend.
type GroupRecord struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"session_id"`
	EncryptedData string   `json:"encrypted_data"`
	Position      Position `json:"position"`
}

// Decrypted combines the record metadata with its decrypted payload.
func (r GroupRecord) Decrypted(p GroupPayload) Group {
	return Group{
		ID:        r.ID,
		SessionID: r.SessionID,
		Name:      p.Name,
		Color:     p.Color,
		Position:  r.Position,
	}
}
