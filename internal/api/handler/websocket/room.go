package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Room holds everyone viewing the same thing: the shared schedule board
// (BoardRoomID) or one job's detail editor. Presence events and snapshots
// fan out per room, so board viewers never see another job's edit chatter.
type Room struct {
	JobID   uint
	Clients map[string]*Client
	mu      sync.RWMutex
	Logger  zerolog.Logger
}

func NewRoom(jobID uint, logger zerolog.Logger) *Room {
	return &Room{
		JobID:   jobID,
		Clients: make(map[string]*Client),
		Logger:  logger,
	}
}

// label names the room in logs
func (r *Room) label() string {
	if r.JobID == BoardRoomID {
		return "board"
	}
	return fmt.Sprintf("job %d", r.JobID)
}

// AddClient joins a viewer and announces the presence change to the room
func (r *Room) AddClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Clients[client.ID] = client
	r.Logger.Info().
		Str("room", r.label()).
		Str("clientId", client.ID).
		Uint("userId", client.UserID).
		Int("viewers", len(r.Clients)).
		Msg("Viewer joined room")

	r.announceJoin(client)
}

// RemoveClient drops a viewer and announces the departure
func (r *Room) RemoveClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Clients[client.ID]; exists {
		delete(r.Clients, client.ID)
		r.Logger.Info().
			Str("room", r.label()).
			Str("clientId", client.ID).
			Uint("userId", client.UserID).
			Int("viewers", len(r.Clients)).
			Msg("Viewer left room")

		r.announceLeave(client)
	}
}

// Broadcast sends a message to every viewer in the room. A viewer whose
// send buffer is full is skipped; snapshots are whole-state, so the next
// delivered event catches them up.
func (r *Room) Broadcast(message Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, client := range r.Clients {
		select {
		case client.Send <- message:
		default:
			r.Logger.Warn().
				Str("room", r.label()).
				Str("clientId", client.ID).
				Msg("Viewer send buffer full, message dropped")
		}
	}
}

// GetActiveUsers returns the distinct users currently viewing the room
func (r *Room) GetActiveUsers() []UserInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeUsersLocked()
}

// activeUsersLocked collapses clients to distinct users. A user with the
// board and a detail editor open counts once per room. Caller holds r.mu.
func (r *Room) activeUsersLocked() []UserInfo {
	users := make([]UserInfo, 0, len(r.Clients))
	seen := make(map[uint]bool)
	for _, c := range r.Clients {
		if !seen[c.UserID] {
			users = append(users, UserInfo{
				UserID:   c.UserID,
				Username: c.Username,
				Color:    c.Color,
			})
			seen[c.UserID] = true
		}
	}
	return users
}

// IsEmpty reports whether the room has no viewers left
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients) == 0
}

// ClientCount returns the number of open connections in the room
func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}

// announceJoin tells the room about the new viewer and seeds that viewer
// with the current presence list. Caller holds r.mu.
func (r *Room) announceJoin(client *Client) {
	message := NewUserJoinMessage(
		r.JobID,
		client.UserID,
		client.Username,
		UserInfo{
			UserID:   client.UserID,
			Username: client.Username,
			Color:    client.Color,
		},
	)

	for _, c := range r.Clients {
		select {
		case c.Send <- message:
		default:
		}
	}

	activeUsers := r.activeUsersLocked()
	if len(activeUsers) > 0 {
		usersMessage := Message{
			Type:      MessageTypeUserJoin,
			JobID:     r.JobID,
			UserID:    0, // System message
			Username:  "system",
			Timestamp: time.Now(),
			Data: map[string]any{
				"activeUsers": activeUsers,
			},
		}
		select {
		case client.Send <- usersMessage:
		default:
		}
	}
}

// announceLeave tells the remaining viewers a user dropped off. Caller
// holds r.mu.
func (r *Room) announceLeave(client *Client) {
	message := NewUserLeaveMessage(
		r.JobID,
		client.UserID,
		client.Username,
		UserInfo{
			UserID:   client.UserID,
			Username: client.Username,
			Color:    client.Color,
		},
	)

	for _, c := range r.Clients {
		select {
		case c.Send <- message:
		default:
		}
	}
}
