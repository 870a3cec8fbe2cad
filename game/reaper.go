package game

import (
	"context"
	"log"
	"time"
)

// RunReaper sweeps the registry on a fixed interval until ctx is cancelled.
// It runs independently of any connection; the registry mutex makes each
// sweep mutually exclusive with handler mutations.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

// sweep deletes rooms with no connected players (the rejoin grace period is
// one sweep interval) and force-closes rooms idle past the inactivity
// timeout, notifying any still-open participants first.
func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, room := range r.rooms {
		if !room.hasConnected() {
			r.deleteRoomLocked(id, room)
			continue
		}

		if now.Sub(room.LastActivity) > r.timeout {
			closed := roomClosedMessage{Type: "roomClosed", Reason: "inactive"}
			for _, p := range room.Players {
				if p.conn != nil {
					send(p.conn, closed)
					p.conn.Close()
				}
			}
			log.Printf("reaping inactive room %v", id)
			r.deleteRoomLocked(id, room)
		}
	}
}

func (r *Registry) deleteRoomLocked(id string, room *Room) {
	for _, p := range room.Players {
		if s, ok := r.sessions[p.ID]; ok && s.roomID == id {
			delete(r.sessions, p.ID)
		}
	}
	delete(r.rooms, id)
}
