package realtime

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"fieldops/internal/feed"
)

// NATSBridge subscribes to the schedule feed subjects and pushes
// snapshot envelopes into the Hub.
type NATSBridge struct {
	conn     *nats.Conn
	hub      *Hub
	tenantID string
}

func NewNATSBridge(natsURL, tenantID string, hub *Hub) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub, tenantID: tenantID}, nil
}

// Subscribe listens for whole-board job snapshots on tenant.<tid>.jobs
// and per-job assignment snapshots on tenant.<tid>.job.*.assignments.
func (b *NATSBridge) Subscribe() error {
	jobsSubject := fmt.Sprintf("tenant.%s.jobs", b.tenantID)
	_, err := b.conn.Subscribe(jobsSubject, func(msg *nats.Msg) {
		b.forward("jobs.snapshot", BoardID, msg)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", jobsSubject, err)
	}

	assignmentsSubject := fmt.Sprintf("tenant.%s.job.*.assignments", b.tenantID)
	_, err = b.conn.Subscribe(assignmentsSubject, func(msg *nats.Msg) {
		jobID, err := feed.ParseAssignmentsSubject(msg.Subject)
		if err != nil {
			log.Printf("nats: bad subject %q: %v", msg.Subject, err)
			return
		}
		b.forward("assignments.snapshot", jobID, msg)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", assignmentsSubject, err)
	}

	log.Printf("NATS bridge subscribed to: %s, %s", jobsSubject, assignmentsSubject)
	return nil
}

// forward wraps the raw snapshot payload in the outgoing envelope.
func (b *NATSBridge) forward(msgType string, jobID uint, msg *nats.Msg) {
	envelope := outgoingMsg{
		Type:    msgType,
		JobID:   jobID,
		Payload: json.RawMessage(msg.Data),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("nats: marshal envelope: %v", err)
		return
	}
	b.hub.broadcast <- broadcastMsg{jobID: jobID, payload: data}
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		log.Printf("nats drain: %v", err)
	}
}
