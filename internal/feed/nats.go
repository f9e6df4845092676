package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"fieldops/internal/api/models"
)

// NATSFeed carries snapshot events over NATS. Subjects are scoped per
// tenant: tenant.<id>.jobs and tenant.<id>.job.<jobID>.assignments.
type NATSFeed struct {
	conn   *nats.Conn
	tenant models.TenantContext
	logger zerolog.Logger
}

func NewNATSFeed(natsURL string, tenant models.TenantContext, logger zerolog.Logger) (*NATSFeed, error) {
	nc, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected, reconnecting")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSFeed{conn: nc, tenant: tenant, logger: logger}, nil
}

// Close drains and closes the NATS connection.
func (f *NATSFeed) Close() {
	if err := f.conn.Drain(); err != nil {
		f.logger.Error().Err(err).Msg("NATS drain error")
	}
}

func (f *NATSFeed) jobsSubject() string {
	return fmt.Sprintf("tenant.%s.jobs", f.tenant.ID)
}

func (f *NATSFeed) assignmentsSubject(jobID uint) string {
	if jobID == AllJobs {
		return fmt.Sprintf("tenant.%s.job.*.assignments", f.tenant.ID)
	}
	return fmt.Sprintf("tenant.%s.job.%d.assignments", f.tenant.ID, jobID)
}

func (f *NATSFeed) PublishJobs(event JobsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal jobs event: %w", err)
	}
	return f.conn.Publish(f.jobsSubject(), data)
}

func (f *NATSFeed) PublishAssignments(event AssignmentsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal assignments event: %w", err)
	}
	return f.conn.Publish(f.assignmentsSubject(event.JobID), data)
}

func (f *NATSFeed) SubscribeJobs(onEvent func(JobsEvent), onError func(error)) (Unsubscribe, error) {
	sub, err := f.conn.Subscribe(f.jobsSubject(), func(msg *nats.Msg) {
		var event JobsEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			f.logger.Error().Err(err).Str("subject", msg.Subject).Msg("Bad jobs event payload")
			if onError != nil {
				onError(err)
			}
			return
		}
		onEvent(event)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %q: %w", f.jobsSubject(), err)
	}
	return f.unsubFunc(sub), nil
}

func (f *NATSFeed) SubscribeAssignments(jobID uint, onEvent func(AssignmentsEvent), onError func(error)) (Unsubscribe, error) {
	subject := f.assignmentsSubject(jobID)
	sub, err := f.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event AssignmentsEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			f.logger.Error().Err(err).Str("subject", msg.Subject).Msg("Bad assignments event payload")
			if onError != nil {
				onError(err)
			}
			return
		}
		onEvent(event)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %q: %w", subject, err)
	}
	return f.unsubFunc(sub), nil
}

func (f *NATSFeed) unsubFunc(sub *nats.Subscription) Unsubscribe {
	return func() {
		if err := sub.Unsubscribe(); err != nil && f.conn.IsConnected() {
			f.logger.Error().Err(err).Msg("NATS unsubscribe error")
		}
	}
}

// ParseAssignmentsSubject extracts the job ID from a
// tenant.<id>.job.<jobID>.assignments subject.
func ParseAssignmentsSubject(subject string) (uint, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 5 || parts[2] != "job" || parts[4] != "assignments" {
		return 0, fmt.Errorf("unexpected subject %q", subject)
	}
	id, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q: %w", parts[3], err)
	}
	return uint(id), nil
}
