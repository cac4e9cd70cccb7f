package journal

import (
	"context"
	"fmt"
	"time"
)

// Frame is one recorded realtime message.
type Frame struct {
	Seq        int64     `json:"seq"`
	ReceivedAt time.Time `json:"receivedAt"`
	EventType  string    `json:"eventType"`
	Payload    []byte    `json:"payload"`
}

// Session marks the start of one socket connection in the journal.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	URL       string    `json:"url"`
	FirstSeq  int64     `json:"firstSeq"`
}

// Append stores payload under the next seq and returns the stored frame.
// eventType is the decoded envelope tag, or a marker for undecodable frames.
func (j *Journal) Append(ctx context.Context, eventType string, payload []byte) (Frame, error) {
	f := Frame{
		Seq:        j.seq.next(),
		ReceivedAt: j.clock.Now(),
		EventType:  eventType,
		Payload:    append([]byte(nil), payload...),
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO frames (seq, received_at, event_type, payload) VALUES (?, ?, ?, ?)`,
		f.Seq, formatTime(f.ReceivedAt), f.EventType, f.Payload,
	)
	if err != nil {
		return Frame{}, fmt.Errorf("append frame %d: %w", f.Seq, err)
	}
	return f, nil
}

// BeginSession records a new connection; frames appended afterwards belong
// to it.
func (j *Journal) BeginSession(ctx context.Context, id, url string) (Session, error) {
	s := Session{ID: id, StartedAt: j.clock.Now(), URL: url, FirstSeq: j.seq.peek()}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, url, first_seq) VALUES (?, ?, ?, ?)`,
		s.ID, formatTime(s.StartedAt), s.URL, s.FirstSeq,
	)
	if err != nil {
		return Session{}, fmt.Errorf("begin session %s: %w", id, err)
	}
	return s, nil
}

// ReadAll returns every frame in seq order.
func (j *Journal) ReadAll(ctx context.Context) ([]Frame, error) {
	return j.ReadAfter(ctx, 0)
}

// ReadAfter returns frames with seq > after, in seq order.
func (j *Journal) ReadAfter(ctx context.Context, after int64) ([]Frame, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, received_at, event_type, payload
		FROM frames
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f  Frame
			ts string
		)
		if err := rows.Scan(&f.Seq, &ts, &f.EventType, &f.Payload); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if f.ReceivedAt, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("frame %d: bad received_at %q: %w", f.Seq, ts, err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}

// Sessions returns every recorded session, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, url, first_seq FROM sessions ORDER BY first_seq ASC, started_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s  Session
			ts string
		)
		if err := rows.Scan(&s.ID, &ts, &s.URL, &s.FirstSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if s.StartedAt, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("session %s: bad started_at %q: %w", s.ID, ts, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of frames, optionally limited to one event type.
func (j *Journal) Count(ctx context.Context, eventType string) (int, error) {
	var (
		n   int
		err error
	)
	if eventType == "" {
		err = j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frames`).Scan(&n)
	} else {
		err = j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frames WHERE event_type = ?`, eventType).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return n, nil
}
