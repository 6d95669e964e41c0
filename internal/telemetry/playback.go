package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// EventLog records upstream events as JSON lines for later replay.
type EventLog struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEventLog writes events to w.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{enc: json.NewEncoder(w)}
}

// Record appends one event.
func (l *EventLog) Record(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(ev)
}

// Replayer feeds a recorded event log back as an upstream source. A speed >0
// scales the recorded spacing; speed <= 0 replays without delay.
type Replayer struct {
	r     io.Reader
	speed float64
	sleep func(context.Context, time.Duration) error
	log   *slog.Logger
}

// NewReplayer replays events read from r.
func NewReplayer(r io.Reader, speed float64, log *slog.Logger) *Replayer {
	if log == nil {
		log = slog.Default()
	}
	return &Replayer{r: r, speed: speed, sleep: sleepContext, log: log}
}

// Run decodes events and delivers them on out. It returns nil at end of log.
func (p *Replayer) Run(ctx context.Context, out chan<- Event) error {
	dec := json.NewDecoder(p.r)
	var prev int64
	first := true
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !first && p.speed > 0 {
			diff := time.Duration(ev.TimeBootMS-prev) * time.Millisecond
			if p.speed != 1 {
				diff = time.Duration(float64(diff) / p.speed)
			}
			if diff > 0 {
				if err := p.sleep(ctx, diff); err != nil {
					return err
				}
			}
		}
		first = false
		prev = ev.TimeBootMS
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetMessageInterval is accepted but has no effect on a recorded stream.
func (p *Replayer) SetMessageInterval(msgID uint32, interval time.Duration) error {
	p.log.Info("replay ignores message interval", "msg_id", msgID, "interval", interval)
	return nil
}

// SetSprayRate is accepted but has no effect on a recorded stream.
func (p *Replayer) SetSprayRate(rate float64) error {
	p.log.Info("replay ignores spray rate", "rate", rate)
	return nil
}

// OpenReplay opens a recorded event log. The caller closes the file.
func OpenReplay(path string, speed float64, log *slog.Logger) (*Replayer, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return NewReplayer(f, speed, log), f, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
