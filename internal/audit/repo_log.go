package audit

import (
	"context"
	"log/slog"
)

// LogRepo writes each event as one structured log line on a dedicated "audit" channel.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo {
	return &LogRepo{log: l.With("channel", "audit")}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	r.log.LogAttrs(ctx, slog.LevelInfo, "audit event",
		slog.String("event_id", e.ID),
		slog.String("type", string(e.Type)),
		slog.String("account_id", e.AccountID),
		slog.String("username", e.Username),
		slog.String("ip_address", e.IPAddress),
		slog.String("topic", e.Topic),
		slog.Int("count", e.Count),
		slog.Time("created_at", e.CreatedAt),
	)
	return nil
}
