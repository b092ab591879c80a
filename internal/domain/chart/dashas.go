package chart

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/session"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
	"github.com/yanqian/kundali-web/pkg/util"
)

// Sessions is the part of the session manager the dasha table needs.
type Sessions interface {
	Update(ctx context.Context, id string, fn func(*session.Session) error) (session.Session, error)
}

// Dashas keeps the expand state of each session's dasha table.
type Dashas struct {
	sessions Sessions
	logger   *slog.Logger
	now      func() time.Time
}

// NewDashas wires the dasha table toggle.
func NewDashas(sessions Sessions, logger *slog.Logger) *Dashas {
	return &Dashas{
		sessions: sessions,
		logger:   logger.With("component", "chart.dashas"),
		now:      util.NowUTC,
	}
}

// Toggle flips row i of the session's last dasha table and returns the
// whole table as it should now render.
func (d *Dashas) Toggle(ctx context.Context, sessionID string, i int) (DashaTable, error) {
	var table DashaTable
	_, err := d.sessions.Update(ctx, sessionID, func(s *session.Session) error {
		if s.Dasha == nil {
			return apperrors.Wrap(apperrors.CodeNoChart, "Please generate your birth chart first!", nil)
		}
		table = NewDashaTable(s.Dasha.Periods, d.now())
		for _, row := range s.Dasha.Expanded {
			table.Toggle(row)
		}
		table.Toggle(i)
		s.Dasha.Expanded = table.expandedRows()
		return nil
	})
	if err != nil {
		return DashaTable{}, err
	}
	d.logger.Debug("dasha row toggled", "session", sessionID, "row", i)
	return table, nil
}

func (t DashaTable) expandedRows() []int {
	var rows []int
	for i, row := range t.Rows {
		if row.Expanded {
			rows = append(rows, i)
		}
	}
	return rows
}
