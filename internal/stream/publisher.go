package stream

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/model"
)

// RowSource serves a group's rows in display order.
type RowSource interface {
	Groups() []string
	Rows(group string) []model.Row
}

// Publisher renders group snapshots after every cycle and publishes them.
type Publisher struct {
	hub     *Hub
	rows    RowSource
	palette display.Palette
	logger  *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(hub *Hub, rows RowSource, palette display.Palette, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{hub: hub, rows: rows, palette: palette, logger: logger}
}

// Apply publishes every group's snapshot for the cycle.
func (p *Publisher) Apply(c model.Cycle) {
	for _, group := range p.rows.Groups() {
		p.publish(group, c.ID)
	}
}

// Refresh publishes one group outside a cycle, e.g. after an edit.
func (p *Publisher) Refresh(group string) {
	p.publish(group, uuid.Nil)
}

// Forget drops a deleted group's last snapshot.
func (p *Publisher) Forget(group string) {
	p.hub.Forget(group)
}

func (p *Publisher) publish(group string, cycleID uuid.UUID) {
	snap := display.NewSnapshot(group, cycleID, p.rows.Rows(group), p.palette)
	payload, err := json.Marshal(snap)
	if err != nil {
		p.logger.Error("failed to encode snapshot", "group", group, "err", err)
		return
	}
	p.hub.Publish(group, payload)
}
