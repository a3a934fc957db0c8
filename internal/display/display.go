// Package display renders rows for API and stream clients.
package display

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/stockwatch/internal/model"
)

// Palette maps row trends to colors.
type Palette struct {
	Up   string `json:"up"`
	Down string `json:"down"`
	Flat string `json:"flat"`
}

// DefaultPalette follows the mainland convention: red up, green down.
func DefaultPalette() Palette {
	return Palette{Up: "red", Down: "green", Flat: "gray"}
}

// Color returns the color for t.
func (p Palette) Color(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return p.Up
	case model.TrendDown:
		return p.Down
	default:
		return p.Flat
	}
}

// RowView is the JSON form of a row.
type RowView struct {
	Index             int       `json:"index"`
	Key               string    `json:"key"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Price             string    `json:"price"`
	ChangeRate        float64   `json:"change_rate"`
	ChangeRateDisplay string    `json:"change_rate_display"`
	ChangeAmount      string    `json:"change_amount"`
	Trend             string    `json:"trend"`
	Color             string    `json:"color"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewRowView renders r with the palette.
func NewRowView(r model.Row, p Palette) RowView {
	trend := r.Trend()
	return RowView{
		Index:             r.Index,
		Key:               r.Key,
		Code:              r.DisplayCode,
		Name:              r.Name,
		Price:             model.FormatPrice(r.Price),
		ChangeRate:        r.ChangeRate,
		ChangeRateDisplay: r.ChangeRateDisplay,
		ChangeAmount:      model.FormatPrice(r.ChangeAmount),
		Trend:             string(trend),
		Color:             p.Color(trend),
		UpdatedAt:         r.UpdatedAt,
	}
}

// Snapshot is a group's full row list at one point in time.
type Snapshot struct {
	Group   string    `json:"group"`
	CycleID uuid.UUID `json:"cycle_id"`
	At      time.Time `json:"at"`
	Rows    []RowView `json:"rows"`
}

// NewSnapshot renders rows in order.
func NewSnapshot(group string, cycleID uuid.UUID, rows []model.Row, p Palette) Snapshot {
	views := make([]RowView, len(rows))
	for i, r := range rows {
		views[i] = NewRowView(r, p)
	}
	return Snapshot{
		Group:   group,
		CycleID: cycleID,
		At:      time.Now(),
		Rows:    views,
	}
}
