package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"github.com/roverlabs/gorover/onboard/hardware"
)

// TraceRecord is one measurement outcome, kept so timeout profiles can
// be tuned against echoes the sensor actually saw.
type TraceRecord struct {
	ID     int       `storm:"id,increment" json:"id"`
	When   time.Time `storm:"index" json:"when"`
	Status string    `json:"status"`
	Ticks  uint16    `json:"ticks"`
	MM     uint64    `json:"mm"`
}

// TraceStore persists measurement traces in the conductor database.
type TraceStore struct {
	db *storm.DB
}

func NewTraceStore(db *storm.DB) *TraceStore {
	return &TraceStore{db: db}
}

func (t *TraceStore) RecordMeasurement(m hardware.Measurement) {
	record := &TraceRecord{
		When: time.Now().UTC(),
	}

	switch {
	case m.IsUnknown():
		record.Status = "unknown"
	case m.IsInfinity():
		record.Status = "infinity"
	default:
		record.Status = "measured"
		d, _ := m.Distance()
		record.Ticks = d.Ticks()
		record.MM = d.Millimeters()
	}

	if err := t.db.Save(record); err != nil {
		log.Error().Err(err).Msg("measurement trace lost")
	}
}

// Recent returns up to n traces, newest first.
func (t *TraceStore) Recent(n int) (records []TraceRecord, err error) {
	err = t.db.All(&records, storm.Limit(n), storm.Reverse())
	return
}

// TracesHandler serves the most recent measurement traces.
func TracesHandler(w http.ResponseWriter, r *http.Request) {
	n := 50
	if param := r.URL.Query().Get("n"); param != "" {
		var err error
		if n, err = strconv.Atoi(param); err != nil || n < 1 {
			render.Render(w, r, ErrInvalidRequest(errors.New("n must be a positive integer")))
			return
		}
	}

	records, err := ENV.Traces.Recent(n)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}

	render.JSON(w, r, records)
}
