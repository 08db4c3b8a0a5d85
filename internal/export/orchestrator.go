package export

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/notice"
)

const (
	CurrentViewFilename = "bookings_data.csv"
	FullDatasetFilename = "all_bookings_data.csv"
	ContentType         = "text/csv"
)

var (
	ErrExportForbidden = errors.New("export not permitted for this role")
	ErrNothingToExport = errors.New("no bookings to export")
)

// DatasetFetcher loads every booking regardless of filters or pages.
type DatasetFetcher interface {
	FetchAll(ctx context.Context, session domain.Session) ([]domain.Booking, error)
}

// Sink receives a finished file.
type Sink interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type Result struct {
	Filename string
	Location string
	Rows     int
}

type Exporter struct {
	fetcher   DatasetFetcher
	sink      Sink
	notifier  notice.Notifier
	projector Projector
}

func NewExporter(fetcher DatasetFetcher, sink Sink, notifier notice.Notifier) *Exporter {
	if notifier == nil {
		notifier = notice.Discard{}
	}
	return &Exporter{fetcher: fetcher, sink: sink, notifier: notifier}
}

// WithProjector replaces the projector used for rendering.
func (e *Exporter) WithProjector(p Projector) *Exporter {
	e.projector = p
	return e
}

// Export writes a CSV of either the records currently on screen or, when
// downloadAll is set, the complete dataset fetched fresh from the server.
// Only the export role may call it; anyone else is rejected before any I/O.
func (e *Exporter) Export(ctx context.Context, session domain.Session, current []domain.Booking, sel Selection, downloadAll bool) (*Result, error) {
	if !session.CanExport() {
		e.notifier.Notify(notice.Error, "You do not have permission to download bookings.")
		return nil, ErrExportForbidden
	}

	if !downloadAll {
		if len(current) == 0 {
			e.notifier.Notify(notice.Warning, "No data available to download!")
			return nil, ErrNothingToExport
		}
		return e.write(ctx, CurrentViewFilename, current, sel, "Bookings downloaded successfully!")
	}

	all, err := e.fetcher.FetchAll(ctx, session)
	if err != nil {
		log.Printf("export_error mode=all user_id=%s error=%q", session.UserID, err.Error())
		e.notifier.Notify(notice.Error, "Download failed!")
		return nil, fmt.Errorf("fetch all bookings: %w", err)
	}
	if len(all) == 0 {
		e.notifier.Notify(notice.Warning, "No bookings found for download")
		return nil, ErrNothingToExport
	}
	return e.write(ctx, FullDatasetFilename, all, sel, "All bookings downloaded successfully!")
}

func (e *Exporter) write(ctx context.Context, filename string, records []domain.Booking, sel Selection, okMsg string) (*Result, error) {
	csv := e.projector.Project(records, sel)
	if csv == "" {
		e.notifier.Notify(notice.Warning, "No columns selected for download")
		return nil, ErrNothingToExport
	}

	loc, err := e.sink.Save(ctx, filename, ContentType, []byte(csv))
	if err != nil {
		e.notifier.Notify(notice.Error, "Download failed!")
		return nil, fmt.Errorf("save %s: %w", filename, err)
	}

	e.notifier.Notify(notice.Success, okMsg)
	return &Result{Filename: filename, Location: loc, Rows: len(records)}, nil
}
