package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baely/monzo/internal/common/errors"
	commonHttp "github.com/baely/monzo/internal/common/http"
	"github.com/baely/monzo/internal/ledger/models"
)

// Store is where ledger entries live
type Store interface {
	AddTransaction(ctx context.Context, entry models.Entry) error
	Transactions(ctx context.Context, start, end time.Time) ([]models.Entry, error)
	Summary(ctx context.Context, start, end time.Time) (models.Summary, error)
}

type Server struct {
	store Store
	now   func() time.Time
}

func NewServer(store Store) chi.Router {
	s := &Server{
		store: store,
		now:   time.Now,
	}
	return s.registerApiEndpoints()
}

func (s *Server) registerApiEndpoints() chi.Router {
	r := commonHttp.NewRouter()

	r.Get("/api/transactions", s.GetTransactions)
	r.Get("/api/transactions/summary", s.GetSummary)
	r.Get("/api/transactions/series", s.GetSeries)

	return r
}

// parseRange reads the RFC 3339 start and end query parameters. A missing
// start means the beginning of time, a missing end one day from now.
func (s *Server) parseRange(r *http.Request) (time.Time, time.Time, error) {
	start := time.Time{}
	end := s.now().AddDate(0, 0, 1)

	var err error
	if v := r.URL.Query().Get("start"); v != "" {
		start, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(errors.ErrInvalidInput, "invalid start time")
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		end, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(errors.ErrInvalidInput, "invalid end time")
		}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.Wrap(errors.ErrInvalidInput, "end must be after start")
	}
	return start, end, nil
}

func (s *Server) GetTransactions(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseRange(r)
	if err != nil {
		commonHttp.HandleError(w, err)
		return
	}

	entries, err := s.store.Transactions(r.Context(), start, end)
	if err != nil {
		commonHttp.HandleError(w, err)
		return
	}
	commonHttp.Success(w, entries)
}

func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseRange(r)
	if err != nil {
		commonHttp.HandleError(w, err)
		return
	}

	summary, err := s.store.Summary(r.Context(), start, end)
	if err != nil {
		commonHttp.HandleError(w, err)
		return
	}
	commonHttp.Success(w, summary)
}

// GetSeries returns the net amount per bucket over the range. Both ends are
// required so the bucket width stays meaningful.
func (s *Server) GetSeries(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrInvalidInput, "start and end are required"))
		return
	}
	start, end, err := s.parseRange(r)
	if err != nil {
		commonHttp.HandleError(w, err)
		return
	}

	entries, err := s.store.Transactions(r.Context(), start, end)
	if err != nil {
		commonHttp.HandleError(w, err)
		return
	}
	commonHttp.Success(w, series(entries, start, end))
}

// series buckets entries, which must be sorted oldest first
func series(entries []models.Entry, start, end time.Time) []models.SeriesPoint {
	d := bucketSize(start, end)
	points := make([]models.SeriesPoint, 0)

	i := 0
	for t := range rangeTimes(start, end, d) {
		point := models.SeriesPoint{Timestamp: t}
		next := t.Add(d)
		for ; i < len(entries) && entries[i].Timestamp.Before(next); i++ {
			if !entries[i].Timestamp.Before(t) {
				point.Net += entries[i].Amount
			}
		}
		points = append(points, point)
	}
	return points
}
