// Package api exposes the segmentation engine over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/customer-insights/internal/criteria"
	"github.com/ignite/customer-insights/internal/customer"
	"github.com/ignite/customer-insights/internal/export"
	"github.com/ignite/customer-insights/internal/pkg/distlock"
	"github.com/ignite/customer-insights/internal/pkg/httputil"
	"github.com/ignite/customer-insights/internal/profile"
	"github.com/ignite/customer-insights/internal/segment"
)

// Engine is the segment service surface the handlers depend on.
type Engine interface {
	List(ctx context.Context) ([]*segment.ListEntry, error)
	Get(ctx context.Context, id uuid.UUID) (*segment.Definition, error)
	Create(ctx context.Context, name string, conds []criteria.Condition) (*segment.Definition, error)
	Update(ctx context.Context, id uuid.UUID, name string, conds []criteria.Condition) (*segment.Definition, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Members(ctx context.Context, id uuid.UUID) (*segment.Definition, []profile.Profile, segment.Stats, error)
	Preview(ctx context.Context, conds []criteria.Condition) ([]profile.Profile, segment.Stats, error)
	CaptureSnapshot(ctx context.Context, id uuid.UUID) (*segment.Snapshot, error)
	Snapshots(ctx context.Context, segmentID uuid.UUID) ([]*segment.Snapshot, error)
}

// Synchronizer runs one full count reconciliation pass.
type Synchronizer interface {
	SyncAll(ctx context.Context) (*segment.SyncReport, error)
}

// Uploader distributes a CSV export, returning its location.
type Uploader interface {
	Upload(ctx context.Context, segmentName string, body []byte) (string, error)
}

// LockFactory builds the lock guarding concurrent sync passes.
type LockFactory func(key string, ttl time.Duration) distlock.DistLock

// SegmentService wires the engine into chi routes.
type SegmentService struct {
	engine   Engine
	syncer   Synchronizer
	uploader Uploader // nil when S3 export is not configured
	newLock  LockFactory
}

// NewSegmentService creates the HTTP service. uploader and newLock may
// be nil; the corresponding endpoints degrade gracefully.
func NewSegmentService(engine Engine, syncer Synchronizer, uploader Uploader, newLock LockFactory) *SegmentService {
	return &SegmentService{engine: engine, syncer: syncer, uploader: uploader, newLock: newLock}
}

// RegisterRoutes mounts all segment endpoints.
func (s *SegmentService) RegisterRoutes(r chi.Router) {
	r.Route("/segments", func(r chi.Router) {
		r.Get("/", s.HandleListSegments)
		r.Post("/", s.HandleCreateSegment)
		r.Get("/fields", s.HandleListFields)
		r.Post("/preview", s.HandlePreview)
		r.Post("/sync", s.HandleSync)

		r.Route("/{segmentID}", func(r chi.Router) {
			r.Get("/", s.HandleGetSegment)
			r.Put("/", s.HandleUpdateSegment)
			r.Delete("/", s.HandleDeleteSegment)
			r.Get("/members", s.HandleMembers)
			r.Get("/export", s.HandleExportCSV)
			r.Post("/export/s3", s.HandleExportS3)
			r.Get("/emails", s.HandleEmailList)
			r.Get("/snapshots", s.HandleListSnapshots)
			r.Post("/snapshots", s.HandleCaptureSnapshot)
		})
	})
}

// segmentRequest is the create/update payload. Condition values are
// strings regardless of field type; typing is resolved server-side.
type segmentRequest struct {
	Name       string               `json:"name"`
	Conditions []criteria.Condition `json:"conditions"`
}

func (s *SegmentService) HandleListSegments(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.List(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if entries == nil {
		entries = []*segment.ListEntry{}
	}
	httputil.OK(w, entries)
}

func (s *SegmentService) HandleCreateSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	def, err := s.engine.Create(r.Context(), req.Name, req.Conditions)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.Created(w, def)
}

func (s *SegmentService) HandleGetSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	def, err := s.engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.OK(w, def)
}

func (s *SegmentService) HandleUpdateSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	var req segmentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	def, err := s.engine.Update(r.Context(), id, req.Name, req.Conditions)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.OK(w, def)
}

func (s *SegmentService) HandleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	if err := s.engine.Delete(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.NoContent(w)
}

// membersResponse pairs the matched profiles with their stats so the
// detail view renders from a single resolution.
type membersResponse struct {
	Members []profile.Profile `json:"members"`
	Stats   segment.Stats     `json:"stats"`
}

func (s *SegmentService) HandleMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	_, members, stats, err := s.engine.Members(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if members == nil {
		members = []profile.Profile{}
	}
	httputil.OK(w, membersResponse{Members: members, Stats: stats})
}

func (s *SegmentService) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	members, stats, err := s.engine.Preview(r.Context(), req.Conditions)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if members == nil {
		members = []profile.Profile{}
	}
	httputil.OK(w, membersResponse{Members: members, Stats: stats})
}

func (s *SegmentService) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	def, members, _, err := s.engine.Members(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", def.Name+".csv"))
	if err := export.WriteCSV(w, members); err != nil {
		// Headers are gone; nothing sensible left to write.
		return
	}
}

func (s *SegmentService) HandleExportS3(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		httputil.Error(w, http.StatusNotImplemented, "S3 export is not configured")
		return
	}

	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	def, members, _, err := s.engine.Members(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, members); err != nil {
		httputil.InternalError(w, err)
		return
	}

	key, err := s.uploader.Upload(r.Context(), def.Name, buf.Bytes())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]any{"key": key, "rows": len(members)})
}

func (s *SegmentService) HandleEmailList(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	_, members, _, err := s.engine.Members(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	httputil.OK(w, map[string]any{"emails": export.EmailList(members)})
}

func (s *SegmentService) HandleCaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	snap, err := s.engine.CaptureSnapshot(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.Created(w, snap)
}

func (s *SegmentService) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	snaps, err := s.engine.Snapshots(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if snaps == nil {
		snaps = []*segment.Snapshot{}
	}
	httputil.OK(w, snaps)
}

func (s *SegmentService) HandleSync(w http.ResponseWriter, r *http.Request) {
	if s.newLock != nil {
		lock := s.newLock("segment-count-sync", 10*time.Minute)
		acquired, err := lock.Acquire(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !acquired {
			httputil.Error(w, http.StatusConflict, "a sync pass is already running")
			return
		}
		defer lock.Release(r.Context())
	}

	report, err := s.syncer.SyncAll(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.OK(w, report)
}

func (s *SegmentService) HandleListFields(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, criteria.Fields())
}

func segmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "segmentID"))
	if err != nil {
		httputil.BadRequest(w, "invalid segment id")
		return uuid.Nil, false
	}
	return id, true
}

// writeEngineError maps engine errors onto the API surface: invalid
// definitions are the caller's fault, missing segments are 404, and an
// unreachable record source is a retryable 503.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, criteria.ErrInvalidCondition):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, segment.ErrNotFound):
		httputil.NotFound(w, "segment not found")
	case errors.Is(err, customer.ErrSourceUnavailable):
		httputil.Error(w, http.StatusServiceUnavailable, "customer source unavailable, retry later")
	default:
		httputil.InternalError(w, err)
	}
}
