package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"lampview/internal/constants"
	"lampview/internal/domain"
	"lampview/internal/service"
	"lampview/internal/session"
	"lampview/internal/tables"

	"github.com/rs/zerolog"
)

var (
	errBadKind      = errors.New("unknown snapshot kind")
	errMissingTable = errors.New("table query parameter is required")
)

// Server exposes the reporting pipelines over JSON HTTP.
type Server struct {
	sessions  *session.Registry
	changelog *service.ChangelogService
	lampGraph *service.LampGraphService
	heatmap   *service.HeatmapService
	tables    *tables.Service
	logger    zerolog.Logger
}

func New(
	sessions *session.Registry,
	changelog *service.ChangelogService,
	lampGraph *service.LampGraphService,
	heatmap *service.HeatmapService,
	tablesSvc *tables.Service,
	logger zerolog.Logger,
) *Server {
	return &Server{
		sessions:  sessions,
		changelog: changelog,
		lampGraph: lampGraph,
		heatmap:   heatmap,
		tables:    tablesSvc,
		logger:    logger,
	}
}

// Routes mounts every handler on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("PUT /api/sessions/{id}/snapshots/{kind}", s.handleUploadSnapshot)
	mux.HandleFunc("GET /api/sessions/{id}/changelog", s.handleChangelog)
	mux.HandleFunc("GET /api/sessions/{id}/changelog/export", s.handleChangelogExport)
	mux.HandleFunc("GET /api/sessions/{id}/lampgraph", s.handleLampGraph)
	mux.HandleFunc("GET /api/sessions/{id}/heatmap", s.handleHeatmap)
	mux.HandleFunc("GET /api/tables", s.handleListTables)
	mux.HandleFunc("GET /api/tables/{name}", s.handleTableView)
	mux.HandleFunc("POST /api/tables/refresh", s.handleRefreshTables)
	return mux
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

func (s *Server) handleUploadSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := domain.SnapshotKind(r.PathValue("kind"))
	if !kind.Valid() {
		s.writeError(w, http.StatusBadRequest, errBadKind)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.UploadMaxBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.sessions.AttachSnapshot(id, kind, data); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

type changeRecordView struct {
	Title string `json:"title"`
	Clear *int   `json:"clear"`
	OldBP int    `json:"old_bp"`
	NewBP int    `json:"new_bp"`
}

type dayReportView struct {
	Date    string             `json:"date"`
	Records []changeRecordView `json:"records"`
}

func (s *Server) handleChangelog(w http.ResponseWriter, r *http.Request) {
	reports, err := s.changelog.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	out := make([]dayReportView, 0, len(reports))
	for _, report := range reports {
		day := dayReportView{Date: report.Date, Records: make([]changeRecordView, 0, len(report.Records))}
		for _, rec := range report.Records {
			view := changeRecordView{Title: rec.Title, OldBP: rec.OldBP, NewBP: rec.NewBP}
			if rec.Clear.Valid {
				clear := int(rec.Clear.Lamp)
				view.Clear = &clear
			}
			day.Records = append(day.Records, view)
		}
		out = append(out, day)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChangelogExport(w http.ResponseWriter, r *http.Request) {
	reports, err := s.changelog.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, service.ExportChangelog(reports))
}

type tierView struct {
	Lamp  int        `json:"lamp"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
	Count int        `json:"count"`
	Songs []songView `json:"songs"`
}

type songView struct {
	Title  string `json:"title"`
	Level  string `json:"level"`
	MinBP  *int   `json:"minbp,omitempty"`
	Points int    `json:"points"`
}

type levelGroupView struct {
	Level string     `json:"level"`
	Total int        `json:"total"`
	Tiers []tierView `json:"tiers"`
}

func (s *Server) handleLampGraph(w http.ResponseWriter, r *http.Request) {
	tableName := r.URL.Query().Get("table")
	if tableName == "" {
		s.writeError(w, http.StatusBadRequest, errMissingTable)
		return
	}

	mode := domain.ModeDefault
	if raw := r.URL.Query().Get("mode"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		mode = domain.PlayMode(n)
	}

	groups, err := s.lampGraph.Generate(r.Context(), r.PathValue("id"), tableName, mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	out := make([]levelGroupView, 0, len(groups))
	for _, group := range groups {
		view := levelGroupView{Level: group.Level, Total: group.Total}
		for _, tier := range group.Tiers {
			tv := tierView{
				Lamp:  int(tier.Lamp),
				Name:  tier.Lamp.Name(),
				Color: tier.Lamp.Color(),
				Count: tier.Count,
			}
			for _, song := range tier.Songs {
				tv.Songs = append(tv.Songs, songView{
					Title:  song.Title,
					Level:  song.Level,
					MinBP:  song.MinBP,
					Points: song.Points,
				})
			}
			view.Tiers = append(view.Tiers, tv)
		}
		out = append(out, view)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	data, err := s.heatmap.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	list, err := s.tables.Descriptors(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	view, err := s.tables.View(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRefreshTables(w http.ResponseWriter, r *http.Request) {
	if err := s.tables.Refresh(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn().Err(err).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
