package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
	"github.com/ZaguanLabs/tlguard/catalog"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Source  string `json:"source"`
	Target  string `json:"target"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: tlguard.FullVersion(),
		Source:  s.translator.SourceLang(),
		Target:  s.translator.TargetLang(),
	})
}

type translateRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

type translateResponse struct {
	Content      string `json:"content"`
	TotalNodes   int    `json:"total_nodes"`
	Translated   int    `json:"translated"`
	Cached       int    `json:"cached"`
	GlossaryHits int    `json:"glossary_hits"`
}

func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, err)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "html"
	}

	res, err := s.translator.Process(r.Context(), req.Content, req.ContentType)
	if err != nil {
		s.translateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{
		Content:      res.Content,
		TotalNodes:   res.TotalNodes,
		Translated:   res.TranslatedCount,
		Cached:       res.CachedCount,
		GlossaryHits: res.GlossaryHits,
	})
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	recs, err := catalog.DecodeRecords(r.Body)
	if err != nil {
		decodeError(w, err)
		return
	}

	batch := &catalog.Batch{
		Mapper:  catalog.NewMapper(s.translator, s.opts.Records),
		Workers: s.opts.Workers,
	}
	out, err := batch.Run(r.Context(), recs)
	if err != nil {
		s.translateError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := catalog.EncodeRecords(&buf, out); err != nil {
		s.translateError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func decodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
}

// translateError maps engine failures to status codes: unknown content
// types are the caller's fault, backend failures are reported as a bad
// gateway.
func (s *Server) translateError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		procErr *tlguard.ProcessorError
		provErr *tlguard.ProviderError
		trErr   *tlguard.TranslationError
	)
	switch {
	case errors.As(err, &procErr):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &provErr), errors.As(err, &trErr):
		hlog.FromRequest(r).Warn().Err(err).Msg("translation failed")
		jsonError(w, err.Error(), http.StatusBadGateway)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
