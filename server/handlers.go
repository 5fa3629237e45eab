package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"auto_content_syndicator/generator"
	"auto_content_syndicator/images"
	"auto_content_syndicator/masterdata"
	"auto_content_syndicator/publisher"
	"auto_content_syndicator/strategy"
)

type validateResp struct {
	Strategy *strategy.ContentStrategy `json:"strategy"`
	Repairs  []string                  `json:"repairs"`
}

type mergeReq struct {
	Previous json.RawMessage `json:"previous"`
	Research json.RawMessage `json:"research"`
	Strategy json.RawMessage `json:"strategy,omitempty"`
}

type compileReq struct {
	Page     json.RawMessage   `json:"page"`
	Uploads  []json.RawMessage `json:"uploads"`
	Strategy json.RawMessage   `json:"strategy,omitempty"`
	RichText *richTextReq      `json:"richText,omitempty"`
}

// richTextReq asks for the compiled text of one platform as a rich_text write.
type richTextReq struct {
	From     publisher.Platform `json:"from"`
	Property string             `json:"property"`
}

type compileResp struct {
	MasterData *masterdata.MasterData   `json:"masterData"`
	Images     images.ImageReferenceMap `json:"images"`
	Results    []publisher.Result       `json:"results"`
	RichText   *publisher.Result        `json:"richText,omitempty"`
}

type sessionResp struct {
	SessionID string                    `json:"session_id"`
	Strategy  *strategy.ContentStrategy `json:"strategy"`
	History   []generator.Turn          `json:"history"`
}

type reviseReq struct {
	Comment string `json:"comment"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate accepts a raw model response in any supported envelope.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.strategyFrom(w, body)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, validateResp{Strategy: st, Repairs: nonNil(st.Repairs)})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var st *strategy.ContentStrategy
	if len(req.Strategy) > 0 && string(req.Strategy) != "null" {
		var ok bool
		if st, ok = s.strategyFrom(w, req.Strategy); !ok {
			return
		}
	}
	writeJSON(w, http.StatusOK, s.merger.Merge(req.Previous, req.Research, st))
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var st *strategy.ContentStrategy
	if len(req.Strategy) > 0 && string(req.Strategy) != "null" {
		var ok bool
		if st, ok = s.strategyFrom(w, req.Strategy); !ok {
			return
		}
	}
	in, err := s.compiler.Prepare(req.Page, req.Uploads, st)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Images.Empty() {
		s.metrics.ObserveImageMap(0)
	} else {
		s.metrics.ObserveImageMap(len(in.Images))
	}
	resp := compileResp{
		MasterData: in.Master,
		Images:     in.Images,
		Results:    s.compiler.Compile(r.Context(), in),
	}
	if req.RichText != nil {
		wb := s.compiler.WriteBack(resp.Results, req.RichText.From, req.RichText.Property)
		resp.RichText = &wb
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var brief generator.Brief
	if err := json.NewDecoder(r.Body).Decode(&brief); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if brief.Topic == "" && brief.SourceContent == "" {
		writeError(w, http.StatusBadRequest, "topic or sourceContent is required")
		return
	}
	sess := generator.NewSession(brief, s.agent)
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	st, err := sess.Propose(ctx)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	s.metrics.ObserveValidation(outcome(st), len(st.Repairs))
	s.store.set(sess)
	_, history := sess.Snapshot()
	writeJSON(w, http.StatusCreated, sessionResp{SessionID: sess.ID, Strategy: st, History: history})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	st, history := sess.Snapshot()
	writeJSON(w, http.StatusOK, sessionResp{SessionID: sess.ID, Strategy: st, History: history})
}

func (s *Server) handleSessionRevise(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req reviseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	st, err := sess.Revise(ctx, req.Comment)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	s.metrics.ObserveValidation(outcome(st), len(st.Repairs))
	_, history := sess.Snapshot()
	writeJSON(w, http.StatusOK, sessionResp{SessionID: sess.ID, Strategy: st, History: history})
}

// strategyFrom parses and validates a strategy body. On failure it writes a
// 422 response and returns false.
func (s *Server) strategyFrom(w http.ResponseWriter, body []byte) (*strategy.ContentStrategy, bool) {
	doc, err := strategy.ExtractFromEnvelope(body)
	if err != nil {
		s.metrics.ObserveValidation("unparseable", 0)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	st, err := s.validator.Validate(doc)
	if err != nil {
		s.metrics.ObserveValidation("rejected", 0)
		s.writeStrategyError(w, err)
		return nil, false
	}
	s.metrics.ObserveValidation(outcome(st), len(st.Repairs))
	return st, true
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	var perr *strategy.ParseError
	var verr *strategy.ValidationError
	switch {
	case errors.As(err, &perr):
		s.metrics.ObserveValidation("unparseable", 0)
		s.writeStrategyError(w, err)
	case errors.As(err, &verr):
		s.metrics.ObserveValidation("rejected", 0)
		s.writeStrategyError(w, err)
	default:
		s.log.Error("strategy generation failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) writeStrategyError(w http.ResponseWriter, err error) {
	resp := errorResp{Error: err.Error()}
	var verr *strategy.ValidationError
	if errors.As(err, &verr) {
		resp.Issues = verr.Issues
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func outcome(st *strategy.ContentStrategy) string {
	if len(st.Repairs) > 0 {
		return "repaired"
	}
	return "valid"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
