package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/controller"
	"github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/layout"
	"github.com/matzehuels/forkview/pkg/pipeline"
)

// =============================================================================
// Wire types
// =============================================================================

// StateResponse is the JSON form of a controller state.
type StateResponse struct {
	Fingerprint string             `json:"fingerprint"`
	BlockCount  int                `json:"block_count"`
	Branches    []chain.Branch     `json:"branches"`
	Selection   *SelectionResponse `json:"selection"`
}

// SelectionResponse identifies the selected block.
type SelectionResponse struct {
	Hash    string `json:"hash"`
	Branch  int    `json:"branch"`
	Ordinal int    `json:"ordinal"`
}

// SelectRequest is the body of POST /api/select.
type SelectRequest struct {
	Hash   string `json:"hash"`
	Branch int    `json:"branch"`
}

// MutationResponse answers append and fork. Block is null for a no-op.
type MutationResponse struct {
	Block *chain.Block  `json:"block"`
	State StateResponse `json:"state"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func stateResponse(st controller.State) StateResponse {
	resp := StateResponse{
		Fingerprint: chain.Fingerprint(st.Set),
		BlockCount:  st.Set.BlockCount(),
		Branches:    st.Set.Branches(),
	}
	if resp.Branches == nil {
		resp.Branches = []chain.Branch{}
	}
	if st.Selection != nil {
		resp.Selection = &SelectionResponse{
			Hash:    st.Selection.Block.Hash,
			Branch:  st.Selection.BranchIndex,
			Ordinal: chain.BlockOrdinal(st.Selection.Block, st.Set),
		}
	}
	return resp
}

// =============================================================================
// Read handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse(s.ctrl.State()))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	opts := s.options(st, pipeline.FormatJSON)
	l, err := s.runner.Layout(r.Context(), st.Set, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := layout.Marshal(l.Export(opts.Selected, opts.SelectedBranch))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode layout"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	s.writeArtifact(w, r, pipeline.FormatSVG, "image/svg+xml")
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	s.writeArtifact(w, r, pipeline.FormatDOT, "text/vnd.graphviz; charset=utf-8")
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, format, contentType string) {
	st := s.ctrl.State()
	opts := s.options(st, format)
	result, err := s.runner.Execute(r.Context(), st.Set, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

// options derives per-request pipeline options from the base options.
func (s *Server) options(st controller.State, format string) pipeline.Options {
	opts := s.render
	opts.Formats = []string{format}
	opts.Selected = ""
	opts.SelectedBranch = 0
	if st.Selection != nil {
		opts.Selected = st.Selection.Block.Hash
		opts.SelectedBranch = st.Selection.BranchIndex
	}
	opts.Interactive = format == pipeline.FormatSVG
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	return opts
}

// =============================================================================
// Mutation handlers
// =============================================================================

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode select request"))
		return
	}

	if req.Hash == "" {
		s.ctrl.Deselect(r.Context())
		writeJSON(w, http.StatusOK, stateResponse(s.ctrl.State()))
		return
	}
	if err := errors.ValidateHash(req.Hash); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.ctrl.SelectHash(r.Context(), req.Hash, req.Branch); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(s.ctrl.State()))
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.ctrl.AddBlock)
}

func (s *Server) handleFork(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.ctrl.Fork)
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, action func(context.Context) (*chain.Block, error)) {
	blk, err := action(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Block: blk, State: stateResponse(s.ctrl.State())})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Reset(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(s.ctrl.State()))
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
