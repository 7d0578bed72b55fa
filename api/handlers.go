package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/slabworks/catalog-sync/e"
	invmodel "github.com/slabworks/catalog-sync/inventory/model"
	invsqlmodel "github.com/slabworks/catalog-sync/inventory/sqlmodel"
	"github.com/slabworks/catalog-sync/sync"
	"github.com/slabworks/catalog-sync/sync/model"
	syncsqlmodel "github.com/slabworks/catalog-sync/sync/sqlmodel"
)

const (
	ECode0B0201 = e.Code0B02 + "01"
	ECode0B0202 = e.Code0B02 + "02"
	ECode0B0203 = e.Code0B02 + "03"
	ECode0B0204 = e.Code0B02 + "04"
	ECode0B0205 = e.Code0B02 + "05"
	ECode0B0206 = e.Code0B02 + "06"
)

type runRequest struct {
	MaxItems int `json:"maxItems"`
}

type runResponse struct {
	Success    bool            `json:"success"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason string          `json:"skipReason,omitempty"`
	Processed  int             `json:"processed"`
	Message    string          `json:"message"`
	Result     *sync.RunResult `json:"result,omitempty"`
}

type resolveRequest struct {
	InventoryItemID int              `json:"inventoryItemId"`
	Resolution      string           `json:"resolution"`
	MergeData       *model.MergeData `json:"mergeData,omitempty"`
}

type resolveResponse struct {
	Success    bool   `json:"success"`
	Resolution string `json:"resolution"`
	Message    string `json:"message"`
}

type queueListResponse struct {
	Items []*model.QueueItem `json:"items"`
	Count int                `json:"count"`
}

type itemListResponse struct {
	Items []*invmodel.InventoryItem `json:"items"`
	Count int                       `json:"count"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// errorStatusList maps user facing messages to response statuses.
// Anything unmatched responds as an internal server error without
// leaking the underlying message
var errorStatusList = []struct {
	msg    string
	status int
}{
	{e.MsgInventoryItemDoesNotExist, http.StatusNotFound},
	{e.MsgInvalidResolution, http.StatusBadRequest},
	{e.MsgMergeDataRequired, http.StatusBadRequest},
	{e.MsgRemoteLinkageMissing, http.StatusConflict},
	{e.MsgRemoteVariantGone, http.StatusConflict},
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		log.Warn().Err(e.W(err, ECode0B0201)).Msg("health check failed")
		s.respondJSON(w, http.StatusServiceUnavailable,
			&errorResponse{Error: "database unreachable"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	// The body is optional, an empty one runs with the configured
	// batch size
	req := &runRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil &&
		!errors.Is(err, io.EOF) {
		s.respondJSON(w, http.StatusBadRequest,
			&errorResponse{Error: "invalid JSON body"})
		return
	}

	rr, err := s.runner.Run(r.Context(), req.MaxItems)
	if err != nil {
		s.respondError(w, e.W(err, ECode0B0202))
		return
	}

	res := &runResponse{Success: true}
	if rr.Skipped {
		res.Skipped = true
		res.SkipReason = rr.SkipReason
		res.Message = rr.SkipReason
	} else if rr.Result != nil {
		res.Processed = rr.Result.Processed
		res.Message = rr.Result.Message()
		res.Result = rr.Result
	}

	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	req := &resolveRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.respondJSON(w, http.StatusBadRequest,
			&errorResponse{Error: "invalid JSON body"})
		return
	}

	rr, err := s.resolver.Resolve(r.Context(), req.InventoryItemID,
		req.Resolution, req.MergeData)
	if err != nil {
		s.respondError(w, e.W(err, ECode0B0203))
		return
	}

	s.respondJSON(w, http.StatusOK, &resolveResponse{
		Success:    true,
		Resolution: rr.Resolution,
		Message:    rr.Message,
	})
}

func (s *Server) handleQueueList(w http.ResponseWriter, r *http.Request) {
	p := &syncsqlmodel.QueueItemGetParam{
		FlagCount:      true,
		OrderByCreated: "asc",
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status := splitCSV(v)
		p.Status = &status
	}
	if limit, ok := queryUint(r, "limit"); ok {
		p.Limit = &limit
	}
	if offset, ok := queryUint(r, "offset"); ok {
		p.Offset = offset
	}

	qiList, count, err := syncsqlmodel.QueueItemGet(r.Context(), s.db, p)
	if err != nil {
		s.respondError(w, e.W(err, ECode0B0204))
		return
	}

	if qiList == nil {
		qiList = []*model.QueueItem{}
	}

	s.respondJSON(w, http.StatusOK, &queueListResponse{
		Items: qiList,
		Count: count,
	})
}

func (s *Server) handleItemList(w http.ResponseWriter, r *http.Request) {
	p := &invsqlmodel.InventoryItemGetParam{
		FlagCount: true,
		OrderByID: "asc",
	}

	if v := r.URL.Query().Get("syncStatus"); v != "" {
		status := splitCSV(v)
		p.SyncStatus = &status
	}
	if limit, ok := queryUint(r, "limit"); ok {
		p.Limit = &limit
	}
	if offset, ok := queryUint(r, "offset"); ok {
		p.Offset = offset
	}

	iList, count, err := invsqlmodel.InventoryItemGet(r.Context(), s.db, p)
	if err != nil {
		s.respondError(w, e.W(err, ECode0B0205))
		return
	}

	if iList == nil {
		iList = []*invmodel.InventoryItem{}
	}

	s.respondJSON(w, http.StatusOK, &itemListResponse{
		Items: iList,
		Count: count,
	})
}

// respondError writes the error as JSON with the status mapped from
// its user facing message
func (s *Server) respondError(w http.ResponseWriter, err error) {
	log.Warn().Err(err).Msg("api request failed")

	for _, es := range errorStatusList {
		if e.ContainsError(err, es.msg) {
			s.respondJSON(w, es.status, &errorResponse{Error: es.msg})
			return
		}
	}

	s.respondJSON(w, http.StatusInternalServerError,
		&errorResponse{Error: e.MsgUnknownInternalServerError})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(e.W(err, ECode0B0206)).Msg("response not written")
	}
}

// splitCSV splits a comma separated query value, dropping empties
func splitCSV(v string) (list []string) {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	return list
}

// queryUint parses an unsigned query parameter, ok is false if absent
// or invalid
func queryUint(r *http.Request, key string) (n uint64, ok bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}
