package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/phrazzld/setgrouper/internal/aggregate"
	"github.com/phrazzld/setgrouper/internal/api/shared"
	"github.com/phrazzld/setgrouper/internal/decklist"
	"github.com/phrazzld/setgrouper/internal/domain"
	"github.com/phrazzld/setgrouper/internal/export"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/service"
)

// SetsHandler handles set grouping requests.
type SetsHandler struct {
	cardSetService service.CardSetService
	logger         *slog.Logger
}

// NewSetsHandler creates a new SetsHandler.
func NewSetsHandler(cardSetService service.CardSetService, logger *slog.Logger) *SetsHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SetsHandler")
	}
	return &SetsHandler{
		cardSetService: cardSetService,
		logger:         logger.With(slog.String("component", "sets_handler")),
	}
}

// decodeAndValidate decodes the body into v and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return false
	}
	return true
}

// FetchSets handles POST /api/sets.
// It resolves every name and responds with the grouped collection.
func (h *SetsHandler) FetchSets(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req FetchSetsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	names, err := requestNames(req)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	processed := 0
	groups := h.cardSetService.FetchCardSets(r.Context(), names, func(n int) { processed = n })

	log.Debug("fetched card sets",
		slog.Int("names", len(names)),
		slog.Int("sets", len(groups)))
	shared.RespondWithJSON(w, r, http.StatusOK, FetchSetsResponse{
		Groups:    nonNil(groups),
		Processed: processed,
		Cards:     groups.CardCount(),
	})
}

func requestNames(req FetchSetsRequest) ([]string, error) {
	var names []string
	if len(req.Names) > 0 {
		names = make([]string, 0, len(req.Names))
		for _, n := range req.Names {
			if name := decklist.CanonicalName(n); name != "" {
				names = append(names, name)
			}
		}
	} else {
		var err error
		if names, err = namesFromText(req.Text); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return nil, service.ErrNoNames
	}
	return names, nil
}

// ViewSets handles POST /api/sets/view.
func (h *SetsHandler) ViewSets(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	selection, err := req.Selection()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	views := aggregate.View(req.Groups, selection)
	shared.RespondWithJSON(w, r, http.StatusOK, ViewResponse{
		Groups:  views,
		Visible: aggregate.VisibleCount(views),
	})
}

// PruneSets handles POST /api/sets/prune.
// The named card is removed from every group; emptied groups are dropped.
func (h *SetsHandler) PruneSets(w http.ResponseWriter, r *http.Request) {
	var req PruneRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pruned := aggregate.Prune(req.Groups, req.Name)
	shared.RespondWithJSON(w, r, http.StatusOK, FetchSetsResponse{
		Groups: nonNil(pruned),
		Cards:  pruned.CardCount(),
	})
}

// ExportSets handles POST /api/sets/export.
// It responds with a CSV attachment of the collection.
func (h *SetsHandler) ExportSets(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, req.Groups); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to export results", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).
			Error("failed to write export", slog.String("error", err.Error()))
	}
}

func nonNil(rc domain.ResultCollection) domain.ResultCollection {
	if rc == nil {
		return domain.ResultCollection{}
	}
	return rc
}
