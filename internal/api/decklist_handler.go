package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/setgrouper/internal/api/shared"
	"github.com/phrazzld/setgrouper/internal/decklist"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
)

// DecklistHandler handles deck-list parsing requests.
type DecklistHandler struct {
	logger *slog.Logger
}

// NewDecklistHandler creates a new DecklistHandler.
func NewDecklistHandler(logger *slog.Logger) *DecklistHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DecklistHandler")
	}
	return &DecklistHandler{logger: logger.With(slog.String("component", "decklist_handler"))}
}

// Parse handles POST /api/decklist/parse.
func (h *DecklistHandler) Parse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ParseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	names, err := namesFromText(req.Text)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("parsed deck list", slog.Int("names", len(names)))
	shared.RespondWithJSON(w, r, http.StatusOK, ParseResponse{Names: names})
}

// namesFromText extracts names from a raw JSON value, rejecting anything
// that is not a string.
func namesFromText(raw json.RawMessage) ([]string, error) {
	var value any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, err
		}
	}
	return decklist.ExtractFromValue(value)
}
