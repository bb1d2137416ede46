package status

import (
	"net/http"
	"sort"

	"github.com/goccy/go-json"

	"github.com/krobus00/tick-follower/internal/service/strategy/tickfollower"
)

type PositionResponse struct {
	Symbol            string `json:"symbol"`
	TotalShares       int64  `json:"total_shares"`
	PendingBuyShares  int64  `json:"pending_buy_shares"`
	PendingSellShares int64  `json:"pending_sell_shares"`
	PendingOrders     int    `json:"pending_orders"`
	LevelCount        int    `json:"level_count"`
	UpdatedAt         string `json:"updated_at"`
}

// Handler serves the position snapshots the trader keeps in the state store.
type Handler struct {
	symbols    []string
	stateStore tickfollower.PositionStateStore
}

func NewStatusHTTPHandler(symbols []string, stateStore tickfollower.PositionStateStore) *Handler {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	return &Handler{
		symbols:    sorted,
		stateStore: stateStore,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/v1/positions", h.Positions)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	positions := make([]PositionResponse, 0, len(h.symbols))
	for _, symbol := range h.symbols {
		snapshot, found, err := h.stateStore.Load(r.Context(), symbol)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		if !found {
			continue
		}

		positions = append(positions, PositionResponse{
			Symbol:            snapshot.Symbol,
			TotalShares:       snapshot.TotalShares,
			PendingBuyShares:  snapshot.PendingBuyShares,
			PendingSellShares: snapshot.PendingSellShares,
			PendingOrders:     snapshot.PendingOrders,
			LevelCount:        snapshot.LevelCount,
			UpdatedAt:         snapshot.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
