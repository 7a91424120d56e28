package routes

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"contenthub/core"
	"contenthub/crypto"
	"contenthub/gateway/middleware"
	"contenthub/native/registry"
)

// Config assembles the gateway handler chain.
type Config struct {
	Node          *core.Node
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
}

// New builds the read-only REST router over the node.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		if cfg.Authenticator == nil {
			return h
		}
		wrapped := cfg.Authenticator.Middleware()(h)
		return wrapped.ServeHTTP
	}

	r.Get("/v1/content/{id}", protected(getContent(cfg.Node)))
	r.Get("/v1/contributors/{account}", protected(getContributor(cfg.Node)))
	r.Get("/v1/balances/{account}", protected(getBalance(cfg.Node)))

	return r
}

type contentResponse struct {
	ID          string `json:"id"`
	Submitter   string `json:"submitter"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Reward      string `json:"reward"`
	Status      string `json:"status"`
	SubmittedAt int64  `json:"submittedAt"`
	ReviewedAt  int64  `json:"reviewedAt,omitempty"`
}

type contributorResponse struct {
	Account     string `json:"account"`
	Contributor bool   `json:"contributor"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func getContent(node *core.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rendered := chi.URLParam(r, "id")
		trimmed := strings.TrimPrefix(strings.TrimSpace(rendered), "0x")
		decoded, err := hex.DecodeString(trimmed)
		if err != nil || len(decoded) != 32 {
			writeError(w, http.StatusBadRequest, "id must be a 32-byte hex string")
			return
		}
		var id [32]byte
		copy(id[:], decoded)
		record, err := node.GetContent(id)
		if errors.Is(err, registry.ErrContentNotFound) {
			writeError(w, http.StatusNotFound, "content not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		reward := "0"
		if record.Reward != nil {
			reward = record.Reward.String()
		}
		writeJSON(w, http.StatusOK, contentResponse{
			ID:          "0x" + hex.EncodeToString(record.ID[:]),
			Submitter:   crypto.NewAddress(crypto.HubPrefix, record.Submitter[:]).String(),
			Title:       record.Title,
			Description: record.Description,
			URL:         record.URL,
			Reward:      reward,
			Status:      record.Status.String(),
			SubmittedAt: record.SubmittedAt,
			ReviewedAt:  record.ReviewedAt,
		})
	}
}

func getContributor(node *core.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rendered := chi.URLParam(r, "account")
		addr, err := crypto.DecodeAddress(strings.TrimSpace(rendered))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid account address")
			return
		}
		ok, err := node.IsContributor(addr.Raw())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, contributorResponse{Account: rendered, Contributor: ok})
	}
}

func getBalance(node *core.Node) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rendered := chi.URLParam(r, "account")
		addr, err := crypto.DecodeAddress(strings.TrimSpace(rendered))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid account address")
			return
		}
		balance, err := node.BalanceOf(addr.Raw())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{Account: rendered, Balance: balance.String()})
	}
}
