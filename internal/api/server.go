// Package api exposes the offer lifecycle over a small JSON HTTP surface.
// Real caller authorization belongs to the host runtime; handlers take
// the acting account from the X-Owner header and delegate to the
// configured Authorizer.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
	"github.com/nice1-blockchain/nice1swapper/internal/lifecycle"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// Server holds the HTTP handlers for offer administration.
type Server struct {
	manager *lifecycle.Manager
	offers  storage.OfferStore
	journal storage.JournalStore // optional
	logger  *log.Logger
}

// NewServer creates a new API server.
func NewServer(manager *lifecycle.Manager, offers storage.OfferStore, journal storage.JournalStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{manager: manager, offers: offers, journal: journal, logger: logger}
}

// Routes registers all handlers on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /offers", s.handleCreateOffer)
	mux.HandleFunc("GET /offers", s.handleListOffers)
	mux.HandleFunc("GET /offers/{ref}", s.handleGetOffer)
	mux.HandleFunc("DELETE /offers/{ref}", s.handleDeleteOffer)
	mux.HandleFunc("POST /offers/{ref}/active", s.handleSetActive)
	mux.HandleFunc("GET /journal/{ref}", s.handleGetJournal)
	return mux
}

// offerPayload is the wire shape of an offer. Quantities travel in
// canonical asset text.
type offerPayload struct {
	Ref               string `json:"ref"`
	Owner             string `json:"owner,omitempty"`
	ReceivingContract string `json:"receiving_contract"`
	ReceivingQuantity string `json:"receiving_quantity"`
	SendingContract   string `json:"sending_contract"`
	SendingQuantity   string `json:"sending_quantity"`
	MemoKey           uint64 `json:"memo_key"`
	Active            bool   `json:"active"`
	CreatedAt         int64  `json:"created_at,omitempty"`
}

func offerToPayload(o *domain.SwapOffer) offerPayload {
	return offerPayload{
		Ref:               o.Ref,
		Owner:             o.Owner,
		ReceivingContract: o.ReceivingContract,
		ReceivingQuantity: o.ReceivingAsset.String(),
		SendingContract:   o.SendingContract,
		SendingQuantity:   o.SendingAsset.String(),
		MemoKey:           o.MemoKey,
		Active:            o.Active,
		CreatedAt:         o.CreatedAt,
	}
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-Owner")
	if owner == "" {
		s.writeError(w, http.StatusBadRequest, "missing X-Owner header")
		return
	}

	var payload offerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	receiving, err := domain.ParseAsset(payload.ReceivingQuantity)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	sending, err := domain.ParseAsset(payload.SendingQuantity)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	err = s.manager.CreateOffer(r.Context(), lifecycle.CreateOfferParams{
		Owner:             owner,
		Ref:               payload.Ref,
		ReceivingContract: payload.ReceivingContract,
		ReceivingAsset:    receiving,
		SendingContract:   payload.SendingContract,
		SendingAsset:      sending,
		MemoKey:           payload.MemoKey,
		Active:            payload.Active,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	var (
		offers []*domain.SwapOffer
		err    error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		offers, err = s.offers.GetByOwner(r.Context(), owner)
	} else {
		offers, err = s.offers.GetAll(r.Context())
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	payloads := make([]offerPayload, 0, len(offers))
	for _, o := range offers {
		payloads = append(payloads, offerToPayload(o))
	}
	s.writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.offers.GetByRef(r.Context(), r.PathValue("ref"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, offerToPayload(offer))
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-Owner")
	if owner == "" {
		s.writeError(w, http.StatusBadRequest, "missing X-Owner header")
		return
	}

	if err := s.manager.DeleteOffer(r.Context(), owner, r.PathValue("ref")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-Owner")
	if owner == "" {
		s.writeError(w, http.StatusBadRequest, "missing X-Owner header")
		return
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.manager.SetActive(r.Context(), owner, r.PathValue("ref"), body.Active); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "journal not configured")
		return
	}

	records, err := s.journal.GetByRef(r.Context(), r.PathValue("ref"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateRef),
		errors.Is(err, storage.ErrDuplicateMemoKey),
		errors.Is(err, lifecycle.ErrNoChange):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAssetQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.logger.Printf("API internal error: %v", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Failed to encode response: %v", err)
	}
}
