package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/etheron-labs/etheron-backend/internal/domain"
	"github.com/etheron-labs/etheron-backend/internal/state"
	"github.com/etheron-labs/etheron-backend/internal/usecase/listing"
	"github.com/etheron-labs/etheron-backend/internal/usecase/profile"
	"github.com/etheron-labs/etheron-backend/internal/usecase/settlement"
)

// Server exposes the marketplace over a JSON HTTP API
type Server struct {
	Engine   *settlement.Engine
	Listings *listing.Service
	Profiles *profile.Service
	Store    *state.Store
}

// NewServer creates a new HTTP API server instance
func NewServer(engine *settlement.Engine, listings *listing.Service, profiles *profile.Service, store *state.Store) *Server {
	return &Server{
		Engine:   engine,
		Listings: listings,
		Profiles: profiles,
		Store:    store,
	}
}

// Router builds the chi router with bearer-token auth on all routes
func (s *Server) Router(apiToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(BearerAuth(apiToken))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleGetCatalog)
		r.Post("/catalog", s.handleListAsset)
		r.Get("/ledger", s.handleGetLedger)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)
		r.Post("/purchases", s.handleStagePurchase)
		r.Get("/purchases/staged", s.handleGetStaged)
		r.Post("/purchases/confirm", s.handleConfirmPurchase)
		r.Post("/purchases/cancel", s.handleCancelPurchase)
	})

	return r
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assets": s.Store.Catalog(),
	})
}

type listAssetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageData   string `json:"image_data"` // base64-encoded image bytes
	ImageURL    string `json:"image_url"`
}

func (s *Server) handleListAsset(w http.ResponseWriter, r *http.Request) {
	var req listAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid price format")
		return
	}

	var image []byte
	if req.ImageData != "" {
		image, err = base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid image_data encoding")
			return
		}
	}

	asset, err := s.Listings.ListAsset(r.Context(), listing.ListAssetInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Image:       image,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": s.Store.Ledger(),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Profiles.Get())
}

type updateProfileRequest struct {
	PayoutWallet   string `json:"payoutWallet"`
	ImportedWallet string `json:"importedWallet"`
	DisplayName    string `json:"displayName"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.Profiles.Update(r.Context(), profile.UpdateInput{
		PayoutWallet:   req.PayoutWallet,
		ImportedWallet: req.ImportedWallet,
		DisplayName:    req.DisplayName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type stagePurchaseRequest struct {
	AssetID string `json:"asset_id"`
}

func (s *Server) handleStagePurchase(w http.ResponseWriter, r *http.Request) {
	var req stagePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AssetID == "" {
		writeJSONError(w, http.StatusBadRequest, "asset_id cannot be empty")
		return
	}

	record, err := s.Engine.StagePurchase(r.Context(), req.AssetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleGetStaged(w http.ResponseWriter, r *http.Request) {
	record, ok := s.Engine.Staged()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no purchase staged")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type confirmResponse struct {
	Asset   domain.Asset         `json:"asset"`
	Records []domain.Transaction `json:"records"`
}

func (s *Server) handleConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	result, err := s.Engine.ConfirmPurchase(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		// Nothing staged; confirming is a no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, confirmResponse{
		Asset:   result.Asset,
		Records: result.Records,
	})
}

func (s *Server) handleCancelPurchase(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.CancelPurchase(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
