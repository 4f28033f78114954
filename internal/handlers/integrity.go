package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"go.uber.org/zap"
)

// IntegrityHandler handles Merkle tree verification endpoints
type IntegrityHandler struct {
	svc    *services.MerkleService
	logger *zap.SugaredLogger
}

// NewIntegrityHandler creates a new integrity handler
func NewIntegrityHandler(svc *services.MerkleService, logger *zap.SugaredLogger) *IntegrityHandler {
	return &IntegrityHandler{svc: svc, logger: logger}
}

// GetRoot handles GET /api/v1/integrity/root
func (h *IntegrityHandler) GetRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Snapshot())
}

// GetProof handles GET /api/v1/integrity/proof/{index}
func (h *IntegrityHandler) GetProof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_index", "Invalid index")
		return
	}
	proof, err := h.svc.Proof(index)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "Proof not available for index")
		return
	}
	respondJSON(w, http.StatusOK, proof)
}

type verifyRequest struct {
	LeafHash string             `json:"leaf_hash"`
	Root     string             `json:"root,omitempty"`
	Proof    []models.ProofStep `json:"proof"`
}

// Verify handles POST /api/v1/integrity/verify. Without a root in the body
// the proof is checked against the current root.
func (h *IntegrityHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	root := req.Root
	if root == "" {
		root = h.svc.Root()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid": services.VerifyProof(req.LeafHash, root, req.Proof),
		"root":  root,
	})
}
