package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/reliefhub/relief-server/internal/models"
	"go.uber.org/zap"
)

// MerkleService keeps a Merkle tree over the activity log entry hashes so
// clients can check that a recorded action has not been altered or dropped.
type MerkleService struct {
	mu      sync.RWMutex
	layers  [][]string // layers[0] holds the leaves
	builtAt time.Time
	logger  *zap.SugaredLogger
}

// IntegritySnapshot describes the current tree
type IntegritySnapshot struct {
	Root    string    `json:"root"`
	Leaves  int       `json:"leaves"`
	BuiltAt time.Time `json:"built_at"`
}

// NewMerkleService creates an empty tree
func NewMerkleService(logger *zap.SugaredLogger) *MerkleService {
	return &MerkleService{logger: logger}
}

// Rebuild replaces the tree with one over hashes
func (m *MerkleService) Rebuild(hashes []string) {
	layers := buildLayers(hashes)

	m.mu.Lock()
	m.layers = layers
	m.builtAt = time.Now().UTC()
	m.mu.Unlock()

	m.logger.Infow("Merkle tree rebuilt", "leaves", len(hashes), "root", m.Root())
}

// Root returns the current root, empty for an empty log
func (m *MerkleService) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.layers) == 0 {
		return ""
	}
	top := m.layers[len(m.layers)-1]
	return top[0]
}

// Snapshot returns root, leaf count and build time together
func (m *MerkleService) Snapshot() IntegritySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := IntegritySnapshot{BuiltAt: m.builtAt}
	if len(m.layers) > 0 {
		snap.Leaves = len(m.layers[0])
		snap.Root = m.layers[len(m.layers)-1][0]
	}
	return snap
}

// Proof returns the inclusion proof for the leaf at index
func (m *MerkleService) Proof(index int) (*models.MerkleProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.layers) == 0 || index < 0 || index >= len(m.layers[0]) {
		return nil, invalid("index", "out of range")
	}

	proof := &models.MerkleProof{
		LeafHash: m.layers[0][index],
		Root:     m.layers[len(m.layers)-1][0],
		Index:    index,
		Proof:    make([]models.ProofStep, 0, len(m.layers)),
	}
	pos := index
	for _, layer := range m.layers[:len(m.layers)-1] {
		if pos%2 == 1 {
			proof.Proof = append(proof.Proof, models.ProofStep{Hash: layer[pos-1], Position: "left"})
		} else {
			sibling := layer[pos]
			if pos+1 < len(layer) {
				sibling = layer[pos+1]
			}
			proof.Proof = append(proof.Proof, models.ProofStep{Hash: sibling, Position: "right"})
		}
		pos /= 2
	}
	proof.Verified = VerifyProof(proof.LeafHash, proof.Root, proof.Proof)
	return proof, nil
}

// VerifyProof folds the proof steps over leaf and compares with root
func VerifyProof(leaf, root string, steps []models.ProofStep) bool {
	if leaf == "" || root == "" {
		return false
	}
	current := leaf
	for _, step := range steps {
		switch step.Position {
		case "left":
			current = hashPair(step.Hash, current)
		case "right":
			current = hashPair(current, step.Hash)
		default:
			return false
		}
	}
	return current == root
}

// buildLayers hashes pairs upwards; an odd node is paired with itself
func buildLayers(leaves []string) [][]string {
	if len(leaves) == 0 {
		return nil
	}
	level := append([]string(nil), leaves...)
	layers := [][]string{level}
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(level[i], right))
		}
		layers = append(layers, next)
		level = next
	}
	return layers
}

func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// IntegrityWorker periodically rebuilds the Merkle tree from the activity log
type IntegrityWorker struct {
	merkle   *MerkleService
	activity *ActivityLogService
	logger   *zap.SugaredLogger
}

// NewIntegrityWorker creates a new background integrity worker
func NewIntegrityWorker(ms *MerkleService, as *ActivityLogService, logger *zap.SugaredLogger) *IntegrityWorker {
	return &IntegrityWorker{merkle: ms, activity: as, logger: logger}
}

// Start rebuilds once, then on every tick until ctx is done
func (w *IntegrityWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := w.RebuildNow(ctx); err != nil {
		w.logger.Errorw("Integrity rebuild failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Integrity worker stopped")
			return
		case <-ticker.C:
			if err := w.RebuildNow(ctx); err != nil {
				w.logger.Errorw("Integrity rebuild failed", "error", err)
			}
		}
	}
}

// RebuildNow reloads every activity hash and rebuilds the tree
func (w *IntegrityWorker) RebuildNow(ctx context.Context) error {
	hashes, err := w.activity.Hashes(ctx)
	if err != nil {
		return fmt.Errorf("load activity hashes: %w", err)
	}
	w.merkle.Rebuild(hashes)
	return nil
}
