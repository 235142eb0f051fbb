// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// ModelFileName is the artifact written to the model directory.
const ModelFileName = "best_model.json"

var (
	ErrNotTrained         = errors.New("model not trained yet")
	ErrTrainingInProgress = errors.New("a training run is already in progress")
)

// Predictor holds the currently installed model. It is safe for concurrent
// use; predictions proceed while a new model is being trained.
type Predictor struct {
	dir string

	mu    sync.RWMutex
	model *Model

	training sync.Mutex
}

// NewPredictor returns an empty predictor persisting to dir.
func NewPredictor(dir string) *Predictor {
	return &Predictor{dir: dir}
}

func (p *Predictor) path() string {
	return filepath.Join(p.dir, ModelFileName)
}

// Load installs the persisted model, if any. A missing file is not an error.
func (p *Predictor) Load() error {
	data, err := os.ReadFile(p.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode model %s: %w", p.path(), err)
	}
	if err := m.validate(); err != nil {
		return fmt.Errorf("invalid model %s: %w", p.path(), err)
	}
	p.Install(&m)
	return nil
}

// Save writes m to the model directory, replacing the previous artifact
// atomically.
func (p *Predictor) Save(m *Model) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	tmp, err := os.CreateTemp(p.dir, ModelFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path()); err != nil {
		return fmt.Errorf("failed to install model file: %w", err)
	}
	return nil
}

// Install makes m the model used by Predict.
func (p *Predictor) Install(m *Model) {
	p.mu.Lock()
	p.model = m
	p.mu.Unlock()
}

// Current returns the installed model or nil.
func (p *Predictor) Current() *Model {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Predict runs the installed model.
func (p *Predictor) Predict(in Input) (Prediction, error) {
	m := p.Current()
	if m == nil {
		return Prediction{}, ErrNotTrained
	}
	return m.Predict(in)
}

// TryStartTraining claims the training slot. The returned func releases it.
// Only one run may hold the slot at a time.
func (p *Predictor) TryStartTraining() (release func(), err error) {
	if !p.training.TryLock() {
		return nil, ErrTrainingInProgress
	}
	return p.training.Unlock, nil
}
