// Package seed imports and exports settings as YAML documents.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/store"
)

// Document is the YAML layout of an exported settings file.
type Document struct {
	Models []*models.ModelProvider `yaml:"models"`
	Agents []*models.AgentServer   `yaml:"agents"`
}

// Settings is the subset of the settings service used here.
type Settings interface {
	ListModels(ctx context.Context, enabledOnly bool) ([]*models.ModelProvider, error)
	ListAgents(ctx context.Context, enabledOnly bool) ([]*models.AgentServer, error)
	CreateModel(ctx context.Context, params models.CreateModelProviderParams) (int64, error)
	CreateAgent(ctx context.Context, params models.CreateAgentServerParams) (int64, error)
}

// Result counts what an import did.
type Result struct {
	ModelsCreated int `json:"modelsCreated"`
	AgentsCreated int `json:"agentsCreated"`
	Skipped       int `json:"skipped"`
}

// Export writes every stored record to w.
func Export(ctx context.Context, s Settings, w io.Writer) error {
	ms, err := s.ListModels(ctx, false)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	as, err := s.ListAgents(ctx, false)
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Models: ms, Agents: as}); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return enc.Close()
}

// Import creates every record of the document read from r. Records whose
// natural key already exists are skipped; any other error stops the import.
func Import(ctx context.Context, s Settings, r io.Reader) (Result, error) {
	var doc Document
	var res Result
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return res, fmt.Errorf("decode settings: %w", err)
	}

	for _, m := range doc.Models {
		_, err := s.CreateModel(ctx, models.CreateModelProviderParams{
			ModelKey: m.ModelKey,
			Enabled:  m.Enabled,
			APIURL:   m.APIURL,
			APIKey:   m.APIKey,
		})
		switch {
		case errors.Is(err, store.ErrDuplicateKey):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("import model %q: %w", m.ModelKey, err)
		default:
			res.ModelsCreated++
		}
	}

	for _, a := range doc.Agents {
		_, err := s.CreateAgent(ctx, models.CreateAgentServerParams{
			Name:                       a.Name,
			AgentCardURL:               a.AgentCardURL,
			AgentCardJSON:              a.AgentCardJSON,
			CustomHeaderJSON:           a.CustomHeaderJSON,
			ProtocolDataObjectSettings: a.ProtocolDataObjectSettings,
			Enabled:                    a.Enabled,
		})
		switch {
		case errors.Is(err, store.ErrDuplicateKey):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("import agent %q: %w", a.AgentCardURL, err)
		default:
			res.AgentsCreated++
		}
	}
	return res, nil
}
