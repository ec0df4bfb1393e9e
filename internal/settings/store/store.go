// Package store persists model providers and agent servers.
//
// Both repositories run every operation while holding one shared Handle, so
// a natural key uniqueness check and the write that follows it cannot
// interleave with another operation. Lookups that miss return (nil, nil).
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/db/dialect"
	"github.com/a2adesk/a2adesk/internal/settings/models"
)

// ModelProviderRepository is the persistence contract for model providers.
type ModelProviderRepository interface {
	Create(ctx context.Context, params models.CreateModelProviderParams) (int64, error)
	Update(ctx context.Context, id int64, patch models.ModelProviderPatch) (int64, error)
	List(ctx context.Context) ([]*models.ModelProvider, error)
	ListEnabled(ctx context.Context) ([]*models.ModelProvider, error)
	GetByID(ctx context.Context, id int64) (*models.ModelProvider, error)
	GetByModelKey(ctx context.Context, key string) (*models.ModelProvider, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	DeleteByModelKey(ctx context.Context, key string) (int64, error)
	ToggleEnabled(ctx context.Context, id int64) (int64, error)
	DisableOthers(ctx context.Context, exceptID int64) (int64, error)
	EnableExclusive(ctx context.Context, id int64) (int64, error)
}

// AgentServerRepository is the persistence contract for agent servers.
type AgentServerRepository interface {
	Create(ctx context.Context, params models.CreateAgentServerParams) (int64, error)
	Update(ctx context.Context, id int64, patch models.AgentServerPatch) (int64, error)
	List(ctx context.Context) ([]*models.AgentServer, error)
	ListEnabled(ctx context.Context) ([]*models.AgentServer, error)
	GetByID(ctx context.Context, id int64) (*models.AgentServer, error)
	GetByURL(ctx context.Context, url string) (*models.AgentServer, error)
	GetByName(ctx context.Context, name string) (*models.AgentServer, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	DeleteByURL(ctx context.Context, url string) (int64, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	ToggleEnabled(ctx context.Context, id int64) (int64, error)
	DisableOthers(ctx context.Context, exceptID int64) (int64, error)
	EnableExclusive(ctx context.Context, id int64) (int64, error)
}

var (
	_ ModelProviderRepository = (*ModelProviderStore)(nil)
	_ AgentServerRepository   = (*AgentServerStore)(nil)
)

// Stores bundles both repositories over one Handle.
type Stores struct {
	Models *ModelProviderStore
	Agents *AgentServerStore
}

// Open migrates the schema and returns both repositories sharing a single
// Handle over db. Closing db stays with the caller.
func Open(ctx context.Context, db *sqlx.DB, log *logger.Logger) (*Stores, error) {
	h := NewHandle(db)
	if err := Migrate(ctx, h, log); err != nil {
		return nil, err
	}
	return &Stores{
		Models: NewModelProviderStore(h),
		Agents: NewAgentServerStore(h),
	}, nil
}

// ModelProviderStore implements ModelProviderRepository.
type ModelProviderStore struct {
	t table[models.ModelProvider]
}

// NewModelProviderStore returns a repository over h. The schema must exist.
func NewModelProviderStore(h *Handle) *ModelProviderStore {
	return &ModelProviderStore{t: table[models.ModelProvider]{
		h:         h,
		name:      modelTable,
		columns:   "id, model_key, enabled, api_url, api_key, created_at, updated_at",
		keyColumn: "model_key",
		duplicate: duplicateModelKey,
	}}
}

// Create inserts a provider, failing with ErrDuplicateKey when the model key exists.
func (s *ModelProviderStore) Create(ctx context.Context, p models.CreateModelProviderParams) (int64, error) {
	return s.t.insert(ctx, p.ModelKey,
		[]string{"model_key", "enabled", "api_url", "api_key"},
		[]any{p.ModelKey, dialect.BoolToInt(p.Enabled), p.APIURL, p.APIKey})
}

// Update applies the present patch fields. An empty patch changes nothing
// and returns 0.
func (s *ModelProviderStore) Update(ctx context.Context, id int64, patch models.ModelProviderPatch) (int64, error) {
	return s.t.update(ctx, id, patch.Assignments(), patch.ModelKey)
}

func (s *ModelProviderStore) List(ctx context.Context) ([]*models.ModelProvider, error) {
	return s.t.list(ctx, "")
}

func (s *ModelProviderStore) ListEnabled(ctx context.Context) ([]*models.ModelProvider, error) {
	return s.t.list(ctx, "enabled = 1")
}

func (s *ModelProviderStore) GetByID(ctx context.Context, id int64) (*models.ModelProvider, error) {
	return s.t.getBy(ctx, "id", id)
}

func (s *ModelProviderStore) GetByModelKey(ctx context.Context, key string) (*models.ModelProvider, error) {
	return s.t.getBy(ctx, "model_key", key)
}

func (s *ModelProviderStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	return s.t.deleteBy(ctx, "id", id)
}

func (s *ModelProviderStore) DeleteByModelKey(ctx context.Context, key string) (int64, error) {
	return s.t.deleteBy(ctx, "model_key", key)
}

// ToggleEnabled flips the enabled flag of id.
func (s *ModelProviderStore) ToggleEnabled(ctx context.Context, id int64) (int64, error) {
	return s.t.toggleEnabled(ctx, id)
}

// DisableOthers clears enabled on every row except exceptID.
func (s *ModelProviderStore) DisableOthers(ctx context.Context, exceptID int64) (int64, error) {
	return s.t.disableOthers(ctx, exceptID)
}

// EnableExclusive enables id and disables all other rows atomically.
func (s *ModelProviderStore) EnableExclusive(ctx context.Context, id int64) (int64, error) {
	return s.t.enableExclusive(ctx, id)
}

// AgentServerStore implements AgentServerRepository.
type AgentServerStore struct {
	t table[models.AgentServer]
}

// NewAgentServerStore returns a repository over h. The schema must exist.
func NewAgentServerStore(h *Handle) *AgentServerStore {
	return &AgentServerStore{t: table[models.AgentServer]{
		h:    h,
		name: agentTable,
		columns: "id, name, agent_card_url, agent_card_json, custom_header_json, " +
			"protocol_data_object_settings, enabled, created_at, updated_at",
		keyColumn: "agent_card_url",
		duplicate: duplicateAgentURL,
	}}
}

// Create inserts a server, failing with ErrDuplicateKey when the card URL exists.
func (s *AgentServerStore) Create(ctx context.Context, p models.CreateAgentServerParams) (int64, error) {
	return s.t.insert(ctx, p.AgentCardURL,
		[]string{"name", "agent_card_url", "agent_card_json", "custom_header_json", "protocol_data_object_settings", "enabled"},
		[]any{p.Name, p.AgentCardURL, p.AgentCardJSON, p.CustomHeaderJSON, p.ProtocolDataObjectSettings, dialect.BoolToInt(p.Enabled)})
}

// Update applies the present patch fields. A new card URL is checked for
// uniqueness against every other row first.
func (s *AgentServerStore) Update(ctx context.Context, id int64, patch models.AgentServerPatch) (int64, error) {
	return s.t.update(ctx, id, patch.Assignments(), patch.AgentCardURL)
}

func (s *AgentServerStore) List(ctx context.Context) ([]*models.AgentServer, error) {
	return s.t.list(ctx, "")
}

func (s *AgentServerStore) ListEnabled(ctx context.Context) ([]*models.AgentServer, error) {
	return s.t.list(ctx, "enabled = 1")
}

func (s *AgentServerStore) GetByID(ctx context.Context, id int64) (*models.AgentServer, error) {
	return s.t.getBy(ctx, "id", id)
}

func (s *AgentServerStore) GetByURL(ctx context.Context, url string) (*models.AgentServer, error) {
	return s.t.getBy(ctx, "agent_card_url", url)
}

// GetByName returns the lowest-id server with the given name.
func (s *AgentServerStore) GetByName(ctx context.Context, name string) (*models.AgentServer, error) {
	return s.t.getBy(ctx, "name", name)
}

func (s *AgentServerStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	return s.t.deleteBy(ctx, "id", id)
}

func (s *AgentServerStore) DeleteByURL(ctx context.Context, url string) (int64, error) {
	return s.t.deleteBy(ctx, "agent_card_url", url)
}

// DeleteByName removes every server with the given name.
func (s *AgentServerStore) DeleteByName(ctx context.Context, name string) (int64, error) {
	return s.t.deleteBy(ctx, "name", name)
}

func (s *AgentServerStore) ToggleEnabled(ctx context.Context, id int64) (int64, error) {
	return s.t.toggleEnabled(ctx, id)
}

func (s *AgentServerStore) DisableOthers(ctx context.Context, exceptID int64) (int64, error) {
	return s.t.disableOthers(ctx, exceptID)
}

func (s *AgentServerStore) EnableExclusive(ctx context.Context, id int64) (int64, error) {
	return s.t.enableExclusive(ctx, id)
}
