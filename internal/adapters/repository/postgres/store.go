// Package postgres implements the repository stores on PostgreSQL via pgx.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/okian/estatecamp/internal/adapters/repository"
	"github.com/okian/estatecamp/internal/domain/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool tuning.
const (
	maxConns          = 25
	minConns          = 2
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 30 * time.Minute
	healthCheckPeriod = time.Minute
)

// Open creates a connection pool and verifies connectivity.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations and returns how many ran.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return 0, err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return 0, fmt.Errorf("migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	return len(results), nil
}

// Store implements repository.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New wraps an open pool. The store owns the pool and closes it on Close.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CreateCampaign implements repository.CampaignStore.
func (s *Store) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	if c.OwnerID == "" {
		return repository.ErrMissingOwner
	}
	now := s.timestamp()
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO campaigns (id, owner_id, name, project, objective, budget, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		id, c.OwnerID, c.Name, c.Project, string(c.Objective), c.Budget, c.StartDate, c.EndDate, now)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	c.ID = id
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

const campaignColumns = `id, owner_id, name, project, objective, budget, start_date, end_date, created_at, updated_at`

func scanCampaign(row pgx.Row) (model.Campaign, error) {
	var (
		c         model.Campaign
		objective string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Project, &objective, &c.Budget,
		&c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
	c.Objective = model.Objective(objective)
	return c, err
}

// GetCampaign implements repository.CampaignStore.
func (s *Store) GetCampaign(ctx context.Context, ownerID, id string) (model.Campaign, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND owner_id = $2`, id, ownerID)
	c, err := scanCampaign(row)
	if err != nil {
		return model.Campaign{}, notFound(err)
	}
	return c, nil
}

// ListCampaigns implements repository.CampaignStore.
func (s *Store) ListCampaigns(ctx context.Context, ownerID string) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE owner_id = $1 ORDER BY created_at DESC, seq DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]model.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCampaign implements repository.CampaignStore.
func (s *Store) UpdateCampaign(ctx context.Context, c *model.Campaign) error {
	now := s.timestamp()
	row := s.pool.QueryRow(ctx, `
		UPDATE campaigns
		SET name = $3, project = $4, objective = $5, budget = $6, start_date = $7, end_date = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at`,
		c.ID, c.OwnerID, c.Name, c.Project, string(c.Objective), c.Budget, c.StartDate, c.EndDate, now)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return notFound(err)
	}
	c.UpdatedAt = now
	return nil
}

// DeleteCampaign implements repository.CampaignStore. Children go with it
// through ON DELETE CASCADE.
func (s *Store) DeleteCampaign(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreatePersona implements repository.PersonaStore. The campaign row is
// locked so concurrent creates cannot exceed limit.
func (s *Store) CreatePersona(ctx context.Context, ownerID string, p *model.Persona, limit int) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM campaigns WHERE id = $1 AND owner_id = $2 FOR UPDATE`, p.CampaignID, ownerID).Scan(&id)
		if err != nil {
			return notFound(err)
		}

		if limit > 0 {
			var n int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM personas WHERE campaign_id = $1`, p.CampaignID).Scan(&n); err != nil {
				return fmt.Errorf("count personas: %w", err)
			}
			if n >= limit {
				return repository.ErrPersonaLimit
			}
		}

		now := s.timestamp()
		pid := uuid.NewString()
		_, err = tx.Exec(ctx, `
			INSERT INTO personas (id, campaign_id, name, motivations, pain_points, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			pid, p.CampaignID, p.Name, p.Motivations, p.PainPoints, now)
		if err != nil {
			return fmt.Errorf("insert persona: %w", err)
		}
		p.ID = pid
		p.CreatedAt = now
		p.Assets, p.AdCopy = []model.CreativeAsset{}, []model.AdCopy{}
		return nil
	})
}

const personaSelect = `
	SELECT p.id, p.campaign_id, p.name, p.motivations, p.pain_points, p.created_at
	FROM personas p JOIN campaigns c ON c.id = p.campaign_id`

func scanPersona(row pgx.Row) (model.Persona, error) {
	var p model.Persona
	err := row.Scan(&p.ID, &p.CampaignID, &p.Name, &p.Motivations, &p.PainPoints, &p.CreatedAt)
	return p, err
}

// GetPersona implements repository.PersonaStore.
func (s *Store) GetPersona(ctx context.Context, ownerID, id string) (model.Persona, error) {
	p, err := scanPersona(s.pool.QueryRow(ctx, personaSelect+` WHERE p.id = $1 AND c.owner_id = $2`, id, ownerID))
	if err != nil {
		return model.Persona{}, notFound(err)
	}
	personas := []model.Persona{p}
	if err := s.hydratePersonas(ctx, personas); err != nil {
		return model.Persona{}, err
	}
	return personas[0], nil
}

// ListPersonas implements repository.PersonaStore.
func (s *Store) ListPersonas(ctx context.Context, ownerID, campaignID string) ([]model.Persona, error) {
	if err := s.ownsCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		personaSelect+` WHERE p.campaign_id = $1 AND c.owner_id = $2 ORDER BY p.created_at, p.seq`, campaignID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	personas, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.Persona, error) { return scanPersona(r) })
	if err != nil {
		return nil, fmt.Errorf("scan personas: %w", err)
	}
	if err := s.hydratePersonas(ctx, personas); err != nil {
		return nil, err
	}
	return personas, nil
}

// hydratePersonas loads assets and ad copy for every persona in two queries.
func (s *Store) hydratePersonas(ctx context.Context, personas []model.Persona) error {
	if len(personas) == 0 {
		return nil
	}
	ids := make([]string, len(personas))
	index := make(map[string]int, len(personas))
	for i := range personas {
		ids[i] = personas[i].ID
		index[personas[i].ID] = i
		personas[i].Assets = []model.CreativeAsset{}
		personas[i].AdCopy = []model.AdCopy{}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, persona_id, name, type, url, created_at
		FROM creative_assets WHERE persona_id = ANY($1) ORDER BY created_at, seq`, ids)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	assets, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.CreativeAsset, error) {
		var a model.CreativeAsset
		err := r.Scan(&a.ID, &a.PersonaID, &a.Name, &a.Type, &a.URL, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return fmt.Errorf("scan assets: %w", err)
	}
	for _, a := range assets {
		i := index[a.PersonaID]
		personas[i].Assets = append(personas[i].Assets, a)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, persona_id, headline, description, created_at
		FROM ad_copy WHERE persona_id = ANY($1) ORDER BY created_at, seq`, ids)
	if err != nil {
		return fmt.Errorf("list ad copy: %w", err)
	}
	copies, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.AdCopy, error) {
		var a model.AdCopy
		err := r.Scan(&a.ID, &a.PersonaID, &a.Headline, &a.Description, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return fmt.Errorf("scan ad copy: %w", err)
	}
	for _, a := range copies {
		i := index[a.PersonaID]
		personas[i].AdCopy = append(personas[i].AdCopy, a)
	}
	return nil
}

// UpdatePersona implements repository.PersonaStore.
func (s *Store) UpdatePersona(ctx context.Context, ownerID string, p *model.Persona) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE personas SET name = $3, motivations = $4, pain_points = $5
		WHERE id = $1 AND campaign_id IN (SELECT id FROM campaigns WHERE owner_id = $2)`,
		p.ID, ownerID, p.Name, p.Motivations, p.PainPoints)
	if err != nil {
		return fmt.Errorf("update persona: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	updated, err := s.GetPersona(ctx, ownerID, p.ID)
	if err != nil {
		return err
	}
	*p = updated
	return nil
}

// DeletePersona implements repository.PersonaStore.
func (s *Store) DeletePersona(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM personas
		WHERE id = $1 AND campaign_id IN (SELECT id FROM campaigns WHERE owner_id = $2)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete persona: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

const ownedPersonaCond = `persona_id IN (
	SELECT p.id FROM personas p JOIN campaigns c ON c.id = p.campaign_id WHERE c.owner_id = $2)`

func (s *Store) ownsPersona(ctx context.Context, ownerID, personaID string) error {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT p.id FROM personas p JOIN campaigns c ON c.id = p.campaign_id
		WHERE p.id = $1 AND c.owner_id = $2`, personaID, ownerID).Scan(&id)
	return notFound(err)
}

func (s *Store) ownsCampaign(ctx context.Context, ownerID, campaignID string) error {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM campaigns WHERE id = $1 AND owner_id = $2`, campaignID, ownerID).Scan(&id)
	return notFound(err)
}

// AddAsset implements repository.PersonaStore.
func (s *Store) AddAsset(ctx context.Context, ownerID string, a *model.CreativeAsset) error {
	if err := s.ownsPersona(ctx, ownerID, a.PersonaID); err != nil {
		return err
	}
	now := s.timestamp()
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO creative_assets (id, persona_id, name, type, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, id, a.PersonaID, a.Name, a.Type, a.URL, now)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

// GetAsset implements repository.PersonaStore.
func (s *Store) GetAsset(ctx context.Context, ownerID, id string) (model.CreativeAsset, error) {
	var a model.CreativeAsset
	err := s.pool.QueryRow(ctx, `
		SELECT id, persona_id, name, type, url, created_at FROM creative_assets
		WHERE id = $1 AND `+ownedPersonaCond, id, ownerID).
		Scan(&a.ID, &a.PersonaID, &a.Name, &a.Type, &a.URL, &a.CreatedAt)
	if err != nil {
		return model.CreativeAsset{}, notFound(err)
	}
	return a, nil
}

// DeleteAsset implements repository.PersonaStore.
func (s *Store) DeleteAsset(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM creative_assets WHERE id = $1 AND `+ownedPersonaCond, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddAdCopy implements repository.PersonaStore.
func (s *Store) AddAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error {
	if err := s.ownsPersona(ctx, ownerID, a.PersonaID); err != nil {
		return err
	}
	now := s.timestamp()
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ad_copy (id, persona_id, headline, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`, id, a.PersonaID, a.Headline, a.Description, now)
	if err != nil {
		return fmt.Errorf("insert ad copy: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

// UpdateAdCopy implements repository.PersonaStore.
func (s *Store) UpdateAdCopy(ctx context.Context, ownerID string, a *model.AdCopy) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE ad_copy SET headline = $3, description = $4
		WHERE id = $1 AND `+ownedPersonaCond+`
		RETURNING persona_id, created_at`, a.ID, ownerID, a.Headline, a.Description).
		Scan(&a.PersonaID, &a.CreatedAt)
	return notFound(err)
}

// DeleteAdCopy implements repository.PersonaStore.
func (s *Store) DeleteAdCopy(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ad_copy WHERE id = $1 AND `+ownedPersonaCond, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete ad copy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

const leadColumns = `l.id, l.campaign_id, l.name, l.email, l.phone, l.status, l.assigned_persona,
	l.rejection_reason, l.demographics, l.property_preferences, l.interaction_history,
	l.predicted_conversion_likelihood, l.buyer_segment, l.created_at, l.updated_at`

const leadSelect = `SELECT ` + leadColumns + ` FROM leads l JOIN campaigns c ON c.id = l.campaign_id`

type leadJSON struct {
	demographics []byte
	preferences  []byte
	history      []byte
}

func encodeLeadJSON(l *model.Lead) (leadJSON, error) {
	var (
		out leadJSON
		err error
	)
	if l.Demographics != nil {
		if out.demographics, err = json.Marshal(l.Demographics); err != nil {
			return out, fmt.Errorf("encode demographics: %w", err)
		}
	}
	if l.PropertyPreferences != nil {
		if out.preferences, err = json.Marshal(l.PropertyPreferences); err != nil {
			return out, fmt.Errorf("encode property preferences: %w", err)
		}
	}
	if l.InteractionHistory != nil {
		if out.history, err = json.Marshal(l.InteractionHistory); err != nil {
			return out, fmt.Errorf("encode interaction history: %w", err)
		}
	}
	return out, nil
}

func scanLead(row pgx.Row) (model.Lead, error) {
	var (
		l                            model.Lead
		status                       string
		rejection, segment           *string
		demographics, prefs, history []byte
	)
	err := row.Scan(&l.ID, &l.CampaignID, &l.Name, &l.Email, &l.Phone, &status, &l.AssignedPersona,
		&rejection, &demographics, &prefs, &history,
		&l.PredictedConversionLikelihood, &segment, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return model.Lead{}, err
	}

	l.Status = model.LeadStatus(status)
	if rejection != nil {
		r := model.RejectionReason(*rejection)
		l.RejectionReason = &r
	}
	if segment != nil {
		s := model.BuyerSegment(*segment)
		l.BuyerSegment = &s
	}
	if len(demographics) > 0 {
		if err := json.Unmarshal(demographics, &l.Demographics); err != nil {
			return model.Lead{}, fmt.Errorf("decode demographics: %w", err)
		}
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &l.PropertyPreferences); err != nil {
			return model.Lead{}, fmt.Errorf("decode property preferences: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &l.InteractionHistory); err != nil {
			return model.Lead{}, fmt.Errorf("decode interaction history: %w", err)
		}
	}
	return l, nil
}

func rejectionParam(r *model.RejectionReason) *string {
	if r == nil {
		return nil
	}
	v := string(*r)
	return &v
}

func segmentParam(s *model.BuyerSegment) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// CreateLeads implements repository.LeadStore. All rows are inserted in one
// transaction using a pipelined batch.
func (s *Store) CreateLeads(ctx context.Context, ownerID, campaignID string, leads []model.Lead) ([]model.Lead, error) {
	out := make([]model.Lead, len(leads))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM campaigns WHERE id = $1 AND owner_id = $2`, campaignID, ownerID).Scan(&id)
		if err != nil {
			return notFound(err)
		}

		now := s.timestamp()
		batch := &pgx.Batch{}
		for i, l := range leads {
			l = l.Clone()
			l.ID = uuid.NewString()
			l.CampaignID = campaignID
			l.CreatedAt, l.UpdatedAt = now, now

			js, err := encodeLeadJSON(&l)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO leads (id, campaign_id, name, email, phone, status, assigned_persona, rejection_reason,
					demographics, property_preferences, interaction_history,
					predicted_conversion_likelihood, buyer_segment, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
				l.ID, l.CampaignID, l.Name, l.Email, l.Phone, string(l.Status), l.AssignedPersona,
				rejectionParam(l.RejectionReason), js.demographics, js.preferences, js.history,
				l.PredictedConversionLikelihood, segmentParam(l.BuyerSegment), now)
			out[i] = l
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert leads: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetLead implements repository.LeadStore.
func (s *Store) GetLead(ctx context.Context, ownerID, id string) (model.Lead, error) {
	l, err := scanLead(s.pool.QueryRow(ctx, leadSelect+` WHERE l.id = $1 AND c.owner_id = $2`, id, ownerID))
	if err != nil {
		return model.Lead{}, notFound(err)
	}
	return l, nil
}

// ListLeads implements repository.LeadStore.
func (s *Store) ListLeads(ctx context.Context, ownerID, campaignID string) ([]model.Lead, error) {
	if err := s.ownsCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		leadSelect+` WHERE l.campaign_id = $1 AND c.owner_id = $2 ORDER BY l.created_at, l.seq`, campaignID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	leads, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.Lead, error) { return scanLead(r) })
	if err != nil {
		return nil, fmt.Errorf("scan leads: %w", err)
	}
	return leads, nil
}

// UpdateLead implements repository.LeadStore. Predictions are left untouched.
func (s *Store) UpdateLead(ctx context.Context, ownerID string, l *model.Lead) error {
	js, err := encodeLeadJSON(l)
	if err != nil {
		return err
	}
	now := s.timestamp()
	tag, err := s.pool.Exec(ctx, `
		UPDATE leads SET name = $3, email = $4, phone = $5, status = $6, assigned_persona = $7,
			rejection_reason = $8, demographics = $9, property_preferences = $10,
			interaction_history = $11, updated_at = $12
		WHERE id = $1 AND campaign_id IN (SELECT id FROM campaigns WHERE owner_id = $2)`,
		l.ID, ownerID, l.Name, l.Email, l.Phone, string(l.Status), l.AssignedPersona,
		rejectionParam(l.RejectionReason), js.demographics, js.preferences, js.history, now)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	updated, err := s.GetLead(ctx, ownerID, l.ID)
	if err != nil {
		return err
	}
	*l = updated
	return nil
}

// DeleteLead implements repository.LeadStore.
func (s *Store) DeleteLead(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM leads
		WHERE id = $1 AND campaign_id IN (SELECT id FROM campaigns WHERE owner_id = $2)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdatePrediction implements repository.LeadStore.
func (s *Store) UpdatePrediction(ctx context.Context, ownerID, leadID string, p model.Prediction) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leads SET predicted_conversion_likelihood = $3, buyer_segment = $4, updated_at = $5
		WHERE id = $1 AND campaign_id IN (SELECT id FROM campaigns WHERE owner_id = $2)`,
		leadID, ownerID, p.PredictedConversionLikelihood, string(p.BuyerSegment), s.timestamp())
	if err != nil {
		return fmt.Errorf("update prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountLeads implements repository.LeadStore.
func (s *Store) CountLeads(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}
