package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/pkg/metrics"
)

type campaignRow struct {
	seq int64
	c   model.Campaign
}

type personaRow struct {
	seq int64
	p   model.Persona
}

type assetRow struct {
	seq int64
	a   model.CreativeAsset
}

type adCopyRow struct {
	seq int64
	a   model.AdCopy
}

type leadRow struct {
	seq int64
	l   model.Lead
}

// MemoryStore implements Store in process memory. It backs development runs
// and tests; state is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	seq       int64
	campaigns map[string]*campaignRow
	personas  map[string]*personaRow
	assets    map[string]*assetRow
	adCopy    map[string]*adCopyRow
	leads     map[string]*leadRow

	now                   func() time.Time
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store and starts its metrics updater,
// which stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		campaigns:             make(map[string]*campaignRow),
		personas:              make(map[string]*personaRow),
		assets:                make(map[string]*assetRow),
		adCopy:                make(map[string]*adCopyRow),
		leads:                 make(map[string]*leadRow),
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.CountLeads(ctx)
				metrics.UpdateTotalLeads(n)
			}
		}
	}()
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

// ownedCampaign must be called with s.mu held.
func (s *MemoryStore) ownedCampaign(ownerID, id string) (*campaignRow, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	row, ok := s.campaigns[id]
	if !ok || row.c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return row, nil
}

// ownedPersona must be called with s.mu held.
func (s *MemoryStore) ownedPersona(ownerID, id string) (*personaRow, error) {
	row, ok := s.personas[id]
	if !ok {
		return nil, ErrNotFound
	}
	if _, err := s.ownedCampaign(ownerID, row.p.CampaignID); err != nil {
		return nil, err
	}
	return row, nil
}

// ownedLead must be called with s.mu held.
func (s *MemoryStore) ownedLead(ownerID, id string) (*leadRow, error) {
	row, ok := s.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	if _, err := s.ownedCampaign(ownerID, row.l.CampaignID); err != nil {
		return nil, err
	}
	return row, nil
}

// CreateCampaign implements CampaignStore.
func (s *MemoryStore) CreateCampaign(_ context.Context, c *model.Campaign) error {
	if c.OwnerID == "" {
		return ErrMissingOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Personas, stored.Leads = nil, nil
	s.campaigns[c.ID] = &campaignRow{seq: s.nextSeq(), c: stored}
	return nil
}

// GetCampaign implements CampaignStore.
func (s *MemoryStore) GetCampaign(_ context.Context, ownerID, id string) (model.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, err := s.ownedCampaign(ownerID, id)
	if err != nil {
		return model.Campaign{}, err
	}
	return row.c, nil
}

// ListCampaigns implements CampaignStore.
func (s *MemoryStore) ListCampaigns(_ context.Context, ownerID string) ([]model.Campaign, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*campaignRow, 0)
	for _, row := range s.campaigns {
		if row.c.OwnerID == ownerID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]model.Campaign, len(rows))
	for i, row := range rows {
		out[i] = row.c
	}
	return out, nil
}

// UpdateCampaign implements CampaignStore.
func (s *MemoryStore) UpdateCampaign(_ context.Context, c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.ownedCampaign(c.OwnerID, c.ID)
	if err != nil {
		return err
	}
	c.CreatedAt = row.c.CreatedAt
	c.UpdatedAt = s.now().UTC()
	stored := *c
	stored.Personas, stored.Leads = nil, nil
	row.c = stored
	return nil
}

// DeleteCampaign implements CampaignStore.
func (s *MemoryStore) DeleteCampaign(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedCampaign(ownerID, id); err != nil {
		return err
	}
	for pid, p := range s.personas {
		if p.p.CampaignID == id {
			s.deletePersonaLocked(pid)
		}
	}
	for lid, l := range s.leads {
		if l.l.CampaignID == id {
			delete(s.leads, lid)
		}
	}
	delete(s.campaigns, id)
	return nil
}

// CreatePersona implements PersonaStore.
func (s *MemoryStore) CreatePersona(_ context.Context, ownerID string, p *model.Persona, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedCampaign(ownerID, p.CampaignID); err != nil {
		return err
	}
	if limit > 0 && s.countPersonasLocked(p.CampaignID) >= limit {
		return ErrPersonaLimit
	}

	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()
	p.Assets, p.AdCopy = []model.CreativeAsset{}, []model.AdCopy{}
	s.personas[p.ID] = &personaRow{seq: s.nextSeq(), p: *p}
	return nil
}

func (s *MemoryStore) countPersonasLocked(campaignID string) int {
	n := 0
	for _, row := range s.personas {
		if row.p.CampaignID == campaignID {
			n++
		}
	}
	return n
}

// GetPersona implements PersonaStore.
func (s *MemoryStore) GetPersona(_ context.Context, ownerID, id string) (model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, err := s.ownedPersona(ownerID, id)
	if err != nil {
		return model.Persona{}, err
	}
	return s.hydratePersonaLocked(row.p), nil
}

func (s *MemoryStore) hydratePersonaLocked(p model.Persona) model.Persona {
	assets := make([]*assetRow, 0)
	for _, row := range s.assets {
		if row.a.PersonaID == p.ID {
			assets = append(assets, row)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].seq < assets[j].seq })

	copies := make([]*adCopyRow, 0)
	for _, row := range s.adCopy {
		if row.a.PersonaID == p.ID {
			copies = append(copies, row)
		}
	}
	sort.Slice(copies, func(i, j int) bool { return copies[i].seq < copies[j].seq })

	p.Assets = make([]model.CreativeAsset, len(assets))
	for i, row := range assets {
		p.Assets[i] = row.a
	}
	p.AdCopy = make([]model.AdCopy, len(copies))
	for i, row := range copies {
		p.AdCopy[i] = row.a
	}
	return p
}

// ListPersonas implements PersonaStore.
func (s *MemoryStore) ListPersonas(_ context.Context, ownerID, campaignID string) ([]model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.ownedCampaign(ownerID, campaignID); err != nil {
		return nil, err
	}
	rows := make([]*personaRow, 0)
	for _, row := range s.personas {
		if row.p.CampaignID == campaignID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]model.Persona, len(rows))
	for i, row := range rows {
		out[i] = s.hydratePersonaLocked(row.p)
	}
	return out, nil
}

// UpdatePersona implements PersonaStore.
func (s *MemoryStore) UpdatePersona(_ context.Context, ownerID string, p *model.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.ownedPersona(ownerID, p.ID)
	if err != nil {
		return err
	}
	row.p.Name = p.Name
	row.p.Motivations = p.Motivations
	row.p.PainPoints = p.PainPoints
	*p = s.hydratePersonaLocked(row.p)
	return nil
}

// DeletePersona implements PersonaStore.
func (s *MemoryStore) DeletePersona(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPersona(ownerID, id); err != nil {
		return err
	}
	s.deletePersonaLocked(id)
	return nil
}

func (s *MemoryStore) deletePersonaLocked(id string) {
	for aid, row := range s.assets {
		if row.a.PersonaID == id {
			delete(s.assets, aid)
		}
	}
	for cid, row := range s.adCopy {
		if row.a.PersonaID == id {
			delete(s.adCopy, cid)
		}
	}
	delete(s.personas, id)
}

// AddAsset implements PersonaStore.
func (s *MemoryStore) AddAsset(_ context.Context, ownerID string, a *model.CreativeAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPersona(ownerID, a.PersonaID); err != nil {
		return err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC()
	s.assets[a.ID] = &assetRow{seq: s.nextSeq(), a: *a}
	return nil
}

// GetAsset implements PersonaStore.
func (s *MemoryStore) GetAsset(_ context.Context, ownerID, id string) (model.CreativeAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.assets[id]
	if !ok {
		return model.CreativeAsset{}, ErrNotFound
	}
	if _, err := s.ownedPersona(ownerID, row.a.PersonaID); err != nil {
		return model.CreativeAsset{}, err
	}
	return row.a, nil
}

// DeleteAsset implements PersonaStore.
func (s *MemoryStore) DeleteAsset(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.assets[id]
	if !ok {
		return ErrNotFound
	}
	if _, err := s.ownedPersona(ownerID, row.a.PersonaID); err != nil {
		return err
	}
	delete(s.assets, id)
	return nil
}

// AddAdCopy implements PersonaStore.
func (s *MemoryStore) AddAdCopy(_ context.Context, ownerID string, a *model.AdCopy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPersona(ownerID, a.PersonaID); err != nil {
		return err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC()
	s.adCopy[a.ID] = &adCopyRow{seq: s.nextSeq(), a: *a}
	return nil
}

// UpdateAdCopy implements PersonaStore.
func (s *MemoryStore) UpdateAdCopy(_ context.Context, ownerID string, a *model.AdCopy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.adCopy[a.ID]
	if !ok {
		return ErrNotFound
	}
	if _, err := s.ownedPersona(ownerID, row.a.PersonaID); err != nil {
		return err
	}
	row.a.Headline = a.Headline
	row.a.Description = a.Description
	*a = row.a
	return nil
}

// DeleteAdCopy implements PersonaStore.
func (s *MemoryStore) DeleteAdCopy(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.adCopy[id]
	if !ok {
		return ErrNotFound
	}
	if _, err := s.ownedPersona(ownerID, row.a.PersonaID); err != nil {
		return err
	}
	delete(s.adCopy, id)
	return nil
}

// CreateLeads implements LeadStore.
func (s *MemoryStore) CreateLeads(_ context.Context, ownerID, campaignID string, leads []model.Lead) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedCampaign(ownerID, campaignID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := make([]model.Lead, len(leads))
	for i, l := range leads {
		l = l.Clone()
		l.ID = uuid.NewString()
		l.CampaignID = campaignID
		l.CreatedAt, l.UpdatedAt = now, now
		s.leads[l.ID] = &leadRow{seq: s.nextSeq(), l: l}
		out[i] = l.Clone()
	}
	return out, nil
}

// GetLead implements LeadStore.
func (s *MemoryStore) GetLead(_ context.Context, ownerID, id string) (model.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, err := s.ownedLead(ownerID, id)
	if err != nil {
		return model.Lead{}, err
	}
	return row.l.Clone(), nil
}

// ListLeads implements LeadStore.
func (s *MemoryStore) ListLeads(_ context.Context, ownerID, campaignID string) ([]model.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.ownedCampaign(ownerID, campaignID); err != nil {
		return nil, err
	}
	rows := make([]*leadRow, 0)
	for _, row := range s.leads {
		if row.l.CampaignID == campaignID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]model.Lead, len(rows))
	for i, row := range rows {
		out[i] = row.l.Clone()
	}
	return out, nil
}

// UpdateLead implements LeadStore. Predictions are left untouched; use
// UpdatePrediction for those.
func (s *MemoryStore) UpdateLead(_ context.Context, ownerID string, l *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.ownedLead(ownerID, l.ID)
	if err != nil {
		return err
	}
	updated := l.Clone()
	updated.CampaignID = row.l.CampaignID
	updated.CreatedAt = row.l.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	updated.PredictedConversionLikelihood = row.l.PredictedConversionLikelihood
	updated.BuyerSegment = row.l.BuyerSegment
	row.l = updated
	*l = updated.Clone()
	return nil
}

// DeleteLead implements LeadStore.
func (s *MemoryStore) DeleteLead(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLead(ownerID, id); err != nil {
		return err
	}
	delete(s.leads, id)
	return nil
}

// UpdatePrediction implements LeadStore.
func (s *MemoryStore) UpdatePrediction(_ context.Context, ownerID, leadID string, p model.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.ownedLead(ownerID, leadID)
	if err != nil {
		return err
	}
	row.l.ApplyPrediction(p)
	row.l.UpdatedAt = s.now().UTC()
	return nil
}

// CountLeads implements LeadStore.
func (s *MemoryStore) CountLeads(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads), nil
}
