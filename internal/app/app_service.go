package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"proposal-studio/internal/ai"
	"proposal-studio/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrWorkspaceNotFound is returned when an editing operation references a
// workspace id that is unknown or already expired.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrInvalidCredentials is returned by AuthenticateUser for a bad username or
// password. Deliberately indistinguishable between the two cases.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	workspaceIdleTimeout = time.Hour
	purgeInterval        = 10 * time.Minute
)

// workspace bundles the live editing state for one open proposal: the builder
// session, its debounced auto-saver, and the lifecycle controller over both.
type workspace struct {
	id        string
	session   *core.Session
	saver     *core.AutoSaver
	lifecycle *core.Lifecycle
	log       *core.ActivityLog
	lastUsed  time.Time
}

type appService struct {
	pool      *pgxpool.Pool
	proposals core.ProposalService
	catalog   core.CatalogService
	clients   core.ClientService
	users     core.UserService
	activity  core.ActivityService
	mailer    core.Mailer
	agent     *ai.Agent

	quietPeriod time.Duration

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// NewAppService constructs an appService that satisfies ApplicationService.
// quietPeriod tunes the auto-save debounce window; zero means the default.
// agent may be nil when no API key is configured; SuggestContent then errors.
func NewAppService(
	pool *pgxpool.Pool,
	proposals core.ProposalService,
	catalog core.CatalogService,
	clients core.ClientService,
	users core.UserService,
	activity core.ActivityService,
	mailer core.Mailer,
	agent *ai.Agent,
	quietPeriod time.Duration,
) ApplicationService {
	s := &appService{
		pool:        pool,
		proposals:   proposals,
		catalog:     catalog,
		clients:     clients,
		users:       users,
		activity:    activity,
		mailer:      mailer,
		agent:       agent,
		quietPeriod: quietPeriod,
		workspaces:  make(map[string]*workspace),
	}
	go s.startPurge()
	return s
}

// AuthenticateUser verifies credentials against the stored bcrypt hash.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &UserSession{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// GetUser returns user profile by ID.
func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}, nil
}

// GetCatalog returns all active catalog items.
func (s *appService) GetCatalog(ctx context.Context) (*CatalogResult, error) {
	items, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Items: items}, nil
}

// CreateCatalogItem adds a new item to the product/service catalog.
func (s *appService) CreateCatalogItem(ctx context.Context, req CreateCatalogItemRequest) (*core.CatalogItem, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("catalog item name is required")
	}
	if req.UnitPrice.IsNegative() {
		return nil, core.ErrInvalidPrice
	}
	return s.catalog.CreateItem(ctx, req.Name, req.UnitPrice, req.Category, req.Description)
}

// ListClients returns all clients.
func (s *appService) ListClients(ctx context.Context) (*ClientListResult, error) {
	clients, err := s.clients.GetClients(ctx)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

// GetClient returns a single client by ID.
func (s *appService) GetClient(ctx context.Context, id int) (*core.Client, error) {
	return s.clients.GetClient(ctx, id)
}

// CreateClient creates a new client record.
func (s *appService) CreateClient(ctx context.Context, req ClientRequest) (*core.Client, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("client name is required")
	}
	return s.clients.CreateClient(ctx, req.Name, req.Email, req.Phone, req.Company)
}

// UpdateClient overwrites an existing client record.
func (s *appService) UpdateClient(ctx context.Context, id int, req ClientRequest) (*core.Client, error) {
	return s.clients.UpdateClient(ctx, core.Client{
		ID:      id,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
	})
}

// OpenWorkspace starts a fresh proposal editing session for the actor.
func (s *appService) OpenWorkspace(ctx context.Context, actor string) (*WorkspaceResult, error) {
	number, err := s.proposals.NextProposalNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve proposal number: %w", err)
	}
	items, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	log := core.NewActivityLog(0, s.activity)
	session := core.NewSession(number, actor, items, log)

	saver := core.NewAutoSaver(session.Snapshot,
		func(ctx context.Context, p core.Proposal) error {
			_, err := s.proposals.SaveSnapshot(ctx, p)
			return err
		},
		core.AutoSaverConfig{
			QuietPeriod: s.quietPeriod,
			OnSaved: func(p core.Proposal) {
				log.Record("Auto-saved", core.SystemActor, p.ProposalNumber)
			},
			OnError: func(err error) {
				log.Record("Auto-save failed", core.SystemActor, err.Error())
			},
		})
	session.SetAutoSaver(saver)

	ws := &workspace{
		id:        uuid.NewString(),
		session:   session,
		saver:     saver,
		lifecycle: core.NewLifecycle(session, s.proposals, s.mailer, log),
		log:       log,
		lastUsed:  time.Now(),
	}

	s.mu.Lock()
	s.workspaces[ws.id] = ws
	s.mu.Unlock()

	log.Record("Opened proposal workspace", actor, number)
	return s.result(ws), nil
}

// GetWorkspace returns the current state of an editing session.
func (s *appService) GetWorkspace(ctx context.Context, workspaceID string) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// CloseWorkspace tears a session down, cancelling any pending auto-save.
func (s *appService) CloseWorkspace(ctx context.Context, workspaceID string) {
	s.mu.Lock()
	ws, ok := s.workspaces[workspaceID]
	if ok {
		delete(s.workspaces, workspaceID)
	}
	s.mu.Unlock()
	if ok {
		ws.session.Close()
	}
}

// AddItem commits a catalog item to the workspace proposal.
func (s *appService) AddItem(ctx context.Context, workspaceID string, req AddItemRequest) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	if _, err := ws.session.AddItem(req.CatalogItemID, lineInput(req)); err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// UpdateItem applies a partial update to a line item.
func (s *appService) UpdateItem(ctx context.Context, workspaceID, lineID string, req UpdateItemRequest) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	patch := core.LinePatch{
		Name:            req.Name,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		DiscountPercent: req.DiscountPercent,
		Taxable:         req.Taxable,
	}
	if _, err := ws.session.UpdateLine(lineID, patch); err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// RemoveItem deletes a line item; unknown line ids are a no-op.
func (s *appService) RemoveItem(ctx context.Context, workspaceID, lineID string) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	if err := ws.session.RemoveLine(lineID); err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// DuplicateItem clones a line under a fresh id without merging.
func (s *appService) DuplicateItem(ctx context.Context, workspaceID, lineID string) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	if _, err := ws.session.DuplicateLine(lineID); err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// StageItemInput records in-progress add-form values without committing a line.
func (s *appService) StageItemInput(ctx context.Context, workspaceID string, catalogItemID int, req AddItemRequest) error {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return err
	}
	ws.session.StagePendingInput(catalogItemID, lineInput(req))
	return nil
}

// UpdateHeader applies a partial update to the proposal header. Selecting a
// known client id also fills the client name, email, and company.
func (s *appService) UpdateHeader(ctx context.Context, workspaceID string, req UpdateHeaderRequest) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}

	patch := core.HeaderPatch{
		ClientID:    req.ClientID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		CompanyName: req.CompanyName,
		Title:       req.Title,
		IssueDate:   req.IssueDate,
		ValidUntil:  req.ValidUntil,
		Terms:       req.Terms,
		Notes:       req.Notes,
		TaxRate:     req.TaxRate,
	}
	if req.ClientID != nil {
		client, err := s.clients.GetClient(ctx, *req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", *req.ClientID, err)
		}
		if patch.ClientName == nil {
			patch.ClientName = &client.Name
		}
		if patch.ClientEmail == nil {
			patch.ClientEmail = &client.Email
		}
		if patch.CompanyName == nil {
			patch.CompanyName = &client.Company
		}
	}

	if err := ws.session.UpdateHeader(patch); err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// SaveProposal explicitly snapshots the workspace into the saved collection.
func (s *appService) SaveProposal(ctx context.Context, workspaceID string) (*core.Proposal, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return ws.lifecycle.Save(ctx)
}

// SendProposal emails the proposal to the client and stamps it sent.
func (s *appService) SendProposal(ctx context.Context, workspaceID string) (*core.Proposal, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return ws.lifecycle.Send(ctx)
}

// ConvertProposal performs the one-way conversion to an invoice.
func (s *appService) ConvertProposal(ctx context.Context, workspaceID string) (*core.Proposal, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return ws.lifecycle.Convert(ctx)
}

// PreviewProposal returns the current snapshot for rendering.
func (s *appService) PreviewProposal(ctx context.Context, workspaceID string) (*core.Proposal, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return ws.lifecycle.Preview()
}

// LoadProposal replaces the workspace's live state with a saved snapshot.
func (s *appService) LoadProposal(ctx context.Context, workspaceID string, proposalID int) (*WorkspaceResult, error) {
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	if err := ws.lifecycle.Load(ctx, proposalID); err != nil {
		return nil, err
	}
	return s.result(ws), nil
}

// ListProposals returns saved proposals, optionally filtered by status.
func (s *appService) ListProposals(ctx context.Context, status *string) (*ProposalListResult, error) {
	proposals, err := s.proposals.ListProposals(ctx, status)
	if err != nil {
		return nil, err
	}
	return &ProposalListResult{Proposals: proposals}, nil
}

// GetProposal returns a saved proposal snapshot by ID.
func (s *appService) GetProposal(ctx context.Context, id int) (*core.Proposal, error) {
	return s.proposals.GetSnapshot(ctx, id)
}

// RecentActivity returns the newest audit entries, most recent first.
func (s *appService) RecentActivity(ctx context.Context, limit int) (*ActivityResult, error) {
	if limit <= 0 || limit > core.DefaultActivityRetention {
		limit = 50
	}
	entries, err := s.activity.RecentActivity(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &ActivityResult{Entries: entries}, nil
}

// SuggestContent asks the AI assistant to draft proposal copy.
func (s *appService) SuggestContent(ctx context.Context, workspaceID, brief string) (*ai.ContentSuggestion, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("AI assistant is not configured; set OPENAI_API_KEY")
	}
	ws, err := s.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	suggestion, err := s.agent.SuggestProposalContent(ctx, brief, ws.session.Snapshot())
	if err != nil {
		return nil, err
	}
	ws.log.Record("Drafted proposal content", ws.session.Actor(), suggestion.Title)
	return suggestion, nil
}

// ── private helpers ───────────────────────────────────────────────────────────

// lookup resolves a workspace id and bumps its idle clock.
func (s *appService) lookup(workspaceID string) (*workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, ErrWorkspaceNotFound)
	}
	ws.lastUsed = time.Now()
	return ws, nil
}

// result assembles the observable workspace state.
func (s *appService) result(ws *workspace) *WorkspaceResult {
	return &WorkspaceResult{
		WorkspaceID: ws.id,
		Header:      ws.session.Header(),
		Lines:       ws.session.Lines(),
		Totals:      ws.session.Totals(),
		SaveState:   ws.saver.State(),
		Dirty:       ws.session.Dirty(),
	}
}

// startPurge closes workspaces that have been idle for over an hour so
// abandoned browser tabs do not pin sessions forever.
func (s *appService) startPurge() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-workspaceIdleTimeout)
		var stale []*workspace
		s.mu.Lock()
		for id, ws := range s.workspaces {
			if ws.lastUsed.Before(cutoff) {
				delete(s.workspaces, id)
				stale = append(stale, ws)
			}
		}
		s.mu.Unlock()
		for _, ws := range stale {
			ws.session.Close()
		}
	}
}

// lineInput maps an add-item request onto the builder's input shape,
// applying the quantity-1 / taxable defaults.
func lineInput(req AddItemRequest) core.LineInput {
	in := core.DefaultLineInput()
	if req.Quantity != 0 {
		in.Quantity = req.Quantity
	}
	in.UnitPrice = req.UnitPrice
	in.DiscountPercent = req.DiscountPercent
	if req.Taxable != nil {
		in.Taxable = *req.Taxable
	}
	return in
}
