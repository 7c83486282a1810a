package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"intranet/api/internal/email"
	"intranet/api/internal/hierarchy"
	"intranet/api/internal/search"
	"intranet/api/internal/store"
)

// labelUnassigned fills in name and job title for responsibles that the
// directory no longer knows about (former collaborators, typos).
const labelUnassigned = "não atribuído"

type dataStore interface {
	ListActivities(ctx context.Context, sectorCode string) ([]store.Activity, error)
	GetActivity(ctx context.Context, activityID int64) (store.Activity, error)
	InsertActivity(ctx context.Context, item store.NewActivity) (int64, error)
	UpdateActivity(ctx context.Context, activityID int64, item store.NewActivity) error
	UpdateActivityPosition(ctx context.Context, activityID int64, statusID, position int) error
	DeleteActivity(ctx context.Context, activityID int64) error
	ListResponsibles(ctx context.Context, activityIDs []int64) (map[int64][]store.Responsible, error)
	ListResponsibleEmails(ctx context.Context, activityID int64) ([]string, error)
	ReplaceResponsibles(ctx context.Context, activityID int64, emails []string) error
	HasCapability(ctx context.Context, userEmail, capability string) (bool, error)
	GetSectorByCode(ctx context.Context, code string) (store.Sector, error)
	ListProjects(ctx context.Context) ([]store.Project, error)
	ListSectors(ctx context.Context) ([]store.Sector, error)
	Ping(ctx context.Context) error
}

type directoryResolver interface {
	Lookup(ctx context.Context, userEmail string) (store.Collaborator, error)
	LookupAll(ctx context.Context, emails []string) (map[string]store.Collaborator, error)
}

type notifier interface {
	IsConfigured() bool
	SendAssignedEmail(to string, data email.AssignmentData) error
	SendNewResponsibleEmail(to string, data email.AssignmentData) error
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexActivity(record search.ActivityRecord)
	DeleteActivity(activityID int64)
}

// Service holds the application logic and its dependencies.
type Service struct {
	store     dataStore
	directory directoryResolver
	mail      notifier
	search    searchIndex
}

func New(st dataStore, dir directoryResolver, mail notifier, idx searchIndex) *Service {
	return &Service{store: st, directory: dir, mail: mail, search: idx}
}

// ResponsibleView is one responsible party enriched with directory data.
type ResponsibleView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nome"`
	Role  string `json:"cargo"`
}

// ActivityView is the wire shape of an activity aggregate.
type ActivityView struct {
	ID               int64             `json:"id"`
	Title            string            `json:"titulo"`
	Description      string            `json:"descricao"`
	ProjectID        int64             `json:"projeto_id"`
	ProjectName      string            `json:"projeto_nome"`
	SectorCode       string            `json:"setor_sigla"`
	StatusID         int               `json:"status_id"`
	PriorityID       int               `json:"prioridade_id"`
	EstimateHours    float64           `json:"estimativa_horas"`
	ReleaseID        *int64            `json:"id_release"`
	Position         int               `json:"position"`
	StartDate        string            `json:"data_inicio"`
	EndDate          string            `json:"data_fim"`
	CreatedDate      string            `json:"data_criacao"`
	ResponsibleEmail string            `json:"responsavel_email"`
	Responsibles     []ResponsibleView `json:"responsaveis"`
}

// CollaboratorView is the directory record of one collaborator plus the
// hierarchy level derived from it.
type CollaboratorView struct {
	Email      string `json:"email"`
	Name       string `json:"nome"`
	JobTitle   string `json:"cargo"`
	SectorCode string `json:"setor_sigla"`
	Level      string `json:"nivel"`
}

// CreateActivityInput carries everything needed to create an activity.
type CreateActivityInput struct {
	Title         string
	Description   string
	ProjectID     int64
	StatusID      int
	PriorityID    int
	EstimateHours float64
	ReleaseID     *int64
	StartDate     string
	EndDate       string
	CreatedDate   string
	Responsibles  []string
	UserEmail     string
}

// UpdateActivityInput carries a full edit of an activity.
type UpdateActivityInput struct {
	Title           string
	Description     string
	ProjectID       int64
	PriorityID      int
	EstimateHours   float64
	ReleaseID       *int64
	StartDate       string
	EndDate         string
	Responsibles    []string
	NewResponsibles []string
	UserEmail       string
	EditorName      string
}

func hierarchyRecord(c store.Collaborator) hierarchy.Record {
	return hierarchy.Record{
		JobTitle:   c.JobTitle,
		Department: c.Department,
		Division:   c.Division,
		Advisory:   c.Advisory,
		Section:    c.Section,
	}
}

// resolveUser loads the caller's directory record. An unknown email is a
// 404 for every operation that requires an identity.
func (s *Service) resolveUser(ctx context.Context, userEmail string) (store.Collaborator, error) {
	collaborator, err := s.directory.Lookup(ctx, userEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Collaborator{}, domainError(http.StatusNotFound, "usuário não encontrado")
		}
		return store.Collaborator{}, fmt.Errorf("resolve user %s: %w", userEmail, err)
	}
	return collaborator, nil
}

// ListActivities returns activity aggregates scoped by the caller's place
// in the hierarchy. Admins (presidente, diretoria) and holders of the
// all-sectors capability see every sector, optionally narrowed by
// sectorCode; everyone else is pinned to their own sector regardless of
// the requested one. all=true bypasses identity resolution entirely.
func (s *Service) ListActivities(ctx context.Context, userEmail, sectorCode string, all bool) ([]ActivityView, error) {
	if all {
		return s.buildAggregates(ctx, "")
	}
	if userEmail == "" {
		return nil, domainError(http.StatusBadRequest, "userEmail é obrigatório")
	}

	collaborator, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	record := hierarchyRecord(collaborator)

	filter := sectorCode
	if !hierarchy.IsAdmin(hierarchy.Classify(record)) {
		allSectors, err := s.store.HasCapability(ctx, userEmail, hierarchy.CapabilityAllSectors)
		if err != nil {
			return nil, fmt.Errorf("check capability: %w", err)
		}
		if !allSectors {
			filter = hierarchy.Sector(record)
			// An empty filter means "every sector" to the store. A record
			// with no sector fields scopes to nothing, not to everything.
			if filter == "" {
				return []ActivityView{}, nil
			}
		}
	}
	return s.buildAggregates(ctx, filter)
}

// buildAggregates loads activities for the given sector filter ("" means
// all), attaches their responsibles and enriches each responsible with
// directory data in one batch.
func (s *Service) buildAggregates(ctx context.Context, sectorCode string) ([]ActivityView, error) {
	activities, err := s.store.ListActivities(ctx, sectorCode)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	responsibles, err := s.store.ListResponsibles(ctx, ids)
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0)
	seen := make(map[string]struct{})
	for _, list := range responsibles {
		for _, r := range list {
			if _, dup := seen[r.Email]; dup {
				continue
			}
			seen[r.Email] = struct{}{}
			emails = append(emails, r.Email)
		}
	}
	records, err := s.directory.LookupAll(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("enrich responsibles: %w", err)
	}

	views := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		view := ActivityView{
			ID:            a.ID,
			Title:         a.Title,
			Description:   a.Description,
			ProjectID:     a.ProjectID,
			ProjectName:   a.ProjectName,
			SectorCode:    a.SectorCode,
			StatusID:      a.StatusID,
			PriorityID:    a.PriorityID,
			EstimateHours: a.EstimateHours,
			ReleaseID:     a.ReleaseID,
			Position:      a.Position,
			StartDate:     a.StartDate,
			EndDate:       a.EndDate,
			CreatedDate:   a.CreatedDate,
			Responsibles:  make([]ResponsibleView, 0),
		}
		for _, r := range responsibles[a.ID] {
			rv := ResponsibleView{ID: r.ID, Email: r.Email, Name: labelUnassigned, Role: labelUnassigned}
			if record, ok := records[r.Email]; ok {
				rv.Name = record.Name
				rv.Role = record.JobTitle
			}
			view.Responsibles = append(view.Responsibles, rv)
		}
		if len(view.Responsibles) > 0 {
			view.ResponsibleEmail = view.Responsibles[0].Email
		}
		views = append(views, view)
	}
	return views, nil
}

// canEditActivity enforces the mutation gate: admins and chefes may edit
// anything, everyone else only activities they are responsible for. An
// activity with no responsibles stays editable by chefes and admins only.
func (s *Service) canEditActivity(ctx context.Context, userEmail string, activityID int64) error {
	if userEmail == "" {
		return domainError(http.StatusBadRequest, "userEmail é obrigatório")
	}
	collaborator, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return err
	}
	if hierarchy.IsChefe(hierarchy.Classify(hierarchyRecord(collaborator))) {
		return nil
	}

	emails, err := s.store.ListResponsibleEmails(ctx, activityID)
	if err != nil {
		return fmt.Errorf("load responsibles for %d: %w", activityID, err)
	}
	for _, e := range emails {
		if e == userEmail {
			return nil
		}
	}
	return domainError(http.StatusForbidden, "você não tem permissão para editar esta atividade")
}

func priorityLabel(priorityID int) string {
	switch priorityID {
	case 1:
		return "Baixa"
	case 2:
		return "Média"
	case 3:
		return "Alta"
	case 4:
		return "Urgente"
	}
	return fmt.Sprintf("%d", priorityID)
}

// notifyResponsibles fans notification emails out concurrently, one
// goroutine per recipient, and waits for every send to finish. The actor
// never receives a notification about their own change.
func (s *Service) notifyResponsibles(recipients []string, actorEmail string, data email.AssignmentData, asNewResponsible bool) {
	if !s.mail.IsConfigured() {
		return
	}
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" || recipient == actorEmail {
			continue
		}
		if _, dup := seen[recipient]; dup {
			continue
		}
		seen[recipient] = struct{}{}
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			var err error
			if asNewResponsible {
				err = s.mail.SendNewResponsibleEmail(to, data)
			} else {
				err = s.mail.SendAssignedEmail(to, data)
			}
			if err != nil {
				log.Printf("email: failed to notify %s: %v", to, err)
			}
		}(recipient)
	}
	wg.Wait()
}

func (s *Service) indexActivity(ctx context.Context, activityID int64) {
	activity, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		log.Printf("search: skip indexing activity %d: %v", activityID, err)
		return
	}
	s.search.IndexActivity(search.ActivityRecord{
		ID:          activity.ID,
		Title:       activity.Title,
		Description: activity.Description,
		ProjectName: activity.ProjectName,
		SectorCode:  activity.SectorCode,
		StatusID:    activity.StatusID,
	})
}

func validateCreate(input CreateActivityInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return domainError(http.StatusBadRequest, "titulo é obrigatório")
	case input.StartDate == "":
		return domainError(http.StatusBadRequest, "data_inicio é obrigatória")
	case input.PriorityID == 0:
		return domainError(http.StatusBadRequest, "prioridade é obrigatória")
	case input.ProjectID == 0:
		return domainError(http.StatusBadRequest, "projeto_id é obrigatório")
	case input.UserEmail == "":
		return domainError(http.StatusBadRequest, "userEmail é obrigatório")
	}
	return nil
}

// CreateActivity inserts a new activity at the top of its status column,
// records its responsibles, notifies them and returns the refreshed
// unfiltered aggregate list.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) ([]ActivityView, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if input.StatusID == 0 {
		input.StatusID = 1
	}

	// The creator's own sector becomes the activity's sector. A creator
	// missing from the directory still gets the activity, just without a
	// sector.
	actorName := input.UserEmail
	var sectorID *int64
	if actor, err := s.directory.Lookup(ctx, input.UserEmail); err == nil {
		if actor.Name != "" {
			actorName = actor.Name
		}
		if code := hierarchy.Sector(hierarchyRecord(actor)); code != "" {
			if sector, err := s.store.GetSectorByCode(ctx, code); err == nil {
				sectorID = &sector.ID
			}
		}
	}

	activityID, err := s.store.InsertActivity(ctx, store.NewActivity{
		Title:         input.Title,
		Description:   input.Description,
		ProjectID:     input.ProjectID,
		SectorID:      sectorID,
		StatusID:      input.StatusID,
		PriorityID:    input.PriorityID,
		EstimateHours: input.EstimateHours,
		ReleaseID:     input.ReleaseID,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		CreatedDate:   input.CreatedDate,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceResponsibles(ctx, activityID, input.Responsibles); err != nil {
		return nil, err
	}

	activity, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("reload activity %d: %w", activityID, err)
	}
	s.notifyResponsibles(input.Responsibles, input.UserEmail, email.AssignmentData{
		ActivityTitle:       activity.Title,
		ActivityDescription: activity.Description,
		ProjectName:         activity.ProjectName,
		PriorityLabel:       priorityLabel(activity.PriorityID),
		StartDate:           activity.StartDate,
		ActorName:           actorName,
	}, false)
	s.indexActivity(ctx, activityID)

	return s.buildAggregates(ctx, "")
}

// UpdateActivity applies a full edit after the permission gate, replaces
// the responsible set transactionally and notifies only the responsibles
// the caller flagged as newly added.
func (s *Service) UpdateActivity(ctx context.Context, activityID int64, input UpdateActivityInput) ([]ActivityView, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusBadRequest, "titulo é obrigatório")
	}
	if err := s.canEditActivity(ctx, input.UserEmail, activityID); err != nil {
		return nil, err
	}

	current, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusNotFound, "atividade não encontrada")
		}
		return nil, fmt.Errorf("load activity %d: %w", activityID, err)
	}

	err = s.store.UpdateActivity(ctx, activityID, store.NewActivity{
		Title:         input.Title,
		Description:   input.Description,
		ProjectID:     input.ProjectID,
		SectorID:      current.SectorID,
		PriorityID:    input.PriorityID,
		EstimateHours: input.EstimateHours,
		ReleaseID:     input.ReleaseID,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceResponsibles(ctx, activityID, input.Responsibles); err != nil {
		return nil, err
	}

	if len(input.NewResponsibles) > 0 {
		editorName := input.EditorName
		if editorName == "" {
			editorName = input.UserEmail
			if actor, err := s.directory.Lookup(ctx, input.UserEmail); err == nil && actor.Name != "" {
				editorName = actor.Name
			}
		}
		updated, err := s.store.GetActivity(ctx, activityID)
		if err != nil {
			return nil, fmt.Errorf("reload activity %d: %w", activityID, err)
		}
		s.notifyResponsibles(input.NewResponsibles, input.UserEmail, email.AssignmentData{
			ActivityTitle:       updated.Title,
			ActivityDescription: updated.Description,
			ProjectName:         updated.ProjectName,
			PriorityLabel:       priorityLabel(updated.PriorityID),
			StartDate:           updated.StartDate,
			ActorName:           editorName,
		}, true)
	}
	s.indexActivity(ctx, activityID)

	return s.buildAggregates(ctx, "")
}

// UpdateActivityPosition moves an activity inside the kanban board. Board
// moves carry no identity and are not permission-gated.
func (s *Service) UpdateActivityPosition(ctx context.Context, activityID int64, statusID, position int) ([]ActivityView, error) {
	if err := s.store.UpdateActivityPosition(ctx, activityID, statusID, position); err != nil {
		return nil, err
	}
	s.indexActivity(ctx, activityID)
	return s.buildAggregates(ctx, "")
}

// DeleteActivity removes an activity. Deleting an id that no longer
// exists is not an error.
func (s *Service) DeleteActivity(ctx context.Context, activityID int64) ([]ActivityView, error) {
	if err := s.store.DeleteActivity(ctx, activityID); err != nil {
		return nil, err
	}
	s.search.DeleteActivity(activityID)
	return s.buildAggregates(ctx, "")
}

// ResolveCollaborator returns one collaborator's directory record plus
// the hierarchy level derived from it.
func (s *Service) ResolveCollaborator(ctx context.Context, userEmail string) (CollaboratorView, error) {
	collaborator, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return CollaboratorView{}, err
	}
	record := hierarchyRecord(collaborator)
	return CollaboratorView{
		Email:      collaborator.Email,
		Name:       collaborator.Name,
		JobTitle:   collaborator.JobTitle,
		SectorCode: hierarchy.Sector(record),
		Level:      string(hierarchy.Classify(record)),
	}, nil
}

// SearchActivities runs a full-text search over activities.
func (s *Service) SearchActivities(text, sectorCode string) search.Response {
	return s.search.Search(search.Query{Text: text, SectorCode: sectorCode, Limit: 50})
}

func (s *Service) Projects(ctx context.Context) ([]store.Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *Service) Sectors(ctx context.Context) ([]store.Sector, error) {
	return s.store.ListSectors(ctx)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
