package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"

	"intranet/api/internal/email"
	"intranet/api/internal/search"
	"intranet/api/internal/store"
)

// fakeStore implements dataStore with overridable per-method functions.
type fakeStore struct {
	listActivitiesFn        func(ctx context.Context, sectorCode string) ([]store.Activity, error)
	getActivityFn           func(ctx context.Context, activityID int64) (store.Activity, error)
	insertActivityFn        func(ctx context.Context, item store.NewActivity) (int64, error)
	updateActivityFn        func(ctx context.Context, activityID int64, item store.NewActivity) error
	updatePositionFn        func(ctx context.Context, activityID int64, statusID, position int) error
	deleteActivityFn        func(ctx context.Context, activityID int64) error
	listResponsiblesFn      func(ctx context.Context, activityIDs []int64) (map[int64][]store.Responsible, error)
	listResponsibleEmailsFn func(ctx context.Context, activityID int64) ([]string, error)
	replaceResponsiblesFn   func(ctx context.Context, activityID int64, emails []string) error
	hasCapabilityFn         func(ctx context.Context, userEmail, capability string) (bool, error)
	getSectorByCodeFn       func(ctx context.Context, code string) (store.Sector, error)
	listProjectsFn          func(ctx context.Context) ([]store.Project, error)
	listSectorsFn           func(ctx context.Context) ([]store.Sector, error)
	pingFn                  func(ctx context.Context) error
}

func (f *fakeStore) ListActivities(ctx context.Context, sectorCode string) ([]store.Activity, error) {
	if f.listActivitiesFn != nil {
		return f.listActivitiesFn(ctx, sectorCode)
	}
	return []store.Activity{}, nil
}

func (f *fakeStore) GetActivity(ctx context.Context, activityID int64) (store.Activity, error) {
	if f.getActivityFn != nil {
		return f.getActivityFn(ctx, activityID)
	}
	return store.Activity{}, sql.ErrNoRows
}

func (f *fakeStore) InsertActivity(ctx context.Context, item store.NewActivity) (int64, error) {
	if f.insertActivityFn != nil {
		return f.insertActivityFn(ctx, item)
	}
	return 1, nil
}

func (f *fakeStore) UpdateActivity(ctx context.Context, activityID int64, item store.NewActivity) error {
	if f.updateActivityFn != nil {
		return f.updateActivityFn(ctx, activityID, item)
	}
	return nil
}

func (f *fakeStore) UpdateActivityPosition(ctx context.Context, activityID int64, statusID, position int) error {
	if f.updatePositionFn != nil {
		return f.updatePositionFn(ctx, activityID, statusID, position)
	}
	return nil
}

func (f *fakeStore) DeleteActivity(ctx context.Context, activityID int64) error {
	if f.deleteActivityFn != nil {
		return f.deleteActivityFn(ctx, activityID)
	}
	return nil
}

func (f *fakeStore) ListResponsibles(ctx context.Context, activityIDs []int64) (map[int64][]store.Responsible, error) {
	if f.listResponsiblesFn != nil {
		return f.listResponsiblesFn(ctx, activityIDs)
	}
	return map[int64][]store.Responsible{}, nil
}

func (f *fakeStore) ListResponsibleEmails(ctx context.Context, activityID int64) ([]string, error) {
	if f.listResponsibleEmailsFn != nil {
		return f.listResponsibleEmailsFn(ctx, activityID)
	}
	return nil, nil
}

func (f *fakeStore) ReplaceResponsibles(ctx context.Context, activityID int64, emails []string) error {
	if f.replaceResponsiblesFn != nil {
		return f.replaceResponsiblesFn(ctx, activityID, emails)
	}
	return nil
}

func (f *fakeStore) HasCapability(ctx context.Context, userEmail, capability string) (bool, error) {
	if f.hasCapabilityFn != nil {
		return f.hasCapabilityFn(ctx, userEmail, capability)
	}
	return false, nil
}

func (f *fakeStore) GetSectorByCode(ctx context.Context, code string) (store.Sector, error) {
	if f.getSectorByCodeFn != nil {
		return f.getSectorByCodeFn(ctx, code)
	}
	return store.Sector{}, sql.ErrNoRows
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	if f.listProjectsFn != nil {
		return f.listProjectsFn(ctx)
	}
	return []store.Project{}, nil
}

func (f *fakeStore) ListSectors(ctx context.Context) ([]store.Sector, error) {
	if f.listSectorsFn != nil {
		return f.listSectorsFn(ctx)
	}
	return []store.Sector{}, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

// fakeDirectory resolves collaborators from an in-memory map.
type fakeDirectory struct {
	records map[string]store.Collaborator
	lookups int
}

func (f *fakeDirectory) Lookup(ctx context.Context, userEmail string) (store.Collaborator, error) {
	f.lookups++
	record, ok := f.records[userEmail]
	if !ok {
		return store.Collaborator{}, sql.ErrNoRows
	}
	return record, nil
}

func (f *fakeDirectory) LookupAll(ctx context.Context, emails []string) (map[string]store.Collaborator, error) {
	found := make(map[string]store.Collaborator)
	for _, e := range emails {
		if record, ok := f.records[e]; ok {
			found[e] = record
		}
	}
	return found, nil
}

// fakeNotifier records every send; safe for concurrent use.
type fakeNotifier struct {
	mu         sync.Mutex
	configured bool
	assigned   []string
	added      []string
}

func (f *fakeNotifier) IsConfigured() bool { return f.configured }

func (f *fakeNotifier) SendAssignedEmail(to string, data email.AssignmentData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = append(f.assigned, to)
	return nil
}

func (f *fakeNotifier) SendNewResponsibleEmail(to string, data email.AssignmentData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, to)
	return nil
}

// fakeSearch records index and delete calls.
type fakeSearch struct {
	mu       sync.Mutex
	indexed  []int64
	deleted  []int64
	response search.Response
}

func (f *fakeSearch) Search(q search.Query) search.Response { return f.response }

func (f *fakeSearch) IndexActivity(record search.ActivityRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, record.ID)
}

func (f *fakeSearch) DeleteActivity(activityID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, activityID)
}

func collaborator(email, name, jobTitle, department string) store.Collaborator {
	return store.Collaborator{Email: email, Name: name, JobTitle: jobTitle, Department: department}
}

func newTestService(fs *fakeStore, dir *fakeDirectory, mail *fakeNotifier, idx *fakeSearch) *Service {
	if fs == nil {
		fs = &fakeStore{}
	}
	if dir == nil {
		dir = &fakeDirectory{records: map[string]store.Collaborator{}}
	}
	if mail == nil {
		mail = &fakeNotifier{}
	}
	if idx == nil {
		idx = &fakeSearch{}
	}
	return New(fs, dir, mail, idx)
}

func TestListActivities_SectorScoping(t *testing.T) {
	tests := []struct {
		name       string
		caller     store.Collaborator
		capability bool
		requested  string
		wantFilter string
	}{
		{
			name:       "colaborador pinned to own sector",
			caller:     collaborator("ana@x.com", "Ana", "Analista de Sistemas", "TI"),
			requested:  "RH",
			wantFilter: "TI",
		},
		{
			name:       "chefe pinned to own sector",
			caller:     collaborator("caio@x.com", "Caio", "Chefe de Divisão", "TI"),
			requested:  "RH",
			wantFilter: "TI",
		},
		{
			name:       "diretor sees requested sector",
			caller:     collaborator("dir@x.com", "Dora", "Diretora Administrativa", "DIRAD"),
			requested:  "RH",
			wantFilter: "RH",
		},
		{
			name:       "presidente with no filter sees everything",
			caller:     collaborator("pres@x.com", "Pedro", "Presidente", "PRES"),
			requested:  "",
			wantFilter: "",
		},
		{
			name:       "colaborador with all-sectors grant sees requested sector",
			caller:     collaborator("ana@x.com", "Ana", "Analista de Sistemas", "TI"),
			capability: true,
			requested:  "RH",
			wantFilter: "RH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter string
			fs := &fakeStore{
				listActivitiesFn: func(ctx context.Context, sectorCode string) ([]store.Activity, error) {
					gotFilter = sectorCode
					return []store.Activity{}, nil
				},
				hasCapabilityFn: func(ctx context.Context, userEmail, capability string) (bool, error) {
					return tt.capability, nil
				},
			}
			dir := &fakeDirectory{records: map[string]store.Collaborator{tt.caller.Email: tt.caller}}
			svc := newTestService(fs, dir, nil, nil)

			if _, err := svc.ListActivities(context.Background(), tt.caller.Email, tt.requested, false); err != nil {
				t.Fatalf("ListActivities() error = %v", err)
			}
			if gotFilter != tt.wantFilter {
				t.Errorf("sector filter = %q, want %q", gotFilter, tt.wantFilter)
			}
		})
	}
}

func TestListActivities_NonAdminWithoutSectorSeesNothing(t *testing.T) {
	fs := &fakeStore{
		listActivitiesFn: func(ctx context.Context, sectorCode string) ([]store.Activity, error) {
			t.Errorf("store queried with filter %q; a sector-less caller must not reach it", sectorCode)
			return []store.Activity{
				{ID: 1, SectorCode: "RH"},
				{ID: 2, SectorCode: "TI"},
			}, nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{
		"nosector@x.com": collaborator("nosector@x.com", "Nina", "Analista", ""),
	}}
	svc := newTestService(fs, dir, nil, nil)

	views, err := svc.ListActivities(context.Background(), "nosector@x.com", "RH", false)
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if len(views) != 0 {
		t.Errorf("sector-less caller saw %d activities, want 0", len(views))
	}
	if views == nil {
		t.Error("expected an empty list, not null")
	}
}

func TestListActivities_AllBypassesIdentity(t *testing.T) {
	var gotFilter string
	fs := &fakeStore{
		listActivitiesFn: func(ctx context.Context, sectorCode string) ([]store.Activity, error) {
			gotFilter = sectorCode
			return []store.Activity{}, nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{}}
	svc := newTestService(fs, dir, nil, nil)

	if _, err := svc.ListActivities(context.Background(), "", "RH", true); err != nil {
		t.Fatalf("ListActivities(all) error = %v", err)
	}
	if gotFilter != "" {
		t.Errorf("sector filter = %q, want unfiltered", gotFilter)
	}
	if dir.lookups != 0 {
		t.Errorf("directory lookups = %d, want 0", dir.lookups)
	}
}

func TestListActivities_UnknownUser(t *testing.T) {
	svc := newTestService(nil, &fakeDirectory{records: map[string]store.Collaborator{}}, nil, nil)

	_, err := svc.ListActivities(context.Background(), "ghost@x.com", "", false)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 domain error, got %v", err)
	}
}

func TestBuildAggregates_EnrichesResponsibles(t *testing.T) {
	fs := &fakeStore{
		listActivitiesFn: func(ctx context.Context, sectorCode string) ([]store.Activity, error) {
			return []store.Activity{{ID: 7, Title: "Migrar servidor", SectorCode: "TI"}}, nil
		},
		listResponsiblesFn: func(ctx context.Context, activityIDs []int64) (map[int64][]store.Responsible, error) {
			return map[int64][]store.Responsible{
				7: {
					{ID: 1, Email: "ana@x.com"},
					{ID: 2, Email: "saiu@x.com"},
				},
			}, nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{
		"ana@x.com": collaborator("ana@x.com", "Ana Souza", "Analista de Sistemas", "TI"),
	}}
	svc := newTestService(fs, dir, nil, nil)

	views, err := svc.buildAggregates(context.Background(), "")
	if err != nil {
		t.Fatalf("buildAggregates() error = %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d activities, want 1", len(views))
	}
	view := views[0]
	if len(view.Responsibles) != 2 {
		t.Fatalf("got %d responsibles, want 2", len(view.Responsibles))
	}
	if view.Responsibles[0].Name != "Ana Souza" || view.Responsibles[0].Role != "Analista de Sistemas" {
		t.Errorf("known responsible not enriched: %+v", view.Responsibles[0])
	}
	if view.Responsibles[1].Name != labelUnassigned || view.Responsibles[1].Role != labelUnassigned {
		t.Errorf("unknown responsible should get %q, got %+v", labelUnassigned, view.Responsibles[1])
	}
	if view.ResponsibleEmail != "ana@x.com" {
		t.Errorf("responsavel_email = %q, want first responsible", view.ResponsibleEmail)
	}
}

func TestCanEditActivity(t *testing.T) {
	directory := map[string]store.Collaborator{
		"pres@x.com":    collaborator("pres@x.com", "Pedro", "Presidente", "PRES"),
		"dir@x.com":     collaborator("dir@x.com", "Dora", "Diretora Financeira", "DIRAF"),
		"chefeti@x.com": collaborator("chefeti@x.com", "Caio", "Chefe de Divisão", "TI"),
		"chefrh@x.com":  collaborator("chefrh@x.com", "Rita", "Chefe de Seção", "RH"),
		"ana@x.com":     collaborator("ana@x.com", "Ana", "Analista", "TI"),
		"beto@x.com":    collaborator("beto@x.com", "Beto", "Assistente", "TI"),
	}

	tests := []struct {
		name       string
		caller     string
		wantStatus int // 0 means allowed
	}{
		{name: "presidente edits anything", caller: "pres@x.com"},
		{name: "diretor edits anything", caller: "dir@x.com"},
		{name: "chefe edits anything", caller: "chefeti@x.com"},
		{name: "chefe of another sector also allowed", caller: "chefrh@x.com"},
		{name: "responsible colaborador allowed", caller: "ana@x.com"},
		{name: "unrelated colaborador denied", caller: "beto@x.com", wantStatus: http.StatusForbidden},
		{name: "unknown user gets 404", caller: "ghost@x.com", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{
				listResponsibleEmailsFn: func(ctx context.Context, activityID int64) ([]string, error) {
					return []string{"ana@x.com"}, nil
				},
			}
			svc := newTestService(fs, &fakeDirectory{records: directory}, nil, nil)

			err := svc.canEditActivity(context.Background(), tt.caller, 3)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("expected edit allowed, got %v", err)
				}
				return
			}
			var domainErr *DomainError
			if !errors.As(err, &domainErr) || domainErr.Status != tt.wantStatus {
				t.Fatalf("expected status %d, got %v", tt.wantStatus, err)
			}
		})
	}
}

func TestCanEditActivity_NoResponsibles(t *testing.T) {
	fs := &fakeStore{
		getActivityFn: func(ctx context.Context, activityID int64) (store.Activity, error) {
			return store.Activity{ID: 9, SectorCode: "TI"}, nil
		},
		listResponsibleEmailsFn: func(ctx context.Context, activityID int64) ([]string, error) {
			return nil, nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{
		"ana@x.com": collaborator("ana@x.com", "Ana", "Analista", "TI"),
	}}
	svc := newTestService(fs, dir, nil, nil)

	err := svc.canEditActivity(context.Background(), "ana@x.com", 9)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusForbidden {
		t.Fatalf("orphan activity must stay non-admin-editable, got %v", err)
	}
}

func TestNotifyResponsibles_ExcludesActorAndDedups(t *testing.T) {
	mail := &fakeNotifier{configured: true}
	svc := newTestService(nil, nil, mail, nil)

	svc.notifyResponsibles(
		[]string{"ana@x.com", "beto@x.com", "beto@x.com", "", "ana@x.com"},
		"ana@x.com",
		email.AssignmentData{ActivityTitle: "Planejar sprint"},
		false,
	)

	sort.Strings(mail.assigned)
	if len(mail.assigned) != 1 || mail.assigned[0] != "beto@x.com" {
		t.Errorf("assigned notifications = %v, want exactly [beto@x.com]", mail.assigned)
	}
	if len(mail.added) != 0 {
		t.Errorf("unexpected new-responsible notifications: %v", mail.added)
	}
}

func TestNotifyResponsibles_SkipsWhenNotConfigured(t *testing.T) {
	mail := &fakeNotifier{configured: false}
	svc := newTestService(nil, nil, mail, nil)

	svc.notifyResponsibles([]string{"beto@x.com"}, "ana@x.com", email.AssignmentData{}, false)

	if len(mail.assigned) != 0 {
		t.Errorf("expected no sends without SMTP config, got %v", mail.assigned)
	}
}

func TestCreateActivity_Validation(t *testing.T) {
	base := CreateActivityInput{
		Title:      "Planejar sprint",
		StartDate:  "2026-09-01",
		PriorityID: 2,
		ProjectID:  1,
		UserEmail:  "ana@x.com",
	}

	tests := []struct {
		name   string
		mutate func(in *CreateActivityInput)
	}{
		{name: "missing titulo", mutate: func(in *CreateActivityInput) { in.Title = "  " }},
		{name: "missing data_inicio", mutate: func(in *CreateActivityInput) { in.StartDate = "" }},
		{name: "missing prioridade", mutate: func(in *CreateActivityInput) { in.PriorityID = 0 }},
		{name: "missing projeto", mutate: func(in *CreateActivityInput) { in.ProjectID = 0 }},
		{name: "missing userEmail", mutate: func(in *CreateActivityInput) { in.UserEmail = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, nil, nil, nil)
			input := base
			tt.mutate(&input)

			_, err := svc.CreateActivity(context.Background(), input)
			var domainErr *DomainError
			if !errors.As(err, &domainErr) || domainErr.Status != http.StatusBadRequest {
				t.Fatalf("expected 400 domain error, got %v", err)
			}
		})
	}
}

func TestCreateActivity_DerivesSectorAndIndexes(t *testing.T) {
	var inserted store.NewActivity
	var replaced []string
	fs := &fakeStore{
		insertActivityFn: func(ctx context.Context, item store.NewActivity) (int64, error) {
			inserted = item
			return 42, nil
		},
		replaceResponsiblesFn: func(ctx context.Context, activityID int64, emails []string) error {
			replaced = emails
			return nil
		},
		getActivityFn: func(ctx context.Context, activityID int64) (store.Activity, error) {
			return store.Activity{ID: 42, Title: "Planejar sprint", SectorCode: "TI", PriorityID: 2}, nil
		},
		getSectorByCodeFn: func(ctx context.Context, code string) (store.Sector, error) {
			if code != "TI" {
				t.Errorf("sector lookup for %q, want TI", code)
			}
			return store.Sector{ID: 5, Code: "TI"}, nil
		},
		listActivitiesFn: func(ctx context.Context, sectorCode string) ([]store.Activity, error) {
			return []store.Activity{{ID: 42, Title: "Planejar sprint"}}, nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{
		"ana@x.com": collaborator("ana@x.com", "Ana", "Analista", "TI"),
	}}
	idx := &fakeSearch{}
	svc := newTestService(fs, dir, nil, idx)

	views, err := svc.CreateActivity(context.Background(), CreateActivityInput{
		Title:        "Planejar sprint",
		StartDate:    "2026-09-01",
		PriorityID:   2,
		ProjectID:    1,
		UserEmail:    "ana@x.com",
		Responsibles: []string{"beto@x.com"},
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}
	if inserted.SectorID == nil || *inserted.SectorID != 5 {
		t.Errorf("inserted sector id = %v, want 5", inserted.SectorID)
	}
	if inserted.StatusID != 1 {
		t.Errorf("default status id = %d, want 1", inserted.StatusID)
	}
	if len(replaced) != 1 || replaced[0] != "beto@x.com" {
		t.Errorf("responsibles replaced with %v", replaced)
	}
	if len(idx.indexed) != 1 || idx.indexed[0] != 42 {
		t.Errorf("indexed ids = %v, want [42]", idx.indexed)
	}
	if len(views) != 1 {
		t.Errorf("returned %d activities, want refreshed list of 1", len(views))
	}
}

func TestUpdateActivity_NotifiesOnlyNewResponsibles(t *testing.T) {
	fs := &fakeStore{
		getActivityFn: func(ctx context.Context, activityID int64) (store.Activity, error) {
			return store.Activity{ID: 3, Title: "Revisar contrato", SectorCode: "TI", PriorityID: 3}, nil
		},
		listResponsibleEmailsFn: func(ctx context.Context, activityID int64) ([]string, error) {
			return []string{"ana@x.com"}, nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{
		"ana@x.com": collaborator("ana@x.com", "Ana", "Analista", "TI"),
	}}
	mail := &fakeNotifier{configured: true}
	svc := newTestService(fs, dir, mail, nil)

	_, err := svc.UpdateActivity(context.Background(), 3, UpdateActivityInput{
		Title:           "Revisar contrato",
		ProjectID:       1,
		PriorityID:      3,
		UserEmail:       "ana@x.com",
		Responsibles:    []string{"ana@x.com", "beto@x.com", "carla@x.com"},
		NewResponsibles: []string{"beto@x.com", "carla@x.com", "ana@x.com"},
	})
	if err != nil {
		t.Fatalf("UpdateActivity() error = %v", err)
	}

	sort.Strings(mail.added)
	want := []string{"beto@x.com", "carla@x.com"}
	if len(mail.added) != len(want) {
		t.Fatalf("new-responsible notifications = %v, want %v", mail.added, want)
	}
	for i := range want {
		if mail.added[i] != want[i] {
			t.Fatalf("new-responsible notifications = %v, want %v", mail.added, want)
		}
	}
	if len(mail.assigned) != 0 {
		t.Errorf("unexpected assignment notifications: %v", mail.assigned)
	}
}

func TestUpdateActivityPosition_SkipsGate(t *testing.T) {
	var gotStatus, gotPosition int
	fs := &fakeStore{
		updatePositionFn: func(ctx context.Context, activityID int64, statusID, position int) error {
			gotStatus, gotPosition = statusID, position
			return nil
		},
		getActivityFn: func(ctx context.Context, activityID int64) (store.Activity, error) {
			return store.Activity{ID: 3, StatusID: 2}, nil
		},
		replaceResponsiblesFn: func(ctx context.Context, activityID int64, emails []string) error {
			t.Error("board move must not touch responsibles")
			return nil
		},
	}
	dir := &fakeDirectory{records: map[string]store.Collaborator{}}
	svc := newTestService(fs, dir, nil, nil)

	if _, err := svc.UpdateActivityPosition(context.Background(), 3, 2, 4); err != nil {
		t.Fatalf("UpdateActivityPosition() error = %v", err)
	}
	if gotStatus != 2 || gotPosition != 4 {
		t.Errorf("stored status/position = %d/%d, want 2/4", gotStatus, gotPosition)
	}
	if dir.lookups != 0 {
		t.Errorf("board move resolved identity %d times, want 0", dir.lookups)
	}
}

func TestDeleteActivity_RemovesFromIndex(t *testing.T) {
	deleted := false
	fs := &fakeStore{
		deleteActivityFn: func(ctx context.Context, activityID int64) error {
			deleted = true
			return nil
		},
	}
	idx := &fakeSearch{}
	svc := newTestService(fs, nil, nil, idx)

	if _, err := svc.DeleteActivity(context.Background(), 99); err != nil {
		t.Fatalf("DeleteActivity() error = %v", err)
	}
	if !deleted {
		t.Error("store delete never called")
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != 99 {
		t.Errorf("search deletions = %v, want [99]", idx.deleted)
	}
}

func TestResolveCollaborator(t *testing.T) {
	dir := &fakeDirectory{records: map[string]store.Collaborator{
		"caio@x.com": collaborator("caio@x.com", "Caio Lima", "Chefe de Divisão", "TI"),
	}}
	svc := newTestService(nil, dir, nil, nil)

	view, err := svc.ResolveCollaborator(context.Background(), "caio@x.com")
	if err != nil {
		t.Fatalf("ResolveCollaborator() error = %v", err)
	}
	if view.Level != "chefe" {
		t.Errorf("level = %q, want chefe", view.Level)
	}
	if view.SectorCode != "TI" {
		t.Errorf("sector = %q, want TI", view.SectorCode)
	}

	if _, err := svc.ResolveCollaborator(context.Background(), "ghost@x.com"); err == nil {
		t.Error("expected error for unknown collaborator")
	}
}
