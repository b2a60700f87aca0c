package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

type mockProjectRepo struct {
	roleTypes map[string]domain.RoleType
	projects  map[string]domain.Project
	active    int
	created   []repository.CreateProjectParams
	discord   map[string]repository.DiscordLinks
	createErr error
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{
		roleTypes: map[string]domain.RoleType{
			"rt-owner": {ID: "rt-owner", Name: domain.OwnerRoleTypeName},
			"rt-dev":   {ID: "rt-dev", Name: "Developer"},
			"rt-qa":    {ID: "rt-qa", Name: "QA"},
		},
		projects: map[string]domain.Project{},
		discord:  map[string]repository.DiscordLinks{},
	}
}

func (m *mockProjectRepo) ListCategories(context.Context) ([]domain.ProjectCategory, error) {
	return []domain.ProjectCategory{{ID: "c-1", Name: "Web"}}, nil
}

func (m *mockProjectRepo) ListRoleTypes(context.Context) ([]domain.RoleType, error) {
	var out []domain.RoleType
	for _, rt := range m.roleTypes {
		if rt.Name != domain.OwnerRoleTypeName {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (m *mockProjectRepo) GetRoleType(_ context.Context, id string) (domain.RoleType, error) {
	rt, ok := m.roleTypes[id]
	if !ok {
		return domain.RoleType{}, repository.ErrNotFound
	}
	return rt, nil
}

func (m *mockProjectRepo) List(context.Context, domain.ProjectFilter) ([]domain.Project, int, error) {
	var out []domain.Project
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockProjectRepo) ListByMember(_ context.Context, userID string) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range m.projects {
		if p.OwnerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectRepo) CountActiveMemberships(context.Context, string) (int, error) {
	return m.active, nil
}

func (m *mockProjectRepo) Create(_ context.Context, params repository.CreateProjectParams) (domain.Project, error) {
	if m.createErr != nil {
		return domain.Project{}, m.createErr
	}
	m.created = append(m.created, params)
	p := params.Project
	p.ParticipantsCount = 1
	m.projects[p.ID] = p
	return p, nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return domain.Project{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectRepo) Update(_ context.Context, id string, patch repository.ProjectPatch) (domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return domain.Project{}, repository.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	m.projects[id] = p
	return p, nil
}

func (m *mockProjectRepo) UpdateStatus(_ context.Context, id, status string) error {
	p, ok := m.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	m.projects[id] = p
	return nil
}

func (m *mockProjectRepo) UpdateLogo(_ context.Context, id, logoURL string) error {
	p, ok := m.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.LogoURL = logoURL
	m.projects[id] = p
	return nil
}

func (m *mockProjectRepo) UpdateDiscord(_ context.Context, id string, links repository.DiscordLinks) error {
	p, ok := m.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.discord[id] = links
	p.DiscordChannelID = links.ChannelID
	p.DiscordAdminRoleID = links.AdminRoleID
	p.DiscordMemberRoleID = links.MemberRoleID
	m.projects[id] = p
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

type mockLogoStorage struct {
	uploads []string
	deleted []string
	err     error
}

func (m *mockLogoStorage) UploadLogo(_ context.Context, projectID, filename, _ string, _ int64, body io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	m.uploads = append(m.uploads, projectID)
	return "https://cdn.test/" + projectID + "/" + filename, nil
}

func (m *mockLogoStorage) DeleteLogos(_ context.Context, projectID string) error {
	m.deleted = append(m.deleted, projectID)
	return nil
}

type mockChannels struct {
	err     error
	created int
	deleted []repository.DiscordLinks
}

func (m *mockChannels) CreateProjectChannel(context.Context, string) (repository.DiscordLinks, error) {
	if m.err != nil {
		return repository.DiscordLinks{}, m.err
	}
	m.created++
	return repository.DiscordLinks{ChannelID: "ch-1", AdminRoleID: "ra-1", MemberRoleID: "rm-1"}, nil
}

func (m *mockChannels) DeleteProjectChannel(_ context.Context, links repository.DiscordLinks) error {
	m.deleted = append(m.deleted, links)
	return nil
}

func pngLogo() *LogoFile {
	data := []byte("\x89PNG fake")
	return &LogoFile{Filename: "logo.png", ContentType: "image/png", Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func validProjectInput() CreateProjectInput {
	return CreateProjectInput{
		Name:        "Collab",
		Description: "A shared workspace",
		CategoryID:  "c-1",
		Roles:       []repository.RoleSlot{{RoleTypeID: "rt-dev", Slots: 2}},
	}
}

func TestProjectService_CreateValidation(t *testing.T) {
	svc := NewProjectService(zap.NewNop(), newMockProjectRepo(), nil, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateProjectInput)
		want   error
	}{
		{"short name", func(in *CreateProjectInput) { in.Name = "x" }, ErrInvalidProjectName},
		{"empty description", func(in *CreateProjectInput) { in.Description = " " }, ErrInvalidDescription},
		{"missing category", func(in *CreateProjectInput) { in.CategoryID = "" }, ErrCategoryNotFound},
		{"zero slots", func(in *CreateProjectInput) { in.Roles[0].Slots = 0 }, ErrInvalidRoleSlots},
		{"duplicate role type", func(in *CreateProjectInput) {
			in.Roles = append(in.Roles, repository.RoleSlot{RoleTypeID: "rt-dev", Slots: 1})
		}, ErrDuplicateRoleType},
		{"owner role requested", func(in *CreateProjectInput) { in.Roles[0].RoleTypeID = "rt-owner" }, ErrOwnerRoleRequested},
		{"unknown role type", func(in *CreateProjectInput) { in.Roles[0].RoleTypeID = "rt-missing" }, ErrRoleTypeNotFound},
		{"bad logo type", func(in *CreateProjectInput) {
			logo := pngLogo()
			logo.ContentType = "application/pdf"
			in.Logo = logo
		}, ErrInvalidLogo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validProjectInput()
			tc.mutate(&in)
			if _, err := svc.Create(ctx, "owner", in); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestProjectService_CreateEnforcesActiveLimit(t *testing.T) {
	repo := newMockProjectRepo()
	repo.active = maxActiveProjects
	svc := NewProjectService(zap.NewNop(), repo, nil, nil)

	if _, err := svc.Create(context.Background(), "owner", validProjectInput()); !errors.Is(err, ErrProjectLimit) {
		t.Fatalf("expected project limit, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("project should not be persisted")
	}
}

func TestProjectService_CreateWithBoardAndChannel(t *testing.T) {
	repo := newMockProjectRepo()
	logos := &mockLogoStorage{}
	channels := &mockChannels{}
	svc := NewProjectService(zap.NewNop(), repo, logos, channels)

	in := validProjectInput()
	in.Logo = pngLogo()
	p, err := svc.Create(context.Background(), "owner", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.ProjectStatusActive || p.OwnerID != "owner" {
		t.Fatalf("unexpected project: %+v", p)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.created))
	}
	params := repo.created[0]
	if params.BoardName != "Collab" || len(params.Columns) != len(domain.DefaultBoardColumns) {
		t.Fatalf("unexpected default board: %q %v", params.BoardName, params.Columns)
	}
	if p.LogoURL == "" || len(logos.uploads) != 1 {
		t.Fatalf("expected logo upload, got %q", p.LogoURL)
	}
	if p.DiscordChannelID != "ch-1" || repo.discord[p.ID].MemberRoleID != "rm-1" {
		t.Fatalf("expected discord links stored, got %+v", repo.discord[p.ID])
	}
}

func TestProjectService_CreateSurvivesChannelFailure(t *testing.T) {
	repo := newMockProjectRepo()
	svc := NewProjectService(zap.NewNop(), repo, nil, &mockChannels{err: errors.New("discord down")})

	p, err := svc.Create(context.Background(), "owner", validProjectInput())
	if err != nil {
		t.Fatalf("create should not fail on discord errors: %v", err)
	}
	if p.DiscordChannelID != "" {
		t.Fatalf("expected no channel, got %q", p.DiscordChannelID)
	}
}

func TestProjectService_LogoFailures(t *testing.T) {
	ctx := context.Background()

	in := validProjectInput()
	in.Logo = pngLogo()
	svc := NewProjectService(zap.NewNop(), newMockProjectRepo(), nil, nil)
	if _, err := svc.Create(ctx, "owner", in); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable without storage, got %v", err)
	}

	in.Logo = pngLogo()
	svc = NewProjectService(zap.NewNop(), newMockProjectRepo(), &mockLogoStorage{err: errors.New("s3 down")}, nil)
	if _, err := svc.Create(ctx, "owner", in); !errors.Is(err, ErrLogoUpload) {
		t.Fatalf("expected logo upload error, got %v", err)
	}

	repo := newMockProjectRepo()
	repo.createErr = repository.ErrForeignKey
	logos := &mockLogoStorage{}
	in.Logo = pngLogo()
	svc = NewProjectService(zap.NewNop(), repo, logos, nil)
	if _, err := svc.Create(ctx, "owner", in); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}
	if len(logos.deleted) != 1 {
		t.Fatalf("expected orphan logo cleanup, got %v", logos.deleted)
	}
}

func TestProjectService_UpdateAndDelete(t *testing.T) {
	repo := newMockProjectRepo()
	channels := &mockChannels{}
	svc := NewProjectService(zap.NewNop(), repo, &mockLogoStorage{}, channels)
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner", validProjectInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, p.ID, "archived"); !errors.Is(err, ErrInvalidProjectStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, p.ID, " DONE ")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.ProjectStatusDone {
		t.Fatalf("status = %q", updated.Status)
	}

	name := "Renamed"
	if _, err := svc.Update(ctx, "missing", UpdateProjectInput{Name: &name}); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	renamed, err := svc.Update(ctx, p.ID, UpdateProjectInput{Name: &name})
	if err != nil || renamed.Name != name {
		t.Fatalf("rename: %v %q", err, renamed.Name)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(channels.deleted) != 1 || channels.deleted[0].ChannelID != "ch-1" {
		t.Fatalf("expected discord cleanup, got %+v", channels.deleted)
	}
	if err := svc.Delete(ctx, p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestProjectService_ListRejectsInvertedRange(t *testing.T) {
	svc := NewProjectService(zap.NewNop(), newMockProjectRepo(), nil, nil)
	lo, hi := 5, 2
	_, _, err := svc.List(context.Background(), domain.ProjectFilter{MinParticipants: &lo, MaxParticipants: &hi})
	if !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestProjectRoleService(t *testing.T) {
	projects := newMockProjectRepo()
	projects.projects["p-1"] = domain.Project{ID: "p-1", OwnerID: "owner"}
	ownerRole := domain.ProjectRole{
		ID:        "r-owner",
		ProjectID: "p-1",
		RoleType:  domain.RoleType{ID: "rt-owner", Name: domain.OwnerRoleTypeName},
		Slots:     1,
	}
	roles := newMockRoleRepo(ownerRole)
	svc := NewProjectRoleService(zap.NewNop(), roles, projects)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "p-1", "rt-dev", 0); !errors.Is(err, ErrInvalidSlots) {
		t.Fatalf("expected invalid slots, got %v", err)
	}
	if _, err := svc.Create(ctx, "missing", "rt-dev", 1); !errors.Is(err, ErrProjectOrRoleMissing) {
		t.Fatalf("expected missing project, got %v", err)
	}
	if _, err := svc.Create(ctx, "p-1", "rt-owner", 1); !errors.Is(err, ErrOwnerRoleImmutable) {
		t.Fatalf("expected owner role rejection, got %v", err)
	}
	role, err := svc.Create(ctx, "p-1", "rt-dev", 3)
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := svc.Create(ctx, "p-1", "rt-dev", 1); !errors.Is(err, ErrRoleExists) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := svc.Delete(ctx, ownerRole.ID); !errors.Is(err, ErrOwnerRoleImmutable) {
		t.Fatalf("expected owner role to be immutable, got %v", err)
	}
	if err := svc.Delete(ctx, role.ID); err != nil {
		t.Fatalf("delete role: %v", err)
	}
	if err := svc.Delete(ctx, role.ID); !errors.Is(err, ErrProjectRoleNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type mockDocumentRepo struct {
	docs map[string]domain.Document
}

func (m *mockDocumentRepo) Create(_ context.Context, doc domain.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) Update(_ context.Context, id, name, url string) (domain.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return domain.Document{}, repository.ErrNotFound
	}
	d.Name, d.URL = name, url
	m.docs[id] = d
	return d, nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, projectID, id string) error {
	d, ok := m.docs[id]
	if !ok || d.ProjectID != projectID {
		return repository.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockDocumentRepo) ListByProject(_ context.Context, projectID string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range m.docs {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestDocumentService(t *testing.T) {
	svc := NewDocumentService(&mockDocumentRepo{docs: map[string]domain.Document{}})
	ctx := context.Background()

	if _, err := svc.Create(ctx, "p-1", "Roadmap", "ftp://files"); !errors.Is(err, ErrInvalidDocumentURL) {
		t.Fatalf("expected invalid url, got %v", err)
	}
	if _, err := svc.Create(ctx, "p-1", "x", "https://docs.test"); !errors.Is(err, ErrInvalidDocName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	doc, err := svc.Create(ctx, "p-1", " Roadmap ", "https://docs.test/roadmap")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Name != "Roadmap" {
		t.Fatalf("name not trimmed: %q", doc.Name)
	}
	if _, err := svc.Update(ctx, "missing", "Roadmap", "https://docs.test"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, "p-2", doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected scoped delete to miss, got %v", err)
	}
	if err := svc.Delete(ctx, "p-1", doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	docs, _ := svc.List(ctx, "p-1")
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}
