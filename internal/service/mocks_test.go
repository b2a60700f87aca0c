package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"collabhub/internal/domain"
	"collabhub/internal/events"
	"collabhub/internal/repository"
)

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepo) UpsertGoogle(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == user.Email {
			u.GoogleID = user.GoogleID
			u.IsVerified = true
			m.users[id] = u
			return u, nil
		}
	}
	user.IsVerified = true
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id string, patch repository.UserPatch) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.DiscordID != nil {
		u.DiscordID = *patch.DiscordID
	}
	m.users[id] = u
	return u, nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if filter.Query == "" || strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName), strings.ToLower(filter.Query)) {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) setVerified(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.IsVerified = true
	m.users[id] = u
}

type mockAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]domain.LoginAttempt
}

func newMockAttemptRepo() *mockAttemptRepo {
	return &mockAttemptRepo{attempts: make(map[string]domain.LoginAttempt)}
}

func (m *mockAttemptRepo) Get(_ context.Context, userID string) (domain.LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[userID]
	if !ok {
		return domain.LoginAttempt{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *mockAttemptRepo) RecordFailure(_ context.Context, userID string, now time.Time, policy repository.LockoutPolicy) (domain.LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.attempts[userID]
	a.UserID = userID
	a.Attempts++
	a.UpdatedAt = now
	if policy != nil && !a.Blocked(now) {
		if d := policy(a.Attempts); d > 0 {
			until := now.Add(d)
			a.BlockedUntil = &until
		}
	}
	m.attempts[userID] = a
	return a, nil
}

func (m *mockAttemptRepo) Reset(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, userID)
	return nil
}

type mockVerificationRepo struct {
	mu       sync.Mutex
	users    *mockUserRepo
	codes    map[string]domain.VerificationCode
	entries  map[string]int
	blocked  map[string]bool
	resets   map[string]domain.PasswordResetToken
	requests map[string]int
}

func newMockVerificationRepo(users *mockUserRepo) *mockVerificationRepo {
	return &mockVerificationRepo{
		users:    users,
		codes:    make(map[string]domain.VerificationCode),
		entries:  make(map[string]int),
		blocked:  make(map[string]bool),
		resets:   make(map[string]domain.PasswordResetToken),
		requests: make(map[string]int),
	}
}

func (m *mockVerificationRepo) UpsertCode(_ context.Context, userID, codeHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[userID] = domain.VerificationCode{UserID: userID, CodeHash: codeHash, ExpiresAt: expiresAt}
	return nil
}

func (m *mockVerificationRepo) GetCode(_ context.Context, userID string) (domain.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[userID]
	if !ok {
		return domain.VerificationCode{}, repository.ErrNotFound
	}
	return c, nil
}

func (m *mockVerificationRepo) DeleteCode(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, userID)
	return nil
}

func (m *mockVerificationRepo) GetEntryAttempts(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[userID], nil
}

func (m *mockVerificationRepo) IncrementEntryAttempts(_ context.Context, userID string, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID]++
	return m.entries[userID], nil
}

func (m *mockVerificationRepo) ConfirmEmail(_ context.Context, userID string, _ time.Time) error {
	m.mu.Lock()
	delete(m.codes, userID)
	delete(m.entries, userID)
	m.mu.Unlock()
	m.users.setVerified(userID)
	return nil
}

func (m *mockVerificationRepo) IsEmailBlocked(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocked[email], nil
}

func (m *mockVerificationRepo) CountResetRequest(_ context.Context, userID string, _, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[userID]++
	return m.requests[userID], nil
}

func (m *mockVerificationRepo) SaveResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[userID] = domain.PasswordResetToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: &expiresAt}
	return nil
}

func (m *mockVerificationRepo) GetResetToken(_ context.Context, userID string) (domain.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.resets[userID]
	if !ok {
		return domain.PasswordResetToken{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockVerificationRepo) CompletePasswordReset(_ context.Context, userID, passwordHash string, _ time.Time) error {
	m.mu.Lock()
	delete(m.resets, userID)
	m.mu.Unlock()

	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	u, ok := m.users.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.users.users[userID] = u
	return nil
}

type mockAuditRepo struct {
	mu     sync.Mutex
	events []domain.LogEvent
}

func (m *mockAuditRepo) Record(_ context.Context, event domain.LogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuditRepo) count(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type mockEmailSender struct {
	mu      sync.Mutex
	codes   map[string]string
	resets  map[string]string
	err     error
	notices int
}

func newMockEmailSender() *mockEmailSender {
	return &mockEmailSender{codes: make(map[string]string), resets: make(map[string]string)}
}

func (m *mockEmailSender) SendVerificationCode(_ context.Context, to, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes[to] = code
	return nil
}

func (m *mockEmailSender) SendPasswordReset(_ context.Context, to, resetURL string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resets[to] = resetURL
	return nil
}

func (m *mockEmailSender) SendNotification(context.Context, string, string, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices++
	return m.err
}

func (m *mockEmailSender) codeFor(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type mockRoleRepo struct {
	mu    sync.Mutex
	roles map[string]domain.ProjectRole
}

func newMockRoleRepo(roles ...domain.ProjectRole) *mockRoleRepo {
	m := &mockRoleRepo{roles: make(map[string]domain.ProjectRole)}
	for _, r := range roles {
		m.roles[r.ID] = r
	}
	return m
}

func (m *mockRoleRepo) Create(_ context.Context, role domain.ProjectRole) (domain.ProjectRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.ProjectID == role.ProjectID && r.RoleTypeID == role.RoleTypeID {
			return domain.ProjectRole{}, repository.ErrDuplicate
		}
	}
	m.roles[role.ID] = role
	return role, nil
}

func (m *mockRoleRepo) GetByID(_ context.Context, id string) (domain.ProjectRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return domain.ProjectRole{}, repository.ErrNotFound
	}
	return r, nil
}

func (m *mockRoleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

// mockParticipationRepo reproduce la semántica transaccional bajo un único mutex.
type mockParticipationRepo struct {
	mu          sync.Mutex
	roles       *mockRoleRepo
	invites     map[string]domain.ParticipationInvite
	requests    map[string]domain.ParticipationRequest
	members     map[string]domain.Membership
	participant map[string]int
}

func newMockParticipationRepo(roles *mockRoleRepo) *mockParticipationRepo {
	return &mockParticipationRepo{
		roles:       roles,
		invites:     make(map[string]domain.ParticipationInvite),
		requests:    make(map[string]domain.ParticipationRequest),
		members:     make(map[string]domain.Membership),
		participant: make(map[string]int),
	}
}

func memberKey(projectID, userID string) string { return projectID + "/" + userID }

func (m *mockParticipationRepo) addMember(membership domain.Membership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[memberKey(membership.ProjectID, membership.UserID)] = membership
	m.participant[membership.ProjectID]++
}

func (m *mockParticipationRepo) GetMembership(_ context.Context, projectID, userID string) (domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.members[memberKey(projectID, userID)]
	if !ok {
		return domain.Membership{}, repository.ErrNotFound
	}
	return ms, nil
}

func (m *mockParticipationRepo) HasInvite(_ context.Context, projectID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invites {
		if inv.ProjectID == projectID && inv.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockParticipationRepo) HasRequest(_ context.Context, projectID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.ProjectID == projectID && req.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockParticipationRepo) CreateInvite(_ context.Context, invite domain.ParticipationInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[invite.ID] = invite
	return nil
}

func (m *mockParticipationRepo) CreateRequest(_ context.Context, request domain.ParticipationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return nil
}

func (m *mockParticipationRepo) GetInvite(_ context.Context, id string) (domain.ParticipationInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[id]
	if !ok {
		return domain.ParticipationInvite{}, repository.ErrNotFound
	}
	return inv, nil
}

func (m *mockParticipationRepo) GetRequest(_ context.Context, id string) (domain.ParticipationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return domain.ParticipationRequest{}, repository.ErrNotFound
	}
	return req, nil
}

func (m *mockParticipationRepo) DeleteInvite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.invites, id)
	return nil
}

func (m *mockParticipationRepo) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *mockParticipationRepo) AcceptInvite(_ context.Context, inviteID, userID string, _ time.Time) (domain.ParticipationInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[inviteID]
	if !ok || inv.UserID != userID {
		return domain.ParticipationInvite{}, repository.ErrNotFound
	}
	if err := m.join(inv.ProjectID, inv.ProjectRoleID, inv.UserID); err != nil {
		return domain.ParticipationInvite{}, err
	}
	delete(m.invites, inviteID)
	return inv, nil
}

func (m *mockParticipationRepo) AcceptRequest(_ context.Context, requestID string, _ time.Time) (domain.ParticipationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return domain.ParticipationRequest{}, repository.ErrNotFound
	}
	if err := m.join(req.ProjectID, req.ProjectRoleID, req.UserID); err != nil {
		return domain.ParticipationRequest{}, err
	}
	delete(m.requests, requestID)
	return req, nil
}

func (m *mockParticipationRepo) join(projectID, roleID, userID string) error {
	role, err := m.roles.GetByID(context.Background(), roleID)
	if err != nil {
		return err
	}
	taken := 0
	for _, ms := range m.members {
		if ms.ProjectRoleID == roleID {
			taken++
		}
	}
	if taken >= role.Slots {
		return repository.ErrRoleFull
	}
	key := memberKey(projectID, userID)
	if _, ok := m.members[key]; ok {
		return repository.ErrDuplicate
	}
	m.members[key] = domain.Membership{ProjectID: projectID, ProjectRoleID: roleID, UserID: userID}
	m.participant[projectID]++
	return nil
}

func (m *mockParticipationRepo) RemoveMember(_ context.Context, projectID, userID string) (domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(projectID, userID)
	ms, ok := m.members[key]
	if !ok {
		return domain.Membership{}, repository.ErrNotFound
	}
	delete(m.members, key)
	m.participant[projectID]--
	return ms, nil
}

func (m *mockParticipationRepo) ListInvitesByUser(_ context.Context, userID string) ([]domain.ParticipationInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ParticipationInvite
	for _, inv := range m.invites {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockParticipationRepo) ListRequestsByUser(_ context.Context, userID string) ([]domain.ParticipationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ParticipationRequest
	for _, req := range m.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *mockParticipationRepo) ListInvitesByProject(_ context.Context, projectID string) ([]domain.ParticipationInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ParticipationInvite
	for _, inv := range m.invites {
		if inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockParticipationRepo) ListRequestsByProject(_ context.Context, projectID string) ([]domain.ParticipationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ParticipationRequest
	for _, req := range m.requests {
		if req.ProjectID == projectID {
			out = append(out, req)
		}
	}
	return out, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type mockBoardRepo struct {
	boards   map[string]domain.Board
	statuses map[string]domain.StatusLocation
	nonEmpty map[string]bool
}

func newMockBoardRepo() *mockBoardRepo {
	return &mockBoardRepo{
		boards:   make(map[string]domain.Board),
		statuses: make(map[string]domain.StatusLocation),
		nonEmpty: make(map[string]bool),
	}
}

func (m *mockBoardRepo) Create(_ context.Context, board domain.Board, columns []string) (domain.Board, error) {
	for i, name := range columns {
		st := domain.TaskStatus{ID: board.ID + "-" + name, BoardID: board.ID, Name: name, ColumnIndex: i}
		board.Columns = append(board.Columns, st)
		m.statuses[st.ID] = domain.StatusLocation{StatusID: st.ID, BoardID: board.ID, ProjectID: board.ProjectID}
	}
	m.boards[board.ID] = board
	return board, nil
}

func (m *mockBoardRepo) GetByID(_ context.Context, id string) (domain.Board, error) {
	b, ok := m.boards[id]
	if !ok {
		return domain.Board{}, repository.ErrNotFound
	}
	return b, nil
}

func (m *mockBoardRepo) ListByProject(_ context.Context, projectID string) ([]domain.Board, error) {
	var out []domain.Board
	for _, b := range m.boards {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBoardRepo) Rename(_ context.Context, id, name string) (domain.Board, error) {
	b, ok := m.boards[id]
	if !ok {
		return domain.Board{}, repository.ErrNotFound
	}
	b.Name = name
	m.boards[id] = b
	return b, nil
}

func (m *mockBoardRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.boards[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.boards, id)
	return nil
}

func (m *mockBoardRepo) AppendStatus(_ context.Context, status domain.TaskStatus) (domain.TaskStatus, error) {
	b, ok := m.boards[status.BoardID]
	if !ok {
		return domain.TaskStatus{}, repository.ErrForeignKey
	}
	status.ColumnIndex = len(b.Columns)
	b.Columns = append(b.Columns, status)
	m.boards[b.ID] = b
	m.statuses[status.ID] = domain.StatusLocation{StatusID: status.ID, BoardID: b.ID, ProjectID: b.ProjectID}
	return status, nil
}

func (m *mockBoardRepo) LocateStatus(_ context.Context, id string) (domain.StatusLocation, error) {
	loc, ok := m.statuses[id]
	if !ok {
		return domain.StatusLocation{}, repository.ErrNotFound
	}
	return loc, nil
}

func (m *mockBoardRepo) RenameStatus(_ context.Context, id, name string) (domain.TaskStatus, error) {
	loc, ok := m.statuses[id]
	if !ok {
		return domain.TaskStatus{}, repository.ErrNotFound
	}
	return domain.TaskStatus{ID: id, BoardID: loc.BoardID, Name: name}, nil
}

func (m *mockBoardRepo) DeleteStatus(_ context.Context, id string) error {
	if _, ok := m.statuses[id]; !ok {
		return repository.ErrNotFound
	}
	if m.nonEmpty[id] {
		return repository.ErrNotEmpty
	}
	delete(m.statuses, id)
	return nil
}

type mockTaskRepo struct {
	tasks map[string]domain.Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]domain.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task domain.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockTaskRepo) Update(_ context.Context, id string, patch repository.TaskPatch) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, repository.ErrNotFound
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.AssigneeID != nil {
		t.AssigneeID = patch.AssigneeID
	}
	if patch.ClearAssignee {
		t.AssigneeID = nil
	}
	m.tasks[id] = t
	return t, nil
}

func (m *mockTaskRepo) UpdateStatus(_ context.Context, id, statusID string) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, repository.ErrNotFound
	}
	t.TaskStatusID = statusID
	m.tasks[id] = t
	return t, nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

type mockAccessRepo struct {
	owners  map[string]string
	members map[string]bool
	tasks   map[string]string
}

func (m *mockAccessRepo) ProjectOf(_ context.Context, model repository.AccessModel, id string) (string, error) {
	if model == repository.ModelTask {
		if p, ok := m.tasks[id]; ok {
			return p, nil
		}
	}
	if model == repository.ModelProject {
		if _, ok := m.owners[id]; ok {
			return id, nil
		}
	}
	return "", repository.ErrNotFound
}

func (m *mockAccessRepo) IsOwner(_ context.Context, projectID, userID string) (bool, error) {
	return m.owners[projectID] == userID, nil
}

func (m *mockAccessRepo) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	return m.members[memberKey(projectID, userID)], nil
}
