package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/events"
)

type participationFixture struct {
	svc       *ParticipationService
	repo      *mockParticipationRepo
	publisher *mockPublisher
}

func newParticipationFixture(devSlots int) participationFixture {
	users := newMockUserRepo(
		domain.User{ID: "owner", Email: "owner@example.com"},
		domain.User{ID: "ana", Email: "ana@example.com"},
		domain.User{ID: "bob", Email: "bob@example.com"},
	)
	roles := newMockRoleRepo(
		domain.ProjectRole{ID: "r-owner", ProjectID: "p-1", Slots: 1, RoleType: domain.RoleType{Name: domain.OwnerRoleTypeName}},
		domain.ProjectRole{ID: "r-dev", ProjectID: "p-1", Slots: devSlots, RoleType: domain.RoleType{Name: "Backend developer"}},
		domain.ProjectRole{ID: "r-other", ProjectID: "p-2", Slots: 3, RoleType: domain.RoleType{Name: "Designer"}},
	)
	repo := newMockParticipationRepo(roles)
	repo.addMember(domain.Membership{ProjectID: "p-1", ProjectRoleID: "r-owner", UserID: "owner", OwnerRole: true})
	publisher := &mockPublisher{}
	return participationFixture{
		svc:       NewParticipationService(zap.NewNop(), repo, roles, users, publisher),
		repo:      repo,
		publisher: publisher,
	}
}

func TestCreateInvite_Rules(t *testing.T) {
	f := newParticipationFixture(2)
	ctx := context.Background()

	tests := []struct {
		name  string
		role  string
		email string
		want  error
	}{
		{name: "unknown user", role: "r-dev", email: "ghost@example.com", want: ErrUserNotFound},
		{name: "role from another project", role: "r-other", email: "ana@example.com", want: ErrProjectRoleNotFound},
		{name: "missing role", role: "r-missing", email: "ana@example.com", want: ErrProjectRoleNotFound},
		{name: "owner is already a member", role: "r-dev", email: "owner@example.com", want: ErrAlreadyMember},
		{name: "owner role cannot be offered", role: "r-owner", email: "bob@example.com", want: ErrOwnerRoleJoin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateInvite(ctx, "owner", "p-1", tt.role, tt.email)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := f.svc.CreateInvite(ctx, "owner", "p-1", "r-dev", "ana@example.com"); err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if _, err := f.svc.CreateInvite(ctx, "owner", "p-1", "r-dev", "ana@example.com"); !errors.Is(err, ErrAlreadyInvited) {
		t.Fatalf("expected duplicate invite conflict, got %v", err)
	}
	if _, err := f.svc.CreateRequest(ctx, "ana", "p-1", "r-dev"); !errors.Is(err, ErrAlreadyInvited) {
		t.Fatalf("pending invite must block a request, got %v", err)
	}
	if !errors.Is(ErrAlreadyInvited, ErrConflict) {
		t.Fatalf("duplicate pending proposals must be conflicts")
	}
}

func TestCreateRequest_Conflicts(t *testing.T) {
	f := newParticipationFixture(2)
	ctx := context.Background()

	if _, err := f.svc.CreateRequest(ctx, "bob", "p-1", "r-dev"); err != nil {
		t.Fatalf("create request: %v", err)
	}

	tests := []struct {
		name string
		user string
		want error
	}{
		{name: "owner asks to join own project", user: "owner", want: ErrAlreadyMember},
		{name: "second pending request", user: "bob", want: ErrAlreadyRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRequest(ctx, tt.user, "p-1", "r-dev")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("expected a conflict, got %v", err)
			}
		})
	}
}

func TestAcceptInvite(t *testing.T) {
	f := newParticipationFixture(2)
	ctx := context.Background()
	invite, err := f.svc.CreateInvite(ctx, "owner", "p-1", "r-dev", "ana@example.com")
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	if _, err := f.svc.AcceptInvite(ctx, invite.ID, "bob"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("only the invitee can accept, got %v", err)
	}
	if _, err := f.svc.AcceptInvite(ctx, invite.ID, "ana"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.AcceptInvite(ctx, invite.ID, "ana"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("invite must be consumed, got %v", err)
	}
	if f.repo.participant["p-1"] != 2 {
		t.Fatalf("participants = %d, want 2", f.repo.participant["p-1"])
	}

	got := f.publisher.types()
	want := []string{events.InviteCreated, events.InviteAccepted, events.MemberJoined}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestAcceptRequest_ConcurrentLastSlot(t *testing.T) {
	f := newParticipationFixture(1)
	ctx := context.Background()
	reqA, err := f.svc.CreateRequest(ctx, "ana", "p-1", "r-dev")
	if err != nil {
		t.Fatalf("request ana: %v", err)
	}
	reqB, err := f.svc.CreateRequest(ctx, "bob", "p-1", "r-dev")
	if err != nil {
		t.Fatalf("request bob: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, id := range []string{reqA.ID, reqB.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AcceptRequest(ctx, id, "owner")
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var ok, full int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRoleFull):
			full++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || full != 1 {
		t.Fatalf("ok=%d full=%d, want exactly one of each", ok, full)
	}
	if f.repo.participant["p-1"] != 2 {
		t.Fatalf("participants = %d, want 2", f.repo.participant["p-1"])
	}
}

func TestRejectAndCancel(t *testing.T) {
	f := newParticipationFixture(2)
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, "owner", "p-1", "r-dev", "ana@example.com")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := f.svc.RejectInvite(ctx, invite.ID, "bob"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("only the invitee can reject, got %v", err)
	}
	if err := f.svc.RejectInvite(ctx, invite.ID, "ana"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	request, err := f.svc.CreateRequest(ctx, "bob", "p-1", "r-dev")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := f.svc.CancelRequest(ctx, request.ID, "ana"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("only the requester can cancel, got %v", err)
	}
	if err := f.svc.CancelRequest(ctx, request.ID, "bob"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.svc.RejectRequest(ctx, request.ID, "owner"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("cancelled request cannot be rejected, got %v", err)
	}
}

func TestLeave(t *testing.T) {
	f := newParticipationFixture(2)
	ctx := context.Background()
	f.repo.addMember(domain.Membership{ProjectID: "p-1", ProjectRoleID: "r-dev", UserID: "ana"})

	if err := f.svc.Leave(ctx, "p-1", "owner"); !errors.Is(err, ErrOwnerCannotLeave) {
		t.Fatalf("owner cannot leave, got %v", err)
	}
	if err := f.svc.Leave(ctx, "p-1", "ana"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := f.svc.RemoveMember(ctx, "p-1", "owner", "ana"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
}
