package http

import (
	"context"
	"sync"

	"collabhub/internal/oauth"
	"collabhub/internal/repository"
	"collabhub/internal/service"
)

type fakeValidator struct {
	tokens map[string]service.Claims
}

func (f *fakeValidator) ValidateAccessToken(_ context.Context, token string) (service.Claims, error) {
	claims, ok := f.tokens[token]
	if !ok {
		return service.Claims{}, service.ErrInvalidToken
	}
	return claims, nil
}

type fakeVerified struct {
	verified map[string]bool
	err      error
}

func (f *fakeVerified) IsVerified(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.verified[userID], nil
}

type fakeAccessRepo struct {
	projects map[string]string
	owners   map[string]string
	members  map[string][]string
}

func (f *fakeAccessRepo) ProjectOf(_ context.Context, _ repository.AccessModel, id string) (string, error) {
	projectID, ok := f.projects[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return projectID, nil
}

func (f *fakeAccessRepo) IsOwner(_ context.Context, projectID, userID string) (bool, error) {
	return f.owners[projectID] == userID, nil
}

func (f *fakeAccessRepo) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	for _, id := range f.members[projectID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeAuthenticator struct {
	mu       sync.Mutex
	result   service.AuthResult
	err      error
	refresh  map[string]string
	loggedIn []string
	google   []service.GoogleProfile
}

func (f *fakeAuthenticator) Register(_ context.Context, _ service.RegisterInput, _ string) (service.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAuthenticator) Login(_ context.Context, email, _ string, _ string) (service.AuthResult, error) {
	f.mu.Lock()
	f.loggedIn = append(f.loggedIn, email)
	f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeAuthenticator) Refresh(_ context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", service.ErrTokenRequired
	}
	access, ok := f.refresh[refreshToken]
	if !ok {
		return "", service.ErrInvalidToken
	}
	return access, nil
}

func (f *fakeAuthenticator) Logout(_ context.Context, _ string, _ string) error {
	return nil
}

func (f *fakeAuthenticator) LoginWithGoogle(_ context.Context, profile service.GoogleProfile, _ string) (service.AuthResult, error) {
	f.mu.Lock()
	f.google = append(f.google, profile)
	f.mu.Unlock()
	return f.result, f.err
}

type fakeGoogle struct {
	profile oauth.Profile
	err     error
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, _ string) (oauth.Profile, error) {
	return f.profile, f.err
}
