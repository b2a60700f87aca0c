package service

import (
	"context"
	"errors"
	"testing"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

type mockSocialRepo struct {
	socials map[string]domain.Social
}

func (m *mockSocialRepo) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, s := range m.socials {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockSocialRepo) Create(_ context.Context, social domain.Social) error {
	for _, s := range m.socials {
		if s.UserID == social.UserID && s.Network == social.Network {
			return repository.ErrDuplicate
		}
	}
	m.socials[social.ID] = social
	return nil
}

func (m *mockSocialRepo) UpdateURL(_ context.Context, userID, id, url string) (domain.Social, error) {
	s, ok := m.socials[id]
	if !ok || s.UserID != userID {
		return domain.Social{}, repository.ErrNotFound
	}
	s.URL = url
	m.socials[id] = s
	return s, nil
}

func (m *mockSocialRepo) Delete(_ context.Context, userID, id string) error {
	s, ok := m.socials[id]
	if !ok || s.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.socials, id)
	return nil
}

func (m *mockSocialRepo) ListByUser(_ context.Context, userID string) ([]domain.Social, error) {
	var out []domain.Social
	for _, s := range m.socials {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestValidSocialURL(t *testing.T) {
	tests := []struct {
		network string
		url     string
		want    bool
	}{
		{"facebook", "https://www.facebook.com/ana.diaz", true},
		{"facebook", "http://facebook.com/ana", false},
		{"linkedin", "https://linkedin.com/in/ana-diaz", true},
		{"linkedin", "https://linkedin.com/company/acme", false},
		{"youtube", "https://youtube.com/c/anadiaz", true},
		{"youtube", "https://youtube.com/watch", false},
		{"tiktok", "https://www.tiktok.com/@ana_d", true},
		{"reddit", "https://reddit.com/u/ana_d", true},
		{"reddit", "https://reddit.com/r/golang", false},
		{"mastodon", "https://mastodon.social/@ana", true},
		{"mastodon", "ftp://mastodon.social/@ana", false},
	}
	for _, tt := range tests {
		if got := validSocialURL(tt.network, tt.url); got != tt.want {
			t.Fatalf("validSocialURL(%q, %q) = %v, want %v", tt.network, tt.url, got, tt.want)
		}
	}
}

func TestAddSocial(t *testing.T) {
	socials := &mockSocialRepo{socials: map[string]domain.Social{}}
	svc := NewProfileService(nil, socials, nil)
	ctx := context.Background()

	s, err := svc.AddSocial(ctx, "u-1", " GitHub ", "https://github.com/ana")
	if err != nil {
		t.Fatalf("add social: %v", err)
	}
	if s.Network != "github" {
		t.Fatalf("network = %q, want lower-cased", s.Network)
	}
	if _, err := svc.AddSocial(ctx, "u-1", "github", "https://github.com/other"); !errors.Is(err, ErrSocialExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.AddSocial(ctx, "u-1", "twitter", "https://example.com/ana"); !errors.Is(err, ErrInvalidSocialURL) {
		t.Fatalf("expected invalid url, got %v", err)
	}
	for _, n := range []string{"gitlab", "medium", "dribbble", "behance"} {
		if _, err := svc.AddSocial(ctx, "u-1", n, "https://"+n+".com/ana"); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	if _, err := svc.AddSocial(ctx, "u-1", "codepen", "https://codepen.io/ana"); !errors.Is(err, ErrSocialLimit) {
		t.Fatalf("expected limit, got %v", err)
	}

	if _, err := svc.UpdateSocial(ctx, "u-2", s.ID, "https://github.com/x"); !errors.Is(err, ErrSocialNotFound) {
		t.Fatalf("foreign profile must be not found, got %v", err)
	}
	updated, err := svc.UpdateSocial(ctx, "u-1", s.ID, "https://github.com/ana-diaz")
	if err != nil || updated.URL != "https://github.com/ana-diaz" {
		t.Fatalf("update: %+v %v", updated, err)
	}
}

func TestNormalizeEducation(t *testing.T) {
	if _, err := normalizeEducation(EducationInput{Institution: "X", Specialization: "Math"}); !errors.Is(err, ErrInvalidInstitution) {
		t.Fatalf("expected invalid institution, got %v", err)
	}
	if _, err := normalizeEducation(EducationInput{Institution: "MIT", Specialization: "Math<script>"}); !errors.Is(err, ErrInvalidSpecialty) {
		t.Fatalf("expected invalid specialization, got %v", err)
	}
	edu, err := normalizeEducation(EducationInput{Institution: " Universidad de Córdoba ", Specialization: "Matemática"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if edu.InstitutionName != "Universidad de Córdoba" {
		t.Fatalf("institution = %q", edu.InstitutionName)
	}
}
