package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

const (
	maxEducations     = 5
	maxSocials        = 5
	institutionsLimit = 10
)

var (
	ErrEducationNotFound  = newError(ErrNotFound, "Education not found")
	ErrEducationExists    = newError(ErrConflict, "Education is already in list")
	ErrEducationLimit     = badRequest("You can only add up to 5 educations")
	ErrInvalidInstitution = badRequest("Institution name is incorrect")
	ErrInvalidSpecialty   = badRequest("Specialization name is incorrect")
	ErrSocialNotFound     = newError(ErrNotFound, "Profile not found")
	ErrSocialExists       = newError(ErrConflict, "You have already added a profile in this social network")
	ErrSocialLimit        = badRequest("You can only add up to 5 social networks")
	ErrInvalidSocialURL   = badRequest("Invalid social network URL")
	ErrInvalidNetwork     = badRequest("Network must be 2-30 characters")
	ErrSkillNotFound      = newError(ErrNotFound, "Skill not found")
	ErrSkillExists        = newError(ErrConflict, "Skill is already in use")
	ErrInvalidSkill       = badRequest("Skill name must be 2-50 characters")
	ErrInvalidSkillKind   = badRequest("Skill kind must be hard or soft")
)

var educationFieldPattern = regexp.MustCompile(`^[\p{L}0-9 .'-]{2,100}$`)

// socialPatterns valida la URL de las redes conocidas; el resto se acepta si es http(s).
var socialPatterns = map[string]*regexp.Regexp{
	"facebook":  regexp.MustCompile(`^https://(www\.)?facebook\.com/[a-zA-Z0-9(.?)]+$`),
	"twitter":   regexp.MustCompile(`^https://(www\.)?twitter\.com/[a-zA-Z0-9_]+$`),
	"instagram": regexp.MustCompile(`^https://(www\.)?instagram\.com/[a-zA-Z0-9_]+$`),
	"linkedin":  regexp.MustCompile(`^https://(www\.)?linkedin\.com/in/[a-zA-Z0-9-]+$`),
	"youtube":   regexp.MustCompile(`^https://(www\.)?youtube\.com/(channel/|user/|c/)[a-zA-Z0-9_-]+$`),
	"tiktok":    regexp.MustCompile(`^https://(www\.)?tiktok\.com/@[a-zA-Z0-9_]+$`),
	"pinterest": regexp.MustCompile(`^https://(www\.)?pinterest\.com/[a-zA-Z0-9_]+$`),
	"reddit":    regexp.MustCompile(`^https://(www\.)?reddit\.com/u/[a-zA-Z0-9_]+$`),
}

type EducationInput struct {
	Institution    string
	Specialization string
	Degree         string
}

// ProfileService gestiona formación, redes y habilidades del usuario.
type ProfileService struct {
	educations repository.EducationRepository
	socials    repository.SocialRepository
	skills     repository.SkillRepository
	now        func() time.Time
}

func NewProfileService(educations repository.EducationRepository, socials repository.SocialRepository, skills repository.SkillRepository) *ProfileService {
	return &ProfileService{
		educations: educations,
		socials:    socials,
		skills:     skills,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProfileService) SearchInstitutions(ctx context.Context, query string) ([]string, error) {
	found, err := s.educations.SearchInstitutions(ctx, strings.TrimSpace(query), institutionsLimit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(found))
	for _, i := range found {
		names = append(names, i.Name)
	}
	return names, nil
}

func (s *ProfileService) ListEducations(ctx context.Context, userID string) ([]domain.Education, error) {
	return s.educations.ListByUser(ctx, userID)
}

func (s *ProfileService) AddEducation(ctx context.Context, userID string, input EducationInput) (domain.Education, error) {
	edu, err := normalizeEducation(input)
	if err != nil {
		return domain.Education{}, err
	}
	n, err := s.educations.CountByUser(ctx, userID)
	if err != nil {
		return domain.Education{}, err
	}
	if n >= maxEducations {
		return domain.Education{}, ErrEducationLimit
	}
	edu.ID = uuid.NewString()
	edu.UserID = userID
	edu.CreatedAt = s.now()
	created, err := s.educations.Create(ctx, edu)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Education{}, ErrEducationExists
		}
		return domain.Education{}, err
	}
	return created, nil
}

func (s *ProfileService) UpdateEducation(ctx context.Context, userID, id string, input EducationInput) (domain.Education, error) {
	edu, err := normalizeEducation(input)
	if err != nil {
		return domain.Education{}, err
	}
	edu.ID = id
	edu.UserID = userID
	updated, err := s.educations.Update(ctx, edu)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Education{}, ErrEducationExists
		}
		return domain.Education{}, notFoundAs(err, ErrEducationNotFound)
	}
	return updated, nil
}

func (s *ProfileService) DeleteEducation(ctx context.Context, userID, id string) error {
	return notFoundAs(s.educations.Delete(ctx, userID, id), ErrEducationNotFound)
}

func normalizeEducation(input EducationInput) (domain.Education, error) {
	institution := strings.TrimSpace(input.Institution)
	specialization := strings.TrimSpace(input.Specialization)
	degree := strings.TrimSpace(input.Degree)
	if !educationFieldPattern.MatchString(institution) {
		return domain.Education{}, ErrInvalidInstitution
	}
	if !educationFieldPattern.MatchString(specialization) {
		return domain.Education{}, ErrInvalidSpecialty
	}
	if degree != "" && !lengthBetween(degree, 2, 100) {
		return domain.Education{}, badRequest("Degree must be 2-100 characters")
	}
	return domain.Education{
		InstitutionName: institution,
		Specialization:  specialization,
		Degree:          degree,
	}, nil
}

func (s *ProfileService) ListSocials(ctx context.Context, userID string) ([]domain.Social, error) {
	return s.socials.ListByUser(ctx, userID)
}

// AddSocial registra un perfil por red; la red se guarda en minúsculas.
func (s *ProfileService) AddSocial(ctx context.Context, userID, network, url string) (domain.Social, error) {
	network = strings.ToLower(strings.TrimSpace(network))
	url = strings.TrimSpace(url)
	if !lengthBetween(network, 2, 30) {
		return domain.Social{}, ErrInvalidNetwork
	}
	if !validSocialURL(network, url) {
		return domain.Social{}, ErrInvalidSocialURL
	}
	n, err := s.socials.CountByUser(ctx, userID)
	if err != nil {
		return domain.Social{}, err
	}
	if n >= maxSocials {
		return domain.Social{}, ErrSocialLimit
	}
	social := domain.Social{
		ID:        uuid.NewString(),
		UserID:    userID,
		Network:   network,
		URL:       url,
		CreatedAt: s.now(),
	}
	if err := s.socials.Create(ctx, social); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Social{}, ErrSocialExists
		}
		return domain.Social{}, err
	}
	return social, nil
}

// UpdateSocial cambia la URL; la red del perfil no se puede modificar.
func (s *ProfileService) UpdateSocial(ctx context.Context, userID, id, url string) (domain.Social, error) {
	url = strings.TrimSpace(url)
	current, err := s.findSocial(ctx, userID, id)
	if err != nil {
		return domain.Social{}, err
	}
	if !validSocialURL(current.Network, url) {
		return domain.Social{}, ErrInvalidSocialURL
	}
	updated, err := s.socials.UpdateURL(ctx, userID, id, url)
	if err != nil {
		return domain.Social{}, notFoundAs(err, ErrSocialNotFound)
	}
	return updated, nil
}

func (s *ProfileService) DeleteSocial(ctx context.Context, userID, id string) error {
	return notFoundAs(s.socials.Delete(ctx, userID, id), ErrSocialNotFound)
}

func (s *ProfileService) findSocial(ctx context.Context, userID, id string) (domain.Social, error) {
	socials, err := s.socials.ListByUser(ctx, userID)
	if err != nil {
		return domain.Social{}, err
	}
	for _, social := range socials {
		if social.ID == id {
			return social, nil
		}
	}
	return domain.Social{}, ErrSocialNotFound
}

func validSocialURL(network, url string) bool {
	if pattern, ok := socialPatterns[network]; ok {
		return pattern.MatchString(url)
	}
	return isHTTPURL(url)
}

func (s *ProfileService) ListSkills(ctx context.Context, userID string) ([]domain.Skill, error) {
	return s.skills.ListByUser(ctx, userID)
}

func (s *ProfileService) AddSkill(ctx context.Context, userID, name, kind string) (domain.Skill, error) {
	name = strings.TrimSpace(name)
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !lengthBetween(name, 2, 50) {
		return domain.Skill{}, ErrInvalidSkill
	}
	if kind != domain.SkillKindHard && kind != domain.SkillKindSoft {
		return domain.Skill{}, ErrInvalidSkillKind
	}
	skill := domain.Skill{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.skills.Create(ctx, skill); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Skill{}, ErrSkillExists
		}
		return domain.Skill{}, err
	}
	return skill, nil
}

func (s *ProfileService) DeleteSkill(ctx context.Context, userID, id string) error {
	return notFoundAs(s.skills.Delete(ctx, userID, id), ErrSkillNotFound)
}
