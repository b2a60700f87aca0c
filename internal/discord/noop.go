package discord

import (
	"context"

	"collabhub/internal/repository"
)

// Noop se usa cuando no hay bot configurado.
type Noop struct{}

func (Noop) CreateProjectChannel(context.Context, string) (repository.DiscordLinks, error) {
	return repository.DiscordLinks{}, nil
}

func (Noop) DeleteProjectChannel(context.Context, repository.DiscordLinks) error { return nil }

func (Noop) GrantMember(context.Context, string, string) error { return nil }

func (Noop) RevokeMember(context.Context, string, string) error { return nil }
