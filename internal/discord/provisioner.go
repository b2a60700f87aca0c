package discord

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"collabhub/internal/repository"
)

const (
	memberPermissions = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory
	adminPermissions  = memberPermissions | discordgo.PermissionManageMessages
)

// Provisioner crea un canal privado con roles de admin y miembro por proyecto.
type Provisioner struct {
	logger  *zap.Logger
	session *discordgo.Session
	guildID string
	botRole string
}

func NewProvisioner(logger *zap.Logger, token, guildID, botRole string) (*Provisioner, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Provisioner{logger: logger, session: session, guildID: guildID, botRole: botRole}, nil
}

func (p *Provisioner) CreateProjectChannel(ctx context.Context, projectName string) (repository.DiscordLinks, error) {
	opt := discordgo.WithContext(ctx)

	admin, err := p.session.GuildRoleCreate(p.guildID, &discordgo.RoleParams{Name: projectName + " admin"}, opt)
	if err != nil {
		return repository.DiscordLinks{}, fmt.Errorf("create admin role: %w", err)
	}
	member, err := p.session.GuildRoleCreate(p.guildID, &discordgo.RoleParams{Name: projectName}, opt)
	if err != nil {
		p.cleanupRoles(ctx, admin.ID)
		return repository.DiscordLinks{}, fmt.Errorf("create member role: %w", err)
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: p.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: member.ID, Type: discordgo.PermissionOverwriteTypeRole, Allow: memberPermissions},
		{ID: admin.ID, Type: discordgo.PermissionOverwriteTypeRole, Allow: adminPermissions},
	}
	if botRoleID := p.findRole(ctx, p.botRole); botRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: botRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: adminPermissions,
		})
	}

	channel, err := p.session.GuildChannelCreateComplex(p.guildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(projectName),
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: overwrites,
	}, opt)
	if err != nil {
		p.cleanupRoles(ctx, admin.ID, member.ID)
		return repository.DiscordLinks{}, fmt.Errorf("create channel: %w", err)
	}
	return repository.DiscordLinks{ChannelID: channel.ID, AdminRoleID: admin.ID, MemberRoleID: member.ID}, nil
}

func (p *Provisioner) DeleteProjectChannel(ctx context.Context, links repository.DiscordLinks) error {
	if links.ChannelID != "" {
		if _, err := p.session.ChannelDelete(links.ChannelID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("delete channel: %w", err)
		}
	}
	p.cleanupRoles(ctx, links.AdminRoleID, links.MemberRoleID)
	return nil
}

func (p *Provisioner) GrantMember(ctx context.Context, discordUserID, roleID string) error {
	return p.session.GuildMemberRoleAdd(p.guildID, discordUserID, roleID, discordgo.WithContext(ctx))
}

func (p *Provisioner) RevokeMember(ctx context.Context, discordUserID, roleID string) error {
	return p.session.GuildMemberRoleRemove(p.guildID, discordUserID, roleID, discordgo.WithContext(ctx))
}

func (p *Provisioner) findRole(ctx context.Context, name string) string {
	if name == "" {
		return ""
	}
	roles, err := p.session.GuildRoles(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		p.logger.Warn("list guild roles failed", zap.Error(err))
		return ""
	}
	for _, r := range roles {
		if r.Name == name {
			return r.ID
		}
	}
	return ""
}

func (p *Provisioner) cleanupRoles(ctx context.Context, roleIDs ...string) {
	for _, id := range roleIDs {
		if id == "" {
			continue
		}
		if err := p.session.GuildRoleDelete(p.guildID, id, discordgo.WithContext(ctx)); err != nil {
			p.logger.Warn("delete guild role failed", zap.String("role_id", id), zap.Error(err))
		}
	}
}

var nonSlug = regexp.MustCompile(`[^\p{L}0-9]+`)

// ChannelName normaliza el nombre del proyecto al formato de canales de Discord.
func ChannelName(projectName string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(projectName)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "project"
	}
	if r := []rune(slug); len(r) > 100 {
		slug = string(r[:100])
	}
	return slug
}
