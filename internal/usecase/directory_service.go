package usecase

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/Louis-hue-lang/OrientaVision/internal/adapters/postgres"
	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
	pkglog "github.com/Louis-hue-lang/OrientaVision/pkg/log"
)

// DirectoryService covers the privileged account and invite management
// operations. Callers must pass the actor's role as re-read from the
// store by the authorization middleware, never the role claim baked into
// the access token.
type DirectoryService interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, actorUsername, actorRole, target string) error
	ChangeRole(ctx context.Context, actorUsername, actorRole, target, role string) error
	CreateInvite(ctx context.Context, actorRole, email, role string) (*domain.Invite, error)
	ListInvites(ctx context.Context) ([]domain.Invite, error)
	RevokeInvite(ctx context.Context, code string) error
}

type directoryService struct {
	logger   pkglog.Logger
	accounts repo.AccountRepository
	invites  repo.InviteRepository
	notifier Notifier
}

func NewDirectoryService(logger pkglog.Logger, accounts repo.AccountRepository, invites repo.InviteRepository, notifier Notifier) DirectoryService {
	return &directoryService{logger: logger, accounts: accounts, invites: invites, notifier: notifier}
}

func (s *directoryService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

func (s *directoryService) DeleteAccount(ctx context.Context, actorUsername, actorRole, target string) error {
	if target == actorUsername {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrBadRequest)
	}
	account, err := s.accounts.FindByUsername(ctx, target)
	if err != nil {
		return err
	}
	if !domain.CanManage(actorRole, account.Role) {
		return fmt.Errorf("%w: moderators cannot delete admins or other moderators", domain.ErrForbidden)
	}
	if err := s.accounts.Delete(ctx, target); err != nil {
		return err
	}
	s.logger.Info().Str("actor", actorUsername).Str("target", target).Msg("account deleted")
	return nil
}

func (s *directoryService) ChangeRole(ctx context.Context, actorUsername, actorRole, target, role string) error {
	if !domain.ValidRole(role) {
		return fmt.Errorf("%w: invalid role", domain.ErrBadRequest)
	}
	if target == actorUsername {
		return fmt.Errorf("%w: cannot change your own role", domain.ErrBadRequest)
	}
	account, err := s.accounts.FindByUsername(ctx, target)
	if err != nil {
		return err
	}
	if !domain.CanManage(actorRole, account.Role) {
		return fmt.Errorf("%w: moderators cannot modify admins or other moderators", domain.ErrForbidden)
	}
	if !domain.CanGrant(actorRole, role) {
		return fmt.Errorf("%w: moderators cannot promote to admin", domain.ErrForbidden)
	}
	if err := s.accounts.UpdateRole(ctx, target, role); err != nil {
		return err
	}
	s.logger.Info().Str("actor", actorUsername).Str("target", target).Str("role", role).Msg("role changed")
	return nil
}

func (s *directoryService) CreateInvite(ctx context.Context, actorRole, email, role string) (*domain.Invite, error) {
	if role != "" && !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: invalid role", domain.ErrBadRequest)
	}
	norm := normalizeEmail(email)
	if norm != "" {
		if err := validateEmail(norm); err != nil {
			return nil, err
		}
	}

	code, err := randomHex(8)
	if err != nil {
		return nil, err
	}
	invite := &domain.Invite{
		Code:  code,
		Email: norm,
		Role:  domain.ClampInviteRole(actorRole, role),
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}
	if norm != "" {
		s.notifier.SendInvite(ctx, norm, code)
	}
	s.logger.Info().Str("role", invite.Role).Msg("invite created")
	return invite, nil
}

func (s *directoryService) ListInvites(ctx context.Context) ([]domain.Invite, error) {
	return s.invites.List(ctx)
}

func (s *directoryService) RevokeInvite(ctx context.Context, code string) error {
	if err := s.invites.Delete(ctx, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: invite not found", domain.ErrNotFound)
		}
		return err
	}
	s.logger.Info().Msg("invite revoked")
	return nil
}
