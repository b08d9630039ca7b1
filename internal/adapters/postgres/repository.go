package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
)

type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Delete(ctx context.Context, username string) error
	UpdateRole(ctx context.Context, username, role string) error
	UpdateEmail(ctx context.Context, username, email string) error
	SetRefreshTokenHash(ctx context.Context, username string, hash *string) error
	SetResetToken(ctx context.Context, username, token string, expires time.Time) error
	ResetPassword(ctx context.Context, username, passwordHash string) error
}

type InviteRepository interface {
	Create(ctx context.Context, invite *domain.Invite) error
	List(ctx context.Context) ([]domain.Invite, error)
	Delete(ctx context.Context, code string) error
}

// Registrar creates accounts with the store-side guarantees registration
// needs: the bootstrap check and the invite consume happen in the same
// transaction as the insert, so a code can never be redeemed twice and
// two concurrent first registrations cannot both become admin.
type Registrar interface {
	Register(ctx context.Context, account *domain.Account, inviteCode string) error
}

type accountRepo struct{ db *gorm.DB }

type inviteRepo struct{ db *gorm.DB }

type registrar struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepo{db: db} }
func NewInviteRepository(db *gorm.DB) InviteRepository   { return &inviteRepo{db: db} }
func NewRegistrar(db *gorm.DB) Registrar                 { return &registrar{db: db} }

func (r *accountRepo) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expires > ?", token, now).
		First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).Order("username").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Delete(ctx context.Context, username string) error {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&domain.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) UpdateRole(ctx context.Context, username, role string) error {
	return r.update(ctx, username, map[string]interface{}{"role": role})
}

func (r *accountRepo) UpdateEmail(ctx context.Context, username, email string) error {
	if err := r.update(ctx, username, map[string]interface{}{"email": email}); err != nil {
		if isDuplicate(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *accountRepo) SetRefreshTokenHash(ctx context.Context, username string, hash *string) error {
	return r.update(ctx, username, map[string]interface{}{"refresh_token_hash": hash})
}

func (r *accountRepo) SetResetToken(ctx context.Context, username, token string, expires time.Time) error {
	return r.update(ctx, username, map[string]interface{}{
		"reset_token":         token,
		"reset_token_expires": expires,
	})
}

// ResetPassword writes the new hash and clears the reset pair in a single
// update, so the token can never survive a successful reset.
func (r *accountRepo) ResetPassword(ctx context.Context, username, passwordHash string) error {
	return r.update(ctx, username, map[string]interface{}{
		"password_hash":       passwordHash,
		"reset_token":         nil,
		"reset_token_expires": nil,
	})
}

func (r *accountRepo) update(ctx context.Context, username string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&domain.Account{}).Where("username = ?", username).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *inviteRepo) Create(ctx context.Context, invite *domain.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepo) List(ctx context.Context) ([]domain.Invite, error) {
	var invites []domain.Invite
	if err := r.db.WithContext(ctx).Order("created_at").Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *inviteRepo) Delete(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Where("code = ?", code).Delete(&domain.Invite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrar) Register(ctx context.Context, account *domain.Account, inviteCode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Account{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			account.Role = domain.RoleAdmin
			account.UsedInviteCode = domain.BootstrapInviteCode
		} else {
			var invite domain.Invite
			if err := tx.Where("code = ?", inviteCode).First(&invite).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrForbidden
				}
				return err
			}
			res := tx.Where("code = ?", inviteCode).Delete(&domain.Invite{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// lost the race for the code
				return domain.ErrForbidden
			}
			role := invite.Role
			if role == "" {
				role = domain.RoleJoueur
			}
			account.Role = role
			account.UsedInviteCode = inviteCode
		}
		if err := tx.Create(account).Error; err != nil {
			if isDuplicate(err) {
				return domain.ErrConflict
			}
			return err
		}
		return nil
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
