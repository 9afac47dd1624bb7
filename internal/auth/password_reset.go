package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
	"github.com/feria-cr/feria-backend/pkg/mailer"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/security"
)

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type resetTokenRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeForUser(ctx context.Context, userID uuid.UUID) error
}

type resetOutbox interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type resetTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PasswordResetService implements the forgot/reset flow. The response to a
// forgot request never reveals whether the email exists.
type PasswordResetService interface {
	RequestReset(ctx context.Context, req ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

// PasswordResetParams bundles the reset flow dependencies.
type PasswordResetParams struct {
	Users       resetUserRepository
	Tokens      resetTokenRepository
	Tx          resetTxRunner
	Outbox      resetOutbox
	Mailer      mailer.Sender
	PasswordCfg config.PasswordConfig
	Logger      *logger.Logger
}

type passwordResetService struct {
	users  resetUserRepository
	tokens resetTokenRepository
	tx     resetTxRunner
	outbox resetOutbox
	mail   mailer.Sender
	cfg    config.PasswordConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewPasswordResetService builds the reset flow with the provided dependencies.
func NewPasswordResetService(params PasswordResetParams) (PasswordResetService, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	return &passwordResetService{
		users:  params.Users,
		tokens: params.Tokens,
		tx:     params.Tx,
		outbox: params.Outbox,
		mail:   params.Mailer,
		cfg:    params.PasswordCfg,
		logg:   params.Logger,
		now:    time.Now,
	}, nil
}

func (s *passwordResetService) RequestReset(ctx context.Context, req ForgotPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same outcome as success; do not leak account existence.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	token, digest, err := security.GenerateResetToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.tokens.RevokeForUser(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke prior tokens")
		}
		record := &models.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: digest,
			ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
		}
		if err := s.tokens.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPasswordResetIssued,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Data:          map[string]any{"user_id": user.ID},
		})
	})
	if err != nil {
		return err
	}

	subject := "Recuperación de contraseña"
	body := fmt.Sprintf("Hola %s,\n\nUsá este código para restablecer tu contraseña: %s\n\nEl código vence en %s.", user.FirstName, token, s.cfg.ResetTokenTTL)
	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		// The token is stored; a mail hiccup should not fail the request.
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()})
			s.logg.Error(logCtx, "send reset mail failed", err)
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	if len(req.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	record, err := s.tokens.FindByHash(ctx, security.HashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reset token")
	}

	now := s.now().UTC()
	if record.UsedAt != nil || now.After(record.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}

	hash, err := security.HashPassword(req.NewPassword, s.cfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.users.UpdatePasswordHash(ctx, record.UserID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
		}
		if err := s.tokens.MarkUsed(ctx, record.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark token used")
		}
		return nil
	})
}
