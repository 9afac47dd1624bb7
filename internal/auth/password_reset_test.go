package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/security"
)

type stubResetUsers struct {
	byEmail map[string]*models.User
	newHash map[uuid.UUID]string
}

func (r *stubResetUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubResetUsers) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	r.newHash[id] = hash
	return nil
}

type stubTokens struct {
	byHash  map[string]*models.PasswordResetToken
	used    []uuid.UUID
	revoked []uuid.UUID
}

func (r *stubTokens) Create(ctx context.Context, token *models.PasswordResetToken) error {
	token.ID = uuid.New()
	r.byHash[token.TokenHash] = token
	return nil
}

func (r *stubTokens) FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error) {
	token, ok := r.byHash[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return token, nil
}

func (r *stubTokens) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.used = append(r.used, id)
	for _, token := range r.byHash {
		if token.ID == id {
			token.UsedAt = &at
		}
	}
	return nil
}

func (r *stubTokens) RevokeForUser(ctx context.Context, userID uuid.UUID) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

type stubResetTx struct{}

func (stubResetTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubResetOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubResetOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type recordingMailer struct {
	to      []string
	bodies  []string
	failErr error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

func newResetFixture(t *testing.T) (PasswordResetService, *stubResetUsers, *stubTokens, *recordingMailer) {
	t.Helper()
	users := &stubResetUsers{byEmail: map[string]*models.User{}, newHash: map[uuid.UUID]string{}}
	tokens := &stubTokens{byHash: map[string]*models.PasswordResetToken{}}
	mail := &recordingMailer{}
	svc, err := NewPasswordResetService(PasswordResetParams{
		Users:       users,
		Tokens:      tokens,
		Tx:          stubResetTx{},
		Outbox:      &stubResetOutbox{},
		Mailer:      mail,
		PasswordCfg: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, users, tokens, mail
}

func TestRequestResetStoresTokenAndMails(t *testing.T) {
	svc, users, tokens, mail := newResetFixture(t)
	user := &models.User{ID: uuid.New(), Email: "ana@example.cr", FirstName: "Ana"}
	users.byEmail[user.Email] = user

	if err := svc.RequestReset(context.Background(), ForgotPasswordRequest{Email: "ANA@example.cr"}); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	if len(tokens.byHash) != 1 {
		t.Fatalf("expected 1 stored token, got %d", len(tokens.byHash))
	}
	if len(tokens.revoked) != 1 || tokens.revoked[0] != user.ID {
		t.Fatal("prior tokens must be revoked")
	}
	if len(mail.to) != 1 || mail.to[0] != user.Email {
		t.Fatalf("mail must go to the account address: %+v", mail.to)
	}

	// The mailed token hashes to the stored digest.
	body := mail.bodies[0]
	var stored *models.PasswordResetToken
	for _, token := range tokens.byHash {
		stored = token
	}
	if !strings.Contains(body, "contraseña") {
		t.Fatalf("unexpected mail body: %q", body)
	}
	found := false
	for _, word := range strings.Fields(body) {
		if security.HashResetToken(word) == stored.TokenHash {
			found = true
		}
	}
	if !found {
		t.Fatal("mail must contain the raw token matching the stored digest")
	}
}

func TestRequestResetHidesUnknownAccounts(t *testing.T) {
	svc, _, tokens, mail := newResetFixture(t)

	if err := svc.RequestReset(context.Background(), ForgotPasswordRequest{Email: "nadie@example.cr"}); err != nil {
		t.Fatalf("unknown accounts must not error: %v", err)
	}
	if len(tokens.byHash) != 0 || len(mail.to) != 0 {
		t.Fatal("nothing may be stored or sent for unknown accounts")
	}
}

func TestResetPasswordConsumesToken(t *testing.T) {
	svc, users, tokens, _ := newResetFixture(t)
	user := &models.User{ID: uuid.New(), Email: "ana@example.cr"}
	users.byEmail[user.Email] = user

	raw, digest, err := security.GenerateResetToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	tokens.byHash[digest] = &models.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: digest,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: raw, NewPassword: "nueva-clave-123"}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	hash, ok := users.newHash[user.ID]
	if !ok {
		t.Fatal("password hash must be replaced")
	}
	valid, err := security.VerifyPassword("nueva-clave-123", hash)
	if err != nil || !valid {
		t.Fatalf("new hash must verify: valid=%v err=%v", valid, err)
	}
	if len(tokens.used) != 1 {
		t.Fatal("token must be marked used")
	}

	// Second use fails.
	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: raw, NewPassword: "otra-clave-456"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("reused token must be rejected, got %v", err)
	}
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	svc, users, tokens, _ := newResetFixture(t)
	user := &models.User{ID: uuid.New(), Email: "ana@example.cr"}
	users.byEmail[user.Email] = user

	raw, digest, _ := security.GenerateResetToken()
	tokens.byHash[digest] = &models.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: digest,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: raw, NewPassword: "nueva-clave-123"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expired token must be rejected, got %v", err)
	}
}
