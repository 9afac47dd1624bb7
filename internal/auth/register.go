package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/internal/stores"
	"github.com/feria-cr/feria-backend/internal/users"
	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/security"
)

// RegisterRequest onboards a buyer, or a seller together with their store.
type RegisterRequest struct {
	FirstName string         `json:"first_name" validate:"required"`
	LastName  string         `json:"last_name" validate:"required"`
	Email     string         `json:"email" validate:"required,email"`
	Password  string         `json:"password" validate:"required,min=8"`
	Phone     *string        `json:"phone,omitempty"`
	Role      enums.UserRole `json:"role" validate:"required"`

	// Seller-only fields.
	StoreName       *string  `json:"store_name,omitempty"`
	StoreCategories []string `json:"store_categories,omitempty"`
	Province        *string  `json:"province,omitempty"`
	Canton          *string  `json:"canton,omitempty"`
}

// RegisterResponse returns the created identity and storefront.
type RegisterResponse struct {
	User  *users.UserDTO   `json:"user"`
	Store *stores.StoreDTO `json:"store,omitempty"`
}

// UserRegisteredEvent is the outbox payload for a new account.
type UserRegisteredEvent struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	Outbox         outboxEmitter
	PasswordConfig config.PasswordConfig
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type registerService struct {
	db          *db.Client
	outbox      outboxEmitter
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	return &registerService{
		db:          params.DB,
		outbox:      params.Outbox,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Role != enums.UserRoleBuyer && req.Role != enums.UserRoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller")
	}

	var storeName string
	if req.Role == enums.UserRoleSeller {
		if req.StoreName == nil || strings.TrimSpace(*req.StoreName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_name is required for sellers")
		}
		storeName = strings.TrimSpace(*req.StoreName)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var response *RegisterResponse
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		storeRepo := stores.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         req.Role,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		response = &RegisterResponse{User: users.FromModel(user)}

		if req.Role == enums.UserRoleSeller {
			store, err := storeRepo.Create(ctx, stores.CreateStoreDTO{
				OwnerID:    user.ID,
				Name:       storeName,
				Slug:       stores.Slugify(storeName),
				Categories: req.StoreCategories,
				Province:   req.Province,
				Canton:     req.Canton,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
			}
			response.Store = stores.FromModel(store)

			storeEvent := outbox.DomainEvent{
				EventType:     enums.EventStoreCreated,
				AggregateType: enums.AggregateStore,
				AggregateID:   store.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: user.ID, Role: user.Role.String()},
				Data:          map[string]any{"store_id": store.ID, "owner_id": user.ID, "slug": store.Slug},
			}
			if err := s.outbox.Emit(ctx, tx, storeEvent); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: user.Role.String()},
			Data:          UserRegisteredEvent{UserID: user.ID.String(), Email: user.Email, Role: user.Role},
		})
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}
