package equipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/internal/catalog"
	"github.com/dfcarvalho/radiostock-backend/internal/movements"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
)

// ReasonCondemned is the decommission reason that permanently retires a
// serial. A condemned serial can never be registered again.
const ReasonCondemned = "condenado"

// Service owns equipment identity and current status.
type Service interface {
	Register(ctx context.Context, input RegisterInput, actor auth.Identity) (*models.EquipmentUnit, error)
	FindBySerial(ctx context.Context, serial string, includeInactive bool) (*models.EquipmentUnit, error)
	List(ctx context.Context, filter ListFilter) ([]models.EquipmentUnit, error)
	UpdateAssetTag(ctx context.Context, serial, assetTag string, actor auth.Identity) (*models.EquipmentUnit, error)
	Decommission(ctx context.Context, serial, reason string, actor auth.Identity) (*models.EquipmentUnit, error)
}

// RegisterInput captures a new unit registration.
type RegisterInput struct {
	Serial    string
	ModelName string
	AssetTag  string
	Frequency string
}

type modelChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx        txRunner
	repo      Repository
	models    modelChecker
	movements movements.Service
}

// ServiceParams bundles the dependencies required to build the equipment
// service.
type ServiceParams struct {
	Tx        txRunner
	Repo      Repository
	Models    modelChecker
	Movements movements.Service
}

// NewService wires an equipment service with its repository, the model catalog
// it validates registrations against, and the movement log it writes
// condemnations to.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("equipment repository required")
	}
	if params.Models == nil {
		return nil, fmt.Errorf("model catalog required")
	}
	if params.Movements == nil {
		return nil, fmt.Errorf("movements service is required")
	}
	return &service{
		tx:        params.Tx,
		repo:      params.Repo,
		models:    params.Models,
		movements: params.Movements,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput, actor auth.Identity) (*models.EquipmentUnit, error) {
	serial := strings.TrimSpace(input.Serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	modelName := catalog.NormalizeName(input.ModelName)
	if modelName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model name is required")
	}

	known, err := s.models.Exists(ctx, modelName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check model catalog")
	}
	if !known {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model not found in catalog").
			WithDetails(map[string]any{"model": modelName})
	}

	history, err := s.repo.FindAnyBySerial(ctx, serial)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup serial history")
	}
	for _, prior := range history {
		if prior.Active {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "serial already registered").
				WithDetails(map[string]any{"serial": serial})
		}
		if prior.Condemned {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "serial was condemned and can never be registered again").
				WithDetails(map[string]any{"serial": serial})
		}
	}

	unit := &models.EquipmentUnit{
		Serial:       serial,
		ModelName:    modelName,
		AssetTag:     strings.TrimSpace(input.AssetTag),
		Frequency:    strings.TrimSpace(input.Frequency),
		Status:       enums.EquipmentStatusAvailable,
		Active:       true,
		RegisteredBy: actor.Email,
	}
	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create unit")
	}
	return unit, nil
}

func (s *service) FindBySerial(ctx context.Context, serial string, includeInactive bool) (*models.EquipmentUnit, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	unit, err := s.repo.FindBySerial(ctx, serial, includeInactive)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found").
				WithDetails(map[string]any{"serial": serial})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup unit")
	}
	return unit, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.EquipmentUnit, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateAssetTag(ctx context.Context, serial, assetTag string, actor auth.Identity) (*models.EquipmentUnit, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}

	updated, err := s.repo.UpdateAssetTag(ctx, serial, strings.TrimSpace(assetTag))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update asset tag")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found").
			WithDetails(map[string]any{"serial": serial})
	}
	return s.FindBySerial(ctx, serial, false)
}

// Decommission retires an active unit. Only available units can be retired;
// the record stays in the table for history. Reason "condenado" additionally
// blocks the serial from ever being registered again and leaves a condemned
// entry in the movement log, committed together with the status change.
func (s *service) Decommission(ctx context.Context, serial, reason string, actor auth.Identity) (*models.EquipmentUnit, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	unit, err := s.FindBySerial(ctx, serial, false)
	if err != nil {
		return nil, err
	}
	if unit.Status != enums.EquipmentStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only available units can be decommissioned").
			WithDetails(map[string]any{"serial": serial, "status": string(unit.Status)})
	}

	condemned := strings.EqualFold(reason, ReasonCondemned)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).Decommission(ctx, serial, reason, actor.Email, condemned, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decommission unit")
		}
		if !ok {
			// Lost a race with a checkout or maintenance claim.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "unit is no longer available").
				WithDetails(map[string]any{"serial": serial})
		}
		if condemned {
			if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
				Serial:      serial,
				Event:       enums.MovementCondemned,
				Description: "Condenado na baixa de estoque",
				Actor:       actor.Email,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindBySerial(ctx, serial, true)
}
