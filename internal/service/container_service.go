package service

import (
	"context"
	"strings"

	"winecellar/internal/apierror"
	"winecellar/internal/dto"
	"winecellar/internal/model"
	"winecellar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContainerService is the registry of tanks and barrels. It owns the physical
// attributes only; volume, status and current lot change through the ledger.
type ContainerService interface {
	Create(ctx context.Context, req dto.CreateContainerRequest) (*dto.ContainerResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ContainerResponse, error)
	List(ctx context.Context, filter dto.ContainerFilter) ([]dto.ContainerResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateContainerRequest) (*dto.ContainerResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type containerService struct {
	repo repository.ContainerRepository
}

func NewContainerService(repo repository.ContainerRepository) ContainerService {
	return &containerService{repo: repo}
}

func (s *containerService) Create(ctx context.Context, req dto.CreateContainerRequest) (*dto.ContainerResponse, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name is required")
	}
	ctype := model.ContainerType(req.Type)
	if !ctype.Valid() {
		return nil, apierror.Validation("type must be tank or barrel")
	}
	capacity, err := positiveVolume("capacity_liters", req.CapacityLiters)
	if err != nil {
		return nil, err
	}

	c := &model.Container{
		TenantID:       tenantID,
		Name:           name,
		Type:           ctype,
		CapacityLiters: capacity,
		Material:       req.Material,
		Location:       req.Location,
		Status:         model.ContainerEmpty,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, failed("create_container", err)
	}
	log.Info().Str("container_id", c.ID.String()).Str("type", string(c.Type)).Msg("container created")
	resp := mapContainer(*c)
	return &resp, nil
}

func (s *containerService) Get(ctx context.Context, id uuid.UUID) (*dto.ContainerResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, failed("get_container", lookupErr(err, "container", id))
	}
	resp := mapContainer(*c)
	return &resp, nil
}

func (s *containerService) List(ctx context.Context, filter dto.ContainerFilter) ([]dto.ContainerResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	q := repository.ContainerFilter{
		Type:   model.ContainerType(filter.Type),
		Status: model.ContainerStatus(filter.Status),
	}
	if filter.LotID != "" {
		lotID, err := parseID("lot_id", filter.LotID)
		if err != nil {
			return nil, err
		}
		q.LotID = &lotID
	}
	containers, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, failed("list_containers", err)
	}
	return mapContainers(containers), nil
}

// Update changes registry attributes under a row lock so the volume it checks
// against cannot move underneath it.
func (s *containerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateContainerRequest) (*dto.ContainerResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	var name *string
	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		if n == "" {
			return nil, apierror.Validation("name cannot be empty")
		}
		name = &n
	}
	var ctype *model.ContainerType
	if req.Type != nil {
		t := model.ContainerType(*req.Type)
		if !t.Valid() {
			return nil, apierror.Validation("type must be tank or barrel")
		}
		ctype = &t
	}
	var capacity *decimal.Decimal
	if req.CapacityLiters != nil {
		v, err := positiveVolume("capacity_liters", *req.CapacityLiters)
		if err != nil {
			return nil, err
		}
		capacity = &v
	}

	var out model.Container
	err := runCellarTx(ctx, s.repo.DB(), "update_container", func(tx *gorm.DB) error {
		c, err := s.repo.LockTx(tx, id)
		if err != nil {
			return lookupErr(err, "container", id)
		}
		if name != nil {
			c.Name = *name
		}
		if ctype != nil && *ctype != c.Type {
			if c.Status == model.ContainerOccupied {
				return apierror.Conflict(apierror.CodeContainerOccupied,
					"container %s cannot change type while it holds wine", c.ID)
			}
			c.Type = *ctype
		}
		if capacity != nil {
			if capacity.LessThan(c.CurrentVolume) {
				return apierror.Conflict(apierror.CodeCapacityExceeded,
					"container %s holds %s L, capacity cannot drop to %s L", c.ID, c.CurrentVolume, *capacity)
			}
			c.CapacityLiters = *capacity
		}
		if req.Material != nil {
			c.Material = req.Material
		}
		if req.Location != nil {
			c.Location = req.Location
		}
		if err := s.repo.UpdateAttributesTx(tx, c); err != nil {
			return err
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := mapContainer(out)
	return &resp, nil
}

func (s *containerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenantFrom(ctx); err != nil {
		return err
	}
	err := runCellarTx(ctx, s.repo.DB(), "delete_container", func(tx *gorm.DB) error {
		c, err := s.repo.LockTx(tx, id)
		if err != nil {
			return lookupErr(err, "container", id)
		}
		if c.Status == model.ContainerOccupied {
			return apierror.Conflict(apierror.CodeContainerOccupied,
				"container %s holds %s L and cannot be deleted", c.ID, c.CurrentVolume)
		}
		return s.repo.DeleteTx(tx, id)
	})
	if err != nil {
		return err
	}
	log.Info().Str("container_id", id.String()).Msg("container deleted")
	return nil
}
