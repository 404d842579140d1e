package service

import (
	"time"

	"winecellar/internal/dto"
	"winecellar/internal/model"

	"github.com/google/uuid"
)

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func mapContainer(c model.Container) dto.ContainerResponse {
	return dto.ContainerResponse{
		ID:             c.ID.String(),
		Name:           c.Name,
		Type:           string(c.Type),
		CapacityLiters: c.CapacityLiters,
		Material:       c.Material,
		Location:       c.Location,
		Status:         string(c.Status),
		CurrentVolume:  c.CurrentVolume,
		CurrentLotID:   optionalID(c.CurrentLotID),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
}

func mapContainers(cs []model.Container) []dto.ContainerResponse {
	out := make([]dto.ContainerResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, mapContainer(c))
	}
	return out
}

func mapLot(l model.WineLot) dto.WineLotResponse {
	return dto.WineLotResponse{
		ID:               l.ID.String(),
		Name:             l.Name,
		GrapeVariety:     l.GrapeVariety,
		VintageYear:      l.VintageYear,
		Status:           string(l.Status),
		InitialGrapeKg:   l.InitialGrapeKg,
		TotalLiters:      l.TotalLiters,
		LitersUnassigned: l.LitersUnassigned,
		OriginParcelID:   optionalID(l.OriginParcelID),
		SplitFromLotID:   optionalID(l.SplitFromLotID),
		CreatedAt:        l.CreatedAt.Format(time.RFC3339),
	}
}

func mapMovement(m model.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                     m.ID.String(),
		LotID:                  m.LotID.String(),
		Type:                   string(m.Type),
		SourceContainerID:      optionalID(m.SourceContainerID),
		DestinationContainerID: optionalID(m.DestinationContainerID),
		Volume:                 m.Volume,
		CreatedAt:              m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func mapMovements(ms []model.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapMovement(m))
	}
	return out
}

func mapLabAnalysis(a model.LabAnalysis) dto.LabAnalysisResponse {
	return dto.LabAnalysisResponse{
		ID:              a.ID.String(),
		ContainerID:     optionalID(a.ContainerID),
		AnalysisDate:    a.AnalysisDate.Format(time.RFC3339),
		AlcoholicDegree: a.AlcoholicDegree,
		PH:              a.PH,
		Notes:           a.Notes,
	}
}

func mapProduct(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:              p.ID.String(),
		SKU:             p.SKU,
		Name:            p.Name,
		Variety:         p.Variety,
		Description:     p.Description,
		Price:           p.Price,
		UnitCost:        p.UnitCost,
		StockUnits:      p.StockUnits,
		WineLotOriginID: optionalID(p.WineLotOriginID),
	}
}
