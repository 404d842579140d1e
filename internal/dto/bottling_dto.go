package dto

import "github.com/shopspring/decimal"

type ProductSpec struct {
	Name        string          `json:"name"        validate:"required,min=1,max=120"`
	SKU         string          `json:"sku"         validate:"required,min=1,max=64"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description"`
	Variety     *string         `json:"variety"     validate:"omitempty,max=80"`
}

type BottleAndCreateProductRequest struct {
	LotID              string      `json:"lot_id"               validate:"required,uuid"`
	SourceContainerIDs []string    `json:"source_container_ids" validate:"required,min=1,max=100,dive,uuid"`
	BottlesProduced    int         `json:"bottles_produced"     validate:"required,gt=0"`
	Product            ProductSpec `json:"product"`
}

type ProductResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Variety         string          `json:"variety"`
	Description     *string         `json:"description"`
	Price           decimal.Decimal `json:"price"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	StockUnits      int             `json:"stock_units"`
	WineLotOriginID *string         `json:"wine_lot_origin_id"`
}

type BottlingResult struct {
	Product       ProductResponse    `json:"product"`
	BottledLiters decimal.Decimal    `json:"bottled_liters"`
	Movements     []MovementResponse `json:"movements"`
	Lot           WineLotResponse    `json:"lot"`
}
