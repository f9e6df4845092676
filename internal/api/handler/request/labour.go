package request

import "time"

type UnchargedRow struct {
	ReasonID uint `json:"reasonId" validate:"required"`
	Minutes  int  `json:"minutes" validate:"gte=0"`
}

type SaveLabour struct {
	Start       time.Time      `json:"start" validate:"required"`
	End         time.Time      `json:"end" validate:"required"`
	Description string         `json:"description"`
	Rows        []UnchargedRow `json:"rows" validate:"dive"`
}
