package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Origin is the ingestion path that produced a booking.
type Origin string

const (
	OriginAPI         Origin = "api"
	OriginSpreadsheet Origin = "spreadsheet"
	OriginPaste       Origin = "paste"
)

func (o Origin) Valid() bool {
	switch o {
	case OriginAPI, OriginSpreadsheet, OriginPaste:
		return true
	}
	return false
}

// Booking is the canonical, source-agnostic reservation.
// (PropertyID, ExternalID) is unique.
type Booking struct {
	ID int64 `gorm:"primaryKey;column:id" json:"-"`

	PropertyID string `gorm:"column:property_id;size:64;uniqueIndex:idx_bookings_property_external,priority:1" json:"propertyId"`
	ExternalID string `gorm:"column:external_id;size:128;uniqueIndex:idx_bookings_property_external,priority:2" json:"externalId"`

	BookingDate time.Time `gorm:"column:booking_date;index" json:"bookingDate"`
	Checkin     time.Time `gorm:"column:checkin" json:"checkin"`
	Checkout    time.Time `gorm:"column:checkout" json:"checkout"`

	Nights   int `gorm:"column:nights" json:"nights"`
	LeadTime int `gorm:"column:lead_time" json:"leadTime"`

	Price   decimal.Decimal `gorm:"column:price;type:decimal(12,2);default:0" json:"price"`
	Status  string          `gorm:"column:status;size:64" json:"status"`
	Channel string          `gorm:"column:channel;size:255" json:"channel"`

	DataOrigin Origin `gorm:"column:data_origin;size:16" json:"dataOrigin"`

	// Set only by enrichment; a bulk re-upsert never clears them.
	PriceBreakdown datatypes.JSON `gorm:"column:price_breakdown" json:"priceBreakdown,omitempty"`
	EnrichedAt     *time.Time     `gorm:"column:enriched_at" json:"enrichedAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (Booking) TableName() string { return "bookings" }

// Enrichment is a partial update merged onto an already stored booking.
// Nil fields are left untouched.
type Enrichment struct {
	Price          *decimal.Decimal
	Status         *string
	Channel        *string
	PriceBreakdown datatypes.JSON
}

func (e Enrichment) Empty() bool {
	return e.Price == nil && e.Status == nil && e.Channel == nil && len(e.PriceBreakdown) == 0
}
