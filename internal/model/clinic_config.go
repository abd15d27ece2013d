package model

// ClinicConfig is the persisted, admin-editable clinic profile. It is read
// on most client-facing pages, so the service layer caches it.
type ClinicConfig struct {
	Base
	Name         string  `json:"name" db:"name"`
	RUC          string  `json:"ruc" db:"ruc"`
	Address      string  `json:"address" db:"address"`
	Phone        string  `json:"phone" db:"phone"`
	Email        string  `json:"email" db:"email"`
	Currency     string  `json:"currency" db:"currency"`
	InvoiceSerie string  `json:"invoice_serie" db:"invoice_serie"`
	LogoURL      *string `json:"logo_url" db:"logo_url"`
}

type UpdateClinicConfigRequest struct {
	Name         *string `json:"name"`
	RUC          *string `json:"ruc"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Currency     *string `json:"currency"`
	InvoiceSerie *string `json:"invoice_serie"`
	LogoURL      *string `json:"logo_url"`
}
