package dto

// QRCodeDTO is the brand-facing view of one issued code.
// ShortURL is derived from configuration, not stored.
type QRCodeDTO struct {
	UUID      string `json:"uuid"`
	ProductID uint   `json:"product_id"`
	Code      string `json:"code"`
	Version   int    `json:"version"`
	IsActive  bool   `json:"is_active"`
	ScanCount int64  `json:"scan_count"`
	ShortURL  string `json:"short_url"`
	CreatedAt string `json:"created_at"`
}

// GenerateQRCodeRequest defines input for issuing a code for a product
type GenerateQRCodeRequest struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
}

// GenerateQRCodeResponse carries the issued (or already active) code plus the
// rendered QR image as base64 PNG
type GenerateQRCodeResponse struct {
	Message  string    `json:"message"`
	Item     QRCodeDTO `json:"item"`
	ImagePNG string    `json:"image_png_base64,omitempty"`
	Reissued bool      `json:"reissued"`
}

// RegenerateQRCodeResponse carries the newly activated code version.
// The previous code remains resolvable; only its canonical status changed.
type RegenerateQRCodeResponse struct {
	Message string    `json:"message"`
	Item    QRCodeDTO `json:"item"`
}
