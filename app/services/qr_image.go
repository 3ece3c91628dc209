package services

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/veritag/veritag/config"
)

// QRImageService renders scannable PNG images for issued codes.
type QRImageService struct {
	config *config.QRConfig
}

func NewQRImageService(cfg *config.QRConfig) *QRImageService {
	return &QRImageService{config: cfg}
}

// ShortURL returns the public resolution URL embedded in the image.
func (s *QRImageService) ShortURL(code string) string {
	return fmt.Sprintf("%s/v/%s", strings.TrimRight(s.config.PublicBaseURL, "/"), code)
}

// RenderPNG encodes the code's resolution URL as a PNG at the configured
// size. Medium error correction keeps the image scannable on curved or
// partially damaged packaging.
func (s *QRImageService) RenderPNG(code string) ([]byte, error) {
	size := s.config.ImageSize
	if size <= 0 {
		size = 512
	}
	png, err := qrcode.Encode(s.ShortURL(code), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr image: %w", err)
	}
	return png, nil
}
