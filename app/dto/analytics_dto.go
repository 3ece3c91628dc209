package dto

// RecentScanDTO is one row of the bounded recent-scan list
type RecentScanDTO struct {
	QRCodeID  uint   `json:"qr_code_id"`
	Country   string `json:"country,omitempty"`
	Region    string `json:"region,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	ScannedAt string `json:"scanned_at"`
}

// AnalyticsSnapshot is derived from the scan ledger on demand; it spans all
// code versions a product has ever had, so regeneration never erases history.
// Always reconstructable from scan_logs; never the source of truth.
type AnalyticsSnapshot struct {
	ProductID      uint             `json:"product_id"`
	TotalScans     int64            `json:"total_scans"`
	UniqueScans    int64            `json:"unique_scans"`
	ScansByDate    map[string]int64 `json:"scans_by_date"`
	ScansByCountry map[string]int64 `json:"scans_by_country"`
	RecentScans    []RecentScanDTO  `json:"recent_scans"`
	Timezone       string           `json:"timezone"`
	GeneratedAt    string           `json:"generated_at"`
}
