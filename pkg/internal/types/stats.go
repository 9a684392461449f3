package types

// QuotaStatsResponse 当前用户配额视图.
type QuotaStatsResponse struct {
	OwnerID        string `json:"owner_id"`
	UsedBytes      int64  `json:"used_bytes"`
	LimitBytes     int64  `json:"limit_bytes"`
	RemainingBytes int64  `json:"remaining_bytes"`
	UsedDisplay    string `json:"used_display"`
	LimitDisplay   string `json:"limit_display"`
	FileCount      int64  `json:"file_count"`
	// 去重节省：sum(file sizes) - sum(distinct blob sizes)，只统计当前用户的文件
	DedupSavedBytes int64 `json:"dedup_saved_bytes"`
}

// StatsTypeItem 按 MIME 聚合.
type StatsTypeItem struct {
	ContentType string `json:"content_type"`
	Count       int64  `json:"count"`
	Size        int64  `json:"size"`
}

// VaultStatsResponse 当前用户文件统计.
type VaultStatsResponse struct {
	Quota  QuotaStatsResponse `json:"quota"`
	ByType []StatsTypeItem    `json:"by_type"`
}

// MimeTypesResponse 当前用户出现过的 MIME 类型.
type MimeTypesResponse struct {
	MimeTypes []string `json:"mime_types"`
}
