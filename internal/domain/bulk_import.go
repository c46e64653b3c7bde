package domain

// BulkImportRow 是从外部文件解析出的一行，键为列名
type BulkImportRow struct {
	Number int               `json:"number"` // 文件中的行号，从 1 开始
	Fields map[string]string `json:"fields"`
}

type RejectedRow struct {
	Row    BulkImportRow `json:"row"`
	Errors []string      `json:"errors"`
}

type BatchError struct {
	Batch   int    `json:"batch"` // 从 1 开始
	Size    int    `json:"size"`
	Message string `json:"message"`
}

type CommitResult struct {
	SuccessCount int          `json:"successCount"`
	FailedCount  int          `json:"failedCount"`
	BatchErrors  []BatchError `json:"batchErrors"`
}
