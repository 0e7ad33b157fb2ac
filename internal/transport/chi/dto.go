package chi

import "github.com/kailas-cloud/pdfrag/internal/domain"

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	Message       string   `json:"message"`
	UploadedFiles []string `json:"uploaded_files"`
}

type chatRequest struct {
	Message       *string  `json:"message"`
	APIURL        string   `json:"api_url"`
	Model         string   `json:"model"`
	SelectedFiles []string `json:"selected_files"`
}

type chatResponse struct {
	Response domain.Answer `json:"response"`
}

type pageCountsRequest struct {
	FilePaths []string `json:"file_paths"`
}

type pageCountsResponse struct {
	PageCounts map[string]int `json:"page_counts"`
}

type removeFileRequest struct {
	FilePath *string `json:"file_path"`
}

type saveUploadedFilesRequest struct {
	UploadedFiles []domain.UploadRecord `json:"uploaded_files"`
}

type saveUploadedFilesResponse struct {
	Message    string `json:"message"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	Total      int    `json:"total"`
}

type loadUploadedFilesResponse struct {
	UploadedFiles []domain.UploadRecord `json:"uploaded_files"`
}

type configResponse struct {
	DefaultAPIURL string `json:"default_api_url"`
	DefaultModel  string `json:"default_model"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Chunks int               `json:"chunks"`
}
