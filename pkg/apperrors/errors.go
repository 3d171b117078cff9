package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotReady = errors.New("document text not available for extraction")
	ErrQuestionNotFound = errors.New("question not found")
	ErrResponseNotFound = errors.New("response not found")
	ErrVersionConflict  = errors.New("concurrent response version conflict")
)
