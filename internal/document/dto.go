package document

import "github.com/google/uuid"

type ProcessResponseDTO struct {
	DocumentID uuid.UUID `json:"document_id"`
	Chunks     int       `json:"chunks"`
	Processed  bool      `json:"processed"`
}
