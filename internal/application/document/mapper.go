package document

import (
	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

func entityToDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	signers := make([]dto.InternalSignerResponse, 0, len(d.InternalSigners))
	for _, s := range d.InternalSigners {
		signers = append(signers, dto.InternalSignerResponse{
			UserID:        s.UserID,
			Status:        s.Status,
			FirstViewedAt: s.FirstViewedAt,
			SignedAt:      s.SignedAt,
			RejectedAt:    s.RejectedAt,
		})
	}
	return &dto.DocumentResponse{
		ID:                      d.ID,
		CompanyID:               d.CompanyID,
		BranchID:                d.BranchIDValue(),
		CreatedBy:               d.CreatedBy,
		Title:                   d.Title,
		Description:             d.Description,
		Status:                  d.Status,
		AccessHash:              d.AccessHash,
		ContentType:             d.ContentType,
		SizeBytes:               d.SizeBytes,
		RequiresInternalSigners: d.RequiresInternalSigners,
		InternalSigners:         signers,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
	}
}
