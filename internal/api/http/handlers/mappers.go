package handlers

import (
	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:        e.ID,
		Email:     e.Email,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Phone:     e.Phone,
		Role:      e.Role,
		ManagerID: e.ManagerID,
		IsActive:  e.Active,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func employeeResponses(employees []domain.Employee) []dto.EmployeeResponse {
	resp := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		resp = append(resp, employeeResponse(&employees[i]))
	}
	return resp
}

func leadResponse(l *domain.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:              l.ID,
		CompanyName:     l.CompanyName,
		Location:        l.Location,
		State:           l.State,
		CreditRating:    l.CreditRating,
		FirstName:       l.FirstName,
		LastName:        l.LastName,
		Designation:     l.Designation,
		Mobile1:         l.Mobile1,
		Mobile2:         l.Mobile2,
		Landline:        l.Landline,
		Landline2:       l.Landline2,
		Email1:          l.Email1,
		Email2:          l.Email2,
		Status:          l.Status,
		Priority:        l.Priority,
		Source:          l.Source,
		Remarks:         l.Remarks,
		EstimatedValue:  l.EstimatedValue,
		AssignedToID:    l.AssignedToID,
		CreatedByID:     l.CreatedByID,
		LastContactedAt: l.LastContactedAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func statsResponse(s domain.LeadStats) dto.LeadStatsResponse {
	return dto.LeadStatsResponse{
		TotalLeads:     s.TotalLeads,
		RecentLeads:    s.RecentLeads,
		StatusCounts:   s.StatusCounts,
		PriorityCounts: s.PriorityCounts,
		Won:            s.Won,
		Lost:           s.Lost,
		WinRate:        s.WinRate(),
		PipelineValue:  s.PipelineValue,
	}
}

func taskResponse(t *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:           t.ID,
		LeadID:       t.LeadID,
		AssignedToID: t.AssignedToID,
		Title:        t.Title,
		Description:  t.Description,
		Priority:     t.Priority,
		Status:       t.Status,
		DueDate:      t.DueDate,
		CompletedAt:  t.CompletedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func activityResponse(a *domain.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          a.ID,
		LeadID:      a.LeadID,
		EmployeeID:  a.EmployeeID,
		Type:        a.Type,
		Subject:     a.Subject,
		Description: a.Description,
		Outcome:     a.Outcome,
		Duration:    a.Duration,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func documentResponse(d *domain.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:           d.ID,
		LeadID:       d.LeadID,
		Name:         d.Name,
		Type:         d.Type,
		FileURL:      d.FileURL,
		FileSize:     d.FileSize,
		MimeType:     d.MimeType,
		UploadedByID: d.UploadedByID,
		CreatedAt:    d.CreatedAt,
	}
}

func buyerResponse(b *domain.Buyer) *dto.BuyerResponse {
	if b == nil {
		return nil
	}
	return &dto.BuyerResponse{
		ID:          b.ID,
		Email:       b.Email,
		CompanyName: b.CompanyName,
		FirstName:   b.FirstName,
		LastName:    b.LastName,
		Location:    b.Location,
		State:       b.State,
		Mobile:      b.Mobile,
		CreatedAt:   b.CreatedAt,
	}
}

func sellerResponse(s *domain.Seller) *dto.SellerResponse {
	if s == nil {
		return nil
	}
	return &dto.SellerResponse{
		ID:            s.ID,
		CompanyName:   s.CompanyName,
		ContactPerson: s.ContactPerson,
		ContactEmail:  s.ContactEmail,
		ContactPhone:  s.ContactPhone,
		ProjectType:   s.ProjectType,
		Capacity:      s.Capacity,
		Location:      s.Location,
		State:         s.State,
		AskingPrice:   s.AskingPrice,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// adminMatchResponse exposes the unmasked seller. It must only be used on admin routes.
func adminMatchResponse(m *domain.Match) dto.AdminMatchResponse {
	resp := dto.AdminMatchResponse{
		ID:        m.ID,
		Status:    m.Status,
		MatchedAt: m.MatchedAt,
		Buyer:     buyerResponse(m.Buyer),
		Seller:    sellerResponse(m.Seller),
	}
	if t := m.TermsAgreement; t != nil {
		resp.TermsAgreement = &dto.TermsAgreementResponse{ID: t.ID, IPAddress: t.IPAddress, AgreedAt: t.AgreedAt}
	}
	return resp
}

func adminMatchResponses(matches []domain.Match) []dto.AdminMatchResponse {
	resp := make([]dto.AdminMatchResponse, 0, len(matches))
	for i := range matches {
		resp = append(resp, adminMatchResponse(&matches[i]))
	}
	return resp
}
