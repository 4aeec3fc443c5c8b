package job

import (
	"time"
)

type CreatePostingRequest struct {
	Title          string `json:"title"           validate:"required,min=3,max=200"`
	Company        string `json:"company"         validate:"required,min=1,max=200"`
	Description    string `json:"description"     validate:"required,min=10,max=10000"`
	Location       string `json:"location"        validate:"required,min=1,max=200"`
	Industry       string `json:"industry"        validate:"omitempty,max=100"`
	Remote         bool   `json:"remote"`
	EmploymentType string `json:"employment_type" validate:"required,oneof=full_time part_time contract temporary internship"`
	SalaryMin      *int64 `json:"salary_min,omitempty" validate:"omitempty,min=0"`
	SalaryMax      *int64 `json:"salary_max,omitempty" validate:"omitempty,min=0"`
}

type UpdatePostingRequest struct {
	Title          *string `json:"title,omitempty"           validate:"omitempty,min=3,max=200"`
	Company        *string `json:"company,omitempty"         validate:"omitempty,min=1,max=200"`
	Description    *string `json:"description,omitempty"     validate:"omitempty,min=10,max=10000"`
	Location       *string `json:"location,omitempty"        validate:"omitempty,min=1,max=200"`
	Industry       *string `json:"industry,omitempty"        validate:"omitempty,max=100"`
	Remote         *bool   `json:"remote,omitempty"`
	EmploymentType *string `json:"employment_type,omitempty" validate:"omitempty,oneof=full_time part_time contract temporary internship"`
	SalaryMin      *int64  `json:"salary_min,omitempty"      validate:"omitempty,min=0"`
	SalaryMax      *int64  `json:"salary_max,omitempty"      validate:"omitempty,min=0"`
}

type PostingResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Industry       string    `json:"industry,omitempty"`
	Remote         bool      `json:"remote"`
	EmploymentType string    `json:"employment_type"`
	SalaryMin      *int64    `json:"salary_min,omitempty"`
	SalaryMax      *int64    `json:"salary_max,omitempty"`
	Active         bool      `json:"active"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListPostingsParams struct {
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
	Search         string `json:"search"`
	Location       string `json:"location"`
	Industry       string `json:"industry"`
	EmploymentType string `json:"employment_type"`
	Remote         *bool  `json:"remote"`
	EmployerID     string `json:"-"`
	IncludeHidden  bool   `json:"-"`
}

func (p *ListPostingsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListPostingsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToPostingResponse(p *Posting) PostingResponse {
	return PostingResponse{
		ID:             p.ID,
		Title:          p.Title,
		Company:        p.Company,
		Description:    p.Description,
		Location:       p.Location,
		Industry:       p.Industry,
		Remote:         p.Remote,
		EmploymentType: p.EmploymentType,
		SalaryMin:      p.SalaryMin,
		SalaryMax:      p.SalaryMax,
		Active:         p.Active,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func ToPostingResponseList(postings []Posting) []PostingResponse {
	responses := make([]PostingResponse, 0, len(postings))
	for _, p := range postings {
		responses = append(responses, ToPostingResponse(&p))
	}
	return responses
}
