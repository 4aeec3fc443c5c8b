package job

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/launchhire/backend/internal/config"
	"github.com/launchhire/backend/internal/core"
)

type fakeRepo struct {
	postings map[string]*Posting
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{postings: make(map[string]*Posting)}
}

func (f *fakeRepo) Create(_ context.Context, posting *Posting) error {
	posting.CreatedAt = time.Now()
	posting.UpdatedAt = posting.CreatedAt
	f.postings[posting.ID] = posting
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Posting, error) {
	if posting, ok := f.postings[id]; ok {
		copied := *posting
		return &copied, nil
	}
	return nil, fmt.Errorf("get posting: %w", core.ErrNotFound)
}

func (f *fakeRepo) Update(_ context.Context, posting *Posting) error {
	if _, ok := f.postings[posting.ID]; !ok {
		return fmt.Errorf("update posting: %w", core.ErrNotFound)
	}
	posting.UpdatedAt = time.Now()
	copied := *posting
	f.postings[posting.ID] = &copied
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id string) error {
	posting, ok := f.postings[id]
	if !ok || !posting.Active {
		return fmt.Errorf("deactivate posting: %w", core.ErrNotFound)
	}
	now := time.Now()
	posting.Active = false
	posting.DeactivatedAt = &now
	return nil
}

func (f *fakeRepo) List(
	_ context.Context,
	params ListPostingsParams,
) ([]Posting, int, error) {
	params.Normalize()
	var out []Posting
	now := time.Now()
	for _, p := range f.postings {
		if !params.IncludeHidden && !p.Visible(now) {
			continue
		}
		if params.EmployerID != "" && p.EmployerID != params.EmployerID {
			continue
		}
		if params.Industry != "" && p.Industry != params.Industry {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) CountActiveByEmployer(
	_ context.Context,
	employerID string,
) (int, error) {
	count := 0
	now := time.Now()
	for _, p := range f.postings {
		if p.EmployerID == employerID && p.Visible(now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) LockEmployer(_ context.Context, _ string) error {
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(nil, repo, config.JobsConfig{
		MaxActivePerEmployer: 5,
		RetentionDays:        30,
	})
	svc.inTx = func(_ context.Context, fn func(Repository) error) error {
		return fn(repo)
	}
	return svc
}

func activePosting(id, employerID string) *Posting {
	return &Posting{
		ID:             id,
		EmployerID:     employerID,
		Title:          "Backend Engineer",
		Company:        "LaunchHire",
		Description:    "Build and run backend services.",
		Location:       "Berlin",
		EmploymentType: EmploymentFullTime,
		Active:         true,
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestCreateEnforcesActiveLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	req := CreatePostingRequest{
		Title:          "Backend Engineer",
		Company:        "LaunchHire",
		Description:    "Build and run backend services.",
		Location:       "Berlin",
		EmploymentType: EmploymentFullTime,
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(context.Background(), "e1", req); err != nil {
			t.Fatalf("Create() #%d error = %v", i+1, err)
		}
	}

	_, err := svc.Create(context.Background(), "e1", req)
	if !errors.Is(err, ErrPostingLimit) {
		t.Fatalf("Create() #6 error = %v, want ErrPostingLimit", err)
	}

	// Another employer is not affected by the first one's quota.
	if _, err := svc.Create(context.Background(), "e2", req); err != nil {
		t.Errorf("Create() for e2 error = %v, want nil", err)
	}

	// Deactivating a posting frees a slot.
	var victim string
	for id, p := range repo.postings {
		if p.EmployerID == "e1" {
			victim = id
			break
		}
	}
	if err := svc.Deactivate(context.Background(), victim, "e1"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "e1", req); err != nil {
		t.Errorf("Create() after deactivate error = %v, want nil", err)
	}
}

func TestGetHidesInactivePostings(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	visible := activePosting("p1", "e1")
	repo.postings["p1"] = visible

	inactive := activePosting("p2", "e1")
	inactive.Active = false
	repo.postings["p2"] = inactive

	expired := activePosting("p3", "e1")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	repo.postings["p3"] = expired

	if _, err := svc.Get(context.Background(), "p1"); err != nil {
		t.Errorf("Get(p1) error = %v, want nil", err)
	}

	for _, id := range []string{"p2", "p3"} {
		_, err := svc.Get(context.Background(), id)
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get(%s) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestGetOwnedRejectsForeignEmployer(t *testing.T) {
	repo := newFakeRepo()
	repo.postings["p1"] = activePosting("p1", "e1")
	svc := newTestService(repo)

	_, err := svc.GetOwned(context.Background(), "p1", "e2")
	if !errors.Is(err, core.ErrForbidden) {
		t.Errorf("GetOwned() error = %v, want ErrForbidden", err)
	}
}

func TestGetOwnedIncludesInactive(t *testing.T) {
	repo := newFakeRepo()
	inactive := activePosting("p1", "e1")
	inactive.Active = false
	repo.postings["p1"] = inactive
	svc := newTestService(repo)

	posting, err := svc.GetOwned(context.Background(), "p1", "e1")
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if posting.Active {
		t.Error("expected inactive posting")
	}
}

func TestUpdateValidation(t *testing.T) {
	badType := "freelance"
	lowMax := int64(40000)
	highMin := int64(90000)

	tests := []struct {
		name    string
		req     UpdatePostingRequest
		wantErr error
	}{
		{
			name:    "invalid employment type",
			req:     UpdatePostingRequest{EmploymentType: &badType},
			wantErr: core.ErrInvalidInput,
		},
		{
			name: "salary min above max",
			req: UpdatePostingRequest{
				SalaryMin: &highMin,
				SalaryMax: &lowMax,
			},
			wantErr: ErrSalaryRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			repo.postings["p1"] = activePosting("p1", "e1")
			svc := newTestService(repo)

			_, err := svc.Update(context.Background(), "p1", "e1", tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	repo := newFakeRepo()
	repo.postings["p1"] = activePosting("p1", "e1")
	svc := newTestService(repo)

	title := "Senior Backend Engineer"
	remote := true

	posting, err := svc.Update(context.Background(), "p1", "e1",
		UpdatePostingRequest{Title: &title, Remote: &remote})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if posting.Title != title {
		t.Errorf("Title = %q, want %q", posting.Title, title)
	}
	if !posting.Remote {
		t.Error("Remote not applied")
	}
	if posting.Company != "LaunchHire" {
		t.Errorf("Company changed unexpectedly to %q", posting.Company)
	}
}

func TestDeactivateKeepsRow(t *testing.T) {
	repo := newFakeRepo()
	repo.postings["p1"] = activePosting("p1", "e1")
	svc := newTestService(repo)

	if err := svc.Deactivate(context.Background(), "p1", "e1"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	stored := repo.postings["p1"]
	if stored == nil {
		t.Fatal("posting was removed")
	}
	if stored.Active {
		t.Error("posting still active")
	}
	if stored.DeactivatedAt == nil {
		t.Error("deactivated_at not set")
	}

	// The owner can still see it; the public board cannot.
	if _, err := svc.GetOwned(context.Background(), "p1", "e1"); err != nil {
		t.Errorf("GetOwned() after deactivate error = %v", err)
	}
	if _, err := svc.Get(context.Background(), "p1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after deactivate error = %v, want ErrNotFound", err)
	}
}

func TestDeactivateForeignPosting(t *testing.T) {
	repo := newFakeRepo()
	repo.postings["p1"] = activePosting("p1", "e1")
	svc := newTestService(repo)

	err := svc.Deactivate(context.Background(), "p1", "e2")
	if !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Deactivate() error = %v, want ErrForbidden", err)
	}
	if !repo.postings["p1"].Active {
		t.Error("posting deactivated by non-owner")
	}
}

func TestValidEmploymentType(t *testing.T) {
	valid := []string{
		EmploymentFullTime,
		EmploymentPartTime,
		EmploymentContract,
		EmploymentTemporary,
		EmploymentInternship,
	}
	for _, et := range valid {
		if !ValidEmploymentType(et) {
			t.Errorf("ValidEmploymentType(%q) = false, want true", et)
		}
	}

	for _, et := range []string{"", "freelance", "FULL_TIME", "fulltime"} {
		if ValidEmploymentType(et) {
			t.Errorf("ValidEmploymentType(%q) = true, want false", et)
		}
	}
}
