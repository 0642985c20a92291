package domain

import "strings"

// Update is a closed set of field changes. Only the variants declared in
// this file satisfy it, so a partially-populated record can never be
// written through the provider.
type Update interface {
	// Kind names the variant, for logs and provider dispatch.
	Kind() string
	Validate() error
	sealed()
}

// JobUpdate is an Update that targets a Job.
type JobUpdate interface {
	Update
	ApplyJob(*Job)
}

// CandidateUpdate is an Update that targets a Candidate.
type CandidateUpdate interface {
	Update
	ApplyCandidate(*Candidate)
}

// JobTitle renames a job. The slug follows the title.
type JobTitle struct {
	Title string `validate:"required"`
}

func (JobTitle) Kind() string { return "title" }
func (u JobTitle) Validate() error {
	if strings.TrimSpace(u.Title) == "" {
		return Validationf("title is required")
	}
	return nil
}
func (u JobTitle) ApplyJob(j *Job) {
	j.Title = strings.TrimSpace(u.Title)
	j.Slug = Slugify(j.Title)
}
func (JobTitle) sealed() {}

// JobStatusChange archives or unarchives a job.
type JobStatusChange struct {
	Status JobStatus
}

func (JobStatusChange) Kind() string { return "status" }
func (u JobStatusChange) Validate() error {
	if !u.Status.Valid() {
		return Validationf("unknown job status %q", u.Status)
	}
	return nil
}
func (u JobStatusChange) ApplyJob(j *Job) { j.Status = u.Status }
func (JobStatusChange) sealed()           {}

// JobTags replaces a job's tag list.
type JobTags struct {
	Tags []string
}

func (JobTags) Kind() string { return "tags" }
func (u JobTags) Validate() error {
	for i, t := range u.Tags {
		if strings.TrimSpace(t) == "" {
			return Validationf("tag %d is empty", i)
		}
	}
	return nil
}
func (u JobTags) ApplyJob(j *Job) { j.Tags = cloneStrings(u.Tags) }
func (JobTags) sealed()           {}

// JobDetails replaces the descriptive fields of a job.
type JobDetails struct {
	Description  string `validate:"required"`
	Location     string
	Type         string
	Requirements []string
}

func (JobDetails) Kind() string { return "details" }
func (u JobDetails) Validate() error {
	return validateStruct(u)
}
func (u JobDetails) ApplyJob(j *Job) {
	j.Description = u.Description
	j.Location = u.Location
	j.Type = u.Type
	j.Requirements = cloneStrings(u.Requirements)
}
func (JobDetails) sealed() {}

// CandidateStage moves a candidate to another stage.
type CandidateStage struct {
	Stage Stage
}

func (CandidateStage) Kind() string { return "stage" }
func (u CandidateStage) Validate() error {
	if !u.Stage.Valid() {
		return Validationf("unknown stage %q", u.Stage)
	}
	return nil
}
func (u CandidateStage) ApplyCandidate(c *Candidate) { c.Stage = u.Stage }
func (CandidateStage) sealed()                      {}

// CandidateContact replaces a candidate's contact fields.
type CandidateContact struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Phone string
}

func (CandidateContact) Kind() string { return "contact" }
func (u CandidateContact) Validate() error {
	return validateStruct(u)
}
func (u CandidateContact) ApplyCandidate(c *Candidate) {
	c.Name = u.Name
	c.Email = u.Email
	c.Phone = u.Phone
}
func (CandidateContact) sealed() {}
