package lab

import "time"

// JobKind identifies the monitoring or analysis service a job delivers.
type JobKind string

const (
	JobAirMonitoring      JobKind = "air_monitoring"
	JobLeadMonitoring     JobKind = "lead_monitoring"
	JobAsbestosAssessment JobKind = "asbestos_assessment"
	JobFibreID            JobKind = "fibre_id"
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	switch k {
	case JobAirMonitoring, JobLeadMonitoring, JobAsbestosAssessment, JobFibreID:
		return true
	}
	return false
}

// SampleType is derived from the job kind a sample is collected under.
type SampleType string

const (
	SampleAir  SampleType = "air"
	SampleLead SampleType = "lead"
	SampleBulk SampleType = "bulk"
)

// SampleTypeFor maps a job kind to the kind of sample collected for it.
func SampleTypeFor(kind JobKind) SampleType {
	switch kind {
	case JobLeadMonitoring:
		return SampleLead
	case JobAsbestosAssessment, JobFibreID:
		return SampleBulk
	default:
		return SampleAir
	}
}

// SampleStatus is the field/lab outcome of a sample.
type SampleStatus string

const (
	SamplePending  SampleStatus = "pending"
	SamplePassed   SampleStatus = "passed"
	SampleFailed   SampleStatus = "failed"
	SampleAnalysed SampleStatus = "analysed"
)

type Client struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ContactName  string     `json:"contact_name"`
	ContactEmail string     `json:"contact_email"`
	Address      string     `json:"address"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Project is the top-level container; ProjectID is the human facing code
// (for example LDJ01234) embedded in sample IDs and report filenames.
type Project struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	ClientID  string     `json:"client_id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Job groups the shifts performed for one service on a project.
type Job struct {
	ID                 string     `json:"id"`
	ProjectID          string     `json:"project_id"`
	Kind               JobKind    `json:"kind"`
	Name               string     `json:"name"`
	AsbestosRemovalist string     `json:"asbestos_removalist"`
	Status             string     `json:"status"`
	SampleAllowance    int        `json:"sample_allowance"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Shift is a monitoring session grouping the samples collected on one date.
type Shift struct {
	ID                  string     `json:"id"`
	JobID               string     `json:"job_id"`
	Date                string     `json:"date"`
	Status              string     `json:"status"`
	Supervisor          string     `json:"supervisor"`
	DescriptionOfWorks  string     `json:"description_of_works"`
	Notes               string     `json:"notes"`
	SubmittedBy         string     `json:"submitted_by"`
	SamplesReceivedDate *time.Time `json:"samples_received_date,omitempty"`
	AnalysedBy          string     `json:"analysed_by"`
	AnalysisDate        *time.Time `json:"analysis_date,omitempty"`
	ReportApprovedBy    string     `json:"report_approved_by"`
	ReportIssueDate     *time.Time `json:"report_issue_date,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// Approved reports whether the shift report has been signed off.
func (s Shift) Approved() bool {
	return s.ReportApprovedBy != ""
}

// SampleAnalysis carries the lab results recorded against a sample.
type SampleAnalysis struct {
	FieldsCounted         int        `json:"fields_counted"`
	FibresCounted         float64    `json:"fibres_counted"`
	EdgesDistribution     string     `json:"edges_distribution"`
	BackgroundDust        string     `json:"background_dust"`
	Uncountable           bool       `json:"uncountable"`
	Concentration         *float64   `json:"concentration,omitempty"`
	ReportedConcentration string     `json:"reported_concentration"`
	AsbestosResult        string     `json:"asbestos_result"`
	MaterialDescription   string     `json:"material_description"`
	LeadResult            *float64   `json:"lead_result,omitempty"`
	Notes                 string     `json:"notes"`
	AnalysedAt            *time.Time `json:"analysed_at,omitempty"`
}

// Sample is a single collected specimen and its flow and analysis metadata.
type Sample struct {
	ID              string          `json:"id"`
	ShiftID         string          `json:"shift_id"`
	JobID           string          `json:"job_id"`
	ProjectID       string          `json:"project_id"`
	FullSampleID    string          `json:"full_sample_id"`
	Prefix          string          `json:"prefix"`
	SampleNumber    int             `json:"sample_number"`
	Type            SampleType      `json:"type"`
	Location        string          `json:"location"`
	Description     string          `json:"description"`
	IsFieldBlank    bool            `json:"is_field_blank"`
	PumpID          string          `json:"pump_id"`
	Cowl            string          `json:"cowl"`
	FilterSize      string          `json:"filter_size"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	InitialFlowrate *float64        `json:"initial_flowrate,omitempty"`
	FinalFlowrate   *float64        `json:"final_flowrate,omitempty"`
	AverageFlowrate *float64        `json:"average_flowrate,omitempty"`
	Status          SampleStatus    `json:"status"`
	Notes           string          `json:"notes"`
	Analysis        *SampleAnalysis `json:"analysis,omitempty"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
}

// HasAnalysis reports whether lab results were recorded.
func (s Sample) HasAnalysis() bool {
	return s.Analysis != nil && s.Analysis.AnalysedAt != nil
}

// MarkerKind classifies a site-plan annotation.
type MarkerKind string

const (
	MarkerSample    MarkerKind = "sample"
	MarkerReference MarkerKind = "reference"
	MarkerNote      MarkerKind = "note"
)

// Marker is an annotation on a shift's site plan. X and Y are normalised to
// the plan image, 0..1 from the top-left corner.
type Marker struct {
	ID        string     `json:"id"`
	ShiftID   string     `json:"shift_id"`
	SampleID  string     `json:"sample_id,omitempty"`
	Kind      MarkerKind `json:"kind"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Label     string     `json:"label"`
	Color     string     `json:"color"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type Equipment struct {
	ID              string     `json:"id"`
	Reference       string     `json:"reference"`
	Kind            string     `json:"kind"`
	Model           string     `json:"model"`
	Status          string     `json:"status"`
	CalibrationDate *time.Time `json:"calibration_date,omitempty"`
	CalibrationDue  *time.Time `json:"calibration_due,omitempty"`
}

// CalibrationCurrent reports whether the item is inside its calibration window at t.
func (e Equipment) CalibrationCurrent(t time.Time) bool {
	if e.CalibrationDue == nil {
		return false
	}
	return !t.After(*e.CalibrationDue)
}

type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Licence string `json:"licence"`
}
