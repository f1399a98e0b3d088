package operations

import (
	"sync"
	"time"

	"salesreport/internal/report"
	"salesreport/pkg/contracts/domain"
)

// OperationStatusValue represents the overall run status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
)

// OperationState holds the status of one run and the artifacts its steps
// hand to each other
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatusValue
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	Steps map[string]*StepState
	order []string

	dataset   *domain.SalesDataset
	summary   *domain.SalesSummary
	chartPath string
	csvFiles  []string
	report    *report.Result
}

// NewOperationState creates a new run state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// GetStatus returns the current run status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// Duration returns the run duration so far
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// SetStage registers a step state, keeping registration order
func (p *OperationState) SetStage(id string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.Steps[id]; !exists {
		p.order = append(p.order, id)
	}
	p.Steps[id] = state
}

// GetStage returns the state of a step, or nil
func (p *OperationState) GetStage(id string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[id]
}

// StageIDs returns the registered step IDs in registration order
func (p *OperationState) StageIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}

// SetDataset stores the loaded dataset
func (p *OperationState) SetDataset(d *domain.SalesDataset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataset = d
}

// Dataset returns the loaded dataset, or nil before loading
func (p *OperationState) Dataset() *domain.SalesDataset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dataset
}

// SetSummary stores the aggregate
func (p *OperationState) SetSummary(s *domain.SalesSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = s
}

// Summary returns the aggregate, or nil before aggregation
func (p *OperationState) Summary() *domain.SalesSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

// SetChartPath records the chart file written by this run
func (p *OperationState) SetChartPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chartPath = path
}

// ChartPath returns the chart written by this run, or ""
func (p *OperationState) ChartPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chartPath
}

// SetCSVFiles records the view CSV files written by this run
func (p *OperationState) SetCSVFiles(files []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.csvFiles = append([]string(nil), files...)
}

// CSVFiles returns the view CSV files written by this run
func (p *OperationState) CSVFiles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.csvFiles...)
}

// SetReport stores the report result
func (p *OperationState) SetReport(r *report.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report = r
}

// Report returns the report result, or nil
func (p *OperationState) Report() *report.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.report
}
