package seed

// Seed is one initiative definition loaded from a YAML seed file.
type Seed struct {
	Domain       string `yaml:"domain"`
	MeasureName  string `yaml:"measureName"`
	Detail       string `yaml:"detail,omitempty"`
	Goal         string `yaml:"goal,omitempty"`
	KPI          string `yaml:"kpi,omitempty"`
	StartDate    string `yaml:"startDate,omitempty"`
	EndDate      string `yaml:"endDate,omitempty"`
	Department   string `yaml:"department,omitempty"`
	ScheduleText string `yaml:"scheduleText,omitempty"`
}

// SeedWithFile pairs a seed with its source file path
type SeedWithFile struct {
	Seed *Seed
	File string
}

// ValidationError represents a validation error for a specific file
type ValidationError struct {
	File    string
	Path    string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if e.Path != "" {
		return e.File + ": " + e.Path + ": " + e.Message
	}
	return e.File + ": " + e.Message
}
