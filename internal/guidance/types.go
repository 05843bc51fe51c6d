package guidance

// Category is a navigator answer keyed by query keywords, loaded from YAML.
type Category struct {
	ID       string   `yaml:"id"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
}

// PlanTemplate is a care-plan starting point for a focus area.
type PlanTemplate struct {
	ID        string   `yaml:"id"`
	Goals     []string `yaml:"goals"`
	Tasks     []string `yaml:"tasks"`
	Resources []string `yaml:"resources"`
}

// Care-plan template IDs. HousingFocused is the default selection.
const (
	HousingFocused    = "housing-focused"
	EmploymentFocused = "employment-focused"
	HealthFocused     = "health-focused"
)
