package api

import "strings"

// CronJob manages one file below /etc/cron.d.
type CronJob struct {
	Metadata
	Parameters    CronJobParameters `json:"parameters"`
	Relationships Relationships     `json:"relationships"`
}

// CronJobParameters are the declared properties of a managed cron job.
// Environment variables are sorted by name and precede the single job line.
type CronJobParameters struct {
	Ensure      Ensure                `json:"ensure"`
	Target      SafePath              `json:"target"`
	Name        CronJobName           `json:"name"`
	Environment []EnvironmentVariable `json:"environment"`
	Schedule    string                `json:"schedule"`
	User        Username              `json:"user"`
	Command     string                `json:"command"`
}

// CronDir is the directory cron job targets derive from.
const CronDir SafePath = "/etc/cron.d"

// Render produces the desired file content in crontab(5) syntax.
func (p CronJobParameters) Render() string {
	var b strings.Builder
	for _, variable := range p.Environment {
		b.WriteString(variable.Render())
		b.WriteString("\n")
	}
	b.WriteString(p.Schedule)
	b.WriteString(" ")
	b.WriteString(p.User.String())
	b.WriteString(" ")
	b.WriteString(p.Command)
	b.WriteString("\n")
	return b.String()
}

// NewCronJob returns a cron job resource with a fresh id.
func NewCronJob(parameters CronJobParameters) *CronJob {
	return &CronJob{
		Metadata:      newMetadata(KindCronJob),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}
