package analysis

import (
	"time"

	"guardplan/internal/model"
)

// Stage is one scripted analysis step and how long it takes
type Stage struct {
	model.AnalysisStage `mapstructure:",squash"`
	Delay               time.Duration `mapstructure:"delay" validate:"gte=0"`
}

// DefaultStages returns the eight reference stages
func DefaultStages() []Stage {
	return []Stage{
		stage("satellite_scan", 10, "Scanning satellite imagery...", 800*time.Millisecond),
		stage("access_points", 20, "Identifying access points...", 1000*time.Millisecond),
		stage("crowd_flow", 35, "Analyzing crowd flow patterns...", 1200*time.Millisecond),
		stage("structural", 50, "Detecting structural vulnerabilities...", 1000*time.Millisecond),
		stage("guard_positions", 65, "Calculating optimal guard positions...", 1500*time.Millisecond),
		stage("line_of_sight", 80, "Assessing line-of-sight coverage...", 1000*time.Millisecond),
		stage("threat_matrix", 95, "Generating threat matrix...", 800*time.Millisecond),
		stage("finalize", 100, "Finalizing security plan...", 500*time.Millisecond),
	}
}

func stage(name string, progress int, message string, delay time.Duration) Stage {
	return Stage{
		AnalysisStage: model.AnalysisStage{Name: name, Progress: progress, Message: message},
		Delay:         delay,
	}
}

// TotalDelay returns the unscaled duration of a full run
func TotalDelay(stages []Stage) time.Duration {
	var total time.Duration
	for _, s := range stages {
		total += s.Delay
	}
	return total
}
