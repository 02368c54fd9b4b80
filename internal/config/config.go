package config

const VERSION = "1.0.0"

// Config holds global application settings
type Config struct {
	Debug     bool
	Quiet     bool
	SubmitJob bool
	Version   string

	SchedulerBin  string
	SchedulerType string

	// Default job parameters applied when a flag is not given
	Walltime string
	Nodes    int
	Ppn      int
	Queue    string
	Account  string
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults initializes Global with built-in defaults. Viper values and
// command-line flags are layered on top afterwards.
func LoadDefaults() {
	Global = Config{
		Debug:     false,
		Quiet:     false,
		SubmitJob: true,
		Version:   VERSION,

		Walltime: "00:30:00",
		Nodes:    1,
		Ppn:      1,
		Queue:    "home",
		Account:  "yeo-group",
	}
}
