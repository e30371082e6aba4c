package toolchain

import "time"

// Command template placeholders:
//
//	{refProj}    - path to the reference project directory
//	{testProj}   - path to the test project directory
//	{groupFile}  - path of the ephemeral project-group file
//	{resultsDir} - directory for structured result artifacts
//	{logFile}    - name of the structured result log file
//
// The defaults target the dotnet toolchain; every command is configuration so
// a deployment can swap in a different stack without code changes.
const (
	DefaultRestoreCmd  = "dotnet restore {testProj}"
	DefaultBuildCmd    = "dotnet build {refProj} --no-restore --nologo"
	DefaultTestCmd     = `dotnet test {testProj} --no-build --nologo --logger "trx;LogFileName={logFile}" --results-directory {resultsDir}`
	DefaultCoverageCmd = `dotnet test {testProj} --nologo --collect "XPlat Code Coverage" --logger "trx;LogFileName={logFile}" --results-directory {resultsDir}`
	DefaultMutationCmd = "dotnet stryker --solution {groupFile} --output {resultsDir} --reporter json"
)

const (
	defaultRestoreTimeout  = 60 * time.Second
	defaultBuildTimeout    = 60 * time.Second
	defaultTestTimeout     = 20 * time.Second
	defaultCoverageTimeout = 30 * time.Second
	defaultMutationTimeout = 300 * time.Second
)

// Config holds the command templates and timeouts for every pipeline stage.
type Config struct {
	RestoreCmd  string `yaml:"restoreCmd"`
	BuildCmd    string `yaml:"buildCmd"`
	TestCmd     string `yaml:"testCmd"`
	CoverageCmd string `yaml:"coverageCmd"`
	MutationCmd string `yaml:"mutationCmd"`

	RestoreTimeout  time.Duration `yaml:"restoreTimeout"`
	BuildTimeout    time.Duration `yaml:"buildTimeout"`
	TestTimeout     time.Duration `yaml:"testTimeout"`
	CoverageTimeout time.Duration `yaml:"coverageTimeout"`
	MutationTimeout time.Duration `yaml:"mutationTimeout"`

	MaxOutputBytes int64 `yaml:"maxOutputBytes"`
}

// ApplyDefaults fills zero-valued fields with the dotnet defaults.
func (c *Config) ApplyDefaults() {
	if c.RestoreCmd == "" {
		c.RestoreCmd = DefaultRestoreCmd
	}
	if c.BuildCmd == "" {
		c.BuildCmd = DefaultBuildCmd
	}
	if c.TestCmd == "" {
		c.TestCmd = DefaultTestCmd
	}
	if c.CoverageCmd == "" {
		c.CoverageCmd = DefaultCoverageCmd
	}
	if c.MutationCmd == "" {
		c.MutationCmd = DefaultMutationCmd
	}
	if c.RestoreTimeout <= 0 {
		c.RestoreTimeout = defaultRestoreTimeout
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = defaultBuildTimeout
	}
	if c.TestTimeout <= 0 {
		c.TestTimeout = defaultTestTimeout
	}
	if c.CoverageTimeout <= 0 {
		c.CoverageTimeout = defaultCoverageTimeout
	}
	if c.MutationTimeout <= 0 {
		c.MutationTimeout = defaultMutationTimeout
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = defaultMaxOutputBytes
	}
}
