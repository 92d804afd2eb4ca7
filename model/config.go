package model

// Machine defaults applied by DefaultConfig and wherever a Config
// field is left at its zero value.
const (
	DefaultISA         = "RV64GC"
	DefaultPriv        = "M"
	DefaultResetVector = 0x1000
	DefaultVLen        = 128
	DefaultELen        = 64
	DefaultLogPath     = "lockstep_model.log"
)

// Config describes a machine to build: the ISA string, the privilege
// modes it implements, which harts exist, and the vector geometry.
// Physical memory is injected separately through WithMemory.
type Config struct {
	ISA  string
	Priv string

	HartIDs []int

	VLen int
	ELen int
}

// DefaultConfig returns the machine configuration used when the
// caller overrides nothing: a single machine-mode RV64GC hart.
func DefaultConfig() Config {
	return Config{
		ISA:     DefaultISA,
		Priv:    DefaultPriv,
		HartIDs: []int{0},
		VLen:    DefaultVLen,
		ELen:    DefaultELen,
	}
}

// DebugModuleConfig describes the debug-module features the machine
// advertises.
type DebugModuleConfig struct {
	ProgBufSize     int
	MaxSBADataWidth int

	RequireAuthentication bool
	AbstractRTI           int

	SupportHaltGroups        bool
	SupportHaSelect          bool
	SupportAbstractCSRAccess bool
	SupportAbstractFPRAccess bool
	SupportImplicitEBreak    bool
}

// DefaultDebugModuleConfig returns the debug-module feature set used
// when the caller overrides nothing.
func DefaultDebugModuleConfig() DebugModuleConfig {
	return DebugModuleConfig{
		ProgBufSize:              2,
		SupportHaltGroups:        true,
		SupportHaSelect:          true,
		SupportAbstractCSRAccess: true,
		SupportAbstractFPRAccess: true,
		SupportImplicitEBreak:    true,
	}
}
