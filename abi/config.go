package abi

// Config parameterizes the eightbyte ABI model.
type Config struct {
	Name            string
	IntArgRegs      []string
	SSEArgRegs      []string
	IntRetRegs      []string
	SSERetRegs      []string
	EightbyteSize   int64
	MaxRegAggregate int64 // larger values are passed by reference/returned via hidden pointer
	StackSlot       int64
	RegSaveGP       int64 // end of the integer part of the register save area
	RegSaveFP       int64 // end of the SSE part of the register save area
	FPSlot          int64 // bytes per SSE register in the save area
}

// SysVAMD64 returns the System V x86-64 parameters.
func SysVAMD64() Config {
	return Config{
		Name:            "sysv-amd64",
		IntArgRegs:      []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"},
		SSEArgRegs:      []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"},
		IntRetRegs:      []string{"rax", "rdx"},
		SSERetRegs:      []string{"xmm0", "xmm1"},
		EightbyteSize:   8,
		MaxRegAggregate: 16,
		StackSlot:       8,
		RegSaveGP:       48,
		RegSaveFP:       176,
		FPSlot:          16,
	}
}

// Validate reports configurations the classifier cannot work with.
func (c Config) Validate() error {
	switch {
	case c.EightbyteSize <= 0:
		return errInvalidConfig("eightbyte size must be positive")
	case c.MaxRegAggregate < 0:
		return errInvalidConfig("max register aggregate must not be negative")
	case c.StackSlot <= 0:
		return errInvalidConfig("stack slot must be positive")
	}
	return nil
}
