package resolve

import "symres/host"

// LoadedType is the immutable result of a successful resolution: the symbol
// that was found, the module identity it was found under, and the loaded
// module handle when the module image was actually brought into the process.
type LoadedType struct {
	// Symbol is the resolved candidate.
	Symbol host.Symbol
	// Module is the identity the caller supplied to Resolve.
	Module host.ModuleLoadInfo
	// Loaded is the module image handle, for downstream diagnostics.
	// It is nil when the symbol was resolved by a targeted probe that did
	// not require loading the full module.
	Loaded host.Module
}
