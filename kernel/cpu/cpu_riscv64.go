package cpu

// Halt parks the hart in a WFI loop. Interrupts are never enabled during
// early boot so Halt does not return.
func Halt()

// FlushInstructionCache issues a FENCE.I so that instruction fetches observe
// stores made to the text region (e.g. patched function prologues).
func FlushInstructionCache()
