package pio

var (
	// PIO allocation tracking
	// RP2040/RP2350 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	pioAllocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)
)

// allocatePIO allocates a PIO state machine
// Returns (pioNum, smNum, ok)
func allocatePIO() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ { // 2 PIO × 4 SM = 8 total
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

// releasePIO returns a state machine to the pool.
func releasePIO(pioNum, smNum uint8) {
	pioAllocations[pioNum&1][smNum&3] = false
}

// ResetPIOAllocations resets all PIO allocations (for testing)
func ResetPIOAllocations() {
	pioAllocations = [2][4]bool{}
	nextPIONum = 0
	nextSMNum = 0
}

// Gate reset pulse timing. At the 125MHz system clock and a divider of 4
// each PIO cycle is 32ns; the low instruction plus its delay lasts 32 cycles.
const (
	gateResetClkDiv = 4
	gateResetDelay  = 31
	gateResetNs     = (1 + gateResetDelay) * gateResetClkDiv * 8
)
