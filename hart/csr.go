package hart

// CSR addresses the hart knows by name.
const (
	CSRSstatus = 0x100
	CSRSie     = 0x104
	CSRStvec   = 0x105
	CSRSepc    = 0x141
	CSRScause  = 0x142

	CSRMstatus = 0x300
	CSRMideleg = 0x303
	CSRMie     = 0x304
	CSRMtvec   = 0x305
	CSRMepc    = 0x341
	CSRMcause  = 0x342
)

const numCSRs = 4096

// readCSR returns the value of a CSR. sie has no storage of its own and shows
// the delegated bits of mie.
func (s *hartState) readCSR(addr uint32) uint64 {
	addr &= numCSRs - 1

	if addr == CSRSie {
		return s.CSRs[CSRMie] & s.CSRs[CSRMideleg]
	}

	return s.CSRs[addr]
}

// writeCSR sets a CSR. Writes to sie only change the delegated bits of mie.
func (s *hartState) writeCSR(addr uint32, value uint64) {
	addr &= numCSRs - 1

	if addr == CSRSie {
		mask := s.CSRs[CSRMideleg]
		s.CSRs[CSRMie] = s.CSRs[CSRMie]&^mask | value&mask

		return
	}

	s.CSRs[addr] = value
}
