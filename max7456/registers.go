package max7456

// Register write addresses. Reading a register uses its address | regRead,
// except STAT, DMDO and CMDO which are read-only addresses.
const (
	regVM0  = 0x00
	regVM1  = 0x01
	regHOS  = 0x02
	regVOS  = 0x03
	regDMM  = 0x04
	regDMAH = 0x05
	regDMAL = 0x06
	regDMDI = 0x07
	regCMM  = 0x08
	regCMAH = 0x09
	regCMAL = 0x0A
	regCMDI = 0x0B
	regOSDM = 0x0C
	regRB0  = 0x10

	regSTAT = 0xA0
	regDMDO = 0xB0
	regCMDO = 0xC0

	regRead = 0x80
)

// VM0 bits
const (
	vm0PAL         = 0x40
	vm0VSyncEnable = 0x04
	vm0EnableOSD   = 0x08
	vm0Reset       = 0x02
)

// DMM bits
const (
	dmmClear = 0x04
)

// CMM commands
const (
	cmmWriteNVM = 0xA0
	cmmReadNVM  = 0x50
)

// STAT bits
const (
	statCharMemBusy = 0x20
)
