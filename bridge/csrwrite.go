package bridge

import (
	"github.com/sirupsen/logrus"
)

// PutCSR writes the hart's CSR at addr. The write is best-effort:
// unknown harts, absent registers and rejected values are logged and
// dropped without disturbing the machine.
func PutCSR(hart int, addr uint32, value uint64) {
	mu.Lock()
	defer mu.Unlock()
	defer recoverOnly("put csr")

	core := liveCore("put csr", hart)
	if core == nil {
		return
	}
	if err := core.PutCSR(uint64(addr), value); err != nil {
		logrus.Debugf("put csr %#05x: %v", addr, err)
	}
}
