// internal/heatpump/model.go
package heatpump

import (
	"fmt"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

const (
	addrDeviceSize registers.Address = 4312
	addrModelType  registers.Address = 4318
)

// ModelName builds the commercial model string from the size and
// model-type registers. Unknown registers leave their part out.
func ModelName(src registers.Getter) string {
	name := "Sphera-T"

	if v := src.Get(addrDeviceSize); v.Known {
		name += fmt.Sprintf(" (%d kW)", v.Word)
	}

	if v := src.Get(addrModelType); v.Known {
		switch v.Word {
		case 1:
			name += " bdr"
		case 2:
			name += " M-thermal"
		case 3:
			name += " Monobloc"
		}
	}
	return name
}
