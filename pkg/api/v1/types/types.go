package types

type ControllerType string

var ControllerTypeMyUplink = ControllerType("myuplink")
var ControllerTypeModbus = ControllerType("modbus")
var ControllerTypeDummy = ControllerType("dummy")

func (c ControllerType) Valid() bool {
	switch c {
	case ControllerTypeMyUplink, ControllerTypeModbus, ControllerTypeDummy:
		return true
	}
	return false
}
