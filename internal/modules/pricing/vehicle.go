package pricing

type VehicleType string

const (
	VehicleCityCar VehicleType = "city_car"
	VehicleSUV     VehicleType = "suv"
	VehicleMiniBus VehicleType = "minibus"
)

func ClassifyVehicle(passengers int) VehicleType {
	switch {
	case passengers <= 4:
		return VehicleCityCar
	case passengers <= 6:
		return VehicleSUV
	default:
		return VehicleMiniBus
	}
}

func (v VehicleType) Capacity() int {
	switch v {
	case VehicleCityCar:
		return 4
	case VehicleSUV:
		return 6
	default:
		return 12
	}
}

func (v VehicleType) Label() string {
	switch v {
	case VehicleCityCar:
		return "City Car"
	case VehicleSUV:
		return "SUV/Break"
	default:
		return "Mini Bus"
	}
}
