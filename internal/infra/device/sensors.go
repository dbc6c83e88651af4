package device

// ThermalSensor reads the CPU package temperature.
type ThermalSensor struct{}

// NewThermalSensor creates a thermal sensor.
func NewThermalSensor() *ThermalSensor {
	return &ThermalSensor{}
}

// CPUTemp returns the CPU temperature in Celsius.
// Returns 0 when sensor data is unavailable (safe default — no throttle).
func (t *ThermalSensor) CPUTemp() int {
	return readCPUTemp()
}

// BatterySensor reads battery state.
type BatterySensor struct{}

// NewBatterySensor creates a battery sensor.
func NewBatterySensor() *BatterySensor {
	return &BatterySensor{}
}

// IsPresent returns true if the machine has a battery (laptop).
func (b *BatterySensor) IsPresent() bool {
	return hasBattery()
}

// Percentage returns battery charge level (0-100).
func (b *BatterySensor) Percentage() int {
	return batteryPercentage()
}

// IsCharging returns true if plugged in and charging.
func (b *BatterySensor) IsCharging() bool {
	return isBatteryCharging()
}
