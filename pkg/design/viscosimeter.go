package design

import "github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"

func at(x, y float64) *sexp.Position {
	return &sexp.Position{X: x, Y: y}
}

// Viscosimeter returns the measurement rig: an Arduino reading motor
// current through an ACS712, the 12 V rail through an R1/R2 divider, a
// proximity sensor and a push switch.
func Viscosimeter() *Spec {
	return &Spec{
		Name: "viscosimeter",
		Nets: []NetSpec{
			{Name: "GND", Power: true},
			{Name: "+12V", Power: true},
			{Name: "+5V", Power: true},
			{Name: "VOLTAGE_MONITOR"},
			{Name: "CURRENT_SENSE"},
			{Name: "PROX_OUT"},
			{Name: "SW_OUT"},
			{Name: "MOTOR_POS"},
		},
		Parts: []PartSpec{
			{Handle: "r1", Library: "Device", Name: "R", Value: "48.7k", At: at(50.8, 25.4)},
			{Handle: "r2", Library: "Device", Name: "R", Value: "31.4k", At: at(50.8, 38.1)},
			{Handle: "acs", Library: "Sensor_Current", Name: "ACS712xLCTR-30A", Value: "ACS712", At: at(76.2, 50.8)},
			{Handle: "motor", Library: "Motor", Name: "Motor_DC", Value: "RS-445PA-14233R", At: at(177.8, 50.8)},
			{Handle: "prox", Library: "Connector", Name: "Screw_Terminal_01x03", Value: "TCD210245AA", At: at(76.2, 101.6)},
			{Handle: "sw", Library: "Switch", Name: "SW_Push", At: at(177.8, 101.6)},
			{Handle: "arduino", Library: "MCU_Module", Name: "Arduino_UNO_R3", At: at(127, 76.2)},
			{Handle: "pwr12v", Library: "Connector", Name: "Screw_Terminal_01x02", Value: "12V_Supply", At: at(25.4, 25.4)},
		},
		Connections: []Connection{
			Bind("pwr12v", "1", "+12V"),
			Bind("pwr12v", "2", "GND"),

			// Divider
			Bind("r1", "1", "+12V"),
			Bind("r1", "2", "VOLTAGE_MONITOR"),
			Join("r1", "2", "r2", "1"),
			Bind("r2", "2", "GND"),

			// Current sensor in series with the motor
			Bind("acs", "VCC", "+5V"),
			Bind("acs", "GND", "GND"),
			Bind("acs", "VIOUT", "CURRENT_SENSE"),
			Bind("acs", "IP+", "+12V"),
			Bind("acs", "IP-", "MOTOR_POS"),
			Bind("motor", "+", "MOTOR_POS"),
			Bind("motor", "-", "GND"),

			Bind("prox", "1", "+5V"),
			Bind("prox", "2", "GND"),
			Bind("prox", "3", "PROX_OUT"),

			Bind("sw", "1", "SW_OUT"),
			Bind("sw", "2", "GND"),

			Bind("arduino", "+5V", "+5V"),
			Bind("arduino", "GND", "GND"),
			Bind("arduino", "A0", "CURRENT_SENSE"),
			Bind("arduino", "A1", "VOLTAGE_MONITOR"),
			Bind("arduino", "D2", "PROX_OUT"),
			Bind("arduino", "D7", "SW_OUT"),
			Bind("arduino", "VIN", "+12V"),
		},
		Wires: []WireSpec{
			{Net: "+12V", From: PinSpec{Handle: "pwr12v", Pin: "1"}, To: PinSpec{Handle: "r1", Pin: "1"}},
			{Net: "VOLTAGE_MONITOR", From: PinSpec{Handle: "r1", Pin: "2"}, To: PinSpec{Handle: "r2", Pin: "1"}},
		},
		Flags: []FlagSpec{
			{Net: "GND", At: sexp.Position{X: 25.4, Y: 127}},
			{Net: "+12V", At: sexp.Position{X: 12.7, Y: 25.4}},
			{Net: "+5V", At: sexp.Position{X: 25.4, Y: 76.2}},
		},
	}
}
