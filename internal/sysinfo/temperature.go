// CPU package temperature via gopsutil host sensors.
//
// Sensor groups are tried in fixed preference order: coretemp (desktop and
// server Intel/AMD) first, then cpu_thermal (ARM boards). Within a group the
// hottest plausible core reading wins. Hosts with neither group report no
// reading and the caller omits the value entirely.
package sysinfo

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

var sensorGroups = []string{"coretemp", "cpu_thermal"}

// Readings outside this range are sensor glitches, not temperatures.
const (
	minValidTemp = 0.0
	maxValidTemp = 150.0
)

// CPUTemperature returns the CPU package temperature in °C, or false when no
// usable sensor exists on this host.
func (p *SystemProbe) CPUTemperature(ctx context.Context) (float64, bool) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return 0, false
	}
	return pickCPUTemperature(temps)
}

// pickCPUTemperature selects the hottest core of the first sensor group that
// has any plausible reading.
func pickCPUTemperature(temps []host.TemperatureStat) (float64, bool) {
	for _, group := range sensorGroups {
		var max float64
		found := false
		for _, t := range temps {
			if !strings.HasPrefix(strings.ToLower(t.SensorKey), group) {
				continue
			}
			if !isValidTemperature(t.Temperature) {
				continue
			}
			if !found || t.Temperature > max {
				max = t.Temperature
				found = true
			}
		}
		if found {
			return max, true
		}
	}
	return 0, false
}

// isValidTemperature returns true if the reading is within a plausible range.
func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
