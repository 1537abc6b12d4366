// Package export converts movie frames into formats other tools read.
package export

import (
	"fmt"
	"strings"
)

// CurveToSVG renders one (energy, value) curve as an SVG polyline,
// dark-background style. Returns "" when there are fewer than two
// points to connect.
func CurveToSVG(energies, values []float64, width, height int, strokeColor string) string {
	if len(energies) < 2 || len(energies) != len(values) {
		return ""
	}

	minX, maxX := energies[0], energies[0]
	minY, maxY := values[0], values[0]
	for i := range energies {
		if energies[i] < minX {
			minX = energies[i]
		}
		if energies[i] > maxX {
			maxX = energies[i]
		}
		if values[i] < minY {
			minY = values[i]
		}
		if values[i] > maxY {
			maxY = values[i]
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := range energies {
		x := (energies[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
