package solar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFlareClass is returned for malformed flare class strings.
var ErrInvalidFlareClass = errors.New("invalid flare class")

// Decade base flux (W/m^2) of each GOES class letter.
const (
	FluxA = 1e-8
	FluxB = 1e-7
	FluxC = 1e-6
	FluxM = 1e-5
	FluxX = 1e-4
)

var classBase = map[byte]float64{
	'A': FluxA,
	'B': FluxB,
	'C': FluxC,
	'M': FluxM,
	'X': FluxX,
}

// FlareClassToFlux converts a class string such as "C3.2" or "x" to peak
// flux in W/m^2. The letter is case-insensitive; a missing multiplier is 1.
func FlareClassToFlux(class string) (float64, error) {
	if class == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFlareClass, class)
	}
	base, ok := classBase[strings.ToUpper(class[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFlareClass, class)
	}
	if len(class) == 1 {
		return base, nil
	}
	mult, err := strconv.ParseFloat(class[1:], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFlareClass, class)
	}
	return base * mult, nil
}

// FluxToFlareClass formats a long-channel peak flux as a class string with
// one decimal, e.g. 3e-4 -> "X3.0". Bins are half-open decades; anything
// below 1e-7 is an A flare, including fluxes under 1e-8 (multiplier < 1).
func FluxToFlareClass(flux float64) string {
	var letter string
	var base float64
	switch {
	case flux < FluxB:
		letter, base = "A", FluxA
	case flux < FluxC:
		letter, base = "B", FluxB
	case flux < FluxM:
		letter, base = "C", FluxC
	case flux < FluxX:
		letter, base = "M", FluxM
	default:
		letter, base = "X", FluxX
	}
	return fmt.Sprintf("%s%.1f", letter, flux/base)
}
