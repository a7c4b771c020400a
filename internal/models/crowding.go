package models

import (
	"math"

	"github.com/san-kum/polysim/internal/kinetics"
)

// ActivityCoefficient returns the scaled-particle-theory activity
// coefficient of a hard sphere of radius ratio z = r/r_crowder among
// crowders at volume fraction phi.
func ActivityCoefficient(z, phi float64) float64 {
	y := phi / (1 - phi)
	z2, z3 := z*z, z*z*z
	lnGamma := -math.Log(1-phi) +
		(3*z+3*z2+z3)*y +
		(4.5*z2+3*z3)*y*y +
		3*z3*y*y*y
	return math.Exp(lnGamma)
}

// CrowdingFactors returns the addition factor gamma and the nucleation
// factor alpha. Both are 1 when no volume fraction is given.
//
// gamma is the monomer activity coefficient. alpha is the activity of nc
// monomers relative to a compact nucleus of radius r_monomer·nc^(1/3).
func CrowdingFactors(c Crowding, nc int) (gamma, alpha float64, err error) {
	if c.Phi == nil || *c.Phi == 0 {
		return 1, 1, nil
	}
	phi := *c.Phi
	if phi < 0 || phi >= 1 {
		return 0, 0, kinetics.Invalidf("crowding volume fraction must be in [0, 1), got %g", phi)
	}
	if c.RMonomer == nil || c.RCrowder == nil {
		return 0, 0, kinetics.Invalidf("crowding requires r_monomer and r_crowder")
	}
	rm, rc := *c.RMonomer, *c.RCrowder
	if rm <= 0 || rc <= 0 {
		return 0, 0, kinetics.Invalidf("crowding radii must be positive, got r_monomer=%g r_crowder=%g", rm, rc)
	}

	g1 := ActivityCoefficient(rm/rc, phi)
	rn := rm * math.Cbrt(float64(nc))
	gn := ActivityCoefficient(rn/rc, phi)

	gamma = g1
	alpha = math.Pow(g1, float64(nc)) / gn
	return gamma, alpha, nil
}
