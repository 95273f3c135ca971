package enums

// RiskLevel flags how close a permit is to exhausting a species quota.
type RiskLevel string

const (
	RiskCritical      RiskLevel = "critical"
	RiskWarning       RiskLevel = "warning"
	RiskOK            RiskLevel = "ok"
	RiskNotApplicable RiskLevel = "na"
)

// RiskForPercent maps a percent-remaining value to a risk level. ok reports
// whether the percentage is applicable at all (false when allocation is
// zero, which is flagged not-applicable rather than divided).
func RiskForPercent(pct float64, ok bool) RiskLevel {
	if !ok {
		return RiskNotApplicable
	}
	switch {
	case pct < 10:
		return RiskCritical
	case pct < 50:
		return RiskWarning
	default:
		return RiskOK
	}
}
