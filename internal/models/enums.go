package models

// YesNo is how survey and approval answers are stored. The empty value means
// "not set" and only appears on optional columns.
type YesNo string

const (
	Yes   YesNo = "Yes"
	No    YesNo = "No"
	Unset YesNo = ""
)

func (y YesNo) Valid() bool {
	return y == Yes || y == No
}

func YesNoFromBool(b bool) YesNo {
	if b {
		return Yes
	}
	return No
}

type CRAPlan string

const (
	PlanNone            CRAPlan = ""
	PlanEoL             CRAPlan = "EoL"
	PlanStopSellInEU    CRAPlan = "Stop Sell in EU"
	PlanBecomeCompliant CRAPlan = "Become Compliant"
)

func (p CRAPlan) Valid() bool {
	switch p {
	case PlanNone, PlanEoL, PlanStopSellInEU, PlanBecomeCompliant:
		return true
	}
	return false
}

type AssessmentStatus string

const (
	StatusNotYetAssessed          AssessmentStatus = "Not Yet Assessed"
	StatusImplementing            AssessmentStatus = "Implementing"
	StatusCoveredByAnotherProduct AssessmentStatus = "Covered by Another Product"
	StatusImplemented             AssessmentStatus = "Implemented"
	StatusWillBeImplemented       AssessmentStatus = "Will Be Implemented"
	StatusWillNotImplement        AssessmentStatus = "Will Not Implement"
)

var AssessmentStatuses = []AssessmentStatus{
	StatusNotYetAssessed,
	StatusImplementing,
	StatusCoveredByAnotherProduct,
	StatusImplemented,
	StatusWillBeImplemented,
	StatusWillNotImplement,
}

func (s AssessmentStatus) Valid() bool {
	for _, v := range AssessmentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NeedsSchedule reports whether start and end dates are required.
func (s AssessmentStatus) NeedsSchedule() bool {
	return s == StatusImplementing || s == StatusWillBeImplemented
}

type Framework string

const (
	FrameworkRED        Framework = "RED"
	FrameworkCRA        Framework = "CRA"
	FrameworkNIS2       Framework = "NIS2"
	FrameworkEUDataAct  Framework = "EU Data Act"
	FrameworkIEC62443_1 Framework = "IEC 62443-1"
	FrameworkIEC62443_2 Framework = "IEC 62443-2"
	FrameworkIEC62443_3 Framework = "IEC 62443-3"
)

// Frameworks is ordered the way the gap assessment groups requirements.
var Frameworks = []Framework{
	FrameworkRED,
	FrameworkCRA,
	FrameworkNIS2,
	FrameworkEUDataAct,
	FrameworkIEC62443_1,
	FrameworkIEC62443_2,
	FrameworkIEC62443_3,
}

func (f Framework) Valid() bool {
	for _, v := range Frameworks {
		if v == f {
			return true
		}
	}
	return false
}
