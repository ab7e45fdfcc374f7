package fop

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Limit statuses, from calm to loud.
const (
	StatusOK       = "ok"
	StatusWarning  = "warning"
	StatusCritical = "critical"
	StatusExceeded = "exceeded"
)

// Alert types reuse the status names for the three firing bands.
const (
	AlertWarning  = "warning"
	AlertCritical = "critical"
	AlertExceeded = "exceeded"
)

var ErrInvalidGroup = errors.New("invalid FOP group")

// Limit is one simplified-taxation tier: the annual income ceiling in minor
// units and the flat tax rate in percent.
type Limit struct {
	Group       int
	AnnualLimit int64
	TaxRate     int
	Description string
}

// 2025 ceilings. Groups 1 and 2 are multiples of the minimum wage (3028),
// group 3 is a fixed amount.
var limits2025 = map[int]Limit{
	1: {Group: 1, AnnualLimit: 167 * 3028, TaxRate: 0, Description: "ФОП 1 група"},
	2: {Group: 2, AnnualLimit: 1000 * 3028, TaxRate: 2, Description: "ФОП 2 група"},
	3: {Group: 3, AnnualLimit: 7000000, TaxRate: 5, Description: "ФОП 3 група"},
}

func LimitForGroup(group int) (Limit, error) {
	limit, ok := limits2025[group]
	if !ok {
		return Limit{}, fmt.Errorf("%w: %d", ErrInvalidGroup, group)
	}
	return limit, nil
}

// Evaluation is the result of checking a user's annual income against the
// ceiling of their tier.
type Evaluation struct {
	HasLimit      bool    `json:"has_limit"`
	FopGroup      int     `json:"fop_group"`
	AnnualLimit   int64   `json:"annual_limit"`
	CurrentIncome int64   `json:"current_income"`
	Percentage    float64 `json:"percentage"`
	Remaining     int64   `json:"remaining"`
	Status        string  `json:"status"`
}

// Evaluate maps income onto the tier ceiling. Percentage is the plain
// income/limit ratio; scaling to percent is a display concern. Remaining
// goes negative once the ceiling is exceeded and is deliberately not
// clamped to zero.
func Evaluate(group int, income int64) (Evaluation, error) {
	limit, err := LimitForGroup(group)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{
		HasLimit:      true,
		FopGroup:      group,
		AnnualLimit:   limit.AnnualLimit,
		CurrentIncome: income,
		Percentage:    float64(income) / float64(limit.AnnualLimit),
		Remaining:     limit.AnnualLimit - income,
		Status:        statusFor(income, limit.AnnualLimit),
	}, nil
}

// statusFor picks the highest matching band with inclusive lower bounds.
// The comparisons stay in integers so band edges are exact.
func statusFor(income, limit int64) string {
	switch {
	case income >= limit:
		return StatusExceeded
	case 10*income >= 9*limit:
		return StatusCritical
	case 10*income >= 8*limit:
		return StatusWarning
	default:
		return StatusOK
	}
}

// AlertTypeFor returns the alert type an evaluation should fire, or ""
// when the income is below every threshold.
func AlertTypeFor(eval Evaluation) string {
	if !eval.HasLimit {
		return ""
	}
	switch eval.Status {
	case StatusExceeded:
		return AlertExceeded
	case StatusCritical:
		return AlertCritical
	case StatusWarning:
		return AlertWarning
	default:
		return ""
	}
}

// RoundedPercent is the evaluation ratio as a whole percent, used in alert
// rows and message templates.
func RoundedPercent(eval Evaluation) int {
	return int(math.Round(eval.Percentage * 100))
}

// FormatUAH renders a minor-unit amount as hryvnias with two decimals and
// space-grouped thousands, e.g. 3028000 -> "30 280.00".
func FormatUAH(minor int64) string {
	neg := minor < 0
	if neg {
		minor = -minor
	}

	whole := strconv.FormatInt(minor/100, 10)
	var grouped []byte
	for i, d := range []byte(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped = append(grouped, ' ')
		}
		grouped = append(grouped, d)
	}

	s := fmt.Sprintf("%s.%02d", grouped, minor%100)
	if neg {
		return "-" + s
	}
	return s
}

// AlertMessage renders the persisted human-readable alert text.
func AlertMessage(alertType string, eval Evaluation) string {
	pct := RoundedPercent(eval)

	switch alertType {
	case AlertWarning:
		return fmt.Sprintf("Ви використали %d%% річного ліміту. Залишилось %s грн.", pct, FormatUAH(eval.Remaining))
	case AlertCritical:
		return fmt.Sprintf("УВАГА! Ви використали %d%% річного ліміту. Залишилось лише %s грн.", pct, FormatUAH(eval.Remaining))
	case AlertExceeded:
		return fmt.Sprintf("ЛІМІТ ПЕРЕВИЩЕНО! Ви перевищили річний ліміт на %s грн.", FormatUAH(-eval.Remaining))
	}
	return fmt.Sprintf("Стан ліміту: %d%%", pct)
}

// NotificationFor maps an alert to the in-app/push notification triple.
func NotificationFor(alertType string, eval Evaluation) (typ, title, message string) {
	switch alertType {
	case AlertWarning:
		return "limit_warning", "Попередження про ліміт", AlertMessage(alertType, eval)
	case AlertCritical:
		return "limit_critical", "Критичний стан ліміту", AlertMessage(alertType, eval)
	case AlertExceeded:
		return "limit_exceeded", "ЛІМІТ ПЕРЕВИЩЕНО", AlertMessage(alertType, eval)
	}
	return "", "", ""
}

// NotificationData is the structured payload attached to a limit
// notification so clients can render their own widgets.
func NotificationData(eval Evaluation) map[string]string {
	return map[string]string{
		"percentage":    strconv.FormatFloat(eval.Percentage*100, 'f', 2, 64),
		"currentIncome": strconv.FormatInt(eval.CurrentIncome, 10),
		"limit":         strconv.FormatInt(eval.AnnualLimit, 10),
		"remaining":     strconv.FormatInt(eval.Remaining, 10),
		"status":        eval.Status,
	}
}
