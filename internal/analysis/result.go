package analysis

// AmountPair splits a money amount into its regular and overtime
// portions. Values are major currency units.
type AmountPair struct {
	Regular  float64 `json:"regular"`
	Overtime float64 `json:"overtime"`
}

// Total returns the combined amount.
func (p AmountPair) Total() float64 {
	return p.Regular + p.Overtime
}

// Amounts carries the three amount perspectives of a bucket.
type Amounts struct {
	Earned AmountPair `json:"earned"`
	Cost   AmountPair `json:"cost"`
	Profit AmountPair `json:"profit"`
}

// GroupSummary is one aggregation bucket.
type GroupSummary struct {
	Key   string `json:"key"`
	Label string `json:"label"`

	TotalHours       float64 `json:"totalHours"`
	BillableHours    float64 `json:"billableHours"`
	NonBillableHours float64 `json:"nonBillableHours"`
	RegularHours     float64 `json:"regularHours"`
	OvertimeHours    float64 `json:"overtimeHours"`

	Amounts Amounts `json:"amounts"`
}

// Result is the immutable outcome of one analysis run. Groups preserve
// first-occurrence order; sorting is a rendering concern.
type Result struct {
	Groups []GroupSummary `json:"groups"`
	Totals GroupSummary   `json:"totals"`
}
