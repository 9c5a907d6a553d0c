package scoring

// Feature names. The order of the parameter table below is the order of
// every feature vector.
const (
	FeatureAge         = "age"
	FeatureGender      = "gender"
	FeatureHeight      = "height"
	FeatureWeight      = "weight"
	FeatureBMI         = "bmi"
	FeatureSystolic    = "ap_hi"
	FeatureDiastolic   = "ap_lo"
	FeatureCholesterol = "cholesterol"
	FeatureGlucose     = "gluc"
	FeatureSmoke       = "smoke"
	FeatureAlcohol     = "alco"
	FeatureActive      = "active"
	FeaturePulse       = "pp"
	FeatureMAP         = "map_press"
	FeatureBPStage     = "bp_stage"
	FeatureAgeBMI      = "age_x_bmi"
	FeatureAgeBP       = "age_x_bp"
	FeatureCholGluc    = "chol_gluc"
	FeatureComposite   = "sym_composite"
)

const symptomFeaturePrefix = "sym_"

// Param is one row of the frozen model: a feature name with its logistic
// coefficient, standardization constants and the ranking importance from the
// secondary gradient-boosted model.
type Param struct {
	Name        string
	Coefficient float64
	Mean        float64
	Std         float64
	Importance  float64
}

// Model is the fixed logistic-regression model.
type Model struct {
	Params    []Param
	Intercept float64
	// Threshold is the Youden's-J operating point for the elevated call.
	Threshold float64
}

const (
	defaultIntercept = -7.499534
	defaultThreshold = 0.0712

	// Importance used for a scored symptom missing from the table.
	fallbackImportance = 0.002
)

var defaultParams = []Param{
	{Name: FeatureAge, Coefficient: 1.241076, Mean: 53.226, Std: 6.701, Importance: 0.063},
	{Name: FeatureGender, Coefficient: 0.063829, Mean: 0.652, Std: 0.476, Importance: 0.001},
	{Name: FeatureHeight, Coefficient: 0.034447, Mean: 164.177, Std: 8.472, Importance: 0.011},
	{Name: FeatureWeight, Coefficient: 0.057967, Mean: 72.552, Std: 14.266, Importance: 0.028},
	{Name: FeatureBMI, Coefficient: 0.050317, Mean: 27.043, Std: 5.591, Importance: 0.042},
	{Name: FeatureSystolic, Coefficient: 0.645847, Mean: 120.599, Std: 16.116, Importance: 0.148},
	{Name: FeatureDiastolic, Coefficient: 0.533804, Mean: 77.427, Std: 11.716, Importance: 0.045},
	{Name: FeatureCholesterol, Coefficient: 0.831885, Mean: 1.262, Std: 0.562, Importance: 0.043},
	{Name: FeatureGlucose, Coefficient: 0.380826, Mean: 1.111, Std: 0.401, Importance: 0.006},
	{Name: FeatureSmoke, Coefficient: 0.299398, Mean: 0.088, Std: 0.284, Importance: 0.005},
	{Name: FeatureAlcohol, Coefficient: 0.100167, Mean: 0.050, Std: 0.218, Importance: 0.001},
	{Name: FeatureActive, Coefficient: -0.317500, Mean: 0.800, Std: 0.400, Importance: 0.007},
	{Name: FeaturePulse, Coefficient: 0.435152, Mean: 43.172, Std: 9.547, Importance: 0.029},
	{Name: FeatureMAP, Coefficient: 0.608042, Mean: 91.817, Std: 12.563, Importance: 0.162},
	{Name: FeatureBPStage, Coefficient: 0.008512, Mean: 1.209, Std: 1.186, Importance: 0.019},
	{Name: FeatureAgeBMI, Coefficient: 1.088325, Mean: 1439.385, Std: 350.487, Importance: 0.099},
	{Name: FeatureAgeBP, Coefficient: 0.928678, Mean: 68.898, Std: 69.401, Importance: 0.177},
	{Name: FeatureCholGluc, Coefficient: 0.124611, Mean: 1.402, Std: 0.834, Importance: 0.043},
	{Name: "sym_palp", Coefficient: 0.307458, Mean: 0.238, Std: 0.322, Importance: 0.011},
	{Name: "sym_hot_flashes", Coefficient: 0.169658, Mean: 0.401, Std: 0.355, Importance: 0.004},
	{Name: "sym_night_sweats", Coefficient: 0.029717, Mean: 0.350, Std: 0.349, Importance: 0.002},
	{Name: "sym_sleep", Coefficient: 0.027224, Mean: 0.388, Std: 0.364, Importance: 0.002},
	{Name: "sym_fatigue", Coefficient: -0.021710, Mean: 0.390, Std: 0.364, Importance: 0.003},
	{Name: "sym_headaches", Coefficient: 0.011990, Mean: 0.276, Std: 0.326, Importance: 0.002},
	{Name: "sym_mood", Coefficient: 0.032299, Mean: 0.301, Std: 0.338, Importance: 0.002},
	{Name: "sym_brain_fog", Coefficient: 0.011841, Mean: 0.274, Std: 0.335, Importance: 0.002},
	{Name: "sym_weight", Coefficient: 0.025431, Mean: 0.331, Std: 0.354, Importance: 0.002},
	{Name: "sym_joints", Coefficient: 0.035481, Mean: 0.262, Std: 0.334, Importance: 0.002},
	{Name: "sym_urinary", Coefficient: 0.018303, Mean: 0.228, Std: 0.320, Importance: 0.002},
	{Name: "sym_periods", Coefficient: 0.102635, Mean: 0.263, Std: 0.335, Importance: 0.003},
	{Name: FeatureComposite, Coefficient: 0.324237, Mean: 0.391, Std: 0.157, Importance: 0.034},
}

// DefaultModel returns a copy of the frozen model.
func DefaultModel() Model {
	params := make([]Param, len(defaultParams))
	copy(params, defaultParams)
	return Model{Params: params, Intercept: defaultIntercept, Threshold: defaultThreshold}
}

// Names returns the feature names in model order.
func (m Model) Names() []string {
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Name
	}
	return out
}

// Param returns the row for name.
func (m Model) Param(name string) (Param, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (m Model) importance(name string) float64 {
	if p, ok := m.Param(name); ok && p.Importance > 0 {
		return p.Importance
	}
	return fallbackImportance
}
