package scoring

// Standardize returns (x - mean) / std for every feature of v, matched to the
// model parameters by name. A zero std divides by one. Features the model
// does not know pass through unchanged.
func (m Model) Standardize(v Vector) Vector {
	index := make(map[string]int, len(m.Params))
	for i, p := range m.Params {
		index[p.Name] = i
	}
	out := make(Vector, len(v))
	for i, f := range v {
		j, ok := index[f.Name]
		if !ok {
			out[i] = f
			continue
		}
		p := m.Params[j]
		std := p.Std
		if std == 0 {
			std = 1
		}
		out[i] = Value{Name: f.Name, X: (f.X - p.Mean) / std}
	}
	return out
}

// Logit returns intercept + Σ coefficient·z over a standardized vector.
func (m Model) Logit(z Vector) float64 {
	logit := m.Intercept
	for _, f := range z {
		if p, ok := m.Param(f.Name); ok {
			logit += f.X * p.Coefficient
		}
	}
	return logit
}
