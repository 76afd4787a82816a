package mcp

// ResponseEnvelope wraps every tool payload with guardrails for the calling agent.
type ResponseEnvelope struct {
	Data       any               `json:"data"`
	Guardrails *Guardrails       `json:"guardrails,omitempty"`
	Visuals    map[string]string `json:"visuals,omitempty"`
}

// Guardrails carry warnings the agent must relay and hints on how to read the data.
type Guardrails struct {
	Warnings []string `json:"warnings,omitempty"`
	Insights []string `json:"insights,omitempty"`
}

// WrapResponse builds an envelope, dropping empty guardrail and visual sections.
func WrapResponse(data any, warnings, insights []string, visuals map[string]string) ResponseEnvelope {
	env := ResponseEnvelope{Data: data}
	if len(warnings) > 0 || len(insights) > 0 {
		env.Guardrails = &Guardrails{Warnings: warnings, Insights: insights}
	}
	for k, v := range visuals {
		if v == "" {
			continue
		}
		if env.Visuals == nil {
			env.Visuals = make(map[string]string)
		}
		env.Visuals[k] = v
	}
	return env
}
