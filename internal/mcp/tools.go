package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type GenerateScenariosInput struct {
	MSACode            string  `json:"msa_code" jsonschema:"Metropolitan Statistical Area code, e.g. 35620 for New York"`
	PropertyID         string  `json:"property_id,omitempty" jsonschema:"Optional property identifier recorded with the run"`
	NumScenarios       int     `json:"num_scenarios,omitempty" jsonschema:"Number of Monte-Carlo scenarios (default from configuration)"`
	HorizonYears       int     `json:"horizon_years,omitempty" jsonschema:"Forecast horizon in years (default from configuration)"`
	UseCorrelations    *bool   `json:"use_correlations,omitempty" jsonschema:"Sample parameters jointly using the economic correlation priors (default true)"`
	ConfidenceLevel    float64 `json:"confidence_level,omitempty" jsonschema:"Two-sided confidence level in (0,1) that adds band percentiles to the summary (default 0.95)"`
	IncludeScenarios   bool    `json:"include_scenarios,omitempty" jsonschema:"If true, returns every scenario trajectory. Large."`
	IncludeCalibration bool    `json:"include_calibration,omitempty" jsonschema:"If true, checks how well the draws reproduce the forecast intervals"`
	BandParameter      string  `json:"band_parameter,omitempty" jsonschema:"Parameter whose yearly P5/P50/P95 band is charted (default rent_growth)"`
}

type GetSimulationInput struct {
	SimulationID     string `json:"simulation_id" jsonschema:"Identifier returned by generate_scenarios"`
	IncludeScenarios bool   `json:"include_scenarios,omitempty" jsonschema:"If true, returns every scenario trajectory. Large."`
}

type ListSimulationsInput struct {
	MSACode string `json:"msa_code,omitempty" jsonschema:"Optional MSA filter"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of runs (default 20)"`
}

type GetCorrelationMatrixInput struct {
	MSACode      string   `json:"msa_code,omitempty" jsonschema:"Optional MSA; restricts the matrix to parameters with fresh forecasts"`
	Parameters   []string `json:"parameters,omitempty" jsonschema:"Optional explicit parameter list (canonical names)"`
	SimulationID string   `json:"simulation_id,omitempty" jsonschema:"Optional stored run whose realized correlations are returned alongside the target matrix"`
}

func schemaFor[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	return schema
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "generate_scenarios",
		Description: "Run a Monte-Carlo simulation of the 11 pro forma parameters (rates, cap rate, vacancy, growth, lending terms) for an MSA, " +
			"sampling each forecast year from the forecast's 95% interval and, by default, coupling parameters through economic correlation priors.\n\n" +
			"Returns per-parameter statistics (mean, std, min, max, percentiles), the market scenario distribution (bull, bear, neutral, growth, stress), " +
			"growth and risk score statistics and the extreme scenarios.\n\n" +
			"STRICT GUARDRAIL: YOU MUST NEVER INVENT PERCENTILES OR PROBABILITIES if this tool fails or reports missing forecasts. " +
			"If the response carries warnings (degraded forecasts or correlation fallback), YOU MUST relay them to the user.",
		InputSchema: schemaFor[GenerateScenariosInput](),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in GenerateScenariosInput) (*mcp.CallToolResult, any, error) {
		res, err := s.handleGenerateScenarios(ctx, in)
		return s.textResult("generate_scenarios", res, err)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_simulation",
		Description: "Fetch a stored simulation run by id, including its summary and correlation matrix. Use 'list_simulations' to discover ids.",
		InputSchema: schemaFor[GetSimulationInput](),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in GetSimulationInput) (*mcp.CallToolResult, any, error) {
		res, err := s.handleGetSimulation(ctx, in)
		return s.textResult("get_simulation", res, err)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_simulations",
		Description: "List recent simulation runs, newest first, optionally filtered by MSA, with their headline scores and scenario distribution.",
		InputSchema: schemaFor[ListSimulationsInput](),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ListSimulationsInput) (*mcp.CallToolResult, any, error) {
		res, err := s.handleListSimulations(ctx, in)
		return s.textResult("list_simulations", res, err)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_correlation_matrix",
		Description: "Return the positive semi-definite correlation matrix the simulation uses for a set of parameters. " +
			"If a simulation_id is given, the correlations actually realized by that run are returned as well, for comparison.",
		InputSchema: schemaFor[GetCorrelationMatrixInput](),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in GetCorrelationMatrixInput) (*mcp.CallToolResult, any, error) {
		res, err := s.handleGetCorrelationMatrix(ctx, in)
		return s.textResult("get_correlation_matrix", res, err)
	})
}
