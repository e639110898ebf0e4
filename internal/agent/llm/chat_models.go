package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/banxian-ai/server/internal/agent/model"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// Generator is the narrow completion surface the mood classifier, argument
// extractor and summarizer depend on: one request in, one message out.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Config holds the configuration for chat model creation.
type Config struct {
	APIKey      string
	BaseURL     string
	Dispatch    *model.DispatchModelConfig
	Aux         *model.AuxModelConfig
	ToolCatalog []*schema.ToolInfo
}

// Models holds the tool-calling dispatch model and the auxiliary model.
type Models struct {
	Dispatch          Generator
	Aux               Generator
	DispatchModelName string
	AuxModelName      string
}

// New creates both chat models with the given configuration. The dispatch
// model is returned with the tool catalog already bound.
func New(ctx context.Context, config Config) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	dispatchModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Dispatch.Model,
		Temperature: &config.Dispatch.Temperature,
		MaxTokens:   &config.Dispatch.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating dispatch model")
		return nil, fmt.Errorf("error creating dispatch model: %w", err)
	}

	var dispatch Generator = dispatchModel
	if len(config.ToolCatalog) > 0 {
		bound, err := dispatchModel.WithTools(config.ToolCatalog)
		if err != nil {
			logx.Error().Err(err).Msg("Failed to bind tools to dispatch model")
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		dispatch = bound
		logx.Debug().Int("tools", len(config.ToolCatalog)).Msg("Bound tool catalog to dispatch model")
	}

	auxModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Aux.Model,
		Temperature: &config.Aux.Temperature,
		MaxTokens:   &config.Aux.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating aux model")
		return nil, fmt.Errorf("error creating aux model: %w", err)
	}

	return &Models{
		Dispatch:          dispatch,
		Aux:               auxModel,
		DispatchModelName: config.Dispatch.Model,
		AuxModelName:      config.Aux.Model,
	}, nil
}
